package projection

import (
	"context"
	"fmt"

	"github.com/centbook/centbook/internal/services/ledger/storage"
)

const defaultRebuildBatch = 200

// Rebuilder replays the full journal into a fresh projection. The whole
// rebuild runs in one transaction, so readers never observe a half-built
// projection.
type Rebuilder struct {
	applier *Applier
	batch   int
}

// NewRebuilder creates a Rebuilder with the default batch size.
func NewRebuilder(applier *Applier) *Rebuilder {
	return &Rebuilder{applier: applier, batch: defaultRebuildBatch}
}

// Rebuild truncates the projection, replays every event in global sequence
// order, and sets the watermark to the journal head. It returns the number
// of events applied.
func (r *Rebuilder) Rebuild(ctx context.Context, store storage.Rebuildable) (int64, error) {
	if r == nil || r.applier == nil {
		return 0, fmt.Errorf("rebuilder is not configured")
	}

	var applied int64
	err := store.WithRebuildTx(ctx, func(tx storage.RebuildTx) error {
		if err := tx.TruncateProjections(ctx); err != nil {
			return err
		}

		afterSeq := int64(-1)
		head := int64(-1)
		for {
			events, err := tx.ListEvents(ctx, afterSeq, r.batch)
			if err != nil {
				return fmt.Errorf("list events after %d: %w", afterSeq, err)
			}
			if len(events) == 0 {
				break
			}
			for _, evt := range events {
				if err := r.applier.Apply(ctx, tx, evt); err != nil {
					return fmt.Errorf("apply %s at seq %d: %w", evt.Type, evt.GlobalSeq, err)
				}
				applied++
				head = evt.GlobalSeq
				afterSeq = evt.GlobalSeq
			}
		}

		return tx.SetWatermark(ctx, head)
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}
