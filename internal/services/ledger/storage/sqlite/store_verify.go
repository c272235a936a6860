package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/centbook/centbook/internal/services/ledger/domain/account"
	"github.com/centbook/centbook/internal/services/ledger/domain/event"
)

// VerifyProjections replays the full journal and cross-checks the projected
// state against it: contiguous per-stream versions, account rows matching
// the folded state, a movement row per financial event, and a watermark at
// the journal head.
func (s *Store) VerifyProjections(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.registry == nil {
		return fmt.Errorf("event registry is required")
	}

	states := make(map[string]account.State)
	var lastSeq int64 = -1
	afterSeq := int64(-1)
	for {
		events, err := s.ListEvents(ctx, afterSeq, 200)
		if err != nil {
			return fmt.Errorf("list events after %d: %w", afterSeq, err)
		}
		if len(events) == 0 {
			break
		}
		for _, evt := range events {
			state, ok := states[evt.StreamID]
			if !ok {
				state = account.State{Version: -1}
			}
			if evt.Version != state.Version+1 {
				return fmt.Errorf("version gap on %s/%s: expected %d, got %d",
					evt.StreamType, evt.StreamID, state.Version+1, evt.Version)
			}

			folded, err := account.Fold(state, evt)
			if err != nil {
				return fmt.Errorf("fold %s at seq %d: %w", evt.Type, evt.GlobalSeq, err)
			}
			states[evt.StreamID] = folded

			def, ok := s.registry.Definition(evt.Type)
			if ok && def.Financial {
				if err := s.verifyMovementRow(ctx, evt); err != nil {
					return err
				}
			}

			lastSeq = evt.GlobalSeq
			afterSeq = evt.GlobalSeq
		}
	}

	for streamID, state := range states {
		rec, err := s.GetAccount(ctx, streamID)
		if err != nil {
			return fmt.Errorf("load projected account %s: %w", streamID, err)
		}
		if rec.BalanceCents != state.BalanceCents {
			return fmt.Errorf("balance mismatch on %s: projected %d, replayed %d",
				streamID, rec.BalanceCents, state.BalanceCents)
		}
		if rec.Version != state.Version {
			return fmt.Errorf("version mismatch on %s: projected %d, replayed %d",
				streamID, rec.Version, state.Version)
		}
		if rec.Archived != state.Archived || rec.Name != state.Name || rec.Currency != state.Currency {
			return fmt.Errorf("account detail mismatch on %s", streamID)
		}
	}

	watermark, err := s.Watermark(ctx)
	if err != nil {
		return err
	}
	if watermark != lastSeq {
		return fmt.Errorf("projection watermark %d lags journal head %d", watermark, lastSeq)
	}
	return nil
}

func (s *Store) verifyMovementRow(ctx context.Context, evt event.Event) error {
	var signed int64
	err := s.db.QueryRowContext(ctx,
		"SELECT signed_cents FROM movements WHERE movement_id = ?", evt.ID,
	).Scan(&signed)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("missing movement for %s event %s", evt.Type, evt.ID)
	}
	if err != nil {
		return fmt.Errorf("query movement %s: %w", evt.ID, err)
	}
	if signed == 0 {
		return fmt.Errorf("zero-amount movement for %s event %s", evt.Type, evt.ID)
	}
	return nil
}
