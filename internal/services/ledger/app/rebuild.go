package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/centbook/centbook/internal/services/ledger/projection"
	"github.com/centbook/centbook/internal/services/ledger/storage"
)

// RebuildProjections replays the full journal into a fresh projection. The
// snapshot cache is left alone: snapshots derive from the journal, not the
// projection.
func (s *Service) RebuildProjections(ctx context.Context) (int64, error) {
	rebuildable, ok := s.store.(storage.Rebuildable)
	if !ok {
		return 0, fmt.Errorf("store does not support projection rebuilds")
	}

	rebuilder := projection.NewRebuilder(projection.NewApplier())
	applied, err := rebuilder.Rebuild(ctx, rebuildable)
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "projections rebuilt", slog.Int64("events_applied", applied))
	return applied, nil
}
