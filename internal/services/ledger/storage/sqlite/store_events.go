package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/centbook/centbook/internal/services/ledger/domain/event"
	"github.com/centbook/centbook/internal/services/ledger/storage"
)

const eventColumns = "global_seq, event_id, stream_type, stream_id, version, event_type, payload, user_id, correlation_id, causation_id, occurred_at"

// Append atomically appends one stream's events, runs the projector over
// them, and advances the projection watermark, all in one transaction.
func (s *Store) Append(ctx context.Context, req storage.AppendRequest) ([]event.Event, error) {
	groups, err := s.AppendAtomic(ctx, []storage.AppendRequest{req})
	if err != nil {
		return nil, err
	}
	return groups[0], nil
}

// AppendAtomic appends to several streams in one transaction, returning
// the committed events grouped per request. A version conflict on any
// stream rolls back every request.
func (s *Store) AppendAtomic(ctx context.Context, reqs []storage.AppendRequest) ([][]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if s.registry == nil {
		return nil, fmt.Errorf("event registry is required")
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("at least one append request is required")
	}

	groups := make([][]event.Event, 0, len(reqs))
	err := s.inTx(ctx, func(txStore *Store) error {
		var committed []event.Event
		for _, req := range reqs {
			appended, err := txStore.appendStream(ctx, req)
			if err != nil {
				return err
			}
			groups = append(groups, appended)
			committed = append(committed, appended...)
		}
		if txStore.projector != nil {
			for _, evt := range committed {
				if err := txStore.projector.Apply(ctx, txStore, evt); err != nil {
					return fmt.Errorf("apply projection for %s: %w", evt.Type, err)
				}
			}
			if len(committed) > 0 {
				last := committed[len(committed)-1].GlobalSeq
				if err := txStore.saveWatermark(ctx, last); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// appendStream verifies the expected version and inserts the request's
// events. It runs on a transaction clone.
func (s *Store) appendStream(ctx context.Context, req storage.AppendRequest) ([]event.Event, error) {
	if len(req.Events) == 0 {
		return nil, fmt.Errorf("append request for %s/%s has no events", req.StreamType, req.StreamID)
	}

	actual, err := s.CurrentVersion(ctx, req.StreamType, req.StreamID)
	if err != nil {
		return nil, err
	}
	if actual != req.ExpectedVersion {
		return nil, &storage.ConflictError{
			StreamType: req.StreamType,
			StreamID:   req.StreamID,
			Expected:   req.ExpectedVersion,
			Actual:     actual,
		}
	}

	appended := make([]event.Event, 0, len(req.Events))
	for i, evt := range req.Events {
		if evt.StreamType != req.StreamType || evt.StreamID != req.StreamID {
			return nil, fmt.Errorf("event %s targets %s/%s, request targets %s/%s",
				evt.Type, evt.StreamType, evt.StreamID, req.StreamType, req.StreamID)
		}
		if evt.ID == "" {
			return nil, fmt.Errorf("event id is required")
		}

		validated, err := s.registry.ValidateForAppend(evt)
		if err != nil {
			return nil, err
		}
		evt = validated

		evt.Version = req.ExpectedVersion + 1 + int64(i)
		if evt.OccurredAt.IsZero() {
			evt.OccurredAt = time.Now().UTC()
		}
		evt.OccurredAt = evt.OccurredAt.UTC().Truncate(time.Millisecond)

		res, err := s.db.ExecContext(ctx, `
			INSERT INTO events (event_id, stream_type, stream_id, version, event_type, payload, user_id, correlation_id, causation_id, occurred_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			evt.ID, string(evt.StreamType), evt.StreamID, evt.Version, string(evt.Type),
			string(evt.PayloadJSON), evt.Metadata.UserID, evt.Metadata.CorrelationID,
			evt.Metadata.CausationID, toMillis(evt.OccurredAt),
		)
		if err != nil {
			// A concurrent writer raced past the version check.
			if isConstraintError(err) {
				return nil, &storage.ConflictError{
					StreamType: req.StreamType,
					StreamID:   req.StreamID,
					Expected:   req.ExpectedVersion,
					Actual:     evt.Version,
				}
			}
			return nil, fmt.Errorf("insert event: %w", err)
		}

		seq, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("read global seq: %w", err)
		}
		evt.GlobalSeq = seq
		appended = append(appended, evt)
	}
	return appended, nil
}

// LoadStream returns a stream's events ordered by version ascending.
func (s *Store) LoadStream(ctx context.Context, streamType event.StreamType, streamID string) ([]event.Event, error) {
	return s.LoadStreamFrom(ctx, streamType, streamID, 0)
}

// LoadStreamFrom returns a stream's events with version >= fromVersion.
func (s *Store) LoadStreamFrom(ctx context.Context, streamType event.StreamType, streamID string, fromVersion int64) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+eventColumns+` FROM events
		WHERE stream_type = ? AND stream_id = ? AND version >= ?
		ORDER BY version ASC`,
		string(streamType), streamID, fromVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("query stream %s/%s: %w", streamType, streamID, err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// CurrentVersion returns the highest committed version for a stream, or -1
// when the stream has no events.
func (s *Store) CurrentVersion(ctx context.Context, streamType event.StreamType, streamID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var version int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), -1) FROM events WHERE stream_type = ? AND stream_id = ?",
		string(streamType), streamID,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("query stream version %s/%s: %w", streamType, streamID, err)
	}
	return version, nil
}

// ListEvents returns events across all streams ordered by global sequence
// ascending, starting after afterSeq.
func (s *Store) ListEvents(ctx context.Context, afterSeq int64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := "SELECT " + eventColumns + " FROM events WHERE global_seq > ? ORDER BY global_seq ASC"
	args := []any{afterSeq}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]event.Event, error) {
	var events []event.Event
	for rows.Next() {
		var (
			evt        event.Event
			streamType string
			eventType  string
			payload    string
			occurredAt int64
		)
		if err := rows.Scan(&evt.GlobalSeq, &evt.ID, &streamType, &evt.StreamID, &evt.Version,
			&eventType, &payload, &evt.Metadata.UserID, &evt.Metadata.CorrelationID,
			&evt.Metadata.CausationID, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.StreamType = event.StreamType(streamType)
		evt.Type = event.Type(eventType)
		evt.PayloadJSON = []byte(payload)
		evt.OccurredAt = fromMillis(occurredAt)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
