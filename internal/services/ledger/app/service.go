// Package app implements ledger use cases over the journal, projection,
// and dedup stores. Commands load an aggregate, apply one decision, and
// append the emitted events with optimistic concurrency.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/centbook/centbook/internal/platform/id"
	"github.com/centbook/centbook/internal/services/ledger/domain/account"
	"github.com/centbook/centbook/internal/services/ledger/domain/event"
	"github.com/centbook/centbook/internal/services/ledger/money"
	"github.com/centbook/centbook/internal/services/ledger/storage"
	"github.com/centbook/centbook/pkg/metrics"
)

// Store is the persistence surface the service drives. The SQLite store
// satisfies all of it.
type Store interface {
	storage.EventLog
	storage.Projection
	storage.CommandDedup
	storage.ProjectionWatermark
}

// Service executes ledger commands and queries.
type Service struct {
	store   Store
	cache   storage.SnapshotCache
	metrics *metrics.Collector
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithSnapshotCache enables aggregate snapshot reads and writes.
func WithSnapshotCache(cache storage.SnapshotCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithMetrics wires command instrumentation.
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Service) { s.metrics = collector }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source. Tests use this for determinism.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the ID source. Tests use this for determinism.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewService creates a Service over the provided store.
func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	s := &Service{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
		newID:  id.NewID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// AccountView is the command and query result shape for one account.
type AccountView struct {
	AccountID     string
	Name          string
	Currency      string
	AllowNegative bool
	BalanceCents  int64
	Balance       string
	Archived      bool
	Version       int64
}

func viewFromState(state account.State) AccountView {
	return AccountView{
		AccountID:     state.AccountID,
		Name:          state.Name,
		Currency:      state.Currency,
		AllowNegative: state.AllowNegative,
		BalanceCents:  state.BalanceCents,
		Balance:       money.FormatAmount(state.BalanceCents),
		Archived:      state.Archived,
		Version:       state.Version,
	}
}

func viewFromRecord(rec storage.AccountRecord) AccountView {
	return AccountView{
		AccountID:     rec.AccountID,
		Name:          rec.Name,
		Currency:      rec.Currency,
		AllowNegative: rec.AllowNegative,
		BalanceCents:  rec.BalanceCents,
		Balance:       money.FormatAmount(rec.BalanceCents),
		Archived:      rec.Archived,
		Version:       rec.Version,
	}
}

// beginCommand reserves the idempotency key and returns the correlation ID
// for this execution. An empty key skips deduplication.
func (s *Service) beginCommand(ctx context.Context, userID, idempotencyKey string) (storage.BeginCommandResult, error) {
	correlationID := s.newID()
	if idempotencyKey == "" {
		return storage.BeginCommandResult{CorrelationID: correlationID}, nil
	}
	res, err := s.store.BeginCommand(ctx, userID, idempotencyKey, correlationID)
	if err != nil {
		return storage.BeginCommandResult{}, err
	}
	if res.IsDuplicate {
		s.metrics.RecordDuplicate()
	}
	return res, nil
}

// loadAccount rehydrates an account aggregate, replaying from a snapshot
// when the cache has one. Snapshot failures fall back to full replay.
func (s *Service) loadAccount(ctx context.Context, accountID string) (*account.Account, error) {
	if s.cache != nil {
		snap, found, err := s.cache.GetSnapshot(accountID)
		if err == nil && found {
			tail, err := s.store.LoadStreamFrom(ctx, event.StreamTypeAccount, accountID, snap.State.Version+1)
			if err == nil {
				acct, err := account.FromSnapshot(snap.State, tail)
				if err == nil {
					return acct, nil
				}
			}
			s.logger.WarnContext(ctx, "dropping unusable snapshot", slog.String("account_id", accountID))
			_ = s.cache.DeleteSnapshot(accountID)
		}
	}

	events, err := s.store.LoadStream(ctx, event.StreamTypeAccount, accountID)
	if err != nil {
		return nil, err
	}
	return account.FromEvents(accountID, events)
}

// appendFor stamps IDs and metadata on the aggregate's emitted events and
// builds the append request at the version the aggregate was loaded at.
func (s *Service) appendFor(acct *account.Account, meta event.Metadata, events ...event.Event) storage.AppendRequest {
	for i := range events {
		events[i].ID = s.newID()
		events[i].Metadata = meta
	}
	return storage.AppendRequest{
		StreamType:      event.StreamTypeAccount,
		StreamID:        acct.ID(),
		ExpectedVersion: acct.ExpectedVersion(),
		Events:          events,
	}
}

// finishAppend records metrics and refreshes the snapshot after a commit.
func (s *Service) finishAppend(ctx context.Context, acct *account.Account, committed int) {
	s.metrics.RecordAppended(committed)
	state := acct.State()
	s.metrics.UpdateAccountBalance(state.AccountID, state.Currency, state.BalanceCents)

	if s.cache != nil {
		err := s.cache.PutSnapshot(storage.Snapshot{
			StreamID: state.AccountID,
			State:    state,
			TakenAt:  s.now().UTC(),
		})
		if err != nil {
			s.logger.WarnContext(ctx, "snapshot write failed",
				slog.String("account_id", state.AccountID), slog.String("error", err.Error()))
		}
	}
}

func (s *Service) observe(command string, start time.Time, err error) {
	s.metrics.RecordCommand(command, time.Since(start), err)
	if err != nil {
		var conflict *storage.ConflictError
		if errors.As(err, &conflict) {
			s.metrics.RecordConflict()
		}
	}
}
