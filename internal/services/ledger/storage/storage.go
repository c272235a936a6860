// Package storage defines persistence contracts for the ledger service.
package storage

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/centbook/centbook/internal/platform/errors"
	"github.com/centbook/centbook/internal/services/ledger/domain/account"
	"github.com/centbook/centbook/internal/services/ledger/domain/event"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such entity"
// states and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ConflictError reports an optimistic concurrency failure on append: the
// stream moved past the version the caller loaded. Callers reload the
// aggregate and retry the command.
type ConflictError struct {
	StreamType event.StreamType
	StreamID   string
	Expected   int64
	Actual     int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict on %s/%s: expected %d, actual %d",
		e.StreamType, e.StreamID, e.Expected, e.Actual)
}

// Is lets errors.Is match a ConflictError against the platform conflict code.
func (e *ConflictError) Is(target error) bool {
	appErr, ok := target.(*apperrors.Error)
	return ok && appErr.Code == apperrors.CodeConcurrencyConflict
}

// AppendRequest carries one stream's pending events plus the version the
// caller observed when it loaded the stream. ExpectedVersion is -1 for a
// stream that must not exist yet.
type AppendRequest struct {
	StreamType      event.StreamType
	StreamID        string
	ExpectedVersion int64
	Events          []event.Event
}

// EventLog owns the append-only event journal that drives replay and
// command rehydration; this is the source of truth for all ledger state.
type EventLog interface {
	// Append atomically appends the request's events to a single stream,
	// failing with *ConflictError when ExpectedVersion no longer matches.
	// Returned events carry assigned versions and global sequence numbers.
	Append(ctx context.Context, req AppendRequest) ([]event.Event, error)
	// AppendAtomic appends to several streams in one transaction: either
	// every request commits or none do. A conflict on any stream aborts
	// all. Committed events come back grouped per request, in order.
	AppendAtomic(ctx context.Context, reqs []AppendRequest) ([][]event.Event, error)
	// LoadStream returns a stream's events ordered by version ascending.
	// An unknown stream returns an empty slice, not an error.
	LoadStream(ctx context.Context, streamType event.StreamType, streamID string) ([]event.Event, error)
	// LoadStreamFrom returns a stream's events with version >= fromVersion.
	LoadStreamFrom(ctx context.Context, streamType event.StreamType, streamID string, fromVersion int64) ([]event.Event, error)
	// CurrentVersion returns the highest committed version for a stream,
	// or -1 when the stream has no events.
	CurrentVersion(ctx context.Context, streamType event.StreamType, streamID string) (int64, error)
	// ListEvents returns events across all streams ordered by global
	// sequence ascending, starting after afterSeq. A limit of 0 means
	// no limit.
	ListEvents(ctx context.Context, afterSeq int64, limit int) ([]event.Event, error)
}

// AccountRecord captures the projected per-account read state that APIs list
// and display without replaying streams.
type AccountRecord struct {
	AccountID     string
	UserID        string
	Name          string
	Currency      string
	AllowNegative bool
	BalanceCents  int64
	Archived      bool
	Version       int64
	OpenedAt      time.Time
	UpdatedAt     time.Time
}

// MovementKind classifies a movement row by the event that produced it.
type MovementKind string

const (
	MovementIncome      MovementKind = "income"
	MovementExpense     MovementKind = "expense"
	MovementTransferOut MovementKind = "transfer_out"
	MovementTransferIn  MovementKind = "transfer_in"
)

// MovementRecord is one projected money movement in an account's history.
// SignedCents is negative for expenses and outgoing transfers.
type MovementRecord struct {
	MovementID  string
	AccountID   string
	UserID      string
	Kind        MovementKind
	SignedCents int64
	TransferID  string
	Description string
	GlobalSeq   int64
	OccurredAt  time.Time
}

// Projection owns the derived read state kept in lockstep with the log.
type Projection interface {
	GetAccount(ctx context.Context, accountID string) (AccountRecord, error)
	PutAccount(ctx context.Context, rec AccountRecord) error
	ListAccountsByUser(ctx context.Context, userID string) ([]AccountRecord, error)
	InsertMovement(ctx context.Context, rec MovementRecord) error
	// ListMovements returns an account's movements ordered by global
	// sequence descending. A limit of 0 means no limit.
	ListMovements(ctx context.Context, accountID string, limit int) ([]MovementRecord, error)
}

// Projector applies one committed event to the projection. The store calls
// it inside the append transaction so a projection failure rolls back the
// append itself.
type Projector interface {
	Apply(ctx context.Context, proj Projection, evt event.Event) error
}

// BeginCommandResult reports the outcome of the atomic dedup reservation.
// CorrelationID is the winner's ID whether or not this caller won.
type BeginCommandResult struct {
	CorrelationID string
	IsDuplicate   bool
}

// CommandDedup reserves idempotency keys before command execution. The
// reservation is a single atomic conditional write: exactly one caller per
// (userID, idempotencyKey) observes IsDuplicate=false.
type CommandDedup interface {
	BeginCommand(ctx context.Context, userID, idempotencyKey, correlationID string) (BeginCommandResult, error)
	GetCorrelationID(ctx context.Context, userID, idempotencyKey string) (string, error)
}

// ProjectionWatermark tracks the global sequence the projection has applied
// through, used by verify and rebuild tooling.
type ProjectionWatermark interface {
	Watermark(ctx context.Context) (int64, error)
}

// Snapshot is a cached fold of one account stream up to State.Version.
type Snapshot struct {
	StreamID string
	State    account.State
	TakenAt  time.Time
}

// SnapshotCache stores aggregate snapshots so loads replay only the stream
// tail. The cache is advisory: a miss or an error falls back to full replay.
type SnapshotCache interface {
	GetSnapshot(streamID string) (Snapshot, bool, error)
	PutSnapshot(snap Snapshot) error
	DeleteSnapshot(streamID string) error
	Close() error
}

// RebuildTx exposes the projection and log views a rebuild needs inside one
// transaction.
type RebuildTx interface {
	EventLog
	Projection
	// TruncateProjections clears all projected state and resets the
	// watermark to -1.
	TruncateProjections(ctx context.Context) error
	// SetWatermark records the global sequence the projection has been
	// rebuilt through.
	SetWatermark(ctx context.Context, seq int64) error
}

// Rebuildable is implemented by stores that can replay the full log into a
// fresh projection within a single transaction.
type Rebuildable interface {
	WithRebuildTx(ctx context.Context, fn func(tx RebuildTx) error) error
}
