// Package event defines the immutable event envelope shared by the ledger's
// write and read sides.
//
// Events are created once by the event log and never mutated afterwards.
// Version and GlobalSeq are assigned at append time: Version is the
// zero-based position within the stream, GlobalSeq a strictly increasing
// counter across all streams that defines total replay order.
package event

import "time"

// StreamType groups streams by aggregate kind.
type StreamType string

// StreamTypeAccount is the stream type for account aggregates.
const StreamTypeAccount StreamType = "account"

// Type identifies one event shape in the closed set of ledger events.
type Type string

const (
	// TypeAccountOpened starts an account stream.
	TypeAccountOpened Type = "account.opened"
	// TypeAccountUpdated changes account details (never the currency).
	TypeAccountUpdated Type = "account.updated"
	// TypeIncomeRecorded credits the account.
	TypeIncomeRecorded Type = "account.income_recorded"
	// TypeExpenseRecorded debits the account.
	TypeExpenseRecorded Type = "account.expense_recorded"
	// TypeTransferSent debits the source leg of a transfer.
	TypeTransferSent Type = "account.transfer_sent"
	// TypeTransferReceived credits the destination leg of a transfer.
	TypeTransferReceived Type = "account.transfer_received"
	// TypeAccountArchived flags the account as archived. The flag is
	// cosmetic: archived accounts keep accepting financial events.
	TypeAccountArchived Type = "account.archived"
)

// Metadata carries command provenance stamped onto appended events.
type Metadata struct {
	UserID        string
	CorrelationID string
	CausationID   string
}

// Event is one entry in the append-only ledger log.
type Event struct {
	// ID is a unique identifier assigned at append time.
	ID string
	// StreamType and StreamID name the stream the event belongs to.
	StreamType StreamType
	StreamID   string
	// Version is the event's zero-based position within its stream.
	Version int64
	// GlobalSeq orders all events across streams; it reflects commit
	// order, not OccurredAt.
	GlobalSeq int64
	// Type tags the payload variant.
	Type Type
	// PayloadJSON holds the serialized payload for Type.
	PayloadJSON []byte
	// Metadata records which command produced the event.
	Metadata Metadata
	// OccurredAt is the UTC commit timestamp, millisecond precision.
	OccurredAt time.Time
}
