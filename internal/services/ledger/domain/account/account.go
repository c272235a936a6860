// Package account implements the event-sourced account aggregate.
//
// The aggregate is pure: commands validate against in-memory state, emit
// exactly one new event, and fold it back immediately so the post-command
// balance is observable without re-reading the stream. Persisting the
// emitted events is the caller's job, using ExpectedVersion for optimistic
// concurrency.
package account

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/centbook/centbook/internal/services/ledger/domain/event"
)

// Account folds the account stream into current state and derives new
// events from commands.
type Account struct {
	state State
	// committedVersion is the version of the last persisted event, -1 for
	// a brand-new stream. Commands folded after construction do not move
	// it; it is the expected version for the next append.
	committedVersion int64
}

// FromEvents reconstructs an account by folding its stream in ascending
// version order. The first event must be the opening event.
func FromEvents(streamID string, events []event.Event) (*Account, error) {
	if len(events) == 0 {
		return nil, ErrStreamNotFound
	}
	if events[0].Type != event.TypeAccountOpened {
		return nil, stateError("stream does not begin with an opening event", map[string]string{
			"stream_id": streamID,
			"first":     string(events[0].Type),
		})
	}

	state := State{Version: -1}
	for _, evt := range events {
		var err error
		state, err = Fold(state, evt)
		if err != nil {
			return nil, err
		}
	}
	return &Account{state: state, committedVersion: state.Version}, nil
}

// FromSnapshot reconstructs an account from a cached state plus the tail of
// the stream after the snapshot version.
func FromSnapshot(snapshot State, tail []event.Event) (*Account, error) {
	if !snapshot.Created {
		return nil, stateError("snapshot without opening event", map[string]string{
			"stream_id": snapshot.AccountID,
		})
	}
	state := snapshot
	for _, evt := range tail {
		if evt.Version != state.Version+1 {
			return nil, stateError("gap between snapshot and stream tail", map[string]string{
				"stream_id": snapshot.AccountID,
			})
		}
		var err error
		state, err = Fold(state, evt)
		if err != nil {
			return nil, err
		}
	}
	return &Account{state: state, committedVersion: state.Version}, nil
}

// Open validates an opening command and returns the new aggregate with its
// opening event. The currency is normalized to upper case and immutable
// afterwards.
func Open(accountID, name, currency string, allowNegative bool, now time.Time) (*Account, event.Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, event.Event{}, ErrNameEmpty
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !validCurrency(currency) {
		return nil, event.Event{}, ErrInvalidCurrency
	}

	acct := &Account{state: State{Version: -1}, committedVersion: -1}
	evt, err := acct.emit(accountID, event.TypeAccountOpened, OpenedPayload{
		Name:          name,
		Currency:      currency,
		AllowNegative: allowNegative,
	}, now)
	if err != nil {
		return nil, event.Event{}, err
	}
	return acct, evt, nil
}

// State returns a copy of the current folded state.
func (a *Account) State() State { return a.state }

// ID returns the account identifier.
func (a *Account) ID() string { return a.state.AccountID }

// BalanceCents returns the current balance in minor units, including any
// commands folded since the last load.
func (a *Account) BalanceCents() int64 { return a.state.BalanceCents }

// Currency returns the immutable account currency.
func (a *Account) Currency() string { return a.state.Currency }

// Archived reports the cosmetic archival flag.
func (a *Account) Archived() bool { return a.state.Archived }

// Version returns the version of the last folded event.
func (a *Account) Version() int64 { return a.state.Version }

// ExpectedVersion returns the stream version to use as the optimistic
// concurrency check when appending events emitted since the last load.
func (a *Account) ExpectedVersion() int64 { return a.committedVersion }

// RecordIncome credits the account.
func (a *Account) RecordIncome(amountCents int64, description string, now time.Time) (event.Event, error) {
	if amountCents <= 0 {
		return event.Event{}, ErrInvalidAmount
	}
	return a.emit(a.state.AccountID, event.TypeIncomeRecorded, IncomeRecordedPayload{
		AmountCents: amountCents,
		Description: strings.TrimSpace(description),
	}, now)
}

// RecordExpense debits the account, guarding the balance unless the account
// allows a negative balance.
func (a *Account) RecordExpense(amountCents int64, description string, now time.Time) (event.Event, error) {
	if err := a.checkDebit(amountCents); err != nil {
		return event.Event{}, err
	}
	return a.emit(a.state.AccountID, event.TypeExpenseRecorded, ExpenseRecordedPayload{
		AmountCents: amountCents,
		Description: strings.TrimSpace(description),
	}, now)
}

// RecordTransferSent debits the source leg of a transfer. Currency equality
// between the two accounts is the coordinating use-case's responsibility;
// each aggregate only guards its own books.
func (a *Account) RecordTransferSent(amountCents int64, transferID, destinationAccountID, description string, now time.Time) (event.Event, error) {
	if err := a.checkDebit(amountCents); err != nil {
		return event.Event{}, err
	}
	return a.emit(a.state.AccountID, event.TypeTransferSent, TransferSentPayload{
		AmountCents:          amountCents,
		TransferID:           transferID,
		DestinationAccountID: destinationAccountID,
		Description:          strings.TrimSpace(description),
	}, now)
}

// RecordTransferReceived credits the destination leg of a transfer.
func (a *Account) RecordTransferReceived(amountCents int64, transferID, sourceAccountID, description string, now time.Time) (event.Event, error) {
	if amountCents <= 0 {
		return event.Event{}, ErrInvalidAmount
	}
	return a.emit(a.state.AccountID, event.TypeTransferReceived, TransferReceivedPayload{
		AmountCents:     amountCents,
		TransferID:      transferID,
		SourceAccountID: sourceAccountID,
		Description:     strings.TrimSpace(description),
	}, now)
}

// UpdateDetails changes the account name and negative-balance policy. The
// currency is immutable: passing a different currency fails rather than
// being ignored, so callers cannot believe a change happened.
func (a *Account) UpdateDetails(name, currency string, allowNegative bool, now time.Time) (event.Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return event.Event{}, ErrNameEmpty
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency != "" && currency != a.state.Currency {
		return event.Event{}, ErrCurrencyImmutable
	}
	return a.emit(a.state.AccountID, event.TypeAccountUpdated, UpdatedPayload{
		Name:          name,
		AllowNegative: allowNegative,
	}, now)
}

// Archive flags the account as archived. The flag is cosmetic: financial
// commands keep working on archived accounts.
func (a *Account) Archive(now time.Time) (event.Event, error) {
	if a.state.Archived {
		return event.Event{}, ErrAlreadyArchived
	}
	return a.emit(a.state.AccountID, event.TypeAccountArchived, ArchivedPayload{}, now)
}

func (a *Account) checkDebit(amountCents int64) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}
	if !a.state.AllowNegative && a.state.BalanceCents-amountCents < 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// emit builds the event, folds it into the in-memory state, and returns it
// for the caller to append. The provisional version mirrors what the log
// will assign when the expected-version check holds.
func (a *Account) emit(streamID string, typ event.Type, payload any, now time.Time) (event.Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return event.Event{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}

	evt := event.Event{
		StreamType:  event.StreamTypeAccount,
		StreamID:    streamID,
		Version:     a.state.Version + 1,
		Type:        typ,
		PayloadJSON: data,
		OccurredAt:  now.UTC(),
	}

	folded, err := Fold(a.state, evt)
	if err != nil {
		return event.Event{}, err
	}
	a.state = folded
	return evt, nil
}

func validCurrency(currency string) bool {
	if len(currency) != 3 {
		return false
	}
	for _, r := range currency {
		if !unicode.IsUpper(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
