package account

import (
	"encoding/json"

	"github.com/centbook/centbook/internal/services/ledger/domain/event"
)

// State captures the replayable state of one account stream.
type State struct {
	Created       bool   `json:"created"`
	AccountID     string `json:"account_id"`
	Name          string `json:"name"`
	Currency      string `json:"currency"`
	AllowNegative bool   `json:"allow_negative"`
	BalanceCents  int64  `json:"balance_cents"`
	Archived      bool   `json:"archived"`
	// Version is the stream version of the last folded event; -1 for an
	// empty stream.
	Version int64 `json:"version"`
}

// Fold applies a single event to account state.
//
// The event set is closed: an unrecognized type means the log carries
// content this build cannot interpret, which is reported as a state error
// rather than silently skipped.
func Fold(state State, evt event.Event) (State, error) {
	switch evt.Type {
	case event.TypeAccountOpened:
		if state.Created {
			return state, stateError("duplicate opening event", foldMeta(evt))
		}
		var payload OpenedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, stateError("malformed opened payload", foldMeta(evt))
		}
		state.Created = true
		state.AccountID = evt.StreamID
		state.Name = payload.Name
		state.Currency = payload.Currency
		state.AllowNegative = payload.AllowNegative
		state.BalanceCents = 0

	case event.TypeAccountUpdated:
		if !state.Created {
			return state, stateError("update before opening event", foldMeta(evt))
		}
		var payload UpdatedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, stateError("malformed updated payload", foldMeta(evt))
		}
		state.Name = payload.Name
		state.AllowNegative = payload.AllowNegative

	case event.TypeIncomeRecorded:
		var payload IncomeRecordedPayload
		if err := foldFinancial(state, evt, &payload); err != nil {
			return state, err
		}
		state.BalanceCents += payload.AmountCents

	case event.TypeExpenseRecorded:
		var payload ExpenseRecordedPayload
		if err := foldFinancial(state, evt, &payload); err != nil {
			return state, err
		}
		state.BalanceCents -= payload.AmountCents

	case event.TypeTransferSent:
		var payload TransferSentPayload
		if err := foldFinancial(state, evt, &payload); err != nil {
			return state, err
		}
		state.BalanceCents -= payload.AmountCents

	case event.TypeTransferReceived:
		var payload TransferReceivedPayload
		if err := foldFinancial(state, evt, &payload); err != nil {
			return state, err
		}
		state.BalanceCents += payload.AmountCents

	case event.TypeAccountArchived:
		if !state.Created {
			return state, stateError("archive before opening event", foldMeta(evt))
		}
		state.Archived = true

	default:
		return state, stateError("unhandled event type", foldMeta(evt))
	}

	state.Version = evt.Version
	return state, nil
}

func foldFinancial(state State, evt event.Event, payload any) error {
	if !state.Created {
		return stateError("financial event before opening event", foldMeta(evt))
	}
	if err := json.Unmarshal(evt.PayloadJSON, payload); err != nil {
		return stateError("malformed financial payload", foldMeta(evt))
	}
	return nil
}

func foldMeta(evt event.Event) map[string]string {
	return map[string]string{
		"stream_id": evt.StreamID,
		"type":      string(evt.Type),
	}
}
