package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/centbook/centbook/internal/services/ledger/domain/account"
	"github.com/centbook/centbook/internal/services/ledger/domain/event"
)

// RecordMovementInput carries the parameters shared by income and expense
// commands.
type RecordMovementInput struct {
	UserID         string
	IdempotencyKey string
	AccountID      string
	AmountCents    int64
	Description    string
}

// RecordIncome appends an income event to the account stream.
func (s *Service) RecordIncome(ctx context.Context, in RecordMovementInput) (AccountView, error) {
	return s.recordMovement(ctx, "record_income", in,
		func(acct *account.Account, now time.Time) (event.Event, error) {
			return acct.RecordIncome(in.AmountCents, in.Description, now)
		})
}

// RecordExpense appends an expense event to the account stream.
func (s *Service) RecordExpense(ctx context.Context, in RecordMovementInput) (AccountView, error) {
	return s.recordMovement(ctx, "record_expense", in,
		func(acct *account.Account, now time.Time) (event.Event, error) {
			return acct.RecordExpense(in.AmountCents, in.Description, now)
		})
}

func (s *Service) recordMovement(ctx context.Context, command string, in RecordMovementInput,
	decide func(acct *account.Account, now time.Time) (event.Event, error)) (_ AccountView, err error) {
	start := time.Now()
	defer func() { s.observe(command, start, err) }()

	if in.UserID == "" {
		return AccountView{}, fmt.Errorf("user id is required")
	}
	if in.AccountID == "" {
		return AccountView{}, fmt.Errorf("account id is required")
	}

	res, err := s.beginCommand(ctx, in.UserID, in.IdempotencyKey)
	if err != nil {
		return AccountView{}, err
	}
	if res.IsDuplicate {
		return s.currentView(ctx, in.AccountID)
	}

	acct, err := s.loadAccount(ctx, in.AccountID)
	if err != nil {
		return AccountView{}, err
	}

	evt, err := decide(acct, s.now())
	if err != nil {
		return AccountView{}, err
	}

	meta := event.Metadata{UserID: in.UserID, CorrelationID: res.CorrelationID}
	committed, err := s.store.Append(ctx, s.appendFor(acct, meta, evt))
	if err != nil {
		return AccountView{}, err
	}
	s.finishAppend(ctx, acct, len(committed))

	s.logger.InfoContext(ctx, "movement recorded",
		slog.String("command", command),
		slog.String("account_id", acct.ID()),
		slog.Int64("amount_cents", in.AmountCents))
	return viewFromState(acct.State()), nil
}

// currentView resolves the projected state for a replayed command.
func (s *Service) currentView(ctx context.Context, accountID string) (AccountView, error) {
	rec, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return AccountView{}, fmt.Errorf("load account for replayed command: %w", err)
	}
	return viewFromRecord(rec), nil
}
