package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/centbook/centbook/internal/services/ledger/domain/event"
)

// UpdateAccountInput carries the update-account command parameters.
// Currency must match the account's currency; it cannot change after open.
type UpdateAccountInput struct {
	UserID         string
	IdempotencyKey string
	AccountID      string
	Name           string
	Currency       string
	AllowNegative  bool
}

// UpdateAccount changes an account's name and overdraft policy.
func (s *Service) UpdateAccount(ctx context.Context, in UpdateAccountInput) (_ AccountView, err error) {
	start := time.Now()
	defer func() { s.observe("update_account", start, err) }()

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

	updated, err := acct.UpdateDetails(in.Name, in.Currency, in.AllowNegative, s.now())
	if err != nil {
		return AccountView{}, err
	}

	meta := event.Metadata{UserID: in.UserID, CorrelationID: res.CorrelationID}
	committed, err := s.store.Append(ctx, s.appendFor(acct, meta, updated))
	if err != nil {
		return AccountView{}, err
	}
	s.finishAppend(ctx, acct, len(committed))

	s.logger.InfoContext(ctx, "account updated", slog.String("account_id", acct.ID()))
	return viewFromState(acct.State()), nil
}

// ArchiveAccountInput carries the archive-account command parameters.
type ArchiveAccountInput struct {
	UserID         string
	IdempotencyKey string
	AccountID      string
}

// ArchiveAccount marks an account archived. The stream stays open: archived
// accounts still accept movements and transfers.
func (s *Service) ArchiveAccount(ctx context.Context, in ArchiveAccountInput) (_ AccountView, err error) {
	start := time.Now()
	defer func() { s.observe("archive_account", start, err) }()

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

	archived, err := acct.Archive(s.now())
	if err != nil {
		return AccountView{}, err
	}

	meta := event.Metadata{UserID: in.UserID, CorrelationID: res.CorrelationID}
	committed, err := s.store.Append(ctx, s.appendFor(acct, meta, archived))
	if err != nil {
		return AccountView{}, err
	}
	s.finishAppend(ctx, acct, len(committed))

	s.logger.InfoContext(ctx, "account archived", slog.String("account_id", acct.ID()))
	return viewFromState(acct.State()), nil
}
