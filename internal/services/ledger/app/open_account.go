package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/centbook/centbook/internal/services/ledger/domain/account"
	"github.com/centbook/centbook/internal/services/ledger/domain/event"
)

// OpenAccountInput carries the open-account command parameters.
type OpenAccountInput struct {
	UserID         string
	IdempotencyKey string
	Name           string
	Currency       string
	AllowNegative  bool
}

// OpenAccount opens a new account stream. The account ID is the command's
// correlation ID, so a replayed idempotency key resolves to the same
// account without appending anything.
func (s *Service) OpenAccount(ctx context.Context, in OpenAccountInput) (_ AccountView, err error) {
	start := time.Now()
	defer func() { s.observe("open_account", start, err) }()

	if in.UserID == "" {
		return AccountView{}, fmt.Errorf("user id is required")
	}

	res, err := s.beginCommand(ctx, in.UserID, in.IdempotencyKey)
	if err != nil {
		return AccountView{}, err
	}
	if res.IsDuplicate {
		rec, err := s.store.GetAccount(ctx, res.CorrelationID)
		if err != nil {
			return AccountView{}, fmt.Errorf("load account for replayed command: %w", err)
		}
		return viewFromRecord(rec), nil
	}

	acct, opened, err := account.Open(res.CorrelationID, in.Name, in.Currency, in.AllowNegative, s.now())
	if err != nil {
		return AccountView{}, err
	}

	meta := event.Metadata{UserID: in.UserID, CorrelationID: res.CorrelationID}
	committed, err := s.store.Append(ctx, s.appendFor(acct, meta, opened))
	if err != nil {
		return AccountView{}, err
	}
	s.finishAppend(ctx, acct, len(committed))

	s.logger.InfoContext(ctx, "account opened",
		slog.String("account_id", acct.ID()),
		slog.String("currency", acct.Currency()))
	return viewFromState(acct.State()), nil
}
