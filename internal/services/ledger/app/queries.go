package app

import (
	"context"
	"time"

	"github.com/centbook/centbook/internal/services/ledger/money"
	"github.com/centbook/centbook/internal/services/ledger/storage"
)

// MovementView is one formatted movement row.
type MovementView struct {
	MovementID  string
	AccountID   string
	Kind        storage.MovementKind
	AmountCents int64
	Amount      string
	TransferID  string
	Description string
	GlobalSeq   int64
	OccurredAt  time.Time
}

// GetAccount returns the projected view of one account.
func (s *Service) GetAccount(ctx context.Context, accountID string) (AccountView, error) {
	rec, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return AccountView{}, err
	}
	return viewFromRecord(rec), nil
}

// ListAccounts returns a user's projected accounts.
func (s *Service) ListAccounts(ctx context.Context, userID string) ([]AccountView, error) {
	records, err := s.store.ListAccountsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]AccountView, 0, len(records))
	for _, rec := range records {
		views = append(views, viewFromRecord(rec))
	}
	return views, nil
}

// ListMovements returns an account's movement history, newest first.
func (s *Service) ListMovements(ctx context.Context, accountID string, limit int) ([]MovementView, error) {
	records, err := s.store.ListMovements(ctx, accountID, limit)
	if err != nil {
		return nil, err
	}
	views := make([]MovementView, 0, len(records))
	for _, rec := range records {
		views = append(views, MovementView{
			MovementID:  rec.MovementID,
			AccountID:   rec.AccountID,
			Kind:        rec.Kind,
			AmountCents: rec.SignedCents,
			Amount:      money.FormatAmount(rec.SignedCents),
			TransferID:  rec.TransferID,
			Description: rec.Description,
			GlobalSeq:   rec.GlobalSeq,
			OccurredAt:  rec.OccurredAt,
		})
	}
	return views, nil
}

// ProjectionWatermark returns the global sequence the projection has
// applied through.
func (s *Service) ProjectionWatermark(ctx context.Context) (int64, error) {
	return s.store.Watermark(ctx)
}
