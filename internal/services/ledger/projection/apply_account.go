package projection

import (
	"context"
	"fmt"

	"github.com/centbook/centbook/internal/services/ledger/domain/account"
	"github.com/centbook/centbook/internal/services/ledger/domain/event"
	"github.com/centbook/centbook/internal/services/ledger/storage"
)

func registerAccountHandlers(r *Router) {
	Handle(r, event.TypeAccountOpened, applyAccountOpened)
	Handle(r, event.TypeAccountUpdated, applyAccountUpdated)
	Handle(r, event.TypeIncomeRecorded, applyIncomeRecorded)
	Handle(r, event.TypeExpenseRecorded, applyExpenseRecorded)
	Handle(r, event.TypeTransferSent, applyTransferSent)
	Handle(r, event.TypeTransferReceived, applyTransferReceived)
	Handle(r, event.TypeAccountArchived, applyAccountArchived)
}

func applyAccountOpened(ctx context.Context, proj storage.Projection, evt event.Event, payload account.OpenedPayload) error {
	return proj.PutAccount(ctx, storage.AccountRecord{
		AccountID:     evt.StreamID,
		UserID:        evt.Metadata.UserID,
		Name:          payload.Name,
		Currency:      payload.Currency,
		AllowNegative: payload.AllowNegative,
		BalanceCents:  0,
		Version:       evt.Version,
		OpenedAt:      evt.OccurredAt,
		UpdatedAt:     evt.OccurredAt,
	})
}

func applyAccountUpdated(ctx context.Context, proj storage.Projection, evt event.Event, payload account.UpdatedPayload) error {
	rec, err := loadProjectedAccount(ctx, proj, evt)
	if err != nil {
		return err
	}
	rec.Name = payload.Name
	rec.AllowNegative = payload.AllowNegative
	return touchAccount(ctx, proj, rec, evt)
}

func applyIncomeRecorded(ctx context.Context, proj storage.Projection, evt event.Event, payload account.IncomeRecordedPayload) error {
	return applyMovement(ctx, proj, evt, storage.MovementRecord{
		Kind:        storage.MovementIncome,
		SignedCents: payload.AmountCents,
		Description: payload.Description,
	})
}

func applyExpenseRecorded(ctx context.Context, proj storage.Projection, evt event.Event, payload account.ExpenseRecordedPayload) error {
	return applyMovement(ctx, proj, evt, storage.MovementRecord{
		Kind:        storage.MovementExpense,
		SignedCents: -payload.AmountCents,
		Description: payload.Description,
	})
}

func applyTransferSent(ctx context.Context, proj storage.Projection, evt event.Event, payload account.TransferSentPayload) error {
	return applyMovement(ctx, proj, evt, storage.MovementRecord{
		Kind:        storage.MovementTransferOut,
		SignedCents: -payload.AmountCents,
		TransferID:  payload.TransferID,
		Description: payload.Description,
	})
}

func applyTransferReceived(ctx context.Context, proj storage.Projection, evt event.Event, payload account.TransferReceivedPayload) error {
	return applyMovement(ctx, proj, evt, storage.MovementRecord{
		Kind:        storage.MovementTransferIn,
		SignedCents: payload.AmountCents,
		TransferID:  payload.TransferID,
		Description: payload.Description,
	})
}

func applyAccountArchived(ctx context.Context, proj storage.Projection, evt event.Event, _ account.ArchivedPayload) error {
	rec, err := loadProjectedAccount(ctx, proj, evt)
	if err != nil {
		return err
	}
	rec.Archived = true
	return touchAccount(ctx, proj, rec, evt)
}

// applyMovement adjusts the account balance and records one movement row.
// The movement ID is the event ID, so replays produce identical rows.
func applyMovement(ctx context.Context, proj storage.Projection, evt event.Event, movement storage.MovementRecord) error {
	rec, err := loadProjectedAccount(ctx, proj, evt)
	if err != nil {
		return err
	}
	rec.BalanceCents += movement.SignedCents
	if err := touchAccount(ctx, proj, rec, evt); err != nil {
		return err
	}

	movement.MovementID = evt.ID
	movement.AccountID = evt.StreamID
	movement.UserID = rec.UserID
	movement.GlobalSeq = evt.GlobalSeq
	movement.OccurredAt = evt.OccurredAt
	return proj.InsertMovement(ctx, movement)
}

func loadProjectedAccount(ctx context.Context, proj storage.Projection, evt event.Event) (storage.AccountRecord, error) {
	rec, err := proj.GetAccount(ctx, evt.StreamID)
	if err != nil {
		return storage.AccountRecord{}, fmt.Errorf("load account %s for %s: %w", evt.StreamID, evt.Type, err)
	}
	return rec, nil
}

func touchAccount(ctx context.Context, proj storage.Projection, rec storage.AccountRecord, evt event.Event) error {
	rec.Version = evt.Version
	rec.UpdatedAt = evt.OccurredAt
	return proj.PutAccount(ctx, rec)
}
