package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/centbook/centbook/internal/platform/errors"
	"github.com/centbook/centbook/internal/services/ledger/domain/account"
	"github.com/centbook/centbook/internal/services/ledger/domain/event"
	"github.com/centbook/centbook/internal/services/ledger/storage"
)

// TransferInput carries the transfer command parameters.
type TransferInput struct {
	UserID               string
	IdempotencyKey       string
	SourceAccountID      string
	DestinationAccountID string
	AmountCents          int64
	Description          string
}

// TransferResult reports both sides of a committed transfer.
type TransferResult struct {
	TransferID  string
	Source      AccountView
	Destination AccountView
}

// Transfer moves money between two accounts with one atomic append: the
// debit and credit events commit together or not at all. The transfer ID is
// the command's correlation ID.
func (s *Service) Transfer(ctx context.Context, in TransferInput) (_ TransferResult, err error) {
	start := time.Now()
	defer func() { s.observe("transfer", start, err) }()

	if in.UserID == "" {
		return TransferResult{}, fmt.Errorf("user id is required")
	}
	if in.SourceAccountID == "" || in.DestinationAccountID == "" {
		return TransferResult{}, fmt.Errorf("source and destination account ids are required")
	}
	if in.SourceAccountID == in.DestinationAccountID {
		return TransferResult{}, apperrors.WithMetadata(apperrors.CodeTransferSameAccount,
			"transfer source and destination are the same account",
			map[string]string{"account_id": in.SourceAccountID})
	}

	res, err := s.beginCommand(ctx, in.UserID, in.IdempotencyKey)
	if err != nil {
		return TransferResult{}, err
	}
	if res.IsDuplicate {
		return s.transferReplayResult(ctx, res.CorrelationID, in)
	}

	source, err := s.loadAccount(ctx, in.SourceAccountID)
	if err != nil {
		return TransferResult{}, err
	}
	destination, err := s.loadAccount(ctx, in.DestinationAccountID)
	if err != nil {
		return TransferResult{}, err
	}
	if source.Currency() != destination.Currency() {
		return TransferResult{}, account.ErrCurrencyMismatch
	}

	transferID := res.CorrelationID
	sent, err := source.RecordTransferSent(in.AmountCents, transferID, in.DestinationAccountID, in.Description, s.now())
	if err != nil {
		return TransferResult{}, err
	}
	received, err := destination.RecordTransferReceived(in.AmountCents, transferID, in.SourceAccountID, in.Description, s.now())
	if err != nil {
		return TransferResult{}, err
	}

	meta := event.Metadata{UserID: in.UserID, CorrelationID: res.CorrelationID}
	committed, err := s.store.AppendAtomic(ctx, []storage.AppendRequest{
		s.appendFor(source, meta, sent),
		s.appendFor(destination, meta, received),
	})
	if err != nil {
		return TransferResult{}, err
	}
	s.finishAppend(ctx, source, len(committed[0]))
	s.finishAppend(ctx, destination, len(committed[1]))

	s.logger.InfoContext(ctx, "transfer committed",
		slog.String("transfer_id", transferID),
		slog.String("source_account_id", in.SourceAccountID),
		slog.String("destination_account_id", in.DestinationAccountID),
		slog.Int64("amount_cents", in.AmountCents))

	return TransferResult{
		TransferID:  transferID,
		Source:      viewFromState(source.State()),
		Destination: viewFromState(destination.State()),
	}, nil
}

func (s *Service) transferReplayResult(ctx context.Context, transferID string, in TransferInput) (TransferResult, error) {
	source, err := s.currentView(ctx, in.SourceAccountID)
	if err != nil {
		return TransferResult{}, err
	}
	destination, err := s.currentView(ctx, in.DestinationAccountID)
	if err != nil {
		return TransferResult{}, err
	}
	return TransferResult{TransferID: transferID, Source: source, Destination: destination}, nil
}
