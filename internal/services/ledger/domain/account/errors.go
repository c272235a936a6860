package account

import apperrors "github.com/centbook/centbook/internal/platform/errors"

var (
	// ErrNameEmpty indicates a missing account name.
	ErrNameEmpty = apperrors.New(apperrors.CodeAccountNameEmpty, "account name is required")
	// ErrInvalidCurrency indicates a malformed currency code.
	ErrInvalidCurrency = apperrors.New(apperrors.CodeAccountInvalidCurrency, "currency must be a 3-letter ISO code")
	// ErrInvalidAmount indicates a non-positive amount of minor units.
	ErrInvalidAmount = apperrors.New(apperrors.CodeInvalidAmount, "amount must be a positive number of minor units")
	// ErrInsufficientBalance indicates a debit that would drive the balance negative.
	ErrInsufficientBalance = apperrors.New(apperrors.CodeInsufficientBalance, "insufficient balance")
	// ErrCurrencyMismatch indicates a cross-account currency violation.
	ErrCurrencyMismatch = apperrors.New(apperrors.CodeCurrencyMismatch, "accounts use different currencies")
	// ErrCurrencyImmutable indicates an attempt to change the currency after creation.
	ErrCurrencyImmutable = apperrors.New(apperrors.CodeCurrencyImmutable, "account currency cannot be changed")
	// ErrAlreadyArchived indicates a repeated archive command.
	ErrAlreadyArchived = apperrors.New(apperrors.CodeAccountAlreadyArchived, "account is already archived")
	// ErrStreamNotFound indicates a stream with no opening event.
	ErrStreamNotFound = apperrors.New(apperrors.CodeStreamNotFound, "account stream has no opening event")
)

// stateError reports malformed or out-of-order log content. Folding only
// ever sees events this system produced, so hitting one of these indicates
// corruption.
func stateError(message string, metadata map[string]string) error {
	return apperrors.WithMetadata(apperrors.CodeStateError, message, metadata)
}
