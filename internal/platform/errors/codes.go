// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Event log errors
	CodeConcurrencyConflict Code = "CONCURRENCY_CONFLICT"
	CodeStreamNotFound      Code = "STREAM_NOT_FOUND"
	CodeStateError          Code = "STATE_ERROR"

	// Account errors
	CodeAccountNameEmpty       Code = "ACCOUNT_NAME_EMPTY"
	CodeAccountInvalidCurrency Code = "ACCOUNT_INVALID_CURRENCY"
	CodeAccountAlreadyArchived Code = "ACCOUNT_ALREADY_ARCHIVED"
	CodeInvalidAmount          Code = "INVALID_AMOUNT"
	CodeInsufficientBalance    Code = "INSUFFICIENT_BALANCE"
	CodeCurrencyMismatch       Code = "CURRENCY_MISMATCH"
	CodeCurrencyImmutable      Code = "CURRENCY_IMMUTABLE"
	CodeTransferSameAccount    Code = "TRANSFER_SAME_ACCOUNT"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeAccountNameEmpty,
		CodeAccountInvalidCurrency,
		CodeInvalidAmount,
		CodeCurrencyMismatch,
		CodeCurrencyImmutable,
		CodeTransferSameAccount:
		return codes.InvalidArgument

	// FailedPrecondition - domain rules that a different input cannot fix
	case CodeInsufficientBalance,
		CodeAccountAlreadyArchived:
		return codes.FailedPrecondition

	// Aborted - recoverable by reloading and retrying
	case CodeConcurrencyConflict:
		return codes.Aborted

	// NotFound
	case CodeNotFound,
		CodeStreamNotFound:
		return codes.NotFound

	// DataLoss - the log contains content this build cannot interpret
	case CodeStateError:
		return codes.DataLoss

	default:
		return codes.Internal
	}
}
