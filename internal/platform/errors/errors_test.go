package errors

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestIsMatchesByCode(t *testing.T) {
	err := WithMetadata(CodeInsufficientBalance, "balance too low", map[string]string{"account_id": "acc-1"})

	if !errors.Is(err, New(CodeInsufficientBalance, "")) {
		t.Fatal("expected match on same code")
	}
	if errors.Is(err, New(CodeInvalidAmount, "")) {
		t.Fatal("expected no match on different code")
	}

	wrapped := fmt.Errorf("command failed: %w", err)
	if !errors.Is(wrapped, New(CodeInsufficientBalance, "")) {
		t.Fatal("expected match through wrapping")
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodeUnknown, "append failed", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	cases := []struct {
		code Code
		want codes.Code
	}{
		{CodeInvalidAmount, codes.InvalidArgument},
		{CodeTransferSameAccount, codes.InvalidArgument},
		{CodeInsufficientBalance, codes.FailedPrecondition},
		{CodeConcurrencyConflict, codes.Aborted},
		{CodeStreamNotFound, codes.NotFound},
		{CodeStateError, codes.DataLoss},
		{Code("SOMETHING_ELSE"), codes.Internal},
	}
	for _, tc := range cases {
		if got := tc.code.GRPCCode(); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.code, tc.want, got)
		}
	}
}

func TestToGRPCStatusCarriesDetails(t *testing.T) {
	err := WithMetadata(CodeCurrencyMismatch, "accounts use different currencies",
		map[string]string{"source": "USD", "destination": "EUR"})

	st, ok := status.FromError(err.ToGRPCStatus("pt-BR", "As duas contas devem usar a mesma moeda."))
	if !ok {
		t.Fatal("expected grpc status")
	}
	if st.Code() != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", st.Code())
	}

	var info *errdetails.ErrorInfo
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			info = d
		case *errdetails.LocalizedMessage:
			localized = d
		}
	}
	if info == nil || info.Reason != string(CodeCurrencyMismatch) || info.Domain != Domain {
		t.Fatalf("unexpected error info: %+v", info)
	}
	if info.Metadata["source"] != "USD" {
		t.Fatalf("metadata missing: %+v", info.Metadata)
	}
	if localized == nil || localized.Locale != "pt-BR" {
		t.Fatalf("unexpected localized message: %+v", localized)
	}
}
