// Package money converts between display amounts and the integer cents the
// ledger stores. All arithmetic inside the ledger is int64 cents; decimal
// parsing happens only at the edges.
package money

import (
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/centbook/centbook/internal/platform/errors"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a decimal string like "12.34" into cents. Amounts
// with more than two fractional digits or outside the int64 range are
// rejected.
func ParseAmount(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, apperrors.New(apperrors.CodeInvalidAmount, "amount is required")
	}

	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInvalidAmount, "amount is not a valid decimal", err)
	}

	cents := d.Mul(hundred)
	if !cents.IsInteger() {
		return 0, apperrors.WithMetadata(apperrors.CodeInvalidAmount,
			"amount has more than two decimal places", map[string]string{"amount": trimmed})
	}
	if !cents.BigInt().IsInt64() {
		return 0, apperrors.WithMetadata(apperrors.CodeInvalidAmount,
			"amount is out of range", map[string]string{"amount": trimmed})
	}
	return cents.IntPart(), nil
}

// FormatAmount renders cents as a decimal string with two fractional
// digits, e.g. 1234 -> "12.34".
func FormatAmount(cents int64) string {
	return decimal.NewFromInt(cents).Div(hundred).StringFixed(2)
}
