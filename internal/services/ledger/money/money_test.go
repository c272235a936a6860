package money

import (
	"errors"
	"testing"

	apperrors "github.com/centbook/centbook/internal/platform/errors"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "whole", input: "12", want: 1200},
		{name: "two decimals", input: "12.34", want: 1234},
		{name: "one decimal", input: "0.5", want: 50},
		{name: "negative", input: "-3.21", want: -321},
		{name: "leading space", input: " 7.00 ", want: 700},
		{name: "zero", input: "0", want: 0},
		{name: "empty", input: "", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "three decimals", input: "1.234", wantErr: true},
		{name: "comma separator", input: "1,23", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAmount(tc.input)
			if tc.wantErr {
				if !errors.Is(err, apperrors.New(apperrors.CodeInvalidAmount, "")) {
					t.Fatalf("expected invalid amount error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse %q: %v", tc.input, err)
			}
			if got != tc.want {
				t.Fatalf("parse %q: expected %d, got %d", tc.input, tc.want, got)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{cents: 0, want: "0.00"},
		{cents: 5, want: "0.05"},
		{cents: 1234, want: "12.34"},
		{cents: -321, want: "-3.21"},
		{cents: 100000, want: "1000.00"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.cents); got != tc.want {
			t.Errorf("format %d: expected %q, got %q", tc.cents, tc.want, got)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 123456789} {
		parsed, err := ParseAmount(FormatAmount(cents))
		if err != nil {
			t.Fatalf("round trip %d: %v", cents, err)
		}
		if parsed != cents {
			t.Fatalf("round trip %d: got %d", cents, parsed)
		}
	}
}
