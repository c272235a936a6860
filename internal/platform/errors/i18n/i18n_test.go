package i18n

import (
	"strings"
	"testing"
)

func TestResolveLocale(t *testing.T) {
	cases := []struct {
		requested string
		want      string
	}{
		{"", BaseLocale},
		{"en-US", "en-US"},
		{"en", "en-US"},
		{"pt-BR", "pt-BR"},
		{"pt", "pt-BR"},
		{"fr-FR", BaseLocale},
		{"not a locale", BaseLocale},
	}
	for _, tc := range cases {
		if got := ResolveLocale(tc.requested); got != tc.want {
			t.Errorf("resolve %q: expected %q, got %q", tc.requested, tc.want, got)
		}
	}
}

func TestFormatTemplatesMetadata(t *testing.T) {
	msg := Format("en-US", "ACCOUNT_INVALID_CURRENCY", map[string]string{"currency": "XYZ"})
	if !strings.Contains(msg, "XYZ") {
		t.Fatalf("expected currency in message, got %q", msg)
	}

	// Nil metadata must not break templated messages.
	msg = Format("en-US", "ACCOUNT_INVALID_CURRENCY", nil)
	if msg == "" {
		t.Fatal("expected non-empty message with nil metadata")
	}
}

func TestFormatFallsBack(t *testing.T) {
	if got := Format("fr-FR", "INVALID_AMOUNT", nil); got != Format("en-US", "INVALID_AMOUNT", nil) {
		t.Fatalf("expected base locale fallback, got %q", got)
	}
	if got := Format("en-US", "NO_SUCH_CODE", nil); got != "NO_SUCH_CODE" {
		t.Fatalf("expected code passthrough, got %q", got)
	}
}

func TestCatalogsCoverSameCodes(t *testing.T) {
	base := catalogs[BaseLocale]
	for locale, messages := range catalogs {
		if locale == BaseLocale {
			continue
		}
		for code := range base {
			if _, ok := messages[code]; !ok {
				t.Errorf("locale %s missing code %s", locale, code)
			}
		}
		for code := range messages {
			if _, ok := base[code]; !ok {
				t.Errorf("locale %s has extra code %s", locale, code)
			}
		}
	}
}
