// Package i18n translates error codes into user-facing messages.
//
// Messages are Go templates keyed by error code; metadata from the error is
// available as template variables. Locale resolution goes through
// x/text language matching so regional variants fall back sensibly.
package i18n

import (
	"bytes"
	"strings"
	"text/template"

	"golang.org/x/text/language"
)

// BaseLocale is the canonical source locale for catalogs.
const BaseLocale = "en-US"

var supported = []language.Tag{
	language.AmericanEnglish, // en-US, first entry is the fallback
	language.BrazilianPortuguese,
}

var matcher = language.NewMatcher(supported)

var catalogs = map[string]map[string]string{
	"en-US": {
		"CONCURRENCY_CONFLICT":     "The account changed while your request was in flight. Reload and try again.",
		"STREAM_NOT_FOUND":         "This account does not exist.",
		"STATE_ERROR":              "The account history could not be read.",
		"ACCOUNT_NAME_EMPTY":       "An account name is required.",
		"ACCOUNT_INVALID_CURRENCY": "{{.currency}} is not a valid currency code.",
		"ACCOUNT_ALREADY_ARCHIVED": "This account is already archived.",
		"INVALID_AMOUNT":           "The amount must be a positive value.",
		"INSUFFICIENT_BALANCE":     "The account balance is too low for this operation.",
		"CURRENCY_MISMATCH":        "Both accounts must use the same currency.",
		"CURRENCY_IMMUTABLE":       "The currency of an account cannot be changed.",
		"TRANSFER_SAME_ACCOUNT":    "A transfer needs two different accounts.",
		"NOT_FOUND":                "Not found.",
		"UNKNOWN":                  "Something went wrong.",
	},
	"pt-BR": {
		"CONCURRENCY_CONFLICT":     "A conta mudou enquanto sua solicitação estava em andamento. Recarregue e tente novamente.",
		"STREAM_NOT_FOUND":         "Esta conta não existe.",
		"STATE_ERROR":              "Não foi possível ler o histórico da conta.",
		"ACCOUNT_NAME_EMPTY":       "O nome da conta é obrigatório.",
		"ACCOUNT_INVALID_CURRENCY": "{{.currency}} não é um código de moeda válido.",
		"ACCOUNT_ALREADY_ARCHIVED": "Esta conta já está arquivada.",
		"INVALID_AMOUNT":           "O valor deve ser positivo.",
		"INSUFFICIENT_BALANCE":     "O saldo da conta é insuficiente para esta operação.",
		"CURRENCY_MISMATCH":        "As duas contas devem usar a mesma moeda.",
		"CURRENCY_IMMUTABLE":       "A moeda de uma conta não pode ser alterada.",
		"TRANSFER_SAME_ACCOUNT":    "Uma transferência precisa de duas contas diferentes.",
		"NOT_FOUND":                "Não encontrado.",
		"UNKNOWN":                  "Algo deu errado.",
	},
}

// ResolveLocale matches a requested locale against the supported set,
// falling back to the base locale.
func ResolveLocale(locale string) string {
	requested := strings.TrimSpace(locale)
	if requested == "" {
		return BaseLocale
	}
	tag, err := language.Parse(requested)
	if err != nil {
		return BaseLocale
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return BaseLocale
	}
	resolved := supported[index].String()
	if _, ok := catalogs[resolved]; !ok {
		return BaseLocale
	}
	return resolved
}

// Format renders the message for a code in the resolved locale.
// Falls back to the code itself when no template exists; templates are
// executed even with nil metadata so missing variables render empty.
func Format(locale string, code string, metadata map[string]string) string {
	messages := catalogs[ResolveLocale(locale)]
	raw, ok := messages[code]
	if !ok {
		if raw, ok = catalogs[BaseLocale][code]; !ok {
			return code
		}
	}
	if !strings.Contains(raw, "{{") {
		return raw
	}
	tmpl, err := template.New(code).Option("missingkey=zero").Parse(raw)
	if err != nil {
		return raw
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	var out bytes.Buffer
	if err := tmpl.Execute(&out, metadata); err != nil {
		return raw
	}
	return out.String()
}
