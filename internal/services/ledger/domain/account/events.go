package account

// Payload shapes for the account event stream. Amounts are always integer
// minor currency units; nothing in this package touches floating point.

// OpenedPayload is the payload for account.opened.
type OpenedPayload struct {
	Name          string `json:"name"`
	Currency      string `json:"currency"`
	AllowNegative bool   `json:"allow_negative"`
}

// UpdatedPayload is the payload for account.updated.
type UpdatedPayload struct {
	Name          string `json:"name"`
	AllowNegative bool   `json:"allow_negative"`
}

// IncomeRecordedPayload is the payload for account.income_recorded.
type IncomeRecordedPayload struct {
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description,omitempty"`
}

// ExpenseRecordedPayload is the payload for account.expense_recorded.
type ExpenseRecordedPayload struct {
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description,omitempty"`
}

// TransferSentPayload is the payload for account.transfer_sent.
type TransferSentPayload struct {
	AmountCents          int64  `json:"amount_cents"`
	TransferID           string `json:"transfer_id"`
	DestinationAccountID string `json:"destination_account_id"`
	Description          string `json:"description,omitempty"`
}

// TransferReceivedPayload is the payload for account.transfer_received.
type TransferReceivedPayload struct {
	AmountCents     int64  `json:"amount_cents"`
	TransferID      string `json:"transfer_id"`
	SourceAccountID string `json:"source_account_id"`
	Description     string `json:"description,omitempty"`
}

// ArchivedPayload is the payload for account.archived.
type ArchivedPayload struct{}
