package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a transaction's effect on the balance.
type TransactionType string

const (
	Credit TransactionType = "credit"
	Debit  TransactionType = "debit"
)

// MaxDescriptionLen caps transaction descriptions.
const MaxDescriptionLen = 100

// Transaction represents a single statement line.
//
// Amount is always non-negative; Type alone decides whether it adds to or
// subtracts from the running balance. Balance stays nil until the balance
// reconstructor fills it in.
type Transaction struct {
	Date        string
	Description string
	Amount      decimal.Decimal
	Type        TransactionType
	Balance     *decimal.Decimal
}

// Signed returns the amount with the sign implied by Type.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Debit {
		return t.Amount.Neg()
	}
	return t.Amount
}

type transactionJSON struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      json.Number     `json:"amount"`
	Balance     *json.Number    `json:"balance"`
	Type        TransactionType `json:"type"`
}

// MarshalJSON writes amounts as plain JSON numbers with two decimals.
func (t Transaction) MarshalJSON() ([]byte, error) {
	out := transactionJSON{
		Date:        t.Date,
		Description: t.Description,
		Amount:      money(t.Amount),
		Type:        t.Type,
	}
	if t.Balance != nil {
		b := money(*t.Balance)
		out.Balance = &b
	}
	return json.Marshal(out)
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// AccountInfo holds best-effort header metadata.
type AccountInfo struct {
	AccountNumber string `json:"account_number"`
	AccountHolder string `json:"account_holder"`
	BankName      string `json:"bank_name"`
}

// Placeholders used when the header carries no account metadata.
const (
	PlaceholderAccountNumber = "****0000"
	PlaceholderAccountHolder = "Account Holder"
	PlaceholderBankName      = "Unknown Bank"
)

// DateRange is the span covered by the statement, as YYYY-MM-DD strings.
type DateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Summary aggregates the transaction list.
type Summary struct {
	TotalCredits     decimal.Decimal
	TotalDebits      decimal.Decimal
	TransactionCount int
}

// MarshalJSON writes totals as plain JSON numbers.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TotalCredits     json.Number `json:"total_credits"`
		TotalDebits      json.Number `json:"total_debits"`
		TransactionCount int         `json:"transaction_count"`
	}{money(s.TotalCredits), money(s.TotalDebits), s.TransactionCount})
}

// StatementResult is the only artifact the extraction pipeline hands back.
type StatementResult struct {
	AccountInfo  AccountInfo   `json:"account_info"`
	DateRange    DateRange     `json:"date_range"`
	Transactions []Transaction `json:"transactions"`
	Summary      Summary       `json:"summary"`
	Quality      Quality       `json:"quality"`
}

// Summarize totals credits and debits over txns.
func Summarize(txns []Transaction) Summary {
	s := Summary{TransactionCount: len(txns)}
	for _, t := range txns {
		if t.Type == Debit {
			s.TotalDebits = s.TotalDebits.Add(t.Amount)
		} else {
			s.TotalCredits = s.TotalCredits.Add(t.Amount)
		}
	}
	return s
}
