package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/insightdelivered/statement-extractor/internal/common"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/shopspring/decimal"
)

// mockCompleter returns a canned answer and records what it was sent.
type mockCompleter struct {
	CompleteFunc func(ctx context.Context, system, user string) (string, error)
	calls        int
	lastUser     string
}

func (m *mockCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	m.calls++
	m.lastUser = user
	return m.CompleteFunc(ctx, system, user)
}

func answer(s string) *mockCompleter {
	return &mockCompleter{CompleteFunc: func(context.Context, string, string) (string, error) { return s, nil }}
}

func newTestStructurer(t *testing.T, c Completer, maxInput int) *Structurer {
	t.Helper()
	s, err := NewStructurer(c, maxInput)
	if err != nil {
		t.Fatalf("NewStructurer: %v", err)
	}
	return s
}

func TestStructure_Valid(t *testing.T) {
	mock := answer("Here you go:\n" + `{
		"account_info": {"account_number": "****4455", "account_holder": null, "bank_name": "Acme Bank"},
		"transactions": [
			{"date": "01/15/2024", "description": "Paycheck", "amount": 1500, "balance": "5,100.00", "type": "credit"},
			{"date": "2024-01-16", "description": " Grocery {store} ", "amount": "-42.50", "balance": 5057.5, "type": "debit"}
		]
	}` + "\nLet me know if you need more.")

	got, err := newTestStructurer(t, mock, 12000).Structure(context.Background(), "statement text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(got.Transactions))
	}

	first, second := got.Transactions[0], got.Transactions[1]
	if first.Date != "2024-01-15" {
		t.Errorf("date: got %q, want 2024-01-15", first.Date)
	}
	if !first.Balance.Equal(decimal.RequireFromString("5100")) {
		t.Errorf("balance: got %s, want 5100", first.Balance)
	}
	if second.Description != "Grocery {store}" {
		t.Errorf("description: got %q", second.Description)
	}
	if !second.Amount.Equal(decimal.RequireFromString("42.50")) || second.Type != models.Debit {
		t.Errorf("second: got %s %s, want 42.50 debit", second.Amount, second.Type)
	}
	if !got.HasBalances {
		t.Error("expected HasBalances with every balance present")
	}

	want := models.AccountInfo{AccountNumber: "****4455", BankName: "Acme Bank"}
	if got.Account != want {
		t.Errorf("account: got %+v, want %+v", got.Account, want)
	}
}

func TestStructure_MissingBalances(t *testing.T) {
	mock := answer(`{"transactions":[{"date":"2024-01-02","description":"","amount":3,"type":"debit"}]}`)

	got, err := newTestStructurer(t, mock, 12000).Structure(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.HasBalances {
		t.Error("HasBalances must be false when a balance is missing")
	}
	if got.Transactions[0].Balance != nil {
		t.Error("missing balance must stay nil")
	}
	if got.Transactions[0].Description != "Transaction 1" {
		t.Errorf("description: got %q, want %q", got.Transactions[0].Description, "Transaction 1")
	}
}

func TestStructure_NumericForms(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		balance     string
		wantAmount  string
		wantBalance string
	}{
		{"exponent", `2.5e-1`, `1.0e2`, "0.25", "100"},
		{"negative exponent amount", `-1.5E-2`, `12`, "0.015", "12"},
		{"plain numbers", `42.5`, `-3.75`, "42.5", "-3.75"},
		{"currency strings", `"-$1,200.00"`, `"£5,100.00"`, "1200", "5100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := answer(`{"transactions":[{"date":"2024-01-02","description":"Fee","amount":` + tt.amount +
				`,"balance":` + tt.balance + `,"type":"debit"}]}`)

			got, err := newTestStructurer(t, mock, 12000).Structure(context.Background(), "text")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			txn := got.Transactions[0]
			if !txn.Amount.Equal(decimal.RequireFromString(tt.wantAmount)) {
				t.Errorf("amount: got %s, want %s", txn.Amount, tt.wantAmount)
			}
			if txn.Balance == nil || !txn.Balance.Equal(decimal.RequireFromString(tt.wantBalance)) {
				t.Errorf("balance: got %v, want %s", txn.Balance, tt.wantBalance)
			}
		})
	}
}

func TestStructure_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		answer string
	}{
		{"not json", "I could not find any transactions."},
		{"unbalanced", `{"transactions": [`},
		{"empty transactions", `{"transactions": []}`},
		{"no transactions key", `{"account_info": {}}`},
		{"bad type", `{"transactions":[{"date":"2024-01-01","description":"x","amount":1,"type":"refund"}]}`},
		{"bad amount", `{"transactions":[{"date":"2024-01-01","description":"x","amount":"lots","type":"credit"}]}`},
		{"missing date", `{"transactions":[{"description":"x","amount":1,"type":"credit"}]}`},
		{"invalid json in span", `{"transactions": [1,]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestStructurer(t, answer(tt.answer), 12000).Structure(context.Background(), "text")
			if !errors.Is(err, common.ErrSchemaViolation) {
				t.Errorf("expected ErrSchemaViolation, got %v", err)
			}
		})
	}
}

func TestStructure_CompleterError(t *testing.T) {
	wantErr := &common.TransportError{Service: "llm", StatusCode: 429}
	mock := &mockCompleter{CompleteFunc: func(context.Context, string, string) (string, error) { return "", wantErr }}

	_, err := newTestStructurer(t, mock, 12000).Structure(context.Background(), "text")
	var te *common.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestStructure_CapsInput(t *testing.T) {
	mock := answer(`{"transactions":[{"date":"2024-01-01","description":"x","amount":1,"type":"credit"}]}`)
	text := strings.Repeat("a", 50) + strings.Repeat("b", 50)

	if _, err := newTestStructurer(t, mock, 50).Structure(context.Background(), text); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("calls: got %d, want 1", mock.calls)
	}
	if !strings.HasSuffix(mock.lastUser, "Statement text:\n"+strings.Repeat("a", 50)) {
		t.Errorf("statement text was not capped at 50 chars")
	}
}
