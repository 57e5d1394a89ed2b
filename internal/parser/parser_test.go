package parser

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2024, 3, 10, 15, 4, 5, 0, time.UTC)

func newTestParser() *Parser {
	return NewWithClock(func() time.Time { return fixedNow })
}

func TestParse_TwoLineStatement(t *testing.T) {
	text := "01/15/2024 Paycheck $1500.00\n01/16/2024 Grocery Store -$42.50"

	got := newTestParser().Parse(text)
	if got.Synthetic {
		t.Fatal("real transactions must not be flagged synthetic")
	}

	want := []struct {
		date, desc, amount string
		typ                models.TransactionType
	}{
		{"2024-01-15", "Paycheck", "1500.00", models.Credit},
		{"2024-01-16", "Grocery Store", "42.50", models.Debit},
	}
	if len(got.Transactions) != len(want) {
		t.Fatalf("got %d transactions, want %d", len(got.Transactions), len(want))
	}
	for i, w := range want {
		txn := got.Transactions[i]
		if txn.Date != w.date {
			t.Errorf("[%d] date: got %q, want %q", i, txn.Date, w.date)
		}
		if txn.Description != w.desc {
			t.Errorf("[%d] description: got %q, want %q", i, txn.Description, w.desc)
		}
		if !txn.Amount.Equal(decimal.RequireFromString(w.amount)) {
			t.Errorf("[%d] amount: got %s, want %s", i, txn.Amount, w.amount)
		}
		if txn.Type != w.typ {
			t.Errorf("[%d] type: got %q, want %q", i, txn.Type, w.typ)
		}
		if txn.Balance != nil {
			t.Errorf("[%d] balance must be unset before reconstruction", i)
		}
	}
}

func TestParse_AtLeastOneCandidate(t *testing.T) {
	lines := []string{
		"1/2/2024 Coffee 3.10",
		"Posted on 2024-02-03: Refund +12.00",
		"03-02-2024 Rent £950.00-",
		"Card 4.4.2024 ATM -20.00",
		"12/31/23 | Interest | 0.42",
		"garbage 07.07.07 zz 1,000.00 yy",
		"Grocery Store -42.50 01/15/2024",
		"01/31/2024 New balance transfer fee -12.00",
		"01/31/2024 Closing Balance 1,234.56",
	}

	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			text := "Header text\n" + line + "\nFooter"
			got := newTestParser().Parse(text)
			if got.Synthetic || len(got.Transactions) < 1 {
				t.Errorf("expected a real candidate from %q, got %+v", line, got.Transactions)
			}
		})
	}
}

func TestParse_Idempotent(t *testing.T) {
	texts := []string{
		"01/15/2024 Paycheck $1500.00\n01/16/2024 Grocery Store -$42.50",
		"",
		"nothing that looks like a transaction",
		"Chase Bank\nAccount Number: ****9876\n2024-01-02\nWire transfer\n2024-01-03 -10.00",
	}

	p := newTestParser()
	for i, text := range texts {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			a, b := p.Parse(text), p.Parse(text)
			if len(a.Transactions) != len(b.Transactions) {
				t.Fatalf("lengths differ: %d vs %d", len(a.Transactions), len(b.Transactions))
			}
			for j := range a.Transactions {
				x, y := a.Transactions[j], b.Transactions[j]
				if x.Date != y.Date || x.Description != y.Description || !x.Amount.Equal(y.Amount) || x.Type != y.Type {
					t.Errorf("[%d] differs: %+v vs %+v", j, x, y)
				}
			}
			if a.Account != b.Account {
				t.Errorf("account info differs: %+v vs %+v", a.Account, b.Account)
			}
		})
	}
}

func TestParse_Descriptions(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "wrapped onto next line",
			text: "01/15/2024 $25.00\nONLINE TRANSFER FROM SAVINGS",
			want: []string{"ONLINE TRANSFER FROM SAVINGS"},
		},
		{
			name: "next line is another transaction",
			text: "01/15/2024 $25.00\n01/16/2024 -5.00",
			want: []string{"Transaction 1", "Transaction 2"},
		},
		{
			name: "numbering follows candidate index",
			text: "01/14/2024 Deposit 10.00\n01/15/2024 -3.00",
			want: []string{"Deposit", "Transaction 2"},
		},
		{
			name: "separators trimmed",
			text: "01/15/2024 | Netflix | -15.99",
			want: []string{"Netflix"},
		},
		{
			name: "long description truncated",
			text: "01/15/2024 " + strings.Repeat("x", 150) + " 1.00",
			want: []string{strings.Repeat("x", models.MaxDescriptionLen)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestParser().Parse(tt.text)
			if len(got.Transactions) != len(tt.want) {
				t.Fatalf("got %d transactions, want %d", len(got.Transactions), len(tt.want))
			}
			for i, w := range tt.want {
				if d := got.Transactions[i].Description; d != w {
					t.Errorf("[%d] got %q, want %q", i, d, w)
				}
			}
		})
	}
}

func TestParse_SkipsBalanceLines(t *testing.T) {
	text := strings.Join([]string{
		"01/01/2024 Opening Balance 1,000.00",
		"01/05/2024 Coffee -4.00",
		"01/31/2024 Closing Balance 996.00",
		"01/31/2024 Balance carried forward: 996.00",
	}, "\n")

	got := newTestParser().Parse(text)
	if len(got.Transactions) != 1 || got.Transactions[0].Description != "Coffee" {
		t.Fatalf("expected only the coffee row, got %+v", got.Transactions)
	}
	if got.StatementBalance == nil || !got.StatementBalance.Equal(decimal.RequireFromString("996.00")) {
		t.Errorf("statement balance: got %v, want 996.00", got.StatementBalance)
	}
}

func TestParse_AmountBeforeDate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		date     string
		amount   string
		typ      models.TransactionType
		wantDesc string
	}{
		{"trailing date", "Grocery Store -42.50 01/15/2024", "2024-01-15", "42.50", models.Debit, "Transaction 1"},
		{"description on next line", "-42.50 01/15/2024\nGROCERY STORE", "2024-01-15", "42.50", models.Debit, "GROCERY STORE"},
		{"dotted date not read as amount", "Interest 3.25 15.01.2024", "2024-01-15", "3.25", models.Credit, "Transaction 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestParser().Parse(tt.text)
			if got.Synthetic || len(got.Transactions) != 1 {
				t.Fatalf("expected one real candidate, got %+v (synthetic=%v)", got.Transactions, got.Synthetic)
			}
			txn := got.Transactions[0]
			if txn.Date != tt.date {
				t.Errorf("date: got %q, want %q", txn.Date, tt.date)
			}
			if txn.Amount.StringFixed(2) != tt.amount || txn.Type != tt.typ {
				t.Errorf("amount: got %s %s, want %s %s", txn.Amount.StringFixed(2), txn.Type, tt.amount, tt.typ)
			}
			if txn.Description != tt.wantDesc {
				t.Errorf("description: got %q, want %q", txn.Description, tt.wantDesc)
			}
		})
	}
}

func TestParse_BalanceWordsInDescription(t *testing.T) {
	got := newTestParser().Parse("01/31/2024 New balance transfer fee -12.00")
	if got.Synthetic || len(got.Transactions) != 1 {
		t.Fatalf("expected the fee row, got %+v (synthetic=%v)", got.Transactions, got.Synthetic)
	}
	txn := got.Transactions[0]
	if txn.Description != "New balance transfer fee" || txn.Amount.StringFixed(2) != "12.00" || txn.Type != models.Debit {
		t.Errorf("got %+v", txn)
	}
}

func TestParse_OnlySummaryLines(t *testing.T) {
	got := newTestParser().Parse("Statement\n01/31/2024 Closing Balance 1,234.56")
	if got.Synthetic {
		t.Fatal("a printed balance line must not be replaced by sample rows")
	}
	if len(got.Transactions) != 1 || got.Transactions[0].Description != "Closing Balance" {
		t.Fatalf("expected the closing balance row, got %+v", got.Transactions)
	}
	if got.Transactions[0].Amount.StringFixed(2) != "1234.56" {
		t.Errorf("amount: got %s, want 1234.56", got.Transactions[0].Amount.StringFixed(2))
	}
}

func TestParse_AccountInfo(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.AccountInfo
	}{
		{
			name: "all present",
			text: "Wells Fargo Bank\nAccount Holder: Jane Q Public\nAccount Number: ****1234",
			want: models.AccountInfo{AccountNumber: "****1234", AccountHolder: "Jane Q Public", BankName: "Fargo Bank"},
		},
		{
			name: "bare number masked",
			text: "Navy Federal Credit Union\nName: John Smith\nAccount: 000123456789",
			want: models.AccountInfo{AccountNumber: "****6789", AccountHolder: "John Smith", BankName: "Federal Credit Union"},
		},
		{
			name: "ending in",
			text: "Checking account ending in 4321",
			want: models.AccountInfo{AccountNumber: "****4321", AccountHolder: models.PlaceholderAccountHolder, BankName: models.PlaceholderBankName},
		},
		{
			name: "placeholders",
			text: "statement\n01/02/2024 Coffee -3.00",
			want: models.AccountInfo{
				AccountNumber: models.PlaceholderAccountNumber,
				AccountHolder: models.PlaceholderAccountHolder,
				BankName:      models.PlaceholderBankName,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTestParser().Parse(tt.text).Account
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParse_Synthetic(t *testing.T) {
	for _, text := range []string{"", "No readable text could be extracted from this document."} {
		got := newTestParser().Parse(text)
		if !got.Synthetic {
			t.Fatalf("expected synthetic result for %q", text)
		}
		if len(got.Transactions) != SyntheticCount {
			t.Fatalf("got %d synthetic transactions, want %d", len(got.Transactions), SyntheticCount)
		}

		var prev time.Time
		for i, txn := range got.Transactions {
			d, err := time.Parse(time.DateOnly, txn.Date)
			if err != nil {
				t.Fatalf("[%d] invalid date %q", i, txn.Date)
			}
			if i > 0 && d.Sub(prev) != 7*24*time.Hour {
				t.Errorf("[%d] expected weekly spacing, got %s", i, d.Sub(prev))
			}
			prev = d
			if txn.Amount.Sign() <= 0 {
				t.Errorf("[%d] amount must be positive, got %s", i, txn.Amount)
			}
			wantType := models.Credit
			if i%2 == 1 {
				wantType = models.Debit
			}
			if txn.Type != wantType {
				t.Errorf("[%d] type: got %q, want %q", i, txn.Type, wantType)
			}
			if want := fmt.Sprintf("Sample transaction %d", i+1); txn.Description != want {
				t.Errorf("[%d] description: got %q, want %q", i, txn.Description, want)
			}
		}
		if last := got.Transactions[SyntheticCount-1].Date; last != "2024-03-10" {
			t.Errorf("last synthetic date: got %q, want 2024-03-10", last)
		}
	}
}

func TestDateRange(t *testing.T) {
	tests := []struct {
		name  string
		dates []string
		want  models.DateRange
	}{
		{"min and max", []string{"2024-01-16", "2024-01-03", "2024-02-01"}, models.DateRange{StartDate: "2024-01-03", EndDate: "2024-02-01"}},
		{"unparseable ignored", []string{"13/13/2024", "2024-01-05"}, models.DateRange{StartDate: "2024-01-05", EndDate: "2024-01-05"}},
		{"default window", []string{"someday"}, models.DateRange{StartDate: "2024-02-09", EndDate: "2024-03-10"}},
		{"empty", nil, models.DateRange{StartDate: "2024-02-09", EndDate: "2024-03-10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var txns []models.Transaction
			for _, d := range tt.dates {
				txns = append(txns, models.Transaction{Date: d})
			}
			if got := DateRange(txns, fixedNow); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
