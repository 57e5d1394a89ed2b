package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/insightdelivered/statement-extractor/internal/common"
	"github.com/insightdelivered/statement-extractor/internal/logger"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/insightdelivered/statement-extractor/internal/parser"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"
)

const systemPrompt = "You are a bank statement parser. " +
	"Read the statement text supplied by the user and return ONLY one JSON object, " +
	"with no markdown, code fences or commentary. " +
	"Amounts are positive numbers; use \"type\" to say whether money came in (credit) or went out (debit). " +
	"Dates use YYYY-MM-DD when the year is known. " +
	"Set \"balance\" to null when the statement does not print a running balance. " +
	"Set unknown account fields to null."

// Structured is the model's reading of a statement.
type Structured struct {
	Transactions []models.Transaction
	Account      models.AccountInfo // empty fields were not reported
	// HasBalances is set when the model supplied a balance for every row.
	HasBalances bool
}

// Structurer runs the fallback against a Completer.
type Structurer struct {
	completer     Completer
	maxInputChars int
	schema        *jsonschema.Schema
}

// NewStructurer wires a Completer. Input text longer than maxInputChars is
// cut before being sent.
func NewStructurer(c Completer, maxInputChars int) (*Structurer, error) {
	schema, err := compileSchema(statementSchema)
	if err != nil {
		return nil, err
	}
	return &Structurer{completer: c, maxInputChars: maxInputChars, schema: schema}, nil
}

type modelStatement struct {
	AccountInfo *struct {
		AccountNumber *string `json:"account_number"`
		AccountHolder *string `json:"account_holder"`
		BankName      *string `json:"bank_name"`
	} `json:"account_info"`
	Transactions []struct {
		Date        string          `json:"date"`
		Description string          `json:"description"`
		Amount      json.RawMessage `json:"amount"`
		Balance     json.RawMessage `json:"balance"`
		Type        string          `json:"type"`
	} `json:"transactions"`
}

// Structure asks the model to structure text. Any answer that does not hold a
// schema-valid object with at least one transaction is rejected with an error
// wrapping common.ErrSchemaViolation; callers keep their previous result.
func (s *Structurer) Structure(ctx context.Context, text string) (Structured, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	capped := text
	if utf8.RuneCountInString(capped) > s.maxInputChars {
		capped = string([]rune(capped)[:s.maxInputChars])
	}

	user := "Extract the account details and every transaction from this bank statement text.\n\n" +
		"JSON Schema:\n" + mustJSON(statementSchema) + "\n\n" +
		"Statement text:\n" + capped

	raw, err := s.completer.Complete(ctx, systemPrompt, user)
	if err != nil {
		return Structured{}, err
	}

	span, ok := FirstObject(raw)
	if !ok {
		log.Warn().Int("raw_len", len(raw)).Msg("llm answer holds no JSON object")
		return Structured{}, fmt.Errorf("no JSON object in model output: %w", common.ErrSchemaViolation)
	}
	if err := validateJSON(s.schema, []byte(span)); err != nil {
		log.Warn().Err(err).Msg("llm answer failed schema validation")
		return Structured{}, fmt.Errorf("%w: %v", common.ErrSchemaViolation, err)
	}

	var ms modelStatement
	if err := json.Unmarshal([]byte(span), &ms); err != nil {
		return Structured{}, fmt.Errorf("%w: decode: %v", common.ErrSchemaViolation, err)
	}

	out := Structured{HasBalances: true}
	for i, t := range ms.Transactions {
		amount, ok, err := decodeMoney(t.Amount)
		if err != nil || !ok {
			return Structured{}, fmt.Errorf("%w: transaction %d: bad amount %s", common.ErrSchemaViolation, i+1, t.Amount)
		}
		txn := models.Transaction{
			Date:        parser.NormalizeDate(t.Date),
			Description: truncate(strings.TrimSpace(t.Description), models.MaxDescriptionLen),
			Amount:      amount.Abs(),
			Type:        models.TransactionType(t.Type),
		}
		if txn.Description == "" {
			txn.Description = fmt.Sprintf("Transaction %d", i+1)
		}

		bal, ok, err := decodeMoney(t.Balance)
		switch {
		case err != nil:
			return Structured{}, fmt.Errorf("%w: transaction %d: bad balance %s", common.ErrSchemaViolation, i+1, t.Balance)
		case ok:
			txn.Balance = &bal
		default:
			out.HasBalances = false
		}
		out.Transactions = append(out.Transactions, txn)
	}

	if ai := ms.AccountInfo; ai != nil {
		out.Account = models.AccountInfo{
			AccountNumber: deref(ai.AccountNumber),
			AccountHolder: deref(ai.AccountHolder),
			BankName:      deref(ai.BankName),
		}
	}

	log.Info().
		Int("transactions", len(out.Transactions)).
		Bool("has_balances", out.HasBalances).
		Dur("elapsed", time.Since(start)).
		Msg("llm structuring accepted")
	return out, nil
}

// decodeMoney reads a JSON number or a numeric string such as "$1,200.00".
// A missing or null value reports ok == false.
func decodeMoney(raw json.RawMessage) (d decimal.Decimal, ok bool, err error) {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero, false, nil
	}
	if raw[0] != '"' {
		// a JSON number, exponent forms included
		d, err = decimal.NewFromString(string(raw))
		if err != nil {
			return decimal.Zero, false, err
		}
		return d, true, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return decimal.Zero, false, err
	}
	d, err = parser.ParseAmount(text)
	if err != nil {
		return decimal.Zero, false, err
	}
	return d, true, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
