// Package parser turns extracted statement text into transaction candidates
// using line-oriented regular expression heuristics.
package parser

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/shopspring/decimal"
)

// Parsed is the heuristic reading of one statement text.
type Parsed struct {
	Transactions []models.Transaction
	Account      models.AccountInfo
	// StatementBalance is the closing balance printed on the statement, when
	// one was found.
	StatementBalance *decimal.Decimal
	// Synthetic is set when no line matched and placeholder rows were
	// generated instead.
	Synthetic bool
}

// Parser extracts candidates from text. It holds no state besides the clock
// used to date synthetic rows, so one value can serve concurrent requests.
type Parser struct {
	now func() time.Time
}

// New returns a Parser using the wall clock.
func New() *Parser {
	return &Parser{now: time.Now}
}

// NewWithClock returns a Parser whose synthetic rows are dated relative to
// now().
func NewWithClock(now func() time.Time) *Parser {
	return &Parser{now: now}
}

// Parse scans text line by line. A line yields a candidate when it carries a
// date and an amount with two decimal places. Opening and closing balance
// lines are kept out unless they are all the text has. Parse never fails:
// when nothing matches it returns five synthetic rows and sets
// Parsed.Synthetic.
func (p *Parser) Parse(text string) Parsed {
	lines := splitLines(text)

	out := Parsed{Account: findAccountInfo(lines)}
	if bal, ok := findClosingBalance(lines); ok {
		out.StatementBalance = &bal
	}

	var summaries []models.Transaction
	for i, line := range lines {
		txn, summary, ok := parseLine(line)
		if !ok {
			continue
		}
		if summary {
			summaries = append(summaries, txn)
			continue
		}
		if txn.Description == "" && i+1 < len(lines) && !hasDate(lines[i+1]) {
			txn.Description = truncate(lines[i+1], models.MaxDescriptionLen)
		}
		if txn.Description == "" {
			txn.Description = fmt.Sprintf("Transaction %d", len(out.Transactions)+1)
		}
		out.Transactions = append(out.Transactions, txn)
	}

	// Summary rows are still extracted data; they beat placeholders.
	if len(out.Transactions) == 0 {
		out.Transactions = summaries
	}
	if len(out.Transactions) == 0 {
		out.Transactions = syntheticTransactions(p.now())
		out.Synthetic = true
	}
	return out
}

// parseLine reads one candidate from line. The amount is looked for after
// the date first, then anywhere else on the line. Description may come back
// empty; the caller resolves it from context. summary is set when the line
// holds nothing but a balance label, a date and an amount.
func parseLine(line string) (txn models.Transaction, summary, ok bool) {
	raw, dateStart, dateEnd, ok := findDate(line)
	if !ok {
		return models.Transaction{}, false, false
	}

	var description string
	amountText, amountStart, found := findAmount(line[dateEnd:])
	if found {
		amountStart += dateEnd
		description = line[dateEnd:amountStart]
	} else {
		// blank the date so "15.01" inside "15.01.2024" is not read as an amount
		blanked := line[:dateStart] + strings.Repeat(" ", dateEnd-dateStart) + line[dateEnd:]
		if amountText, amountStart, found = findAmount(blanked); !found {
			return models.Transaction{}, false, false
		}
	}
	amount, err := ParseAmount(amountText)
	if err != nil {
		return models.Transaction{}, false, false
	}

	txn = models.Transaction{
		Date:        NormalizeDate(raw),
		Description: truncate(cleanDescription(description), models.MaxDescriptionLen),
		Amount:      amount.Abs(),
		Type:        models.Credit,
	}
	if amount.IsNegative() {
		txn.Type = models.Debit
	}

	remainder := cleanDescription(removeSpans(line, [2]int{dateStart, dateEnd}, [2]int{amountStart, amountStart + len(amountText)}))
	if isSummaryLabel(remainder) {
		txn.Description = truncate(remainder, models.MaxDescriptionLen)
		return txn, true, true
	}
	return txn, false, true
}

// removeSpans cuts two non-overlapping byte spans out of s.
func removeSpans(s string, a, b [2]int) string {
	if a[0] > b[0] {
		a, b = b, a
	}
	return s[:a[0]] + " " + s[a[1]:b[0]] + " " + s[b[1]:]
}

func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func cleanDescription(s string) string {
	return strings.Trim(s, " \t|")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
