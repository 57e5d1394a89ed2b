package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// datePattern is one accepted date shape together with the layouts that can
// read it, tried in order.
type datePattern struct {
	re      *regexp.Regexp
	layouts []string
}

// Date shapes in priority order. The first shape found on a line wins and
// only one date is taken per line.
var datePatterns = []datePattern{
	// 1/15/2024, 15/01/24 (month-first is tried before day-first)
	{regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`), []string{"1/2/2006", "2/1/2006", "1/2/06", "2/1/06"}},
	// 2024-01-15
	{regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`), []string{"2006-01-02"}},
	// 15-01-2024
	{regexp.MustCompile(`\b\d{1,2}-\d{1,2}-\d{2,4}\b`), []string{"2-1-2006", "1-2-2006", "2-1-06", "1-2-06"}},
	// 15.01.2024
	{regexp.MustCompile(`\b\d{1,2}\.\d{1,2}\.\d{2,4}\b`), []string{"2.1.2006", "1.2.2006", "2.1.06", "1.2.06"}},
}

// amountPattern matches an optionally signed amount with an optional
// currency sign, optional thousands separators and exactly two decimals.
// Group 1 is the amount; the surrounding groups stop it from starting or
// ending inside a longer number.
var amountPattern = regexp.MustCompile(`(?:^|[^\d.,])([-+]?\s?[$£€]?\s?-?(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2})(?:[^\d]|$)`)

// findDate returns the first date on line and its byte span.
func findDate(line string) (raw string, start, end int, ok bool) {
	for _, p := range datePatterns {
		if loc := p.re.FindStringIndex(line); loc != nil {
			return line[loc[0]:loc[1]], loc[0], loc[1], true
		}
	}
	return "", 0, 0, false
}

func hasDate(line string) bool {
	_, _, _, ok := findDate(line)
	return ok
}

// findAmount returns the first amount in s and its starting byte offset.
func findAmount(s string) (amount string, start int, ok bool) {
	m := amountPattern.FindStringSubmatchIndex(s)
	if m == nil {
		return "", 0, false
	}
	start = m[2]
	amount = s[m[2]:m[3]]
	trimmed := strings.TrimLeft(amount, " \t")
	return trimmed, start + len(amount) - len(trimmed), true
}

// ParseAmount converts a string like "1,234.56", "-$42.50" or "£-7.00" to a
// decimal. A minus anywhere before the digits makes the value negative.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	negative := strings.Contains(s, "-")

	s = strings.NewReplacer(
		"£", "",
		"$", "",
		"€", "",
		",", "",
		" ", "",
		"\u00a0", "",
		"-", "",
		"+", "",
	).Replace(s)

	if s == "" {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// NormalizeDate rewrites raw as YYYY-MM-DD when one of the known layouts
// reads it. Otherwise raw is returned unchanged.
func NormalizeDate(raw string) string {
	if t, ok := ParseDate(raw); ok {
		return t.Format(time.DateOnly)
	}
	return strings.TrimSpace(raw)
}

// ParseDate reads raw with the known layouts. Two-digit years land in
// 2000-2099.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, p := range datePatterns {
		if p.re.FindString(raw) != raw {
			continue
		}
		for _, layout := range p.layouts {
			t, err := time.Parse(layout, raw)
			if err != nil {
				continue
			}
			if strings.HasSuffix(layout, "/06") || strings.HasSuffix(layout, "-06") || strings.HasSuffix(layout, ".06") {
				t = t.AddDate(2000+t.Year()%100-t.Year(), 0, 0)
			}
			if t.Year() < 1900 || t.Year() > 2100 {
				continue
			}
			return t, true
		}
	}
	return time.Time{}, false
}

var summaryLabel = regexp.MustCompile(`(?i)^(?:(?:opening|closing|ending|beginning|previous|new)\s+balance|balance\s+(?:brought|carried)\s+forward)$`)

// isSummaryLabel reports whether s, the text of a line left once its date
// and amount are removed, is nothing but a balance summary label.
func isSummaryLabel(s string) bool {
	return summaryLabel.MatchString(strings.Trim(s, " \t:|-"))
}

var closingBalanceLabel = regexp.MustCompile(`(?i)\b(?:closing|ending)\s+balance\b`)

// findClosingBalance returns the amount printed on the first closing or
// ending balance line.
func findClosingBalance(lines []string) (decimal.Decimal, bool) {
	for _, line := range lines {
		loc := closingBalanceLabel.FindStringIndex(line)
		if loc == nil {
			continue
		}
		amount, _, ok := findAmount(line[loc[1]:])
		if !ok {
			continue
		}
		d, err := ParseAmount(amount)
		if err != nil {
			continue
		}
		return d, true
	}
	return decimal.Zero, false
}
