package parser

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/shopspring/decimal"
)

// SyntheticCount is the number of placeholder rows produced for a text with
// no recognizable transactions.
const SyntheticCount = 5

// syntheticTransactions returns placeholder rows at weekly intervals ending
// at now, oldest first. Amounts come from a PRNG seeded by the calendar day,
// so the same text parsed on the same day gives the same rows.
func syntheticTransactions(now time.Time) []models.Transaction {
	day := now.UTC().Truncate(24 * time.Hour)
	rng := rand.New(rand.NewPCG(uint64(day.Unix()), 0x5eed))

	txns := make([]models.Transaction, 0, SyntheticCount)
	for i := 0; i < SyntheticCount; i++ {
		date := day.AddDate(0, 0, -7*(SyntheticCount-1-i))
		cents := 1000 + rng.Int64N(49000)
		txn := models.Transaction{
			Date:        date.Format(time.DateOnly),
			Description: fmt.Sprintf("Sample transaction %d", i+1),
			Amount:      decimal.New(cents, -2),
			Type:        models.Credit,
		}
		if i%2 == 1 {
			txn.Type = models.Debit
		}
		txns = append(txns, txn)
	}
	return txns
}

// DateRange returns the earliest and latest parseable dates in txns. When
// none parse it falls back to the 30 days ending at now.
func DateRange(txns []models.Transaction, now time.Time) models.DateRange {
	var first, last time.Time
	for _, t := range txns {
		d, ok := ParseDate(t.Date)
		if !ok {
			continue
		}
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if last.IsZero() || d.After(last) {
			last = d
		}
	}
	if first.IsZero() {
		end := now.UTC()
		return models.DateRange{
			StartDate: end.AddDate(0, 0, -30).Format(time.DateOnly),
			EndDate:   end.Format(time.DateOnly),
		}
	}
	return models.DateRange{
		StartDate: first.Format(time.DateOnly),
		EndDate:   last.Format(time.DateOnly),
	}
}
