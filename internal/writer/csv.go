package writer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/shopspring/decimal"
)

// CSVWriter writes transactions to CSV format.
type CSVWriter struct {
	IncludeHeader bool
}

// Write writes transactions in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, res *models.StatementResult) error {
	writer := csv.NewWriter(out)

	// Metadata rows, marked so spreadsheet imports can skip them
	if w.IncludeHeader {
		meta := [][]string{
			{"# Bank", res.AccountInfo.BankName},
			{"# Account Holder", res.AccountInfo.AccountHolder},
			{"# Account Number", res.AccountInfo.AccountNumber},
			{"# Statement Period", res.DateRange.StartDate + " to " + res.DateRange.EndDate},
		}
		if res.Quality.Synthetic {
			meta = append(meta, []string{"# Note", "sample data, no transactions could be extracted"})
		}
		for _, row := range meta {
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV metadata: %w", err)
			}
		}
	}

	header := []string{"Date", "Description", "Type", "Amount", "Balance"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, txn := range res.Transactions {
		row := []string{
			txn.Date,
			txn.Description,
			string(txn.Type),
			txn.Amount.StringFixed(2),
			formatBalance(txn.Balance),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatBalance(b *decimal.Decimal) string {
	if b == nil {
		return ""
	}
	return b.StringFixed(2)
}
