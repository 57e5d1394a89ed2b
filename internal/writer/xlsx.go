package writer

import (
	"fmt"
	"io"

	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	transactionsSheet = "Transactions"
	summarySheet      = "Summary"
)

// XLSXWriter writes a workbook with a transactions sheet and a summary sheet.
type XLSXWriter struct{}

func (XLSXWriter) Write(out io.Writer, res *models.StatementResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", transactionsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{"Date", "Description", "Type", "Amount", "Balance"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(transactionsSheet, cell, h)
	}

	for i, txn := range res.Transactions {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(transactionsSheet, cell, v)
		}
		write(1, txn.Date)
		write(2, txn.Description)
		write(3, string(txn.Type))
		write(4, txn.Amount.InexactFloat64())
		if txn.Balance != nil {
			write(5, txn.Balance.InexactFloat64())
		}
	}

	style, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err == nil && len(res.Transactions) > 0 {
		_ = f.SetCellStyle(transactionsSheet, "D2", fmt.Sprintf("E%d", len(res.Transactions)+1), style)
	}
	_ = f.SetColWidth(transactionsSheet, "A", "A", 12)
	_ = f.SetColWidth(transactionsSheet, "B", "B", 48)
	_ = f.SetColWidth(transactionsSheet, "D", "E", 14)

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	rows := [][]any{
		{"Bank", res.AccountInfo.BankName},
		{"Account Holder", res.AccountInfo.AccountHolder},
		{"Account Number", res.AccountInfo.AccountNumber},
		{"Start Date", res.DateRange.StartDate},
		{"End Date", res.DateRange.EndDate},
		{"Total Credits", res.Summary.TotalCredits.InexactFloat64()},
		{"Total Debits", res.Summary.TotalDebits.InexactFloat64()},
		{"Transactions", res.Summary.TransactionCount},
		{"Text Source", string(res.Quality.Text.Source)},
		{"Sample Data", res.Quality.Synthetic},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &r); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 18)
	_ = f.SetColWidth(summarySheet, "B", "B", 28)

	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
