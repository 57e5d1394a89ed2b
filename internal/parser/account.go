package parser

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/statement-extractor/internal/models"
)

var (
	// "Account Number: ****1234", "Account ending in 5678", "Acct # 12345678"
	accountNumberPattern = regexp.MustCompile(`(?i)\b(?:account|acct)\b[^\d\n]{0,30}?[*xX•.]*\s*(\d{4,})`)
	// "Chase Bank", "Navy Federal Credit Union"
	bankNamePattern = regexp.MustCompile(`\b([A-Z][A-Za-z]+)\s+(Bank|Credit Union)\b`)
	// "Account Holder: Jane Doe", "Name: Jane Doe"
	holderPattern = regexp.MustCompile(`(?i)^(?:account\s+holder|account\s+name|customer\s+name|name)\s*[:\-]\s*(.+)$`)
)

// findAccountInfo reads header metadata, falling back to placeholders for
// anything not present.
func findAccountInfo(lines []string) models.AccountInfo {
	info := models.AccountInfo{
		AccountNumber: models.PlaceholderAccountNumber,
		AccountHolder: models.PlaceholderAccountHolder,
		BankName:      models.PlaceholderBankName,
	}

	accountFound, bankFound, holderFound := false, false, false
	for _, line := range lines {
		if !accountFound {
			if m := accountNumberPattern.FindStringSubmatch(line); m != nil {
				info.AccountNumber = maskAccountNumber(m[1])
				accountFound = true
			}
		}
		if !bankFound {
			if m := bankNamePattern.FindStringSubmatch(line); m != nil {
				info.BankName = m[1] + " " + m[2]
				bankFound = true
			}
		}
		if !holderFound {
			if m := holderPattern.FindStringSubmatch(line); m != nil {
				if name := strings.TrimSpace(m[1]); name != "" {
					info.AccountHolder = truncate(name, models.MaxDescriptionLen)
					holderFound = true
				}
			}
		}
	}
	return info
}

// maskAccountNumber keeps the last four digits.
func maskAccountNumber(digits string) string {
	return "****" + digits[len(digits)-4:]
}
