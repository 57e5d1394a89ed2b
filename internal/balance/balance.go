// Package balance fills in running balances for transactions that were
// extracted without them.
package balance

import (
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/shopspring/decimal"
)

// Reconstruct assigns a running balance to every transaction in txns, in
// place. It walks the list from the end: the last transaction receives
// anchor, and each earlier one receives the balance of the one after it plus
// that later transaction's signed amount. The result satisfies
//
//	balance[i] == balance[i+1] + signed[i+1]
//
// for every adjacent pair, whatever order the list is in. Existing balances
// are overwritten.
func Reconstruct(txns []models.Transaction, anchor decimal.Decimal) {
	running := anchor
	for i := len(txns) - 1; i >= 0; i-- {
		b := running
		txns[i].Balance = &b
		running = running.Add(txns[i].Signed())
	}
}

// Consistent reports whether the balances in txns already satisfy the
// running balance chain. Lists with a missing balance are not consistent.
func Consistent(txns []models.Transaction) bool {
	for i := range txns {
		if txns[i].Balance == nil {
			return false
		}
		if i == len(txns)-1 {
			break
		}
		if txns[i+1].Balance == nil {
			return false
		}
		want := txns[i+1].Balance.Add(txns[i+1].Signed())
		if !txns[i].Balance.Equal(want) {
			return false
		}
	}
	return true
}
