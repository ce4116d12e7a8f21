package accrual

import (
	"sort"

	"github.com/shopspring/decimal"
)

// AccumulateBalances converts the densified movement timeline into running
// balances: for each account, ordered by ascending date, the inclusive prefix
// sum of NetAmount. One BalanceRow per DenseDailyRow.
//
// The running total is carried as a fold accumulator in a single pass per
// account; the sum is never recomputed from scratch for a row. Correctness
// rests on the densifier's guarantee that each partition is gap-free and
// duplicate-free in date order.
func AccumulateBalances(dense []DenseDailyRow) []BalanceRow {
	parts := partition(dense, func(r DenseDailyRow) string { return r.AccountID })

	balances := make([]BalanceRow, 0, len(dense))
	for _, account := range sortedAccounts(parts) {
		rows := parts[account]
		sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

		running := decimal.Zero
		for _, row := range rows {
			running = running.Add(row.NetAmount)
			balances = append(balances, BalanceRow{
				AccountID:      row.AccountID,
				Date:           row.Date,
				CurrentBalance: running,
			})
		}
	}

	return balances
}
