package accrual

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DetectStability derives, for each account/day, the portion of the balance
// that sat strictly above the threshold on both that day and the previous day:
//
//	stable = max(0, min(excess(current), excess(previous)))
//	excess(x) = max(0, x - threshold)
//
// PreviousBalance is the lag-1 balance within the account partition and is nil
// on the account's first day, which always yields a stable amount of zero.
// A one-step lookback is enough to capture "held for at least a full day":
// accrual is computed per day and composes additively across consecutive
// stable days.
func DetectStability(balances []BalanceRow, threshold decimal.Decimal) []StabilityRow {
	parts := partition(balances, func(r BalanceRow) string { return r.AccountID })

	out := make([]StabilityRow, 0, len(balances))
	for _, account := range sortedAccounts(parts) {
		rows := parts[account]
		sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

		var prev *decimal.Decimal
		for _, row := range rows {
			stable := decimal.Zero
			if prev != nil {
				cur := excess(row.CurrentBalance, threshold)
				pre := excess(*prev, threshold)
				stable = decimal.Min(cur, pre)
				if stable.IsNegative() {
					stable = decimal.Zero
				}
			}

			out = append(out, StabilityRow{
				AccountID:       row.AccountID,
				Date:            row.Date,
				CurrentBalance:  row.CurrentBalance,
				PreviousBalance: prev,
				StableAmount:    stable,
			})

			balance := row.CurrentBalance
			prev = &balance
		}
	}

	return out
}

// excess is the amount strictly above the threshold, floored at zero. A
// balance exactly at the threshold has zero excess.
func excess(balance, threshold decimal.Decimal) decimal.Decimal {
	if balance.GreaterThan(threshold) {
		return balance.Sub(threshold)
	}
	return decimal.Zero
}
