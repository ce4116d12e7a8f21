package accrual

import (
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Densify expands sparse daily movements into a complete per-account timeline:
// one row for every (account, day) pair over the shared observed range
// [min(date), max(date)], with NetAmount zero on days the account had no
// movement. The output is ordered by account id, then date, so every account
// partition is a contiguous, gap-free run of days.
//
// Returns ErrEmptyInput when there are no movements: an empty batch has no
// min/max date to densify over.
func Densify(movements []DailyMovement) ([]DenseDailyRow, error) {
	if len(movements) == 0 {
		return nil, ErrEmptyInput
	}

	type key struct {
		account string
		date    civil.Date
	}

	byDay := make(map[key]decimal.Decimal, len(movements))
	accountSet := make(map[string]struct{})

	start, end := movements[0].Date, movements[0].Date
	for _, m := range movements {
		k := key{account: m.AccountID, date: m.Date}
		if existing, ok := byDay[k]; ok {
			// Upstream aggregation should emit one row per account/day;
			// a duplicate here still sums rather than silently dropping.
			byDay[k] = existing.Add(m.NetAmount)
		} else {
			byDay[k] = m.NetAmount
		}
		accountSet[m.AccountID] = struct{}{}

		if m.Date.Before(start) {
			start = m.Date
		}
		if m.Date.After(end) {
			end = m.Date
		}
	}

	accounts := make([]string, 0, len(accountSet))
	for a := range accountSet {
		accounts = append(accounts, a)
	}
	sort.Strings(accounts)

	days := end.DaysSince(start) + 1
	dense := make([]DenseDailyRow, 0, len(accounts)*days)
	for _, account := range accounts {
		for d := start; !d.After(end); d = d.AddDays(1) {
			net, ok := byDay[key{account: account, date: d}]
			if !ok {
				net = decimal.Zero
			}
			dense = append(dense, DenseDailyRow{
				AccountID: account,
				Date:      d,
				NetAmount: net,
			})
		}
	}

	return dense, nil
}

// DateRange returns the global [min, max] span of the movements.
// Returns ErrEmptyInput for an empty batch.
func DateRange(movements []DailyMovement) (start, end civil.Date, err error) {
	if len(movements) == 0 {
		return civil.Date{}, civil.Date{}, ErrEmptyInput
	}
	start, end = movements[0].Date, movements[0].Date
	for _, m := range movements[1:] {
		if m.Date.Before(start) {
			start = m.Date
		}
		if m.Date.After(end) {
			end = m.Date
		}
	}
	return start, end, nil
}

// partition slices rows into per-account runs. Rows must already be ordered by
// account id; each partition keeps its original internal order.
func partition[T any](rows []T, accountOf func(T) string) map[string][]T {
	parts := make(map[string][]T)
	for _, row := range rows {
		a := accountOf(row)
		parts[a] = append(parts[a], row)
	}
	return parts
}

// sortedAccounts returns the partition keys in deterministic order.
func sortedAccounts[T any](parts map[string][]T) []string {
	accounts := make([]string, 0, len(parts))
	for a := range parts {
		accounts = append(accounts, a)
	}
	sort.Strings(accounts)
	return accounts
}

// checkContiguous verifies that the dates of one account partition form a
// strictly increasing run of consecutive days.
func checkContiguous(account string, dates []civil.Date) error {
	for i := 1; i < len(dates); i++ {
		if dates[i].DaysSince(dates[i-1]) != 1 {
			return fmt.Errorf("account %s: dates %s and %s are not consecutive", account, dates[i-1], dates[i])
		}
	}
	return nil
}
