package normalize

import (
	"sort"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/cdi-bonus/internal/accrual"
)

// EligibleDailyMovements filters events to eligible cdc operations, truncates
// event times to UTC calendar days, and sums signed amounts per account per
// day. Output is one DailyMovement per (account, day) with at least one
// eligible event, ordered by account id then date.
func EligibleDailyMovements(events []Event) []accrual.DailyMovement {
	type key struct {
		account string
		date    civil.Date
	}

	sums := make(map[key]decimal.Decimal)
	for _, e := range events {
		if !e.Op.Eligible() {
			continue
		}
		k := key{account: e.AccountID, date: civil.DateOf(e.EventTime.UTC())}
		sums[k] = sums[k].Add(e.Amount)
	}

	movements := make([]accrual.DailyMovement, 0, len(sums))
	for k, net := range sums {
		movements = append(movements, accrual.DailyMovement{
			AccountID: k.account,
			Date:      k.date,
			NetAmount: net,
		})
	}
	sort.Slice(movements, func(i, j int) bool {
		if movements[i].AccountID != movements[j].AccountID {
			return movements[i].AccountID < movements[j].AccountID
		}
		return movements[i].Date.Before(movements[j].Date)
	})

	return movements
}
