package accrual

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// DailyMovement is the net signed amount moved on one account on one calendar
// day. It is the output of the daily aggregation over eligible wallet events
// and the input of the densifier; days with no movement have no row here.
type DailyMovement struct {
	AccountID string
	Date      civil.Date
	NetAmount decimal.Decimal
}

// DenseDailyRow is one row of the densified timeline: every account carries a
// row for every day of the shared observed range, with NetAmount zero where no
// movement occurred.
type DenseDailyRow struct {
	AccountID string
	Date      civil.Date
	NetAmount decimal.Decimal
}

// BalanceRow is the running balance of an account at end of day: the inclusive
// prefix sum of NetAmount over all dates up to Date.
type BalanceRow struct {
	AccountID      string
	Date           civil.Date
	CurrentBalance decimal.Decimal
}

// StabilityRow carries the day-over-day stability measure for one account/day.
// PreviousBalance is nil on the first day of an account's history.
type StabilityRow struct {
	AccountID       string
	Date            civil.Date
	CurrentBalance  decimal.Decimal
	PreviousBalance *decimal.Decimal
	StableAmount    decimal.Decimal
}

// RateEntry is one row of the published daily CDI rate series. The series is
// sparse; dates with no entry produce no accrual.
type RateEntry struct {
	Date      civil.Date
	DailyRate decimal.Decimal
}

// AccrualRow is one day of accrued interest for one account. InterestAmount is
// kept at full precision; rounding happens only at the payout boundary.
type AccrualRow struct {
	Date           civil.Date
	AccountID      string
	StableAmount   decimal.Decimal
	InterestAmount decimal.Decimal
}

// Params holds the policy knobs of the accrual computation. These are policy
// decisions, not constants of the algorithm, so callers pass them explicitly.
type Params struct {
	// Threshold is the balance level a deposit must stay strictly above on
	// two consecutive days to earn interest. The comparison is exclusive:
	// a balance exactly at the threshold earns nothing.
	Threshold decimal.Decimal

	// PayoutScale is the number of decimal places interest is rounded to
	// when projected into a payout record. Rounding is half away from zero.
	PayoutScale int32

	// MinPayout is the smallest rounded amount worth a ledger entry.
	// Rounded interest below this is dropped, not carried forward.
	MinPayout decimal.Decimal
}

// DefaultParams returns the production policy: threshold 100, payouts rounded
// to whole cents, nothing below one cent credited.
func DefaultParams() Params {
	return Params{
		Threshold:   decimal.NewFromInt(100),
		PayoutScale: 2,
		MinPayout:   decimal.New(1, -2),
	}
}
