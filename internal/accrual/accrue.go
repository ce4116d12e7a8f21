package accrual

import "cloud.google.com/go/civil"

// ApplyRates joins the stability measure to the daily rate series and produces
// one AccrualRow per stability row whose date has a published rate:
//
//	interest = stable_amount × daily_rate
//
// Dates absent from the rate series are dropped entirely. A missing rate is a
// coverage gap in the reference data, not a zero-accrual day, so imputing a
// rate (or a zero) would be wrong in both directions. The balance and
// stability timelines for those dates still exist upstream.
//
// The rate snapshot is passed in per call; it is loaded once per batch and
// read-only thereafter. Interest stays at full precision here.
func ApplyRates(stability []StabilityRow, rates []RateEntry) []AccrualRow {
	rateByDate := make(map[civil.Date]RateEntry, len(rates))
	for _, r := range rates {
		rateByDate[r.Date] = r
	}

	out := make([]AccrualRow, 0, len(stability))
	for _, row := range stability {
		rate, ok := rateByDate[row.Date]
		if !ok {
			continue
		}
		out = append(out, AccrualRow{
			Date:           row.Date,
			AccountID:      row.AccountID,
			StableAmount:   row.StableAmount,
			InterestAmount: row.StableAmount.Mul(rate.DailyRate),
		})
	}

	return out
}
