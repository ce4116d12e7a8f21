package accrual

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// Stage names used in integrity reports.
const (
	StageDensify = "densify"
	StageBalance = "balance"
	StageAccrual = "accrual"
)

// ValidateDenseTimeline checks the densifier's output contract: no empty
// account ids, no zero dates, and per account a contiguous duplicate-free run
// of days covering the shared range. All violations are collected into one
// IntegrityViolationError so a defective batch reports everything at once.
func ValidateDenseTimeline(dense []DenseDailyRow) error {
	var violations []string

	emptyAccounts := 0
	zeroDates := 0
	for _, row := range dense {
		if row.AccountID == "" {
			emptyAccounts++
		}
		if !row.Date.IsValid() {
			zeroDates++
		}
	}
	if emptyAccounts > 0 {
		violations = append(violations, fmt.Sprintf("column account_id has empty values (%d rows)", emptyAccounts))
	}
	if zeroDates > 0 {
		violations = append(violations, fmt.Sprintf("column date has invalid values (%d rows)", zeroDates))
	}

	parts := partition(dense, func(r DenseDailyRow) string { return r.AccountID })
	var span int
	for _, account := range sortedAccounts(parts) {
		rows := parts[account]
		dates := make([]civil.Date, len(rows))
		seen := make(map[civil.Date]bool, len(rows))
		dups := 0
		for i, r := range rows {
			dates[i] = r.Date
			if seen[r.Date] {
				dups++
			}
			seen[r.Date] = true
		}
		if dups > 0 {
			violations = append(violations, fmt.Sprintf("account %s has duplicate dates (%d rows)", account, dups))
			continue
		}
		if err := checkContiguous(account, dates); err != nil {
			violations = append(violations, err.Error())
			continue
		}
		if span == 0 {
			span = len(rows)
		} else if len(rows) != span {
			violations = append(violations, fmt.Sprintf("account %s covers %d days, expected %d", account, len(rows), span))
		}
	}

	if len(violations) > 0 {
		return &IntegrityViolationError{Stage: StageDensify, Violations: violations}
	}
	return nil
}

// ValidateBalances checks the accumulator's output: identifiers and dates
// present, and one balance row per dense row is the caller's 1:1 contract, so
// the count is verified against the dense timeline.
func ValidateBalances(balances []BalanceRow, dense []DenseDailyRow) error {
	var violations []string

	emptyAccounts := 0
	zeroDates := 0
	for _, row := range balances {
		if row.AccountID == "" {
			emptyAccounts++
		}
		if !row.Date.IsValid() {
			zeroDates++
		}
	}
	if emptyAccounts > 0 {
		violations = append(violations, fmt.Sprintf("column account_id has empty values (%d rows)", emptyAccounts))
	}
	if zeroDates > 0 {
		violations = append(violations, fmt.Sprintf("column date has invalid values (%d rows)", zeroDates))
	}
	if len(balances) != len(dense) {
		violations = append(violations, fmt.Sprintf("expected %d balance rows, got %d", len(dense), len(balances)))
	}

	if len(violations) > 0 {
		return &IntegrityViolationError{Stage: StageBalance, Violations: violations}
	}
	return nil
}

// ValidateAccruals checks the accrual output boundary: identifiers and dates
// present, stable amounts and interest never negative. Negative interest
// surviving to this point is a data defect, not a valid outcome.
func ValidateAccruals(accruals []AccrualRow) error {
	var violations []string

	emptyAccounts := 0
	zeroDates := 0
	negativeStable := 0
	negativeInterest := 0
	for _, row := range accruals {
		if row.AccountID == "" {
			emptyAccounts++
		}
		if !row.Date.IsValid() {
			zeroDates++
		}
		if row.StableAmount.IsNegative() {
			negativeStable++
		}
		if row.InterestAmount.IsNegative() {
			negativeInterest++
		}
	}
	if emptyAccounts > 0 {
		violations = append(violations, fmt.Sprintf("column account_id has empty values (%d rows)", emptyAccounts))
	}
	if zeroDates > 0 {
		violations = append(violations, fmt.Sprintf("column date has invalid values (%d rows)", zeroDates))
	}
	if negativeStable > 0 {
		violations = append(violations, fmt.Sprintf("column stable_amount has negative values (%d rows)", negativeStable))
	}
	if negativeInterest > 0 {
		violations = append(violations, fmt.Sprintf("column interest_amount has negative values (%d rows)", negativeInterest))
	}

	if len(violations) > 0 {
		return &IntegrityViolationError{Stage: StageAccrual, Violations: violations}
	}
	return nil
}

// ValidateRates checks a rate snapshot before it is applied: at most one rate
// per date and no negative rates.
func ValidateRates(rates []RateEntry) error {
	var violations []string

	seen := make(map[civil.Date]bool, len(rates))
	dups := 0
	negative := 0
	zeroDates := 0
	for _, r := range rates {
		if !r.Date.IsValid() {
			zeroDates++
		}
		if seen[r.Date] {
			dups++
		}
		seen[r.Date] = true
		if r.DailyRate.IsNegative() {
			negative++
		}
	}
	if zeroDates > 0 {
		violations = append(violations, fmt.Sprintf("column date has invalid values (%d rows)", zeroDates))
	}
	if dups > 0 {
		violations = append(violations, fmt.Sprintf("column date has duplicate values (%d rows)", dups))
	}
	if negative > 0 {
		violations = append(violations, fmt.Sprintf("column daily_rate has negative values (%d rows)", negative))
	}

	if len(violations) > 0 {
		return &IntegrityViolationError{Stage: "rates", Violations: violations}
	}
	return nil
}
