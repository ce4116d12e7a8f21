// Package payout projects accrued interest into ledger-ready transaction
// records. This is the only place interest amounts are rounded; upstream the
// figure is carried at full precision so rounding error never compounds
// across the pipeline.
package payout

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/cdi-bonus/internal/accrual"
)

// Ledger attributes stamped on every interest payout.
const (
	// TransactionType is the ledger transaction type for interest credits.
	TransactionType = "cdi_interest"

	// SourceSystem identifies this batch system as the payout originator.
	SourceSystem = "cdi_bonus_system"

	// SystemUserID is the synthetic user the ledger attributes the credit to.
	SystemUserID = "system_user_id"
)

// Record is a ledger-ready interest credit for one account on one day.
type Record struct {
	TransactionID   string
	EventTime       time.Time
	UserID          string
	AccountID       string
	Date            civil.Date
	Amount          decimal.Decimal
	TransactionType string
	SourceSystem    string
}

// FormatRecords turns accrual rows into payout records. Only rows with
// strictly positive interest are emitted, and rows whose rounded amount falls
// below params.MinPayout are dropped too: a 0.00 credit is not worth a ledger
// entry. Rounding is half away from zero at params.PayoutScale. batchTime is
// stamped on every record so one run produces one event time.
func FormatRecords(rows []accrual.AccrualRow, params accrual.Params, batchTime time.Time) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		if !row.InterestAmount.IsPositive() {
			continue
		}
		amount := row.InterestAmount.Round(params.PayoutScale)
		if !amount.IsPositive() || amount.LessThan(params.MinPayout) {
			continue
		}
		records = append(records, Record{
			TransactionID:   uuid.NewString(),
			EventTime:       batchTime,
			UserID:          SystemUserID,
			AccountID:       row.AccountID,
			Date:            row.Date,
			Amount:          amount,
			TransactionType: TransactionType,
			SourceSystem:    SourceSystem,
		})
	}
	return records
}
