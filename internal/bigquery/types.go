package bigquery

import (
	"context"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/cdi-bonus/internal/accrual"
	"github.com/dvloznov/cdi-bonus/internal/normalize"
	"github.com/dvloznov/cdi-bonus/internal/payout"
)

// NUMERIC column scales. Ledger amounts are whole cents; rates are small
// daily fractions and need more places.
const (
	AmountScale = 2
	RateScale   = 8
)

// EventRepository provides read access to the wallet event ledger.
type EventRepository interface {
	// ListWalletEvents retrieves all wallet events dated on or before cutoff.
	ListWalletEvents(ctx context.Context, cutoff civil.Date) ([]*WalletEventRow, error)
}

// RateRepository provides access to the published daily CDI rate table.
type RateRepository interface {
	// ListCDIRates retrieves the full rate series.
	ListCDIRates(ctx context.Context) ([]*CDIRateRow, error)

	// InsertCDIRates appends new rate rows to the table.
	InsertCDIRates(ctx context.Context, rows []*CDIRateRow) error
}

// PayoutRepository provides access to the interest payout sink table.
type PayoutRepository interface {
	// InsertPayouts inserts a batch of PayoutRow into the sink table.
	InsertPayouts(ctx context.Context, rows []*PayoutRow) error

	// QueryPayoutsByRun retrieves all payouts produced by one accrual run.
	QueryPayoutsByRun(ctx context.Context, runID string) ([]*PayoutRow, error)
}

// RunRepository tracks accrual run bookkeeping.
type RunRepository interface {
	// StartAccrualRun inserts a new run with status=RUNNING and returns its id.
	StartAccrualRun(ctx context.Context, cutoff civil.Date) (string, error)

	// MarkAccrualRunFailed sets status=FAILED, finished_ts and error_message.
	MarkAccrualRunFailed(ctx context.Context, runID string, runErr error)

	// MarkAccrualRunSucceeded sets status=SUCCESS, finished_ts and the run summary.
	MarkAccrualRunSucceeded(ctx context.Context, runID string, summary RunSummary) error

	// ListAccrualRuns retrieves all runs, most recent first.
	ListAccrualRuns(ctx context.Context) ([]*AccrualRunRow, error)
}

// RunSummary is the outcome recorded on a successful accrual run.
type RunSummary struct {
	EventsProcessed int
	PayoutsInserted int
	TotalInterest   decimal.Decimal
}

// WalletEventRow is a raw wallet event record as stored in BigQuery. Nullable
// columns stay nullable here; the normalizer decides whether nulls are fatal.
type WalletEventRow struct {
	EventTime       bigquery.NullTimestamp `bigquery:"event_time"`
	UserID          bigquery.NullString    `bigquery:"user_id"`
	AccountID       bigquery.NullString    `bigquery:"account_id"`
	Amount          *big.Rat               `bigquery:"amount"`
	TransactionType bigquery.NullString    `bigquery:"transaction_type"`
	CDCOperation    bigquery.NullString    `bigquery:"cdc_operation"`
	CDCSequenceNum  bigquery.NullInt64     `bigquery:"cdc_sequence_num"`
	SourceSystem    bigquery.NullString    `bigquery:"source_system"`
}

// ToRawEvent maps the storage row onto the normalizer's input shape,
// preserving nulls as nil pointers.
func (r *WalletEventRow) ToRawEvent() normalize.RawEvent {
	var raw normalize.RawEvent
	if r.EventTime.Valid {
		t := r.EventTime.Timestamp
		raw.EventTime = &t
	}
	if r.UserID.Valid {
		raw.UserID = &r.UserID.StringVal
	}
	if r.AccountID.Valid {
		raw.AccountID = &r.AccountID.StringVal
	}
	if r.Amount != nil {
		amount := DecimalFromRat(r.Amount, AmountScale)
		raw.Amount = &amount
	}
	if r.TransactionType.Valid {
		raw.TransactionType = &r.TransactionType.StringVal
	}
	if r.CDCOperation.Valid {
		raw.CDCOperation = &r.CDCOperation.StringVal
	}
	if r.CDCSequenceNum.Valid {
		raw.CDCSequenceNum = &r.CDCSequenceNum.Int64
	}
	if r.SourceSystem.Valid {
		raw.SourceSystem = &r.SourceSystem.StringVal
	}
	return raw
}

// CDIRateRow is one published daily rate as stored in BigQuery.
type CDIRateRow struct {
	Date      civil.Date `bigquery:"date"`
	DailyRate *big.Rat   `bigquery:"daily_rate"`
}

// ToEntry converts the storage row into the engine's rate entry.
func (r *CDIRateRow) ToEntry() accrual.RateEntry {
	return accrual.RateEntry{
		Date:      r.Date,
		DailyRate: DecimalFromRat(r.DailyRate, RateScale),
	}
}

// NewCDIRateRow converts an engine rate entry into its storage row.
func NewCDIRateRow(e accrual.RateEntry) *CDIRateRow {
	return &CDIRateRow{
		Date:      e.Date,
		DailyRate: e.DailyRate.Rat(),
	}
}

// PayoutRow is a ledger-ready interest credit as stored in the sink table.
type PayoutRow struct {
	TransactionID   string     `bigquery:"transaction_id"`
	RunID           string     `bigquery:"run_id"`
	EventTime       time.Time  `bigquery:"event_time"`
	UserID          string     `bigquery:"user_id"`
	AccountID       string     `bigquery:"account_id"`
	AccrualDate     civil.Date `bigquery:"accrual_date"`
	Amount          *big.Rat   `bigquery:"amount"`
	TransactionType string     `bigquery:"transaction_type"`
	SourceSystem    string     `bigquery:"source_system"`
}

// NewPayoutRow converts a formatted payout record into its storage row,
// stamped with the run that produced it.
func NewPayoutRow(rec payout.Record, runID string) *PayoutRow {
	return &PayoutRow{
		TransactionID:   rec.TransactionID,
		RunID:           runID,
		EventTime:       rec.EventTime,
		UserID:          rec.UserID,
		AccountID:       rec.AccountID,
		AccrualDate:     rec.Date,
		Amount:          rec.Amount.Rat(),
		TransactionType: rec.TransactionType,
		SourceSystem:    rec.SourceSystem,
	}
}

// ToRecord converts a stored payout row back into its domain record.
func (r *PayoutRow) ToRecord() payout.Record {
	return payout.Record{
		TransactionID:   r.TransactionID,
		EventTime:       r.EventTime,
		UserID:          r.UserID,
		AccountID:       r.AccountID,
		Date:            r.AccrualDate,
		Amount:          DecimalFromRat(r.Amount, AmountScale),
		TransactionType: r.TransactionType,
		SourceSystem:    r.SourceSystem,
	}
}

// AccrualRunRow is one accrual run's bookkeeping record.
type AccrualRunRow struct {
	RunID           string                 `bigquery:"run_id"`
	CutoffDate      civil.Date             `bigquery:"cutoff_date"`
	StartedTS       time.Time              `bigquery:"started_ts"`
	FinishedTS      bigquery.NullTimestamp `bigquery:"finished_ts"`
	Status          string                 `bigquery:"status"`
	ErrorMessage    string                 `bigquery:"error_message"`
	EventsProcessed bigquery.NullInt64     `bigquery:"events_processed"`
	PayoutsInserted bigquery.NullInt64     `bigquery:"payouts_inserted"`
	TotalInterest   *big.Rat               `bigquery:"total_interest"`
}

// DecimalFromRat converts a BigQuery NUMERIC value into a fixed-point decimal
// at the given scale. A nil rat (NULL column) maps to zero; callers that must
// distinguish NULL check the rat before converting.
func DecimalFromRat(rat *big.Rat, scale int32) decimal.Decimal {
	if rat == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigRat(rat, scale)
}
