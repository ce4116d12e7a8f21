package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	bq "github.com/dvloznov/cdi-bonus/internal/bigquery"
)

// Re-export interfaces from the shared package so callers wiring the infra
// layer need only one import.
type EventRepository = bq.EventRepository
type RateRepository = bq.RateRepository
type PayoutRepository = bq.PayoutRepository
type RunRepository = bq.RunRepository

// BigQueryLedgerRepository is the concrete implementation of the event, rate,
// payout and run repositories. It holds a shared BigQuery client to avoid
// creating a new connection per operation.
type BigQueryLedgerRepository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewBigQueryLedgerRepository creates a repository with a shared BigQuery
// client. Empty projectID or datasetID fall back to the package defaults.
func NewBigQueryLedgerRepository(ctx context.Context, projectID, datasetID string) (*BigQueryLedgerRepository, error) {
	if projectID == "" {
		projectID = defaultProjectID
	}
	if datasetID == "" {
		datasetID = defaultDatasetID
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryLedgerRepository: creating client: %w", err)
	}
	return &BigQueryLedgerRepository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryLedgerRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ListWalletEvents delegates to ListWalletEventsWithClient with the shared client.
func (r *BigQueryLedgerRepository) ListWalletEvents(ctx context.Context, cutoff civil.Date) ([]*bq.WalletEventRow, error) {
	return ListWalletEventsWithClient(ctx, r.client, r.datasetID, cutoff)
}

// ListCDIRates delegates to ListCDIRatesWithClient with the shared client.
func (r *BigQueryLedgerRepository) ListCDIRates(ctx context.Context) ([]*bq.CDIRateRow, error) {
	return ListCDIRatesWithClient(ctx, r.client, r.datasetID)
}

// InsertCDIRates delegates to InsertCDIRatesWithClient with the shared client.
func (r *BigQueryLedgerRepository) InsertCDIRates(ctx context.Context, rows []*bq.CDIRateRow) error {
	return InsertCDIRatesWithClient(ctx, r.client, r.projectID, r.datasetID, rows)
}

// InsertPayouts delegates to InsertPayoutsWithClient with the shared client.
func (r *BigQueryLedgerRepository) InsertPayouts(ctx context.Context, rows []*bq.PayoutRow) error {
	return InsertPayoutsWithClient(ctx, r.client, r.projectID, r.datasetID, rows)
}

// QueryPayoutsByRun delegates to QueryPayoutsByRunWithClient with the shared client.
func (r *BigQueryLedgerRepository) QueryPayoutsByRun(ctx context.Context, runID string) ([]*bq.PayoutRow, error) {
	return QueryPayoutsByRunWithClient(ctx, r.client, r.datasetID, runID)
}

// StartAccrualRun delegates to StartAccrualRunWithClient with the shared client.
func (r *BigQueryLedgerRepository) StartAccrualRun(ctx context.Context, cutoff civil.Date) (string, error) {
	return StartAccrualRunWithClient(ctx, r.client, r.datasetID, cutoff)
}

// MarkAccrualRunFailed delegates to MarkAccrualRunFailedWithClient with the shared client.
func (r *BigQueryLedgerRepository) MarkAccrualRunFailed(ctx context.Context, runID string, runErr error) {
	MarkAccrualRunFailedWithClient(ctx, r.client, r.datasetID, runID, runErr)
}

// MarkAccrualRunSucceeded delegates to MarkAccrualRunSucceededWithClient with the shared client.
func (r *BigQueryLedgerRepository) MarkAccrualRunSucceeded(ctx context.Context, runID string, summary bq.RunSummary) error {
	return MarkAccrualRunSucceededWithClient(ctx, r.client, r.datasetID, runID, summary)
}

// ListAccrualRuns delegates to ListAccrualRunsWithClient with the shared client.
func (r *BigQueryLedgerRepository) ListAccrualRuns(ctx context.Context) ([]*bq.AccrualRunRow, error) {
	return ListAccrualRunsWithClient(ctx, r.client, r.datasetID)
}

var _ EventRepository = (*BigQueryLedgerRepository)(nil)
var _ RateRepository = (*BigQueryLedgerRepository)(nil)
var _ PayoutRepository = (*BigQueryLedgerRepository)(nil)
var _ RunRepository = (*BigQueryLedgerRepository)(nil)
