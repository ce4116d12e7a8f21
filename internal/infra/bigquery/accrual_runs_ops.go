package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	bq "github.com/dvloznov/cdi-bonus/internal/bigquery"
	"github.com/dvloznov/cdi-bonus/internal/logger"
)

const (
	defaultProjectID = "studious-union-470122-v7"
	defaultDatasetID = "wallet"

	walletEventsTable = "wallet_events"
	cdiRatesTable     = "cdi_rates"
	payoutsTable      = "interest_payouts"
	accrualRunsTable  = "accrual_runs"
)

// StartAccrualRunWithClient inserts a new row into accrual_runs with
// status=RUNNING and returns the generated run_id.
func StartAccrualRunWithClient(ctx context.Context, client *bigquery.Client, datasetID string, cutoff civil.Date) (string, error) {
	runID := uuid.NewString()
	started := time.Now()

	q := client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			run_id,
			cutoff_date,
			started_ts,
			status
		)
		VALUES (
			@run_id,
			@cutoff_date,
			@started_ts,
			@status
		)
	`, datasetID, accrualRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "cutoff_date", Value: cutoff},
		{Name: "started_ts", Value: started},
		{Name: "status", Value: "RUNNING"},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return "", fmt.Errorf("StartAccrualRun: running insert query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("StartAccrualRun: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return "", fmt.Errorf("StartAccrualRun: job error: %w", err)
	}

	return runID, nil
}

// MarkAccrualRunFailedWithClient sets status=FAILED, finished_ts and
// error_message. Failure to record the failure is logged, not returned; the
// caller surfaces the original run error.
func MarkAccrualRunFailedWithClient(ctx context.Context, client *bigquery.Client, datasetID, runID string, runErr error) {
	log := logger.FromContext(ctx)

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		const maxLen = 4000
		if len(errMsg) > maxLen {
			errMsg = errMsg[:maxLen]
		}
	}

	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE run_id = @run_id
	`, datasetID, accrualRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "FAILED"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "run_id", Value: runID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkAccrualRunFailed: running update query")
		return
	}

	status, err := job.Wait(ctx)
	if err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkAccrualRunFailed: waiting for job")
		return
	}
	if err := status.Err(); err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkAccrualRunFailed: job completed with error")
	}
}

// MarkAccrualRunSucceededWithClient sets status=SUCCESS, finished_ts and the
// run summary, clearing error_message.
func MarkAccrualRunSucceededWithClient(ctx context.Context, client *bigquery.Client, datasetID, runID string, summary bq.RunSummary) error {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = "",
		    events_processed = @events_processed,
		    payouts_inserted = @payouts_inserted,
		    total_interest = @total_interest
		WHERE run_id = @run_id
	`, datasetID, accrualRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "SUCCESS"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "events_processed", Value: int64(summary.EventsProcessed)},
		{Name: "payouts_inserted", Value: int64(summary.PayoutsInserted)},
		{Name: "total_interest", Value: summary.TotalInterest.Rat()},
		{Name: "run_id", Value: runID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("MarkAccrualRunSucceeded: running update query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("MarkAccrualRunSucceeded: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("MarkAccrualRunSucceeded: job error: %w", err)
	}

	return nil
}

// ListAccrualRunsWithClient returns all accrual runs, most recent first.
func ListAccrualRunsWithClient(ctx context.Context, client *bigquery.Client, datasetID string) ([]*bq.AccrualRunRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
		  run_id,
		  cutoff_date,
		  started_ts,
		  finished_ts,
		  status,
		  error_message,
		  events_processed,
		  payouts_inserted,
		  total_interest
		FROM %s.%s
		ORDER BY started_ts DESC
	`, datasetID, accrualRunsTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAccrualRuns: query read: %w", err)
	}

	var rows []*bq.AccrualRunRow
	for {
		var r bq.AccrualRunRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListAccrualRuns: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}
