package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	bq "github.com/dvloznov/cdi-bonus/internal/bigquery"
)

// InsertPayoutsWithClient inserts a batch of payout rows into the sink table.
func InsertPayoutsWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID string, rows []*bq.PayoutRow) error {
	if len(rows) == 0 {
		return nil
	}

	table := client.DatasetInProject(projectID, datasetID).Table(payoutsTable)
	inserter := table.Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertPayouts: inserting rows: %w", err)
	}

	return nil
}

// QueryPayoutsByRunWithClient retrieves all payouts produced by one accrual
// run, ordered by accrual date and account.
func QueryPayoutsByRunWithClient(ctx context.Context, client *bigquery.Client, datasetID, runID string) ([]*bq.PayoutRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
		  transaction_id,
		  run_id,
		  event_time,
		  user_id,
		  account_id,
		  accrual_date,
		  amount,
		  transaction_type,
		  source_system
		FROM %s.%s
		WHERE run_id = @run_id
		ORDER BY accrual_date, account_id
	`, datasetID, payoutsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryPayoutsByRun: query read: %w", err)
	}

	var rows []*bq.PayoutRow
	for {
		var r bq.PayoutRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryPayoutsByRun: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}
