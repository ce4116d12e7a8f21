package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	bq "github.com/dvloznov/cdi-bonus/internal/bigquery"
)

// ListCDIRatesWithClient retrieves the full published rate series in date
// order. The series is sparse; callers must not assume one row per day.
func ListCDIRatesWithClient(ctx context.Context, client *bigquery.Client, datasetID string) ([]*bq.CDIRateRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
		  date,
		  daily_rate
		FROM %s.%s
		ORDER BY date
	`, datasetID, cdiRatesTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListCDIRates: query read: %w", err)
	}

	var rows []*bq.CDIRateRow
	for {
		var r bq.CDIRateRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListCDIRates: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// InsertCDIRatesWithClient appends rate rows to the rate table. The table is
// append-only reference data; dedup against existing dates is the loader's
// responsibility before calling this.
func InsertCDIRatesWithClient(ctx context.Context, client *bigquery.Client, projectID, datasetID string, rows []*bq.CDIRateRow) error {
	if len(rows) == 0 {
		return nil
	}

	table := client.DatasetInProject(projectID, datasetID).Table(cdiRatesTable)
	inserter := table.Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertCDIRates: inserting rows: %w", err)
	}

	return nil
}
