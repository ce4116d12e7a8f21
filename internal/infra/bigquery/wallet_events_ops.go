package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	bq "github.com/dvloznov/cdi-bonus/internal/bigquery"
)

// ListWalletEventsWithClient retrieves all wallet events dated on or before
// cutoff, ordered by account and event time. Nullable columns come back as-is;
// null handling is the normalizer's job, so no filtering happens here.
func ListWalletEventsWithClient(ctx context.Context, client *bigquery.Client, datasetID string, cutoff civil.Date) ([]*bq.WalletEventRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
		  event_time,
		  user_id,
		  account_id,
		  amount,
		  transaction_type,
		  cdc_operation,
		  cdc_sequence_num,
		  source_system
		FROM %s.%s
		WHERE DATE(event_time) <= @cutoff
		ORDER BY account_id, event_time, cdc_sequence_num
	`, datasetID, walletEventsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "cutoff", Value: cutoff},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListWalletEvents: query read: %w", err)
	}

	var rows []*bq.WalletEventRow
	for {
		var r bq.WalletEventRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListWalletEvents: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}
