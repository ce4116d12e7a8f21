package payout

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"
)

// ExportCSV renders payout records as a CSV sheet for downstream
// reconciliation. Columns mirror the sink table minus the run id, which the
// caller already knows.
func ExportCSV(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"transaction_id", "event_time", "user_id", "account_id", "accrual_date", "amount", "transaction_type", "source_system"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("ExportCSV: writing header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.TransactionID,
			rec.EventTime.UTC().Format(time.RFC3339),
			rec.UserID,
			rec.AccountID,
			rec.Date.String(),
			rec.Amount.String(),
			rec.TransactionType,
			rec.SourceSystem,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("ExportCSV: writing row for %s: %w", rec.TransactionID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("ExportCSV: flushing: %w", err)
	}
	return buf.Bytes(), nil
}
