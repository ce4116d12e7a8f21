// Package rates parses and validates the published daily CDI rate series.
package rates

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/cdi-bonus/internal/accrual"
)

// ParseCSV reads a rate sheet with a "date,daily_rate" header, dates as
// YYYY-MM-DD and rates as decimal fractions (e.g. 0.0015). The parsed series
// is validated as a whole: duplicate dates and negative rates are rejected
// with every offending row reported.
func ParseCSV(r io.Reader) ([]accrual.RateEntry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("rates: empty rate sheet")
	}
	if err != nil {
		return nil, fmt.Errorf("rates: reading header: %w", err)
	}
	if len(header) < 2 || !strings.EqualFold(strings.TrimSpace(header[0]), "date") ||
		!strings.EqualFold(strings.TrimSpace(header[1]), "daily_rate") {
		return nil, fmt.Errorf("rates: unexpected header %v, want [date daily_rate]", header)
	}

	var entries []accrual.RateEntry
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("rates: line %d: %w", line, err)
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("rates: line %d: expected 2 fields, got %d", line, len(record))
		}

		date, err := civil.ParseDate(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("rates: line %d: invalid date %q: %w", line, record[0], err)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(record[1]))
		if err != nil {
			return nil, fmt.Errorf("rates: line %d: invalid rate %q: %w", line, record[1], err)
		}

		entries = append(entries, accrual.RateEntry{Date: date, DailyRate: rate})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("rates: rate sheet has no data rows")
	}
	if err := accrual.ValidateRates(entries); err != nil {
		return nil, err
	}

	return entries, nil
}
