package rates

import (
	"strings"
	"testing"

	"github.com/dvloznov/cdi-bonus/internal/accrual"
)

func TestParseCSV(t *testing.T) {
	input := "date,daily_rate\n2024-01-01,0.0015\n2024-01-02,0.00148\n"

	entries, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Date.String() != "2024-01-01" {
		t.Errorf("date = %s, want 2024-01-01", entries[0].Date)
	}
	if entries[0].DailyRate.String() != "0.0015" {
		t.Errorf("rate = %s, want 0.0015", entries[0].DailyRate)
	}
}

func TestParseCSVHeaderCaseInsensitive(t *testing.T) {
	input := "Date,Daily_Rate\n2024-01-01,0.0015\n"
	if _, err := ParseCSV(strings.NewReader(input)); err != nil {
		t.Errorf("expected case-insensitive header to parse, got %v", err)
	}
}

func TestParseCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty sheet", "", "empty rate sheet"},
		{"wrong header", "day,rate\n2024-01-01,0.0015\n", "unexpected header"},
		{"header only", "date,daily_rate\n", "no data rows"},
		{"bad date", "date,daily_rate\nJan 1,0.0015\n", "invalid date"},
		{"bad rate", "date,daily_rate\n2024-01-01,fifteen\n", "invalid rate"},
		{"missing field", "date,daily_rate\n2024-01-01\n", "line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseCSVRejectsInvalidSeries(t *testing.T) {
	input := "date,daily_rate\n2024-01-01,0.0015\n2024-01-01,0.0016\n"

	_, err := ParseCSV(strings.NewReader(input))
	if _, ok := accrual.AsIntegrityViolation(err); !ok {
		t.Fatalf("expected IntegrityViolationError for duplicate dates, got %v", err)
	}
}
