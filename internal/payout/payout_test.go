package payout

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/cdi-bonus/internal/accrual"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parsing decimal %q: %v", s, err)
	}
	return d
}

func accrualRow(t *testing.T, account, date, stable, interest string) accrual.AccrualRow {
	t.Helper()
	d, err := civil.ParseDate(date)
	if err != nil {
		t.Fatalf("parsing date %q: %v", date, err)
	}
	return accrual.AccrualRow{
		Date:           d,
		AccountID:      account,
		StableAmount:   dec(t, stable),
		InterestAmount: dec(t, interest),
	}
}

func TestFormatRecordsRoundsHalfAwayFromZero(t *testing.T) {
	rows := []accrual.AccrualRow{
		accrualRow(t, "acc-1", "2024-01-02", "50", "0.075"),
		accrualRow(t, "acc-1", "2024-01-03", "30", "0.045"),
	}
	batchTime := time.Date(2024, 1, 4, 3, 0, 0, 0, time.UTC)

	records := FormatRecords(rows, accrual.DefaultParams(), batchTime)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	if !records[0].Amount.Equal(dec(t, "0.08")) {
		t.Errorf("amount = %s, want 0.08", records[0].Amount)
	}
	if !records[1].Amount.Equal(dec(t, "0.05")) {
		t.Errorf("amount = %s, want 0.05", records[1].Amount)
	}
}

func TestFormatRecordsStampsLedgerFields(t *testing.T) {
	batchTime := time.Date(2024, 1, 4, 3, 0, 0, 0, time.UTC)
	records := FormatRecords([]accrual.AccrualRow{
		accrualRow(t, "acc-1", "2024-01-02", "100", "0.15"),
	}, accrual.DefaultParams(), batchTime)

	rec := records[0]
	if rec.TransactionID == "" {
		t.Error("transaction id must be set")
	}
	if rec.UserID != SystemUserID {
		t.Errorf("user id = %q, want %q", rec.UserID, SystemUserID)
	}
	if rec.TransactionType != TransactionType {
		t.Errorf("transaction type = %q, want %q", rec.TransactionType, TransactionType)
	}
	if rec.SourceSystem != SourceSystem {
		t.Errorf("source system = %q, want %q", rec.SourceSystem, SourceSystem)
	}
	if !rec.EventTime.Equal(batchTime) {
		t.Errorf("event time = %s, want %s", rec.EventTime, batchTime)
	}
	if rec.AccountID != "acc-1" {
		t.Errorf("account id = %q, want acc-1", rec.AccountID)
	}
}

func TestFormatRecordsUniqueTransactionIDs(t *testing.T) {
	rows := []accrual.AccrualRow{
		accrualRow(t, "acc-1", "2024-01-02", "100", "0.15"),
		accrualRow(t, "acc-2", "2024-01-02", "100", "0.15"),
	}
	records := FormatRecords(rows, accrual.DefaultParams(), time.Now())
	if records[0].TransactionID == records[1].TransactionID {
		t.Error("transaction ids must be unique per record")
	}
}

func TestFormatRecordsDropsNonPositiveInterest(t *testing.T) {
	rows := []accrual.AccrualRow{
		accrualRow(t, "acc-1", "2024-01-01", "0", "0"),
		accrualRow(t, "acc-2", "2024-01-01", "1", "0.001"),  // rounds to 0.00
		accrualRow(t, "acc-3", "2024-01-01", "50", "0.075"), // survives
	}

	records := FormatRecords(rows, accrual.DefaultParams(), time.Now())
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].AccountID != "acc-3" {
		t.Errorf("surviving account = %s, want acc-3", records[0].AccountID)
	}
}

func TestFormatRecordsMinPayout(t *testing.T) {
	rows := []accrual.AccrualRow{
		accrualRow(t, "acc-1", "2024-01-01", "200", "0.30"),
		accrualRow(t, "acc-2", "2024-01-01", "50", "0.08"),
	}

	params := accrual.DefaultParams()
	params.MinPayout = dec(t, "0.10")

	records := FormatRecords(rows, params, time.Now())
	if len(records) != 1 {
		t.Fatalf("expected 1 record above the minimum, got %d", len(records))
	}
	if records[0].AccountID != "acc-1" {
		t.Errorf("surviving account = %s, want acc-1", records[0].AccountID)
	}
}

func TestExportCSV(t *testing.T) {
	batchTime := time.Date(2024, 1, 4, 3, 0, 0, 0, time.UTC)
	records := FormatRecords([]accrual.AccrualRow{
		accrualRow(t, "acc-1", "2024-01-02", "50", "0.075"),
	}, accrual.DefaultParams(), batchTime)

	data, err := ExportCSV(records)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	out := string(data)
	wantHeader := "transaction_id,event_time,user_id,account_id,accrual_date,amount,transaction_type,source_system\n"
	if len(out) < len(wantHeader) || out[:len(wantHeader)] != wantHeader {
		t.Errorf("unexpected header in:\n%s", out)
	}
	for _, fragment := range []string{"2024-01-04T03:00:00Z", "acc-1", "2024-01-02", "0.08", TransactionType, SourceSystem} {
		if !strings.Contains(out, fragment) {
			t.Errorf("output missing %q:\n%s", fragment, out)
		}
	}
}
