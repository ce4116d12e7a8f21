package accrual

import (
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

func mustDate(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("parsing date %q: %v", s, err)
	}
	return d
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parsing decimal %q: %v", s, err)
	}
	return d
}

func TestDensifyEmptyInput(t *testing.T) {
	_, err := Densify(nil)
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestDensifyFillsGapsWithZero(t *testing.T) {
	movements := []DailyMovement{
		{AccountID: "acc-1", Date: mustDate(t, "2024-01-01"), NetAmount: dec(t, "150")},
		{AccountID: "acc-1", Date: mustDate(t, "2024-01-03"), NetAmount: dec(t, "-20")},
	}

	dense, err := Densify(movements)
	if err != nil {
		t.Fatalf("Densify: %v", err)
	}

	if len(dense) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(dense))
	}

	want := []struct {
		date string
		net  string
	}{
		{"2024-01-01", "150"},
		{"2024-01-02", "0"},
		{"2024-01-03", "-20"},
	}
	for i, w := range want {
		row := dense[i]
		if row.AccountID != "acc-1" {
			t.Errorf("row %d: account = %q, want acc-1", i, row.AccountID)
		}
		if row.Date != mustDate(t, w.date) {
			t.Errorf("row %d: date = %s, want %s", i, row.Date, w.date)
		}
		if !row.NetAmount.Equal(dec(t, w.net)) {
			t.Errorf("row %d: net = %s, want %s", i, row.NetAmount, w.net)
		}
	}
}

func TestDensifySharedRangeAcrossAccounts(t *testing.T) {
	// acc-1 only moves on day 1, acc-2 only on day 3. Both must still
	// cover the full shared range.
	movements := []DailyMovement{
		{AccountID: "acc-1", Date: mustDate(t, "2024-03-01"), NetAmount: dec(t, "500")},
		{AccountID: "acc-2", Date: mustDate(t, "2024-03-03"), NetAmount: dec(t, "250")},
	}

	dense, err := Densify(movements)
	if err != nil {
		t.Fatalf("Densify: %v", err)
	}

	if len(dense) != 6 {
		t.Fatalf("expected 2 accounts x 3 days = 6 rows, got %d", len(dense))
	}

	// Output is ordered by account, then date.
	if dense[0].AccountID != "acc-1" || dense[3].AccountID != "acc-2" {
		t.Errorf("unexpected account ordering: %s, %s", dense[0].AccountID, dense[3].AccountID)
	}
	if !dense[3].NetAmount.IsZero() {
		t.Errorf("acc-2 day 1 net = %s, want 0", dense[3].NetAmount)
	}
	if !dense[5].NetAmount.Equal(dec(t, "250")) {
		t.Errorf("acc-2 day 3 net = %s, want 250", dense[5].NetAmount)
	}
}

func TestDensifySumsDuplicateDays(t *testing.T) {
	movements := []DailyMovement{
		{AccountID: "acc-1", Date: mustDate(t, "2024-01-01"), NetAmount: dec(t, "100")},
		{AccountID: "acc-1", Date: mustDate(t, "2024-01-01"), NetAmount: dec(t, "-30")},
	}

	dense, err := Densify(movements)
	if err != nil {
		t.Fatalf("Densify: %v", err)
	}

	if len(dense) != 1 {
		t.Fatalf("expected 1 row, got %d", len(dense))
	}
	if !dense[0].NetAmount.Equal(dec(t, "70")) {
		t.Errorf("net = %s, want 70", dense[0].NetAmount)
	}
}

func TestDensifyIdempotentOnSameInput(t *testing.T) {
	movements := []DailyMovement{
		{AccountID: "acc-1", Date: mustDate(t, "2024-01-02"), NetAmount: dec(t, "80")},
		{AccountID: "acc-2", Date: mustDate(t, "2024-01-01"), NetAmount: dec(t, "40")},
	}

	first, err := Densify(movements)
	if err != nil {
		t.Fatalf("Densify: %v", err)
	}
	second, err := Densify(movements)
	if err != nil {
		t.Fatalf("Densify: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].AccountID != second[i].AccountID || first[i].Date != second[i].Date || !first[i].NetAmount.Equal(second[i].NetAmount) {
			t.Errorf("row %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestDateRange(t *testing.T) {
	movements := []DailyMovement{
		{AccountID: "a", Date: mustDate(t, "2024-05-10")},
		{AccountID: "b", Date: mustDate(t, "2024-05-02")},
		{AccountID: "a", Date: mustDate(t, "2024-05-07")},
	}

	start, end, err := DateRange(movements)
	if err != nil {
		t.Fatalf("DateRange: %v", err)
	}
	if start != mustDate(t, "2024-05-02") {
		t.Errorf("start = %s, want 2024-05-02", start)
	}
	if end != mustDate(t, "2024-05-10") {
		t.Errorf("end = %s, want 2024-05-10", end)
	}

	if _, _, err := DateRange(nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput for empty input, got %v", err)
	}
}
