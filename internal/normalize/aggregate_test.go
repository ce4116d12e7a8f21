package normalize

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

func event(t *testing.T, ts string, account, op, amount string) Event {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t.Fatalf("parsing time %q: %v", ts, err)
	}
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("parsing amount %q: %v", amount, err)
	}
	return Event{
		EventTime: parsed,
		UserID:    "user-1",
		AccountID: account,
		Amount:    amt,
		Type:      TypeDeposit,
		Op:        CDCOperation(op),
	}
}

func TestEligibleDailyMovementsSumsPerDay(t *testing.T) {
	events := []Event{
		event(t, "2024-01-01T09:00:00Z", "acc-1", "insert", "100"),
		event(t, "2024-01-01T18:30:00Z", "acc-1", "update", "-30"),
		event(t, "2024-01-02T08:00:00Z", "acc-1", "insert", "50"),
	}

	movements := EligibleDailyMovements(events)
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(movements))
	}
	if !movements[0].NetAmount.Equal(decimal.NewFromInt(70)) {
		t.Errorf("day 1 net = %s, want 70", movements[0].NetAmount)
	}
	if !movements[1].NetAmount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("day 2 net = %s, want 50", movements[1].NetAmount)
	}
}

func TestEligibleDailyMovementsDropsDeletes(t *testing.T) {
	events := []Event{
		event(t, "2024-01-01T09:00:00Z", "acc-1", "insert", "100"),
		event(t, "2024-01-01T10:00:00Z", "acc-1", "delete", "-100"),
	}

	movements := EligibleDailyMovements(events)
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movements))
	}
	if !movements[0].NetAmount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("net = %s, want 100 (delete excluded)", movements[0].NetAmount)
	}
}

func TestEligibleDailyMovementsTruncatesToUTCDay(t *testing.T) {
	// 23:30 UTC-3 is 02:30 UTC the next day.
	loc := time.FixedZone("BRT", -3*60*60)
	e := Event{
		EventTime: time.Date(2024, 1, 1, 23, 30, 0, 0, loc),
		UserID:    "user-1",
		AccountID: "acc-1",
		Amount:    decimal.NewFromInt(10),
		Type:      TypeDeposit,
		Op:        OpInsert,
	}

	movements := EligibleDailyMovements([]Event{e})
	want := civil.Date{Year: 2024, Month: 1, Day: 2}
	if movements[0].Date != want {
		t.Errorf("date = %s, want %s", movements[0].Date, want)
	}
}

func TestEligibleDailyMovementsOrdering(t *testing.T) {
	events := []Event{
		event(t, "2024-01-02T09:00:00Z", "acc-2", "insert", "1"),
		event(t, "2024-01-01T09:00:00Z", "acc-2", "insert", "1"),
		event(t, "2024-01-01T09:00:00Z", "acc-1", "insert", "1"),
	}

	movements := EligibleDailyMovements(events)
	if len(movements) != 3 {
		t.Fatalf("expected 3 movements, got %d", len(movements))
	}
	if movements[0].AccountID != "acc-1" {
		t.Errorf("first movement account = %s, want acc-1", movements[0].AccountID)
	}
	if movements[1].AccountID != "acc-2" || movements[1].Date.Day != 1 {
		t.Errorf("second movement = %s/%s, want acc-2/2024-01-01", movements[1].AccountID, movements[1].Date)
	}
}

func TestEligibleDailyMovementsEmpty(t *testing.T) {
	if got := EligibleDailyMovements(nil); len(got) != 0 {
		t.Errorf("expected no movements, got %d", len(got))
	}
}
