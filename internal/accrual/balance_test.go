package accrual

import "testing"

func TestAccumulateBalancesPrefixSum(t *testing.T) {
	dense := []DenseDailyRow{
		{AccountID: "acc-1", Date: mustDate(t, "2024-01-01"), NetAmount: dec(t, "150")},
		{AccountID: "acc-1", Date: mustDate(t, "2024-01-02"), NetAmount: dec(t, "0")},
		{AccountID: "acc-1", Date: mustDate(t, "2024-01-03"), NetAmount: dec(t, "-20")},
	}

	balances := AccumulateBalances(dense)
	if len(balances) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(balances))
	}

	want := []string{"150", "150", "130"}
	for i, w := range want {
		if !balances[i].CurrentBalance.Equal(dec(t, w)) {
			t.Errorf("day %d: balance = %s, want %s", i+1, balances[i].CurrentBalance, w)
		}
	}
}

func TestAccumulateBalancesPerAccount(t *testing.T) {
	// Two accounts interleaved; each carries its own running total.
	dense := []DenseDailyRow{
		{AccountID: "acc-2", Date: mustDate(t, "2024-01-01"), NetAmount: dec(t, "10")},
		{AccountID: "acc-1", Date: mustDate(t, "2024-01-01"), NetAmount: dec(t, "200")},
		{AccountID: "acc-2", Date: mustDate(t, "2024-01-02"), NetAmount: dec(t, "5")},
		{AccountID: "acc-1", Date: mustDate(t, "2024-01-02"), NetAmount: dec(t, "-50")},
	}

	balances := AccumulateBalances(dense)
	if len(balances) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(balances))
	}

	// Output is grouped by account in sorted order, dates ascending.
	checks := []struct {
		account string
		date    string
		balance string
	}{
		{"acc-1", "2024-01-01", "200"},
		{"acc-1", "2024-01-02", "150"},
		{"acc-2", "2024-01-01", "10"},
		{"acc-2", "2024-01-02", "15"},
	}
	for i, c := range checks {
		row := balances[i]
		if row.AccountID != c.account || row.Date != mustDate(t, c.date) {
			t.Errorf("row %d: got %s/%s, want %s/%s", i, row.AccountID, row.Date, c.account, c.date)
		}
		if !row.CurrentBalance.Equal(dec(t, c.balance)) {
			t.Errorf("row %d: balance = %s, want %s", i, row.CurrentBalance, c.balance)
		}
	}
}

func TestAccumulateBalancesNegativeBalance(t *testing.T) {
	dense := []DenseDailyRow{
		{AccountID: "acc-1", Date: mustDate(t, "2024-01-01"), NetAmount: dec(t, "50")},
		{AccountID: "acc-1", Date: mustDate(t, "2024-01-02"), NetAmount: dec(t, "-80")},
	}

	balances := AccumulateBalances(dense)
	if !balances[1].CurrentBalance.Equal(dec(t, "-30")) {
		t.Errorf("balance = %s, want -30", balances[1].CurrentBalance)
	}
}

func TestAccumulateBalancesEmpty(t *testing.T) {
	if got := AccumulateBalances(nil); len(got) != 0 {
		t.Errorf("expected no rows, got %d", len(got))
	}
}
