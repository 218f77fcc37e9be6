package services

import (
	"context"
	"testing"
	"time"

	"financas/internal/core"
)

func TestBudgetStatusMalformedMonth(t *testing.T) {
	_, reports := newTestServices(t)

	for _, bad := range []string{"", "2026", "13-2026", "2026-00", "agosto"} {
		statuses, err := reports.BudgetStatus(context.Background(), 1, bad)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", bad, err)
		}
		if len(statuses) != 0 {
			t.Fatalf("%q: got %d rows, want empty result", bad, len(statuses))
		}
	}
}

func TestTrendWindow(t *testing.T) {
	ledger, reports := newTestServices(t)
	ctx := context.Background()
	userID := registerTestUser(t, ledger, "ana@example.com")
	acc, err := ledger.CreateAccount(ctx, userID, "Carteira", core.Checking, core.Money{})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	mk := func(txType core.TransactionType, cents int64, date core.Date) {
		t.Helper()
		_, err := ledger.CreateTransaction(ctx, core.Transaction{
			UserID:    userID,
			AccountID: acc.ID,
			Type:      txType,
			Category:  "Categoria",
			Amount:    core.Money{Cents: cents},
			Date:      date,
		})
		if err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}

	now := time.Date(2026, time.August, 20, 12, 0, 0, 0, time.UTC)
	// Window is 2026-03 .. 2026-08
	mk(core.Income, 100000, core.NewDate(2026, 3, 1))  // first day of oldest month: in
	mk(core.Expense, 5000, core.NewDate(2026, 2, 28))  // day before the window: out
	mk(core.Expense, 20000, core.NewDate(2026, 6, 15)) // mid-window
	mk(core.Income, 70000, core.NewDate(2026, 8, 20))  // current month

	points, err := reports.Trend(ctx, userID, now)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if len(points) != TrendMonths {
		t.Fatalf("got %d points", len(points))
	}

	if points[0].Month.String() != "2026-03" || points[5].Month.String() != "2026-08" {
		t.Fatalf("window = %s .. %s", points[0].Month, points[5].Month)
	}
	if points[0].Income.Cents != 100000 || points[0].Net.Cents != 100000 {
		t.Fatalf("oldest bucket = %+v, boundary transaction missing", points[0])
	}
	if points[3].Expense.Cents != 20000 || points[3].Net.Cents != -20000 {
		t.Fatalf("june bucket = %+v", points[3])
	}
	if points[5].Income.Cents != 70000 {
		t.Fatalf("current bucket = %+v", points[5])
	}
	// Empty buckets report zeros
	for _, i := range []int{1, 2, 4} {
		p := points[i]
		if p.Income.Cents != 0 || p.Expense.Cents != 0 || p.Net.Cents != 0 {
			t.Fatalf("bucket %s should be zero, got %+v", p.Month, p)
		}
	}
}

func TestTrendIgnoresOtherUsers(t *testing.T) {
	ledger, reports := newTestServices(t)
	ctx := context.Background()
	owner := registerTestUser(t, ledger, "ana@example.com")
	other := registerTestUser(t, ledger, "eve@example.com")

	acc, err := ledger.CreateAccount(ctx, owner, "Carteira", core.Checking, core.Money{})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	now := time.Date(2026, time.August, 20, 12, 0, 0, 0, time.UTC)
	_, err = ledger.CreateTransaction(ctx, core.Transaction{
		UserID:    owner,
		AccountID: acc.ID,
		Type:      core.Income,
		Category:  "Salario",
		Amount:    core.Money{Cents: 100000},
		Date:      core.NewDate(2026, 8, 1),
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	points, err := reports.Trend(ctx, other, now)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	for _, p := range points {
		if p.Income.Cents != 0 || p.Expense.Cents != 0 {
			t.Fatalf("foreign data leaked into bucket %s: %+v", p.Month, p)
		}
	}
}
