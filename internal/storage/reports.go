package storage

import (
	"context"
	"fmt"

	"financas/internal/core"
)

// Summary aggregates all-time income/expense totals and the transaction
// count from transactions, and the balance from account current balances.
// The balance deliberately includes initial balances and is independent of
// income minus expense.
func (r *SQLiteRepository) Summary(ctx context.Context, userID int64) (core.Summary, error) {
	var s core.Summary
	err := r.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END), 0),
			COUNT(*)
		 FROM transactions WHERE user_id = ?`, userID).
		Scan(&s.Income.Cents, &s.Expense.Cents, &s.Transactions)
	if err != nil {
		return core.Summary{}, fmt.Errorf("sum transactions: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(current_balance_cents), 0) FROM accounts WHERE user_id = ?`, userID).
		Scan(&s.Balance.Cents)
	if err != nil {
		return core.Summary{}, fmt.Errorf("sum account balances: %w", err)
	}

	return s, nil
}

// UpsertBudget creates the budget row or replaces its limit for an existing
// (month, category) key.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, month, category, limit_cents)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, month, category) DO UPDATE SET limit_cents = excluded.limit_cents`,
		b.UserID, b.Month.String(), b.Category, b.Limit.Cents)
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

// BudgetStatus returns one status row per budget the user has for the month,
// with the category's expense spend for that month, ordered by category.
// Categories without a budget row produce nothing.
func (r *SQLiteRepository) BudgetStatus(ctx context.Context, userID int64, month core.Month) ([]core.BudgetStatus, error) {
	// Transaction dates are stored as YYYY-MM-DD, so the month prefix
	// matches the budget key directly.
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.category, b.limit_cents, COALESCE(SUM(t.amount_cents), 0)
		 FROM budgets b
		 LEFT JOIN transactions t
			ON t.user_id = b.user_id
			AND t.category = b.category
			AND t.type = 'expense'
			AND substr(t.date, 1, 7) = b.month
		 WHERE b.user_id = ? AND b.month = ?
		 GROUP BY b.category, b.limit_cents
		 ORDER BY b.category ASC`,
		userID, month.String())
	if err != nil {
		return nil, fmt.Errorf("query budget status: %w", err)
	}
	defer rows.Close()

	var out []core.BudgetStatus
	for rows.Next() {
		var (
			category     string
			limit, spent int64
		)
		if err := rows.Scan(&category, &limit, &spent); err != nil {
			return nil, fmt.Errorf("scan budget status: %w", err)
		}
		out = append(out, core.NewBudgetStatus(category,
			core.Money{Cents: limit}, core.Money{Cents: spent}))
	}
	return out, rows.Err()
}

// MonthTotals sums income and expense per month over [start, end], keyed by
// YYYY-MM. Months with no transactions are absent; the caller fills zero
// buckets.
func (r *SQLiteRepository) MonthTotals(ctx context.Context, userID int64, start, end core.Date) (map[string]core.TrendPoint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT substr(date, 1, 7) AS ym,
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END), 0)
		 FROM transactions
		 WHERE user_id = ? AND date >= ? AND date <= ?
		 GROUP BY ym`,
		userID, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("query month totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]core.TrendPoint)
	for rows.Next() {
		var (
			ym              string
			income, expense int64
		)
		if err := rows.Scan(&ym, &income, &expense); err != nil {
			return nil, fmt.Errorf("scan month totals: %w", err)
		}
		totals[ym] = core.TrendPoint{
			Income:  core.Money{Cents: income},
			Expense: core.Money{Cents: expense},
			Net:     core.Money{Cents: income - expense},
		}
	}
	return totals, rows.Err()
}
