package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"financas/internal/core"
)

// CreateTransaction inserts the transaction row and applies its signed amount
// to the account balance in one atomic unit.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create transaction: %w", err)
	}
	defer tx.Rollback()

	if err := accountOwned(ctx, tx, t.UserID, t.AccountID); err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (user_id, account_id, type, category, description, amount_cents, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.AccountID, string(t.Type), t.Category, t.Description,
		t.Amount.Cents, t.Date.String(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}

	if err := applyDelta(ctx, tx, t.AccountID, t.Signed()); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", id,
		"user_id", t.UserID,
		"account_id", t.AccountID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents)
	return id, nil
}

// UpdateTransaction overwrites a transaction's mutable fields, reversing the
// prior balance effect on the old account and applying the new one on the new
// account. All three steps commit together; the prior consistent state
// survives any failure in between.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		oldAccountID int64
		oldType      string
		oldAmount    int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT account_id, type, amount_cents FROM transactions WHERE id = ? AND user_id = ?`,
		t.ID, t.UserID).Scan(&oldAccountID, &oldType, &oldAmount)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load prior transaction: %w", err)
	}

	if err := accountOwned(ctx, tx, t.UserID, t.AccountID); err != nil {
		return err
	}

	old := core.Transaction{Type: core.TransactionType(oldType), Amount: core.Money{Cents: oldAmount}}
	if err := applyDelta(ctx, tx, oldAccountID, -old.Signed()); err != nil {
		return err
	}
	if err := applyDelta(ctx, tx, t.AccountID, t.Signed()); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE transactions
		 SET account_id = ?, type = ?, category = ?, description = ?, amount_cents = ?, date = ?
		 WHERE id = ? AND user_id = ?`,
		t.AccountID, string(t.Type), t.Category, t.Description,
		t.Amount.Cents, t.Date.String(), t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction updated",
		"id", t.ID,
		"user_id", t.UserID,
		"old_account_id", oldAccountID,
		"new_account_id", t.AccountID)
	return nil
}

// DeleteTransaction removes the row and reverses its balance effect,
// atomically.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, txID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		accountID int64
		txType    string
		amount    int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT account_id, type, amount_cents FROM transactions WHERE id = ? AND user_id = ?`,
		txID, userID).Scan(&accountID, &txType, &amount)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	prior := core.Transaction{Type: core.TransactionType(txType), Amount: core.Money{Cents: amount}}
	if err := applyDelta(ctx, tx, accountID, -prior.Signed()); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, txID, userID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", txID, "user_id", userID)
	return nil
}

// ListTransactions returns the user's transactions joined with the account
// name, newest date first and most recent id first within a day. Set filters
// are AND-combined.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, f core.TransactionFilter) ([]core.Transaction, error) {
	var (
		where = []string{"t.user_id = ?"}
		args  = []any{userID}
	)
	if !f.StartDate.IsZero() {
		where = append(where, "t.date >= ?")
		args = append(args, f.StartDate.String())
	}
	if !f.EndDate.IsZero() {
		where = append(where, "t.date <= ?")
		args = append(args, f.EndDate.String())
	}
	if f.Type != "" {
		where = append(where, "t.type = ?")
		args = append(args, string(f.Type))
	}
	if f.Category != "" {
		where = append(where, "t.category = ?")
		args = append(args, f.Category)
	}
	if f.AccountID != 0 {
		where = append(where, "t.account_id = ?")
		args = append(args, f.AccountID)
	}

	query := `SELECT t.id, t.user_id, t.account_id, t.type, t.category, t.description, t.amount_cents, t.date, a.name
		 FROM transactions t
		 JOIN accounts a ON a.id = t.account_id
		 WHERE ` + strings.Join(where, " AND ") + `
		 ORDER BY t.date DESC, t.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t      core.Transaction
			txType string
			date   string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.AccountID, &txType, &t.Category,
			&t.Description, &t.Amount.Cents, &date, &t.AccountName); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(txType)
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", date, err)
		}
		t.Date = d
		out = append(out, t)
	}
	return out, rows.Err()
}
