// Package storage implements the persistent store on embedded SQLite. Every
// write that touches both a transaction row and an account balance runs inside
// a single database transaction, so a failure mid-operation never leaves a
// partially applied balance delta behind.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"financas/internal/core"

	_ "modernc.org/sqlite"
)

// ErrEmailInUse reports a registration against an already-registered email.
var ErrEmailInUse = errors.New("email already registered")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// RegisterUser inserts a user and their default checking account in one
// transaction, so a half-registered user (no account) can never be observed.
func (r *SQLiteRepository) RegisterUser(ctx context.Context, email, passwordHash string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin register: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?)`,
		email, passwordHash, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrEmailInUse
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	userID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user id: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO accounts (user_id, name, type, initial_balance_cents, current_balance_cents, created_at)
		 VALUES (?, ?, ?, 0, 0, ?)`,
		userID, core.DefaultAccountName, string(core.Checking), now)
	if err != nil {
		return 0, fmt.Errorf("insert default account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit register: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", userID)
	return userID, nil
}

// GetUserByEmail returns the user id and password hash for a login attempt.
func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (int64, string, error) {
	var (
		id   int64
		hash string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE email = ?`, email).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", core.ErrNotFound
	}
	if err != nil {
		return 0, "", fmt.Errorf("get user by email: %w", err)
	}
	return id, hash, nil
}

// CreateAccount inserts an account with its current balance initialized to the
// initial balance.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, userID int64, name string, accType core.AccountType, initial core.Money) (core.Account, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, name, type, initial_balance_cents, current_balance_cents, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, name, string(accType), initial.Cents, initial.Cents, now.Format(time.RFC3339))
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account id: %w", err)
	}

	return core.Account{
		ID:             id,
		UserID:         userID,
		Name:           name,
		Type:           accType,
		InitialBalance: initial,
		CurrentBalance: initial,
		CreatedAt:      now,
	}, nil
}

// GetAccount returns one of the user's accounts. A real account owned by a
// different user reports the same not-found as a missing one.
func (r *SQLiteRepository) GetAccount(ctx context.Context, userID, accountID int64) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, type, initial_balance_cents, current_balance_cents, created_at
		 FROM accounts WHERE id = ? AND user_id = ?`, accountID, userID)
	return scanAccount(row)
}

// ListAccounts returns the user's accounts in creation order.
func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, type, initial_balance_cents, current_balance_cents, created_at
		 FROM accounts WHERE user_id = ? ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var (
		acc       core.Account
		accType   string
		createdAt string
	)
	err := row.Scan(&acc.ID, &acc.UserID, &acc.Name, &accType,
		&acc.InitialBalance.Cents, &acc.CurrentBalance.Cents, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("scan account: %w", err)
	}
	acc.Type = core.AccountType(accType)
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		acc.CreatedAt = t
	}
	return acc, nil
}

// accountOwned verifies account ownership inside an open transaction.
func accountOwned(ctx context.Context, tx *sql.Tx, userID, accountID int64) error {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM accounts WHERE id = ? AND user_id = ?`, accountID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check account ownership: %w", err)
	}
	return nil
}

// applyDelta adjusts an account's current balance. Only the ledger mutations
// in this package call it, always inside the same transaction as the
// transaction-row write that caused the delta.
func applyDelta(ctx context.Context, tx *sql.Tx, accountID, delta int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET current_balance_cents = current_balance_cents + ? WHERE id = ?`,
		delta, accountID)
	if err != nil {
		return fmt.Errorf("apply balance delta: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("apply balance delta: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
