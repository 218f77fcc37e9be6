// Package services orchestrates the ledger operations and the derived
// reports on top of the SQLite repository. The LedgerService is the only
// write path into account balances; the ReportService serves cached
// aggregates that the LedgerService invalidates on every mutation.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"financas/internal/core"
	"financas/internal/storage"
)

// LedgerService validates inbound payloads, enforces per-operation ownership
// checks and delegates the atomic writes to storage.
type LedgerService struct {
	storage *storage.SQLiteRepository
	reports *ReportService
}

func NewLedgerService(st *storage.SQLiteRepository, reports *ReportService) *LedgerService {
	return &LedgerService{
		storage: st,
		reports: reports,
	}
}

// CreateAccount creates an account whose current balance starts at the
// initial balance. The initial balance may be zero or negative (credit).
func (s *LedgerService) CreateAccount(ctx context.Context, userID int64, name string, accType core.AccountType, initial core.Money) (core.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Account{}, core.ErrEmptyName
	}
	if err := accType.Validate(); err != nil {
		return core.Account{}, err
	}

	acc, err := s.storage.CreateAccount(ctx, userID, name, accType, initial)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}

	s.invalidate(userID)
	slog.InfoContext(ctx, "Account created", "user_id", userID, "account_id", acc.ID, "type", accType)
	return acc, nil
}

// ListAccounts returns the user's accounts.
func (s *LedgerService) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	accounts, err := s.storage.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// CreateTransaction validates and records a transaction; the account balance
// moves by the signed amount in the same atomic unit.
func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	id, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return 0, err
	}

	s.invalidate(t.UserID)
	return id, nil
}

// UpdateTransaction overwrites a transaction, reversing the old balance
// effect and applying the new one atomically, whether or not the account or
// type changed.
func (s *LedgerService) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}

	if err := s.storage.UpdateTransaction(ctx, t); err != nil {
		return err
	}

	s.invalidate(t.UserID)
	return nil
}

// DeleteTransaction removes a transaction and reverses its balance effect.
func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, txID int64) error {
	if err := s.storage.DeleteTransaction(ctx, userID, txID); err != nil {
		return err
	}

	s.invalidate(userID)
	return nil
}

// ListTransactions returns the user's transactions, newest first, narrowed
// by the AND-combined filters.
func (s *LedgerService) ListTransactions(ctx context.Context, userID int64, f core.TransactionFilter) ([]core.Transaction, error) {
	if f.Type != "" {
		if err := f.Type.Validate(); err != nil {
			return nil, err
		}
	}

	txs, err := s.storage.ListTransactions(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// SetBudget creates or replaces the limit for a (month, category) key.
func (s *LedgerService) SetBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}

	if err := s.storage.UpsertBudget(ctx, b); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Budget set",
		"user_id", b.UserID, "month", b.Month.String(), "category", b.Category)
	return nil
}

func (s *LedgerService) invalidate(userID int64) {
	if s.reports != nil {
		s.reports.Invalidate(userID)
	}
}
