package storage

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"financas/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestUser(t *testing.T, repo *SQLiteRepository, email string) int64 {
	t.Helper()
	id, err := repo.RegisterUser(context.Background(), email, "hash")
	if err != nil {
		t.Fatalf("register user: %v", err)
	}
	return id
}

func newTestAccount(t *testing.T, repo *SQLiteRepository, userID int64, name string, initialCents int64) core.Account {
	t.Helper()
	acc, err := repo.CreateAccount(context.Background(), userID, name, core.Checking, core.Money{Cents: initialCents})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return acc
}

func balance(t *testing.T, repo *SQLiteRepository, userID, accountID int64) int64 {
	t.Helper()
	acc, err := repo.GetAccount(context.Background(), userID, accountID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	return acc.CurrentBalance.Cents
}

func TestRegisterUserCreatesDefaultAccount(t *testing.T) {
	repo := newTestRepo(t)
	userID := newTestUser(t, repo, "ana@example.com")

	accounts, err := repo.ListAccounts(context.Background(), userID)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("got %d accounts, want the default one", len(accounts))
	}
	acc := accounts[0]
	if acc.Name != core.DefaultAccountName || acc.Type != core.Checking {
		t.Fatalf("default account = %q/%s", acc.Name, acc.Type)
	}
	if acc.InitialBalance.Cents != 0 || acc.CurrentBalance.Cents != 0 {
		t.Fatalf("default account balances = %d/%d, want zero", acc.InitialBalance.Cents, acc.CurrentBalance.Cents)
	}
}

func TestRegisterUserDuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	newTestUser(t, repo, "ana@example.com")

	_, err := repo.RegisterUser(context.Background(), "ana@example.com", "hash")
	if !errors.Is(err, ErrEmailInUse) {
		t.Fatalf("got %v, want ErrEmailInUse", err)
	}
}

func TestCreateTransactionAppliesDelta(t *testing.T) {
	repo := newTestRepo(t)
	userID := newTestUser(t, repo, "ana@example.com")
	acc := newTestAccount(t, repo, userID, "Carteira", 50000)

	_, err := repo.CreateTransaction(context.Background(), core.Transaction{
		UserID:    userID,
		AccountID: acc.ID,
		Type:      core.Expense,
		Category:  "Moradia",
		Amount:    core.Money{Cents: 10000},
		Date:      core.NewDate(2026, 8, 10),
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if got := balance(t, repo, userID, acc.ID); got != 40000 {
		t.Fatalf("balance = %d, want 40000", got)
	}
}

func TestDeleteTransactionReversesDelta(t *testing.T) {
	repo := newTestRepo(t)
	userID := newTestUser(t, repo, "ana@example.com")
	acc := newTestAccount(t, repo, userID, "Carteira", 0)

	txID, err := repo.CreateTransaction(context.Background(), core.Transaction{
		UserID:    userID,
		AccountID: acc.ID,
		Type:      core.Income,
		Category:  "Salario",
		Amount:    core.Money{Cents: 20000},
		Date:      core.NewDate(2026, 8, 1),
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if got := balance(t, repo, userID, acc.ID); got != 20000 {
		t.Fatalf("balance after create = %d, want 20000", got)
	}

	if err := repo.DeleteTransaction(context.Background(), userID, txID); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	if got := balance(t, repo, userID, acc.ID); got != 0 {
		t.Fatalf("balance after delete = %d, want 0", got)
	}
}

func TestUpdateTransactionReassignsAcrossAccounts(t *testing.T) {
	repo := newTestRepo(t)
	userID := newTestUser(t, repo, "ana@example.com")
	accA := newTestAccount(t, repo, userID, "Conta A", 50000)
	accB := newTestAccount(t, repo, userID, "Conta B", 30000)

	txID, err := repo.CreateTransaction(context.Background(), core.Transaction{
		UserID:    userID,
		AccountID: accA.ID,
		Type:      core.Expense,
		Category:  "Mercado",
		Amount:    core.Money{Cents: 10000},
		Date:      core.NewDate(2026, 8, 5),
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if got := balance(t, repo, userID, accA.ID); got != 40000 {
		t.Fatalf("A after create = %d, want 40000", got)
	}

	// Move to B and flip expense 100 -> income 50
	err = repo.UpdateTransaction(context.Background(), core.Transaction{
		ID:        txID,
		UserID:    userID,
		AccountID: accB.ID,
		Type:      core.Income,
		Category:  "Mercado",
		Amount:    core.Money{Cents: 5000},
		Date:      core.NewDate(2026, 8, 5),
	})
	if err != nil {
		t.Fatalf("update transaction: %v", err)
	}
	if got := balance(t, repo, userID, accA.ID); got != 50000 {
		t.Fatalf("A after reassign = %d, want 50000 (expense reversed)", got)
	}
	if got := balance(t, repo, userID, accB.ID); got != 35000 {
		t.Fatalf("B after reassign = %d, want 35000 (initial + income)", got)
	}
}

func TestUpdateTransactionSameAccountTypeFlip(t *testing.T) {
	repo := newTestRepo(t)
	userID := newTestUser(t, repo, "ana@example.com")
	acc := newTestAccount(t, repo, userID, "Carteira", 10000)

	txID, err := repo.CreateTransaction(context.Background(), core.Transaction{
		UserID:    userID,
		AccountID: acc.ID,
		Type:      core.Expense,
		Category:  "Lazer",
		Amount:    core.Money{Cents: 3000},
		Date:      core.NewDate(2026, 8, 2),
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	err = repo.UpdateTransaction(context.Background(), core.Transaction{
		ID:        txID,
		UserID:    userID,
		AccountID: acc.ID,
		Type:      core.Income,
		Category:  "Lazer",
		Amount:    core.Money{Cents: 3000},
		Date:      core.NewDate(2026, 8, 2),
	})
	if err != nil {
		t.Fatalf("update transaction: %v", err)
	}
	// -3000 reversed, +3000 applied: net +6000 over the post-create balance
	if got := balance(t, repo, userID, acc.ID); got != 13000 {
		t.Fatalf("balance = %d, want 13000", got)
	}
}

func TestCrossUserIsolation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	owner := newTestUser(t, repo, "ana@example.com")
	intruder := newTestUser(t, repo, "eve@example.com")
	acc := newTestAccount(t, repo, owner, "Conta da Ana", 100000)

	txID, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID:    owner,
		AccountID: acc.ID,
		Type:      core.Expense,
		Category:  "Moradia",
		Amount:    core.Money{Cents: 5000},
		Date:      core.NewDate(2026, 8, 1),
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	t.Run("create on foreign account", func(t *testing.T) {
		_, err := repo.CreateTransaction(ctx, core.Transaction{
			UserID:    intruder,
			AccountID: acc.ID,
			Type:      core.Income,
			Category:  "Salario",
			Amount:    core.Money{Cents: 100},
			Date:      core.NewDate(2026, 8, 1),
		})
		if !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("update foreign transaction", func(t *testing.T) {
		err := repo.UpdateTransaction(ctx, core.Transaction{
			ID:        txID,
			UserID:    intruder,
			AccountID: acc.ID,
			Type:      core.Expense,
			Category:  "Moradia",
			Amount:    core.Money{Cents: 1},
			Date:      core.NewDate(2026, 8, 1),
		})
		if !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("delete foreign transaction", func(t *testing.T) {
		if err := repo.DeleteTransaction(ctx, intruder, txID); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("read foreign account", func(t *testing.T) {
		if _, err := repo.GetAccount(ctx, intruder, acc.ID); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
	})

	// Nothing leaked through the failures
	if got := balance(t, repo, owner, acc.ID); got != 95000 {
		t.Fatalf("owner balance = %d, want 95000", got)
	}
}

func TestListTransactionsFiltersAndOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := newTestUser(t, repo, "ana@example.com")
	accA := newTestAccount(t, repo, userID, "Conta A", 0)
	accB := newTestAccount(t, repo, userID, "Conta B", 0)

	mk := func(accountID int64, txType core.TransactionType, category string, cents int64, day int) int64 {
		t.Helper()
		id, err := repo.CreateTransaction(ctx, core.Transaction{
			UserID:    userID,
			AccountID: accountID,
			Type:      txType,
			Category:  category,
			Amount:    core.Money{Cents: cents},
			Date:      core.NewDate(2026, 8, day),
		})
		if err != nil {
			t.Fatalf("create transaction: %v", err)
		}
		return id
	}

	first := mk(accA.ID, core.Income, "Salario", 500000, 1)
	second := mk(accA.ID, core.Expense, "Mercado", 20000, 1)
	third := mk(accB.ID, core.Expense, "Moradia", 150000, 5)
	mk(accA.ID, core.Expense, "Mercado", 4000, 20)

	t.Run("order is date desc then id desc", func(t *testing.T) {
		all, err := repo.ListTransactions(ctx, userID, core.TransactionFilter{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(all) != 4 {
			t.Fatalf("got %d transactions", len(all))
		}
		// Same-day rows (day 1) must come most-recently-created first
		if all[2].ID != second || all[3].ID != first {
			t.Fatalf("same-day ordering wrong: %d then %d", all[2].ID, all[3].ID)
		}
		if all[0].Date.Day() != 20 {
			t.Fatalf("newest date first, got day %d", all[0].Date.Day())
		}
	})

	t.Run("date range inclusive", func(t *testing.T) {
		got, err := repo.ListTransactions(ctx, userID, core.TransactionFilter{
			StartDate: core.NewDate(2026, 8, 1),
			EndDate:   core.NewDate(2026, 8, 5),
		})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("got %d transactions, want 3", len(got))
		}
	})

	t.Run("combined filters", func(t *testing.T) {
		got, err := repo.ListTransactions(ctx, userID, core.TransactionFilter{
			Type:      core.Expense,
			Category:  "Moradia",
			AccountID: accB.ID,
		})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 || got[0].ID != third {
			t.Fatalf("got %+v", got)
		}
		if got[0].AccountName != "Conta B" {
			t.Fatalf("account name = %q", got[0].AccountName)
		}
	})

	t.Run("foreign user sees nothing", func(t *testing.T) {
		other := newTestUser(t, repo, "eve@example.com")
		got, err := repo.ListTransactions(ctx, other, core.TransactionFilter{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("leaked %d transactions", len(got))
		}
	})
}

// TestBalanceInvariantRandomSequence drives a random create/update/delete
// sequence and checks after every mutation that each account's current
// balance equals its initial balance plus the signed sum of its surviving
// transactions.
func TestBalanceInvariantRandomSequence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := newTestUser(t, repo, "ana@example.com")

	accounts := []core.Account{
		newTestAccount(t, repo, userID, "Conta A", 100000),
		newTestAccount(t, repo, userID, "Conta B", 0),
		newTestAccount(t, repo, userID, "Conta C", -25000),
	}

	rng := rand.New(rand.NewSource(42))
	types := []core.TransactionType{core.Income, core.Expense}
	var live []int64

	randomTx := func() core.Transaction {
		return core.Transaction{
			UserID:    userID,
			AccountID: accounts[rng.Intn(len(accounts))].ID,
			Type:      types[rng.Intn(2)],
			Category:  "Categoria",
			Amount:    core.Money{Cents: int64(rng.Intn(50000) + 1)},
			Date:      core.NewDate(2026, rng.Intn(12)+1, rng.Intn(28)+1),
		}
	}

	checkInvariant := func(step int) {
		t.Helper()
		for _, acc := range accounts {
			txs, err := repo.ListTransactions(ctx, userID, core.TransactionFilter{AccountID: acc.ID})
			if err != nil {
				t.Fatalf("step %d: list: %v", step, err)
			}
			var sum int64
			for _, tx := range txs {
				sum += tx.Signed()
			}
			got := balance(t, repo, userID, acc.ID)
			want := acc.InitialBalance.Cents + sum
			if got != want {
				t.Fatalf("step %d: account %d balance = %d, want initial %d + signed sum %d = %d",
					step, acc.ID, got, acc.InitialBalance.Cents, sum, want)
			}
		}
	}

	for step := 0; step < 200; step++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(live) == 0:
			id, err := repo.CreateTransaction(ctx, randomTx())
			if err != nil {
				t.Fatalf("step %d: create: %v", step, err)
			}
			live = append(live, id)
		case op == 1:
			idx := rng.Intn(len(live))
			tx := randomTx()
			tx.ID = live[idx]
			if err := repo.UpdateTransaction(ctx, tx); err != nil {
				t.Fatalf("step %d: update: %v", step, err)
			}
		default:
			idx := rng.Intn(len(live))
			if err := repo.DeleteTransaction(ctx, userID, live[idx]); err != nil {
				t.Fatalf("step %d: delete: %v", step, err)
			}
			live = append(live[:idx], live[idx+1:]...)
		}
		checkInvariant(step)
	}
}
