package core

// Summary aggregates a user's whole history: all-time income and expense
// totals, the balance across accounts, and the transaction count. Balance is
// the sum of account current balances, not income minus expense, so it
// includes every account's initial balance.
type Summary struct {
	Income       Money
	Expense      Money
	Balance      Money
	Transactions int64
}

// BudgetState classifies spend against a monthly limit.
type BudgetState string

const (
	BudgetOK       BudgetState = "ok"
	BudgetWarning  BudgetState = "warning"
	BudgetExceeded BudgetState = "exceeded"
)

// BudgetStatus is the derived status of one category budget for one month.
type BudgetStatus struct {
	Category  string
	Limit     Money
	Spent     Money
	Remaining Money
	Percent   float64
	State     BudgetState
}

// ClassifyBudget derives percent-of-limit and the ok/warning/exceeded state.
// Thresholds are compared in integer cents so that 80.00% and 100.00% land
// exactly on their boundaries: warning at >= 80%, exceeded at >= 100%.
func ClassifyBudget(limit, spent Money) (float64, BudgetState) {
	if limit.Cents <= 0 {
		return 0, BudgetOK
	}
	percent := float64(spent.Cents) / float64(limit.Cents) * 100
	switch {
	case spent.Cents >= limit.Cents:
		return percent, BudgetExceeded
	case spent.Cents*5 >= limit.Cents*4:
		return percent, BudgetWarning
	default:
		return percent, BudgetOK
	}
}

// NewBudgetStatus builds the full status row for a budget and its spend.
func NewBudgetStatus(category string, limit, spent Money) BudgetStatus {
	percent, state := ClassifyBudget(limit, spent)
	return BudgetStatus{
		Category:  category,
		Limit:     limit,
		Spent:     spent,
		Remaining: Money{Cents: limit.Cents - spent.Cents},
		Percent:   percent,
		State:     state,
	}
}

// TrendPoint is one month bucket of the trailing trend window.
type TrendPoint struct {
	Month   Month
	Income  Money
	Expense Money
	Net     Money
}
