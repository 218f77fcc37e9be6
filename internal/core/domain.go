package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Checking AccountType = "checking"
	Savings  AccountType = "savings"
	Cash     AccountType = "cash"
	Credit   AccountType = "credit"
)

// DefaultAccountName is the checking account created for every new user.
const DefaultAccountName = "Conta Principal"

type (
	TransactionType string
	AccountType     string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID        int64
		Email     string
		CreatedAt time.Time
	}

	Account struct {
		ID             int64
		UserID         int64
		Name           string
		Type           AccountType
		InitialBalance Money
		CurrentBalance Money
		CreatedAt      time.Time
	}

	Transaction struct {
		ID          int64
		UserID      int64
		AccountID   int64
		Type        TransactionType
		Category    string
		Description string
		Amount      Money
		Date        Date

		// AccountName is populated on listings joined with accounts.
		AccountName string
	}

	Budget struct {
		UserID   int64
		Month    Month
		Category string
		Limit    Money
	}

	// TransactionFilter narrows ListTransactions. Zero values mean "no filter";
	// set filters are AND-combined.
	TransactionFilter struct {
		StartDate Date
		EndDate   Date
		Type      TransactionType
		Category  string
		AccountID int64
	}
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyName          = errors.New("empty account name")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidAccountID   = errors.New("invalid account id")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

func (t AccountType) Validate() error {
	switch t {
	case Checking, Savings, Cash, Credit:
		return nil
	default:
		return ErrInvalidAccountType
	}
}

// NewDate creates a Date from year, month, day at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar day in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the date in the storage format (YYYY-MM-DD).
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Signed returns the amount with the sign implied by the transaction type:
// positive for income, negative for expense. Every balance adjustment in the
// ledger goes through this convention.
func (t Transaction) Signed() int64 {
	if t.Type == Expense {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Month.IsZero() {
		return ErrInvalidMonth
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := b.Limit.Validate(); err != nil {
		return err
	}
	return nil
}
