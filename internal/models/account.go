package models

import "github.com/mmynk/debtbook/internal/money"

// Account holds a user's cached balance totals.
//
// DebtAmount and DebtedAmount are caches: they must equal the sum of the
// outstanding remainders of the account's debts in the matching direction.
type Account struct {
	ID       int64
	UserID   int64
	Name     string
	Type     string
	Currency string

	// IncomeAmount is the running total of recorded income.
	IncomeAmount money.Amount

	// DebtAmount is the total currently owed BY the user.
	DebtAmount money.Amount

	// DebtedAmount is the total currently owed TO the user.
	DebtedAmount money.Amount

	// IsDefault marks the single auto-created account of a user.
	IsDefault bool

	CreatedAt int64
	UpdatedAt int64
}

// Default account attributes used when a user's account is created lazily.
const (
	DefaultAccountName = "General"
	DefaultAccountType = "mobile"
)
