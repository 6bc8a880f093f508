package models

import "github.com/mmynk/debtbook/internal/money"

// Debt is an obligation between the user and a contact.
type Debt struct {
	// ID is the store-assigned identifier.
	ID int64

	// AccountID is the account whose totals this debt contributes to.
	AccountID int64

	// ContactID is the counterparty.
	ContactID int64

	// Amount is the principal; always positive.
	Amount money.Amount

	// Paid is the cumulative amount repaid; never decreases.
	Paid money.Amount

	Direction Direction

	// Reason is an optional free-text description.
	Reason string

	// DueDate is an optional Unix timestamp; zero means none.
	DueDate int64

	// Settled is true once Paid >= Amount.
	Settled bool

	CreatedAt int64
	UpdatedAt int64
}

// Remaining returns the outstanding remainder, max(0, Amount-Paid).
func (d *Debt) Remaining() money.Amount {
	return money.SubFloor(d.Amount, d.Paid)
}

// Status returns a human-readable lifecycle state.
func (d *Debt) Status() string {
	switch {
	case d.Settled:
		return "settled"
	case d.Paid > 0:
		return "active-partial"
	default:
		return "active-unpaid"
	}
}
