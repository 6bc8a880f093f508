package models

import "github.com/mmynk/debtbook/internal/money"

// Payment is one repayment event against a debt. Append-only.
type Payment struct {
	ID     int64
	DebtID int64

	// TransactionID links the repayment audit row; zero if none.
	TransactionID int64

	// Amount may be zero for a settlement that had nothing left to pay.
	Amount money.Amount

	// Method describes how the money moved (e.g. "manual", "mpesa").
	Method string

	Note      string
	CreatedAt int64
}

// DefaultPaymentMethod is recorded when the caller gives none.
const DefaultPaymentMethod = "manual"
