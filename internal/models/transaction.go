package models

import "github.com/mmynk/debtbook/internal/money"

// Transaction is an append-only audit row for a balance-affecting event.
type Transaction struct {
	ID          int64
	Type        TransactionType
	Amount      money.Amount
	Description string

	// MessageKey is an opaque unique key identifying the event.
	MessageKey string

	AccountID int64

	// ContactID and DebtID are weak references; zero when not applicable.
	ContactID int64
	DebtID    int64

	CreatedAt int64
}

// Evidence is an optional free-text note attached to a payment or settlement.
type Evidence struct {
	ID            int64
	TransactionID int64
	DebtID        int64
	Message       string
	Type          EvidenceType
	CreatedAt     int64
}
