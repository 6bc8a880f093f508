// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"

	"github.com/mmynk/debtbook/internal/models"
)

// Reader groups the side-effect-free lookups. Both the Store and an open
// Tx satisfy it; reads that feed a write must go through the Tx.
//
// Single-row getters return an error wrapping ErrNotFound when the row is
// missing. List methods return an empty slice, never ErrNotFound.
type Reader interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	// GetDefaultAccount returns the user's default account.
	GetDefaultAccount(ctx context.Context, userID int64) (*models.Account, error)

	GetContact(ctx context.Context, id int64) (*models.Contact, error)
	GetContactByPhone(ctx context.Context, phone string) (*models.Contact, error)
	// ListContacts returns all contacts ordered by name.
	ListContacts(ctx context.Context) ([]*models.Contact, error)

	GetDebt(ctx context.Context, id int64) (*models.Debt, error)
	// ListDebtsByUser returns every debt on any of the user's accounts, newest first.
	ListDebtsByUser(ctx context.Context, userID int64) ([]*models.Debt, error)
	ListDebtsByContact(ctx context.Context, userID, contactID int64) ([]*models.Debt, error)
	ListDebtsByAccount(ctx context.Context, accountID int64) ([]*models.Debt, error)
	// CountDebtsReferencingContact counts the debts of every user that
	// point at the contact.
	CountDebtsReferencingContact(ctx context.Context, contactID int64) (int, error)

	// ListPayments returns a debt's payments in insertion order.
	ListPayments(ctx context.Context, debtID int64) ([]*models.Payment, error)
	CountPayments(ctx context.Context, debtID int64) (int, error)

	ListEvidence(ctx context.Context, debtID int64) ([]*models.Evidence, error)

	// ListTransactionsByAccount returns audit rows newest first.
	ListTransactionsByAccount(ctx context.Context, accountID int64) ([]*models.Transaction, error)
	ListTransactionsByDebt(ctx context.Context, debtID int64) ([]*models.Transaction, error)
}

// Tx is an open unit of work. Every write happens through a Tx so that
// a ledger operation either commits all of its row changes or none.
//
// Insert methods populate the ID (and CreatedAt/UpdatedAt when zero) of
// the row passed in.
type Tx interface {
	Reader

	InsertUser(ctx context.Context, user *models.User) error

	InsertAccount(ctx context.Context, account *models.Account) error
	// UpdateAccountBalances writes the three cached totals.
	UpdateAccountBalances(ctx context.Context, account *models.Account) error

	InsertContact(ctx context.Context, contact *models.Contact) error
	UpdateContact(ctx context.Context, contact *models.Contact) error
	DeleteContact(ctx context.Context, id int64) error

	InsertDebt(ctx context.Context, debt *models.Debt) error
	UpdateDebt(ctx context.Context, debt *models.Debt) error
	DeleteDebt(ctx context.Context, id int64) error

	InsertPayment(ctx context.Context, payment *models.Payment) error
	DeletePaymentsByDebt(ctx context.Context, debtID int64) error

	InsertTransaction(ctx context.Context, txn *models.Transaction) error
	DeleteTransactionsByDebt(ctx context.Context, debtID int64) error
	// DeleteTransactionsByContact only touches rows on the user's accounts.
	DeleteTransactionsByContact(ctx context.Context, userID, contactID int64) error

	InsertEvidence(ctx context.Context, evidence *models.Evidence) error
	DeleteEvidenceByDebt(ctx context.Context, debtID int64) error
}

// Store defines the interface for ledger storage.
// This abstraction allows swapping storage backends without changing the
// ledger or service layers.
type Store interface {
	Reader

	// WithTx runs fn inside an exclusive transaction. If fn returns an
	// error (or panics) every change made through tx is rolled back;
	// otherwise the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any resources held by the store.
	Close() error
}
