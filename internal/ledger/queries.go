package ledger

import (
	"context"
	"fmt"

	"github.com/mmynk/debtbook/internal/models"
)

// Read APIs. None of these write; they read straight from the store.

// ListDebts returns all of the session user's debts, newest first.
func (l *Ledger) ListDebts(ctx context.Context, sess Session) ([]*models.Debt, error) {
	if err := sess.validate(); err != nil {
		return nil, err
	}
	return l.store.ListDebtsByUser(ctx, sess.UserID)
}

// ListDebtsForContact returns the session user's debts with one contact.
func (l *Ledger) ListDebtsForContact(ctx context.Context, sess Session, contactID int64) ([]*models.Debt, error) {
	if err := sess.validate(); err != nil {
		return nil, err
	}
	if _, err := l.store.GetContact(ctx, contactID); err != nil {
		return nil, notFound(err, ErrContactNotFound, contactID)
	}
	return l.store.ListDebtsByContact(ctx, sess.UserID, contactID)
}

// DebtDetail is a debt with everything attached to it.
type DebtDetail struct {
	Debt         *models.Debt
	Contact      *models.Contact
	Payments     []*models.Payment
	Evidence     []*models.Evidence
	Transactions []*models.Transaction
}

// GetDebt returns a debt of the session user with its contact, payments,
// evidence and transactions.
func (l *Ledger) GetDebt(ctx context.Context, sess Session, debtID int64) (*DebtDetail, error) {
	debt, err := l.ownedDebt(ctx, sess, debtID)
	if err != nil {
		return nil, err
	}

	detail := &DebtDetail{Debt: debt}
	if detail.Contact, err = l.store.GetContact(ctx, debt.ContactID); err != nil {
		return nil, notFound(err, ErrContactNotFound, debt.ContactID)
	}
	if detail.Payments, err = l.store.ListPayments(ctx, debt.ID); err != nil {
		return nil, err
	}
	if detail.Evidence, err = l.store.ListEvidence(ctx, debt.ID); err != nil {
		return nil, err
	}
	if detail.Transactions, err = l.store.ListTransactionsByDebt(ctx, debt.ID); err != nil {
		return nil, err
	}
	return detail, nil
}

// ListPayments returns a debt's payments in the order they were made.
func (l *Ledger) ListPayments(ctx context.Context, sess Session, debtID int64) ([]*models.Payment, error) {
	if _, err := l.ownedDebt(ctx, sess, debtID); err != nil {
		return nil, err
	}
	return l.store.ListPayments(ctx, debtID)
}

// ListEvidence returns the notes attached to a debt, newest first.
func (l *Ledger) ListEvidence(ctx context.Context, sess Session, debtID int64) ([]*models.Evidence, error) {
	if _, err := l.ownedDebt(ctx, sess, debtID); err != nil {
		return nil, err
	}
	return l.store.ListEvidence(ctx, debtID)
}

// GetAccount returns the session's account without creating it.
func (l *Ledger) GetAccount(ctx context.Context, sess Session) (*models.Account, error) {
	if err := sess.validate(); err != nil {
		return nil, err
	}
	if sess.AccountID != 0 {
		acct, err := l.store.GetAccount(ctx, sess.AccountID)
		if err != nil {
			return nil, notFound(err, ErrAccountNotFound, sess.AccountID)
		}
		if acct.UserID != sess.UserID {
			return nil, fmt.Errorf("%w: %d", ErrAccountNotFound, sess.AccountID)
		}
		return acct, nil
	}
	acct, err := l.store.GetDefaultAccount(ctx, sess.UserID)
	if err != nil {
		return nil, notFound(err, ErrAccountNotFound, sess.UserID)
	}
	return acct, nil
}

// ListTransactions returns the session account's audit trail, newest first.
func (l *Ledger) ListTransactions(ctx context.Context, sess Session) ([]*models.Transaction, error) {
	acct, err := l.GetAccount(ctx, sess)
	if err != nil {
		return nil, err
	}
	return l.store.ListTransactionsByAccount(ctx, acct.ID)
}

// GetUser returns a user by ID.
func (l *Ledger) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := l.store.GetUser(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, id)
	}
	return u, nil
}

// GetUserByUsername returns a user by login name.
func (l *Ledger) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := l.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound, 0)
	}
	return u, nil
}

func (l *Ledger) ownedDebt(ctx context.Context, sess Session, debtID int64) (*models.Debt, error) {
	if err := sess.validate(); err != nil {
		return nil, err
	}
	debt, err := l.store.GetDebt(ctx, debtID)
	if err != nil {
		return nil, notFound(err, ErrDebtNotFound, debtID)
	}
	acct, err := l.store.GetAccount(ctx, debt.AccountID)
	if err != nil {
		return nil, notFound(err, ErrAccountNotFound, debt.AccountID)
	}
	if acct.UserID != sess.UserID {
		return nil, fmt.Errorf("%w: %d", ErrDebtNotFound, debtID)
	}
	return debt, nil
}
