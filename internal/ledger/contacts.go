package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/debtbook/internal/calculator"
	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/storage"
)

// FindOrCreateContactByPhone returns the contact with phone, inserting one
// named name (or the phone itself when name is empty) if none exists.
//
// Concurrent calls for the same phone within this process share one
// lookup, which is not cancelled when the caller that started it gives up. Across processes the unique constraint on phone decides the
// winner and the loser re-reads the winner's row.
func (l *Ledger) FindOrCreateContactByPhone(ctx context.Context, phone, name string) (*models.Contact, error) {
	phone = normalizePhone(phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", ErrInvalidArgument)
	}
	name = strings.TrimSpace(name)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// The shared lookup outlives any single caller; each caller still
	// stops waiting when its own context ends.
	lookupCtx := context.WithoutCancel(ctx)
	ch := l.contacts.DoChan(phone, func() (any, error) {
		return l.findOrCreateContact(lookupCtx, phone, name)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		c := *r.Val.(*models.Contact)
		return &c, nil
	}
}

func (l *Ledger) findOrCreateContact(ctx context.Context, phone, name string) (*models.Contact, error) {
	existing, err := l.store.GetContactByPhone(ctx, phone)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	if name == "" {
		name = phone
	}
	contact := &models.Contact{Name: name, Phone: phone}

	start := time.Now()
	err = l.store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.InsertContact(ctx, contact)
	})
	if errors.Is(err, storage.ErrConflict) {
		l.metrics.observe("resolve_contact", start, nil)
		slog.Debug("Contact created concurrently, re-reading", "phone", phone)
		return l.store.GetContactByPhone(ctx, phone)
	}
	l.metrics.observe("resolve_contact", start, err)
	if err != nil {
		return nil, err
	}

	l.metrics.contactCreated()
	slog.Debug("Contact created", "contact_id", contact.ID, "phone", phone)
	return contact, nil
}

// CreateContact adds a contact. An existing contact with the same phone is
// returned unchanged.
func (l *Ledger) CreateContact(ctx context.Context, name, phone string) (*models.Contact, error) {
	return l.FindOrCreateContactByPhone(ctx, phone, name)
}

// ImportContacts resolves each (name, phone) pair, skipping entries with
// no phone. The result holds one contact per distinct phone in input order.
func (l *Ledger) ImportContacts(ctx context.Context, entries []models.Contact) ([]*models.Contact, error) {
	seen := make(map[string]bool, len(entries))
	out := make([]*models.Contact, 0, len(entries))
	for _, e := range entries {
		phone := normalizePhone(e.Phone)
		if phone == "" || seen[phone] {
			continue
		}
		seen[phone] = true
		c, err := l.FindOrCreateContactByPhone(ctx, phone, e.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to import contact %q: %w", phone, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// ContactUpdate holds the contact fields to change; nil fields are left alone.
type ContactUpdate struct {
	Name  *string
	Phone *string
}

// UpdateContact renames a contact or changes its phone. Taking another
// contact's phone fails with a *ConflictError.
func (l *Ledger) UpdateContact(ctx context.Context, id int64, u ContactUpdate) (*models.Contact, error) {
	var contact *models.Contact
	err := l.run(ctx, "update_contact", func(tx storage.Tx) error {
		var err error
		contact, err = tx.GetContact(ctx, id)
		if err != nil {
			return notFound(err, ErrContactNotFound, id)
		}
		if u.Name != nil {
			name := strings.TrimSpace(*u.Name)
			if name == "" {
				return fmt.Errorf("%w: contact name is empty", ErrInvalidArgument)
			}
			contact.Name = name
		}
		if u.Phone != nil {
			phone := normalizePhone(*u.Phone)
			if phone == "" {
				return fmt.Errorf("%w: phone is required", ErrInvalidArgument)
			}
			contact.Phone = phone
		}
		return tx.UpdateContact(ctx, contact)
	})
	if err != nil {
		return nil, err
	}
	return contact, nil
}

// GetContact returns a contact by ID.
func (l *Ledger) GetContact(ctx context.Context, id int64) (*models.Contact, error) {
	c, err := l.store.GetContact(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrContactNotFound, id)
	}
	return c, nil
}

// ListContacts returns every contact ordered by name.
func (l *Ledger) ListContacts(ctx context.Context) ([]*models.Contact, error) {
	return l.store.ListContacts(ctx)
}

// DeleteContact removes a contact. Without cascade it fails with
// ErrDeletionForbidden while the session user has debts with the contact.
// With cascade those debts are removed along with their payments, evidence
// and transactions, and each debt's outstanding remainder is taken off the
// account it belonged to. Contacts still referenced by another user's
// debts are never deleted, and nothing about those debts is reported.
func (l *Ledger) DeleteContact(ctx context.Context, sess Session, id int64, cascade bool) error {
	if err := sess.validate(); err != nil {
		return err
	}

	var removed int
	err := l.run(ctx, "delete_contact", func(tx storage.Tx) error {
		if _, err := tx.GetContact(ctx, id); err != nil {
			return notFound(err, ErrContactNotFound, id)
		}
		debts, err := tx.ListDebtsByContact(ctx, sess.UserID, id)
		if err != nil {
			return err
		}
		if len(debts) > 0 && !cascade {
			return fmt.Errorf("%w: contact %d is referenced by %d debts", ErrDeletionForbidden, id, len(debts))
		}
		total, err := tx.CountDebtsReferencingContact(ctx, id)
		if err != nil {
			return err
		}
		if total > len(debts) {
			return fmt.Errorf("%w: contact %d is still in use", ErrDeletionForbidden, id)
		}

		accounts := make(map[int64]*models.Account)
		for _, debt := range debts {
			acct, ok := accounts[debt.AccountID]
			if !ok {
				acct, err = tx.GetAccount(ctx, debt.AccountID)
				if err != nil {
					return notFound(err, ErrAccountNotFound, debt.AccountID)
				}
				accounts[debt.AccountID] = acct
			}
			applyDeletion(acct, debt.Direction, debt.Remaining())
			if err := deleteDebtRows(ctx, tx, debt.ID); err != nil {
				return err
			}
		}
		for _, acct := range accounts {
			if err := saveBalances(ctx, tx, acct); err != nil {
				return err
			}
		}

		if err := tx.DeleteTransactionsByContact(ctx, sess.UserID, id); err != nil {
			return err
		}
		removed = len(debts)
		return tx.DeleteContact(ctx, id)
	})
	if err != nil {
		return err
	}

	slog.Debug("Contact deleted", "contact_id", id, "user_id", sess.UserID, "cascade", cascade, "debts_removed", removed)
	return nil
}

// ContactWithSummary pairs a contact with the session user's debt totals.
type ContactWithSummary struct {
	Contact *models.Contact
	calculator.ContactSummary
}

// ContactSummaries returns every contact with the user's outstanding
// totals against it. Contacts without debts have zero totals.
func (l *Ledger) ContactSummaries(ctx context.Context, sess Session) ([]ContactWithSummary, error) {
	if err := sess.validate(); err != nil {
		return nil, err
	}
	contacts, err := l.store.ListContacts(ctx)
	if err != nil {
		return nil, err
	}
	debts, err := l.store.ListDebtsByUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	byContact := make(map[int64]calculator.ContactSummary)
	for _, s := range calculator.SummarizeByContact(debts) {
		byContact[s.ContactID] = s
	}

	out := make([]ContactWithSummary, 0, len(contacts))
	for _, c := range contacts {
		s, ok := byContact[c.ID]
		if !ok {
			s = calculator.ContactSummary{ContactID: c.ID}
		}
		out = append(out, ContactWithSummary{Contact: c, ContactSummary: s})
	}
	return out, nil
}

// normalizePhone strips whitespace and common separators so the same
// number typed differently resolves to one contact.
func normalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}
