package sqlite

import (
	"context"
	"fmt"

	"github.com/mmynk/debtbook/internal/models"
)

const contactColumns = `id, name, phone, created_at, updated_at`

// InsertContact persists a new contact. A duplicate phone returns a
// *storage.ConflictError.
func (q *queries) InsertContact(ctx context.Context, contact *models.Contact) error {
	if contact.CreatedAt == 0 {
		contact.CreatedAt = q.timestamp()
	}
	if contact.UpdatedAt == 0 {
		contact.UpdatedAt = contact.CreatedAt
	}

	res, err := q.q.ExecContext(ctx,
		`INSERT INTO contacts (name, phone, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		contact.Name, contact.Phone, contact.CreatedAt, contact.UpdatedAt,
	)
	if err != nil {
		return wrapErr("create contact", err)
	}
	contact.ID, err = insertID(res)
	return err
}

// UpdateContact rewrites a contact's name and phone.
func (q *queries) UpdateContact(ctx context.Context, contact *models.Contact) error {
	contact.UpdatedAt = q.timestamp()
	res, err := q.q.ExecContext(ctx,
		`UPDATE contacts SET name = ?, phone = ?, updated_at = ? WHERE id = ?`,
		contact.Name, contact.Phone, contact.UpdatedAt, contact.ID,
	)
	if err != nil {
		return wrapErr("update contact", err)
	}
	return affected(res, "update contact")
}

// DeleteContact removes a contact by ID. Debts referencing it must be
// removed first or the foreign key rejects the delete.
func (q *queries) DeleteContact(ctx context.Context, id int64) error {
	res, err := q.q.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return wrapErr("delete contact", err)
	}
	return affected(res, "delete contact")
}

// GetContact retrieves a contact by ID.
func (q *queries) GetContact(ctx context.Context, id int64) (*models.Contact, error) {
	contact := &models.Contact{}
	err := q.q.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id).
		Scan(&contact.ID, &contact.Name, &contact.Phone, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		return nil, wrapErr("get contact", err)
	}
	return contact, nil
}

// GetContactByPhone retrieves a contact by its unique phone number.
func (q *queries) GetContactByPhone(ctx context.Context, phone string) (*models.Contact, error) {
	contact := &models.Contact{}
	err := q.q.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE phone = ?`, phone).
		Scan(&contact.ID, &contact.Name, &contact.Phone, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		return nil, wrapErr("get contact by phone", err)
	}
	return contact, nil
}

// ListContacts retrieves all contacts ordered by name.
func (q *queries) ListContacts(ctx context.Context) ([]*models.Contact, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT `+contactColumns+` FROM contacts ORDER BY name, id`)
	if err != nil {
		return nil, wrapErr("list contacts", err)
	}
	defer rows.Close()

	contacts := []*models.Contact{}
	for rows.Next() {
		contact := &models.Contact{}
		if err := rows.Scan(&contact.ID, &contact.Name, &contact.Phone, &contact.CreatedAt, &contact.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate contacts", err)
	}
	return contacts, nil
}
