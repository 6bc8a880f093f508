package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/debtbook/internal/models"
)

const debtColumns = `d.id, d.account_id, d.contact_id, d.amount, d.paid, d.direction, d.reason, d.due_date, d.settled, d.created_at, d.updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// InsertDebt persists a new debt.
func (q *queries) InsertDebt(ctx context.Context, debt *models.Debt) error {
	if debt.CreatedAt == 0 {
		debt.CreatedAt = q.timestamp()
	}
	if debt.UpdatedAt == 0 {
		debt.UpdatedAt = debt.CreatedAt
	}

	res, err := q.q.ExecContext(ctx, `
		INSERT INTO debts (account_id, contact_id, amount, paid, direction, reason, due_date, settled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		debt.AccountID,
		debt.ContactID,
		debt.Amount,
		debt.Paid,
		string(debt.Direction),
		nullString(debt.Reason),
		nullInt(debt.DueDate),
		debt.Settled,
		debt.CreatedAt,
		debt.UpdatedAt,
	)
	if err != nil {
		return wrapErr("create debt", err)
	}
	debt.ID, err = insertID(res)
	return err
}

// UpdateDebt rewrites every mutable column of a debt.
func (q *queries) UpdateDebt(ctx context.Context, debt *models.Debt) error {
	debt.UpdatedAt = q.timestamp()
	res, err := q.q.ExecContext(ctx, `
		UPDATE debts
		SET amount = ?, paid = ?, direction = ?, reason = ?, due_date = ?, settled = ?, updated_at = ?
		WHERE id = ?`,
		debt.Amount,
		debt.Paid,
		string(debt.Direction),
		nullString(debt.Reason),
		nullInt(debt.DueDate),
		debt.Settled,
		debt.UpdatedAt,
		debt.ID,
	)
	if err != nil {
		return wrapErr("update debt", err)
	}
	return affected(res, "update debt")
}

// DeleteDebt removes a debt row. Payments must be deleted first.
func (q *queries) DeleteDebt(ctx context.Context, id int64) error {
	res, err := q.q.ExecContext(ctx, `DELETE FROM debts WHERE id = ?`, id)
	if err != nil {
		return wrapErr("delete debt", err)
	}
	return affected(res, "delete debt")
}

// GetDebt retrieves a debt by ID.
func (q *queries) GetDebt(ctx context.Context, id int64) (*models.Debt, error) {
	row := q.q.QueryRowContext(ctx, `SELECT `+debtColumns+` FROM debts d WHERE d.id = ?`, id)
	debt, err := scanDebt(row)
	if err != nil {
		return nil, wrapErr("get debt", err)
	}
	return debt, nil
}

// ListDebtsByUser retrieves all debts on the user's accounts, newest first.
func (q *queries) ListDebtsByUser(ctx context.Context, userID int64) ([]*models.Debt, error) {
	return q.listDebts(ctx, "list debts by user", `
		SELECT `+debtColumns+`
		FROM debts d JOIN accounts a ON a.id = d.account_id
		WHERE a.user_id = ?
		ORDER BY d.created_at DESC, d.id DESC`, userID)
}

// ListDebtsByContact retrieves the user's debts with one contact, newest first.
func (q *queries) ListDebtsByContact(ctx context.Context, userID, contactID int64) ([]*models.Debt, error) {
	return q.listDebts(ctx, "list debts by contact", `
		SELECT `+debtColumns+`
		FROM debts d JOIN accounts a ON a.id = d.account_id
		WHERE a.user_id = ? AND d.contact_id = ?
		ORDER BY d.created_at DESC, d.id DESC`, userID, contactID)
}

// ListDebtsByAccount retrieves every debt contributing to an account.
func (q *queries) ListDebtsByAccount(ctx context.Context, accountID int64) ([]*models.Debt, error) {
	return q.listDebts(ctx, "list debts by account", `
		SELECT `+debtColumns+` FROM debts d WHERE d.account_id = ? ORDER BY d.id`, accountID)
}

// CountDebtsReferencingContact counts the debts pointing at a contact,
// regardless of which account they belong to.
func (q *queries) CountDebtsReferencingContact(ctx context.Context, contactID int64) (int, error) {
	var n int
	err := q.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM debts WHERE contact_id = ?`, contactID).Scan(&n)
	if err != nil {
		return 0, wrapErr("count debts referencing contact", err)
	}
	return n, nil
}

func (q *queries) listDebts(ctx context.Context, op, query string, args ...any) ([]*models.Debt, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	debts := []*models.Debt{}
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return debts, nil
}

func scanDebt(row rowScanner) (*models.Debt, error) {
	debt := &models.Debt{}
	var direction string
	var reason sql.NullString
	var dueDate sql.NullInt64
	err := row.Scan(
		&debt.ID,
		&debt.AccountID,
		&debt.ContactID,
		&debt.Amount,
		&debt.Paid,
		&direction,
		&reason,
		&dueDate,
		&debt.Settled,
		&debt.CreatedAt,
		&debt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	debt.Direction = models.Direction(direction)
	debt.Reason = reason.String
	debt.DueDate = dueDate.Int64
	return debt, nil
}
