package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/debtbook/internal/models"
)

const transactionColumns = `id, type, amount, description, message_key, account_id, contact_id, debt_id, created_at`

// InsertTransaction appends an audit row. MessageKey must be set and unique.
func (q *queries) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.CreatedAt == 0 {
		txn.CreatedAt = q.timestamp()
	}

	res, err := q.q.ExecContext(ctx, `
		INSERT INTO transactions (type, amount, description, message_key, account_id, contact_id, debt_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(txn.Type),
		txn.Amount,
		nullString(txn.Description),
		txn.MessageKey,
		txn.AccountID,
		nullInt(txn.ContactID),
		nullInt(txn.DebtID),
		txn.CreatedAt,
	)
	if err != nil {
		return wrapErr("insert transaction", err)
	}
	txn.ID, err = insertID(res)
	return err
}

// ListTransactionsByAccount retrieves an account's audit trail, newest first.
func (q *queries) ListTransactionsByAccount(ctx context.Context, accountID int64) ([]*models.Transaction, error) {
	return q.listTransactions(ctx, "list transactions by account",
		`SELECT `+transactionColumns+` FROM transactions WHERE account_id = ? ORDER BY created_at DESC, id DESC`,
		accountID)
}

// ListTransactionsByDebt retrieves the audit rows linked to a debt, oldest first.
func (q *queries) ListTransactionsByDebt(ctx context.Context, debtID int64) ([]*models.Transaction, error) {
	return q.listTransactions(ctx, "list transactions by debt",
		`SELECT `+transactionColumns+` FROM transactions WHERE debt_id = ? ORDER BY id`,
		debtID)
}

// DeleteTransactionsByDebt removes the audit rows linked to a debt.
func (q *queries) DeleteTransactionsByDebt(ctx context.Context, debtID int64) error {
	if _, err := q.q.ExecContext(ctx, `DELETE FROM transactions WHERE debt_id = ?`, debtID); err != nil {
		return wrapErr("delete transactions by debt", err)
	}
	return nil
}

// DeleteTransactionsByContact removes the audit rows on the user's accounts
// that reference a contact.
func (q *queries) DeleteTransactionsByContact(ctx context.Context, userID, contactID int64) error {
	if _, err := q.q.ExecContext(ctx, `
		DELETE FROM transactions
		WHERE contact_id = ? AND account_id IN (SELECT id FROM accounts WHERE user_id = ?)`,
		contactID, userID); err != nil {
		return wrapErr("delete transactions by contact", err)
	}
	return nil
}

func (q *queries) listTransactions(ctx context.Context, op, query string, args ...any) ([]*models.Transaction, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	txns := []*models.Transaction{}
	for rows.Next() {
		txn := &models.Transaction{}
		var typ string
		var description sql.NullString
		var contactID, debtID sql.NullInt64
		if err := rows.Scan(&txn.ID, &typ, &txn.Amount, &description, &txn.MessageKey,
			&txn.AccountID, &contactID, &debtID, &txn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Type = models.TransactionType(typ)
		txn.Description = description.String
		txn.ContactID = contactID.Int64
		txn.DebtID = debtID.Int64
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return txns, nil
}
