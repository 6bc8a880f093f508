package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/debtbook/internal/models"
)

// InsertPayment persists a new payment.
func (q *queries) InsertPayment(ctx context.Context, payment *models.Payment) error {
	if payment.CreatedAt == 0 {
		payment.CreatedAt = q.timestamp()
	}
	if payment.Method == "" {
		payment.Method = models.DefaultPaymentMethod
	}

	res, err := q.q.ExecContext(ctx,
		`INSERT INTO payments (debt_id, transaction_id, amount, method, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		payment.DebtID,
		nullInt(payment.TransactionID),
		payment.Amount,
		payment.Method,
		nullString(payment.Note),
		payment.CreatedAt,
	)
	if err != nil {
		return wrapErr("insert payment", err)
	}
	payment.ID, err = insertID(res)
	return err
}

// ListPayments retrieves all payments for a debt in the order they were made.
func (q *queries) ListPayments(ctx context.Context, debtID int64) ([]*models.Payment, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT id, debt_id, transaction_id, amount, method, note, created_at
		 FROM payments WHERE debt_id = ? ORDER BY id`,
		debtID,
	)
	if err != nil {
		return nil, wrapErr("list payments", err)
	}
	defer rows.Close()

	payments := []*models.Payment{}
	for rows.Next() {
		payment := &models.Payment{}
		var txnID sql.NullInt64
		var note sql.NullString

		if err := rows.Scan(&payment.ID, &payment.DebtID, &txnID, &payment.Amount,
			&payment.Method, &note, &payment.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}

		payment.TransactionID = txnID.Int64
		payment.Note = note.String
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate payments", err)
	}

	return payments, nil
}

// CountPayments counts the payments recorded against a debt.
func (q *queries) CountPayments(ctx context.Context, debtID int64) (int, error) {
	var n int
	err := q.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments WHERE debt_id = ?`, debtID).Scan(&n)
	if err != nil {
		return 0, wrapErr("count payments", err)
	}
	return n, nil
}

// DeletePaymentsByDebt removes every payment of a debt.
func (q *queries) DeletePaymentsByDebt(ctx context.Context, debtID int64) error {
	if _, err := q.q.ExecContext(ctx, `DELETE FROM payments WHERE debt_id = ?`, debtID); err != nil {
		return wrapErr("delete payments", err)
	}
	return nil
}
