package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/debtbook/internal/models"
)

// InsertEvidence appends an evidence note.
func (q *queries) InsertEvidence(ctx context.Context, evidence *models.Evidence) error {
	if evidence.CreatedAt == 0 {
		evidence.CreatedAt = q.timestamp()
	}

	res, err := q.q.ExecContext(ctx,
		`INSERT INTO evidence (transaction_id, debt_id, message, type, created_at) VALUES (?, ?, ?, ?, ?)`,
		nullInt(evidence.TransactionID),
		nullInt(evidence.DebtID),
		evidence.Message,
		string(evidence.Type),
		evidence.CreatedAt,
	)
	if err != nil {
		return wrapErr("insert evidence", err)
	}
	evidence.ID, err = insertID(res)
	return err
}

// ListEvidence retrieves the notes attached to a debt, newest first.
func (q *queries) ListEvidence(ctx context.Context, debtID int64) ([]*models.Evidence, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT id, transaction_id, debt_id, message, type, created_at
		 FROM evidence WHERE debt_id = ? ORDER BY created_at DESC, id DESC`,
		debtID,
	)
	if err != nil {
		return nil, wrapErr("list evidence", err)
	}
	defer rows.Close()

	notes := []*models.Evidence{}
	for rows.Next() {
		e := &models.Evidence{}
		var txnID, dID sql.NullInt64
		var typ string
		if err := rows.Scan(&e.ID, &txnID, &dID, &e.Message, &typ, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evidence: %w", err)
		}
		e.TransactionID = txnID.Int64
		e.DebtID = dID.Int64
		e.Type = models.EvidenceType(typ)
		notes = append(notes, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate evidence", err)
	}
	return notes, nil
}

// DeleteEvidenceByDebt removes every note attached to a debt.
func (q *queries) DeleteEvidenceByDebt(ctx context.Context, debtID int64) error {
	if _, err := q.q.ExecContext(ctx, `DELETE FROM evidence WHERE debt_id = ?`, debtID); err != nil {
		return wrapErr("delete evidence", err)
	}
	return nil
}
