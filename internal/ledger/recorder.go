package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/debtbook/internal/models"
	"github.com/mmynk/debtbook/internal/money"
	"github.com/mmynk/debtbook/internal/storage"
)

// Audit rows are append-only: nothing in this file updates or deletes.

func recordTransaction(ctx context.Context, tx storage.Tx, txn *models.Transaction) error {
	txn.MessageKey = uuid.NewString()
	if err := tx.InsertTransaction(ctx, txn); err != nil {
		return fmt.Errorf("failed to record %s transaction: %w", txn.Type, err)
	}
	return nil
}

// recordDebtCreated writes the single lend/borrow row for a new debt.
func recordDebtCreated(ctx context.Context, tx storage.Tx, debt *models.Debt) (*models.Transaction, error) {
	description := debt.Reason
	if description == "" {
		description = fmt.Sprintf("Debt #%d", debt.ID)
	}
	txn := &models.Transaction{
		Type:        debt.Direction.CreationType(),
		Amount:      debt.Amount,
		Description: description,
		AccountID:   debt.AccountID,
		ContactID:   debt.ContactID,
		DebtID:      debt.ID,
	}
	return txn, recordTransaction(ctx, tx, txn)
}

// recordRepayment writes the repayment row for one payment event.
func recordRepayment(ctx context.Context, tx storage.Tx, debt *models.Debt, amount money.Amount, description string) (*models.Transaction, error) {
	txn := &models.Transaction{
		Type:        models.TransactionRepayment,
		Amount:      amount,
		Description: description,
		AccountID:   debt.AccountID,
		ContactID:   debt.ContactID,
		DebtID:      debt.ID,
	}
	return txn, recordTransaction(ctx, tx, txn)
}

func recordIncome(ctx context.Context, tx storage.Tx, accountID int64, amount money.Amount, description string) (*models.Transaction, error) {
	txn := &models.Transaction{
		Type:        models.TransactionIncome,
		Amount:      amount,
		Description: description,
		AccountID:   accountID,
	}
	return txn, recordTransaction(ctx, tx, txn)
}

// attachEvidence links a note to a transaction and its debt. A failure
// aborts the surrounding unit like any other write.
func attachEvidence(ctx context.Context, tx storage.Tx, txn *models.Transaction, message string, typ models.EvidenceType) (*models.Evidence, error) {
	ev := &models.Evidence{
		TransactionID: txn.ID,
		DebtID:        txn.DebtID,
		Message:       message,
		Type:          typ,
	}
	if err := tx.InsertEvidence(ctx, ev); err != nil {
		return nil, fmt.Errorf("failed to attach evidence: %w", err)
	}
	return ev, nil
}
