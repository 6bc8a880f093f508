package sqlite

import (
	"context"
	"database/sql"

	"github.com/mmynk/debtbook/internal/models"
)

const accountColumns = `id, user_id, name, type, currency, income_amount, debt_amount, debted_amount, is_default, created_at, updated_at`

// InsertAccount persists a new account.
func (q *queries) InsertAccount(ctx context.Context, account *models.Account) error {
	if account.CreatedAt == 0 {
		account.CreatedAt = q.timestamp()
	}
	if account.UpdatedAt == 0 {
		account.UpdatedAt = account.CreatedAt
	}

	res, err := q.q.ExecContext(ctx, `
		INSERT INTO accounts (user_id, name, type, currency, income_amount, debt_amount, debted_amount, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.UserID,
		account.Name,
		account.Type,
		account.Currency,
		account.IncomeAmount,
		account.DebtAmount,
		account.DebtedAmount,
		account.IsDefault,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return wrapErr("create account", err)
	}
	account.ID, err = insertID(res)
	return err
}

// UpdateAccountBalances writes the cached totals and bumps updated_at.
func (q *queries) UpdateAccountBalances(ctx context.Context, account *models.Account) error {
	account.UpdatedAt = q.timestamp()
	res, err := q.q.ExecContext(ctx, `
		UPDATE accounts
		SET income_amount = ?, debt_amount = ?, debted_amount = ?, updated_at = ?
		WHERE id = ?`,
		account.IncomeAmount,
		account.DebtAmount,
		account.DebtedAmount,
		account.UpdatedAt,
		account.ID,
	)
	if err != nil {
		return wrapErr("update account balances", err)
	}
	return affected(res, "update account balances")
}

// GetAccount retrieves an account by ID.
func (q *queries) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	row := q.q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	account, err := scanAccount(row)
	if err != nil {
		return nil, wrapErr("get account", err)
	}
	return account, nil
}

// GetDefaultAccount retrieves the user's default account.
func (q *queries) GetDefaultAccount(ctx context.Context, userID int64) (*models.Account, error) {
	row := q.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? AND is_default = 1`, userID)
	account, err := scanAccount(row)
	if err != nil {
		return nil, wrapErr("get default account", err)
	}
	return account, nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.Name,
		&account.Type,
		&account.Currency,
		&account.IncomeAmount,
		&account.DebtAmount,
		&account.DebtedAmount,
		&account.IsDefault,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}
