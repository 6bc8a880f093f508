package sqlite

import (
	"context"
	"database/sql"

	"github.com/mmynk/debtbook/internal/models"
)

const userColumns = `id, username, name, age, email, phone, password_hash, created_at, updated_at`

// InsertUser inserts a new user. Duplicate username, email or phone
// returns a *storage.ConflictError.
func (q *queries) InsertUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt == 0 {
		user.CreatedAt = q.timestamp()
	}
	if user.UpdatedAt == 0 {
		user.UpdatedAt = user.CreatedAt
	}

	res, err := q.q.ExecContext(ctx, `
		INSERT INTO users (username, name, age, email, phone, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.Name,
		user.Age,
		nullString(user.Email),
		nullString(user.Phone),
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return wrapErr("create user", err)
	}
	user.ID, err = insertID(res)
	return err
}

// GetUser retrieves a user by ID.
func (q *queries) GetUser(ctx context.Context, id int64) (*models.User, error) {
	row := q.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, wrapErr("get user", err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by their login name.
func (q *queries) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := q.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	user, err := scanUser(row)
	if err != nil {
		return nil, wrapErr("get user by username", err)
	}
	return user, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var email, phone sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Name,
		&user.Age,
		&email,
		&phone,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Email = email.String
	user.Phone = phone.String
	return user, nil
}
