package models

// User represents a registered account holder.
type User struct {
	// ID is the store-assigned identifier.
	ID int64

	// Username is the unique login name.
	Username string

	// Name is the display name.
	Name string

	// Age is optional; zero means unknown.
	Age int

	// Email is unique when set.
	Email string

	// Phone is unique when set.
	Phone string

	// PasswordHash is the bcrypt hash of the user's password.
	// Never expose this field in API responses.
	PasswordHash string

	CreatedAt int64
	UpdatedAt int64
}
