package models

// Contact is a person debts are recorded against. Phone is unique.
type Contact struct {
	ID        int64
	Name      string
	Phone     string
	CreatedAt int64
	UpdatedAt int64
}
