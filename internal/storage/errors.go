package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a unique constraint.
	ErrConflict = errors.New("conflict")

	// ErrStorage wraps any other failure of the underlying database.
	ErrStorage = errors.New("storage error")
)

// ConflictError reports which unique constraint a write violated.
type ConflictError struct {
	Table  string
	Column string
	Err    error
}

func (e *ConflictError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("conflict on %s", e.Table)
	}
	return fmt.Sprintf("conflict: %s.%s already exists", e.Table, e.Column)
}

// Is makes errors.Is(err, ErrConflict) true for any *ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}
