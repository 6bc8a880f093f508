package ledger

import (
	"errors"
	"fmt"

	"github.com/mmynk/debtbook/internal/money"
	"github.com/mmynk/debtbook/internal/storage"
)

// Error taxonomy. Ledger errors match a root sentinel via errors.Is and
// the *NotFound variants also match ErrNotFound. Deleting a settled debt
// matches both ErrDeletionForbidden and ErrAlreadySettled.
var (
	// ErrInvalidAmount: non-finite, negative, or zero where positive is required.
	ErrInvalidAmount = money.ErrInvalidAmount

	// ErrInvalidArgument covers malformed non-amount input (direction, ids, phone).
	ErrInvalidArgument = errors.New("invalid argument")

	ErrNotFound        = storage.ErrNotFound
	ErrDebtNotFound    = fmt.Errorf("debt %w", storage.ErrNotFound)
	ErrContactNotFound = fmt.Errorf("contact %w", storage.ErrNotFound)
	ErrAccountNotFound = fmt.Errorf("account %w", storage.ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", storage.ErrNotFound)

	// ErrAlreadySettled: the operation would mutate a settled debt.
	ErrAlreadySettled = errors.New("debt already settled")

	// ErrDeletionForbidden: delete preconditions are not met.
	ErrDeletionForbidden = errors.New("deletion forbidden")

	ErrConflict = storage.ErrConflict
	ErrStorage  = storage.ErrStorage
)

// ConflictError names the unique constraint a write violated.
type ConflictError = storage.ConflictError

// notFound rewrites a storage not-found into the entity-specific sentinel
// and passes every other error through.
func notFound(err error, sentinel error, id int64) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %d", sentinel, id)
	}
	return err
}
