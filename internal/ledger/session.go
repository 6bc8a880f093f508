package ledger

import "fmt"

// Session identifies who a ledger operation acts for.
// AccountID is optional; zero selects the user's default account.
type Session struct {
	UserID    int64
	AccountID int64
}

func (s Session) validate() error {
	if s.UserID <= 0 {
		return fmt.Errorf("%w: session has no user", ErrInvalidArgument)
	}
	if s.AccountID < 0 {
		return fmt.Errorf("%w: negative account id", ErrInvalidArgument)
	}
	return nil
}
