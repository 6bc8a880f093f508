package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/debtbook/internal/ledger"
)

// connectError maps ledger errors onto Connect status codes.
func connectError(err error) *connect.Error {
	var ce *connect.Error
	if errors.As(err, &ce) {
		return ce
	}

	code := connect.CodeInternal
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidArgument):
		code = connect.CodeInvalidArgument
	case errors.Is(err, ledger.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, ledger.ErrAlreadySettled), errors.Is(err, ledger.ErrDeletionForbidden):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, ledger.ErrConflict):
		code = connect.CodeAlreadyExists
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	}
	return connect.NewError(code, err)
}
