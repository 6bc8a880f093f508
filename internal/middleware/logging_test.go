package middleware

import (
	"errors"
	"testing"

	"connectrpc.com/connect"
)

func TestRPCCode(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  connect.Code
		wantFault bool
	}{
		{"not found", connect.NewError(connect.CodeNotFound, errors.New("debt not found")), connect.CodeNotFound, false},
		{"precondition", connect.NewError(connect.CodeFailedPrecondition, errors.New("debt already settled")), connect.CodeFailedPrecondition, false},
		{"internal", connect.NewError(connect.CodeInternal, errors.New("disk I/O error")), connect.CodeInternal, true},
		{"plain error", errors.New("boom"), connect.CodeUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := rpcCode(tt.err)
			if code != tt.wantCode {
				t.Errorf("code = %v, want %v", code, tt.wantCode)
			}
			if msg == "" {
				t.Errorf("expected a message")
			}
			if got := serverFault(code); got != tt.wantFault {
				t.Errorf("serverFault(%v) = %v, want %v", code, got, tt.wantFault)
			}
		})
	}
}
