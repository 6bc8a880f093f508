package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor returns a Connect interceptor that logs each RPC with
// the caller's session. Internal failures log at Error, everything the
// caller can fix logs at Warn, and successful calls log at Debug.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			sess := SessionFromContext(ctx)
			attrs := []any{
				"procedure", req.Spec().Procedure,
				"user_id", sess.UserID,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if sess.AccountID != 0 {
				attrs = append(attrs, "account_id", sess.AccountID)
			}

			code, msg := rpcCode(err)
			switch {
			case err == nil:
				slog.DebugContext(ctx, "RPC ok", attrs...)
			case serverFault(code):
				slog.ErrorContext(ctx, "RPC failed", append(attrs, "code", code, "error", err)...)
			default:
				slog.WarnContext(ctx, "RPC rejected", append(attrs, "code", code, "error", msg)...)
			}
			return resp, err
		}
	}
}

func rpcCode(err error) (connect.Code, string) {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr.Code(), connectErr.Message()
	}
	if err != nil {
		return connect.CodeUnknown, err.Error()
	}
	return 0, ""
}

func serverFault(code connect.Code) bool {
	switch code {
	case connect.CodeInternal, connect.CodeUnknown, connect.CodeDataLoss, connect.CodeUnavailable:
		return true
	}
	return false
}
