package middleware

import (
	"context"
	"strconv"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/debtbook/internal/auth"
	"github.com/mmynk/debtbook/internal/ledger"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// UsernameKey is the context key for storing the authenticated username.
	UsernameKey contextKey = "username"
	// AccountIDKey holds an explicitly selected account, if any.
	AccountIDKey contextKey = "account_id"
)

// AccountHeader optionally selects a non-default account for the request.
const AccountHeader = "Debtbook-Account"

// GetUserID extracts the user ID from the context.
// Returns 0 if not found.
func GetUserID(ctx context.Context) int64 {
	userID, _ := ctx.Value(UserIDKey).(int64)
	return userID
}

// GetUsername extracts the username from the context.
// Returns empty string if not found.
func GetUsername(ctx context.Context) string {
	username, _ := ctx.Value(UsernameKey).(string)
	return username
}

// SessionFromContext builds the ledger session for an authenticated request.
func SessionFromContext(ctx context.Context) ledger.Session {
	accountID, _ := ctx.Value(AccountIDKey).(int64)
	return ledger.Session{UserID: GetUserID(ctx), AccountID: accountID}
}

// WithSession returns a context carrying the given identity. Used by
// callers that authenticate outside of the interceptors.
func WithSession(ctx context.Context, userID int64, username string, accountID int64) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, UsernameKey, username)
	if accountID > 0 {
		ctx = context.WithValue(ctx, AccountIDKey, accountID)
	}
	return ctx
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func accountFromHeader(req connect.AnyRequest) (int64, error) {
	raw := req.Header().Get(AccountHeader)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, connect.NewError(connect.CodeInvalidArgument, ledger.ErrInvalidArgument)
	}
	return id, nil
}

// RequireAuth returns a middleware that validates JWT tokens and requires authentication.
// It extracts the token from the Authorization header, validates it, and adds
// the user ID and username to the request context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			tokenString, ok := bearerToken(authHeader)
			if !ok {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := jwtManager.Validate(tokenString)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			accountID, err := accountFromHeader(req)
			if err != nil {
				return nil, err
			}

			return next(WithSession(ctx, claims.UserID, claims.Username, accountID), req)
		}
	}
}

// OptionalAuth returns a middleware that validates JWT tokens if present, but allows
// requests without authentication.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if tokenString, ok := bearerToken(req.Header().Get("Authorization")); ok {
				// Invalid tokens are ignored; the handler sees an anonymous request.
				if claims, err := jwtManager.Validate(tokenString); err == nil {
					ctx = WithSession(ctx, claims.UserID, claims.Username, 0)
				}
			}
			return next(ctx, req)
		}
	}
}
