package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var errNoToken = errors.New("auth: missing bearer token")

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "accountID", id), ANY package that knows the string
// can read or shadow your value. A package-private type prevents collisions:
// only this package can create a key of type contextKey.
type contextKey string

const accountIDKey contextKey = "accountID"

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the JWT from the Authorization header ("Bearer <token>"),
// validates it, and stores the accountID in the request context. If the
// token is missing or invalid, it returns 401 Unauthorized and stops the
// request chain.
//
// This API is a pure JSON surface consumed by programmatic clients, so the
// token travels in the standard bearer header rather than a cookie.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID, err := extractAccountID(r, tokens)
			if err != nil {
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			// Store accountID in context so handlers can read it
			ctx := context.WithValue(r.Context(), accountIDKey, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractAccountID pulls the bearer token from the request and validates it.
func extractAccountID(r *http.Request, tokens *TokenService) (string, error) {
	header := r.Header.Get("Authorization")
	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenStr == "" {
		return "", errNoToken
	}
	return tokens.Validate(tokenStr)
}

// AccountIDFromContext returns the authenticated account ID set by
// RequireAuth. The bool is false on routes that didn't run the middleware.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(accountIDKey).(string)
	return id, ok
}
