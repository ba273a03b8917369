package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/babybook-api/internal/domain"
	jwtinfra "github.com/babybook-api/internal/infrastructure/jwt"
)

type contextKey string

const ClaimsKey contextKey = "claims"

type accountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
}

// Auth returns middleware that validates the Bearer token and injects claims
// into context. Beyond the signature check it compares the token's password
// epoch with the account's current one, so tokens minted before a password
// change are rejected even though their signature still verifies.
func Auth(provider *jwtinfra.Provider, accounts accountStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := provider.Verify(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusForbidden, "invalid or expired token")
				return
			}
			a, err := accounts.Get(r.Context(), claims.AccountID)
			if err != nil || !a.Enable {
				writeJSONError(w, http.StatusForbidden, "invalid or expired token")
				return
			}
			if claims.PasswordEpoch != a.PasswordUpdatedAt.Unix() {
				writeJSONError(w, http.StatusForbidden, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext extracts token claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(ClaimsKey).(*jwtinfra.Claims)
	return c, ok
}
