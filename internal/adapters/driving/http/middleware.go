package http

import (
	"net/http"
	"strings"

	"github.com/custodia-labs/tradegate/internal/adapters/driven/auth"
)

// AuthMiddleware guards the API routes with the gateway JWT. When no gateway
// secret is configured the middleware passes everything through - the
// gateway then behaves like the open local service it replaces.
type AuthMiddleware struct {
	adapter *auth.Adapter
}

// NewAuthMiddleware creates a new AuthMiddleware. adapter may be nil.
func NewAuthMiddleware(adapter *auth.Adapter) *AuthMiddleware {
	return &AuthMiddleware{adapter: adapter}
}

// Authenticate validates the bearer token when gateway auth is enabled.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	if m.adapter == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}
		if err := m.adapter.ParseToken(token); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractBearerToken pulls the token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
