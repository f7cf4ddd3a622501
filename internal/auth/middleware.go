// internal/auth/middleware.go
package auth

import (
	"context"
	"net/http"
	"strings"

	"librarium/internal/httpx"
)

type contextKey struct{}

// IdentityFrom returns the authenticated identity attached to the request, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// Authenticator parses a bearer token when present and attaches the identity to
// the request context. Requests without a token pass through unauthenticated;
// the role predicates below decide whether that is acceptable.
func Authenticator(tokens *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw := strings.TrimPrefix(header, "Bearer ")
			identity, err := tokens.Parse(raw)
			if err != nil {
				httpx.Error(w, http.StatusUnauthorized, ErrInvalidToken.Error())
				return
			}

			ctx := context.WithValue(r.Context(), contextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSignedIn gates an endpoint to any authenticated user.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFrom(r.Context()); !ok {
			httpx.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireLibrarian gates an endpoint to the elevated role. The authorization
// predicate lives here, independent of the transport framework.
func RequireLibrarian(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFrom(r.Context())
		if !ok {
			httpx.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !identity.IsLibrarian() {
			httpx.Error(w, http.StatusForbidden, "librarian role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
