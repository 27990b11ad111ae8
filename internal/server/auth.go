package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/cascadehq/cascade/internal/domain"
)

// SharedSecretAuth guards a route group with the configured secret,
// accepted as "Authorization: Bearer <secret>" or an "x-api-key" header.
// An empty secret disables the check entirely and the proxy runs open.
func SharedSecretAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			presented := bearerToken(r)
			if presented == "" {
				presented = r.Header.Get("x-api-key")
			}
			if presented == "" {
				renderError(w, domain.ErrUnauthorized("Missing API key"))
				return
			}

			if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
				renderError(w, domain.ErrUnauthorized("Invalid API key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer ..." header,
// or "" when the header is absent or shaped differently.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
