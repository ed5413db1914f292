package middleware

import (
	"net/http"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// RequireSession returns middleware that rejects anonymous requests.
// Must be applied after Session middleware.
func RequireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.SessionFromContext(r.Context()) == nil {
				writeUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin returns middleware that rejects requests without an admin
// session. Answers 401 like RequireSession: the gate does not distinguish
// "unauthenticated" from "authenticated but not admin".
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.AdminSessionFromContext(r.Context()) == nil {
				writeUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeUnauthorized writes the standard 401 response.
// Uses the same body for all gate failures to prevent probing.
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
}
