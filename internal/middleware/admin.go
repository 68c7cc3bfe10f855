package middleware

import (
	"crypto/subtle"
	"net/http"
)

// AdminTokenHeader carries the operator token on admin routes.
const AdminTokenHeader = "X-Admin-Token"

// AdminOnly gates operator routes behind a shared token. An empty configured
// token disables the routes entirely.
func AdminOnly(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				writeJSONError(w, http.StatusForbidden, "Admin routes are disabled", "forbidden")
				return
			}
			presented := r.Header.Get(AdminTokenHeader)
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				writeJSONError(w, http.StatusForbidden, "Admin token required", "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
