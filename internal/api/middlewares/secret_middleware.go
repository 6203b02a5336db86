package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// RequireSecret rejects requests whose header does not carry the shared secret.
// Requests are always rejected while the secret is unset.
func RequireSecret(header, secret string, status int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(header)
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "message": "invalid secret"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
