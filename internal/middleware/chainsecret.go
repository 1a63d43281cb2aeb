package middleware

import (
	"crypto/subtle"
	"net/http"
)

// ChainSecretHeader carries the shared secret of the chain gateway webhooks.
const ChainSecretHeader = "X-Chain-Secret"

// SharedSecret admits requests whose header matches secret. With no secret
// configured every request is refused.
func SharedSecret(header, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "webhook secret not configured", http.StatusServiceUnavailable)
				return
			}
			got := r.Header.Get(header)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				http.Error(w, "invalid webhook secret", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
