package middleware

import (
	"net/http"
	"strings"
	"time"
)

const timeoutBody = `{"success":false,"error":{"code":"TIMEOUT","message":"Request timeout"}}`

// Timeout bounds every request by timeout. Paths under skipPrefixes are left
// alone, which the docs endpoints use for large static responses.
func Timeout(timeout time.Duration, skipPrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		timeoutHandler := http.TimeoutHandler(next, timeout, timeoutBody)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range skipPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}
			timeoutHandler.ServeHTTP(w, r)
		})
	}
}
