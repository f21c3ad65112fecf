// Package throttle limits request rates on public endpoints.
package throttle

import (
	"net/http"
	"time"

	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"github.com/go-chi/httprate"
)

// PerMinute returns middleware allowing n requests per minute per client IP.
// n <= 0 disables limiting.
func PerMinute(n int) func(http.Handler) http.Handler {
	return Limit(n, time.Minute)
}

// Limit returns middleware allowing n requests per window per client IP.
// Limited requests get a JSON 429.
func Limit(n int, window time.Duration) func(http.Handler) http.Handler {
	if n <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(n, window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			jsonutil.TooManyRequests(w, "Too many requests")
		}),
	)
}
