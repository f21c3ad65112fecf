// internal/app/system/auth/apikey.go
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

// APIKeyUserID identifies requests authenticated by the publishing API key.
const APIKeyUserID = "api-key"

// APIKeyUser returns middleware that lets automated publishers (CI jobs
// pushing pages) act as an admin by sending "Authorization: Bearer <key>".
//
// Requests without a Bearer header pass through untouched so cookie sessions
// keep working. A Bearer header with the wrong key is rejected with 401.
// When validKey is empty the middleware is a no-op.
func APIKeyUser(validKey, role string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if validKey == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(validKey)) != 1 {
				logger.Warn("API request rejected: invalid API key",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				jsonutil.Unauthorized(w, "Invalid API key")
				return
			}
			next.ServeHTTP(w, withUser(r, &SessionUser{
				ID:   APIKeyUserID,
				Name: "API",
				Role: role,
			}))
		})
	}
}

// IsAPIKeyRequest reports whether the request was authenticated by APIKeyUser.
func IsAPIKeyRequest(r *http.Request) bool {
	u, ok := CurrentUser(r)
	return ok && u.ID == APIKeyUserID
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
