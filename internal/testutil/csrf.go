package testutil

import (
	"net/http"

	"github.com/gorilla/csrf"
)

// CSRFKey signs tokens issued by CSRFProtect.
const CSRFKey = "test-csrf-key-0123456789abcdef!!"

// CSRFProtect wraps h with the same gorilla/csrf middleware the server uses,
// configured for plain HTTP test requests.
func CSRFProtect(h http.Handler) http.Handler {
	protected := csrf.Protect([]byte(CSRFKey), csrf.Secure(false), csrf.Path("/"))(h)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}
