// internal/app/features/session/session.go
//
// Package session answers the admin client's questions about the current
// sign-in: is it still valid, who is it, and which CSRF token to send.
package session

import (
	"net/http"

	"github.com/dalemusser/docuverse/internal/app/features/login"
	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/app/system/authz"
	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
)

// MsgInvalid is returned by /validate without a live session.
const MsgInvalid = "Session invalid"

// Routes returns the session endpoints mounted under /api/auth.
func Routes(sm *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Get("/validate", validate)
	r.Get("/csrf", csrfToken)
	r.With(sm.RequireSignedIn).Get("/me", me)
	return r
}

func validate(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); !ok {
		jsonutil.Unauthorized(w, MsgInvalid)
		return
	}
	jsonutil.OK(w, map[string]bool{"valid": true})
}

func me(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	jsonutil.OK(w, map[string]any{"user": login.UserInfo{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		Permissions: authz.For(u.Role),
	}})
}

// csrfToken hands the SPA the token it must echo in X-CSRF-Token.
func csrfToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	jsonutil.OK(w, map[string]string{"csrfToken": csrf.Token(r)})
}
