package settings

import (
	"net/http"

	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /api/settings. Reading is public,
// saving is limited to super admins.
func Routes(h *Handler, sm *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.show)
	r.With(sm.RequireRole(models.RoleSuperAdmin)).Post("/", h.save)
	return r
}
