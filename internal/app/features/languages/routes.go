package languages

import (
	"net/http"

	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /api/languages.
func Routes(h *Handler, sm *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))

	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Put("/", h.update)
	r.Post("/default", h.setDefault)
	r.With(sm.RequireRole(models.RoleSuperAdmin)).Delete("/", h.delete)
	return r
}
