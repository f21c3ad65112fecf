package apps

import (
	"net/http"

	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /api/apps.
//
//   - GET    /            apps by name
//   - GET    /list        apps, newest first
//   - POST   /            create (with default version and language)
//   - PUT    /            update
//   - DELETE /?id=        delete with everything under it (super admin)
//   - GET    /{id}        app with versions and languages
//   - POST   /{id}/logo   multipart logo upload
func Routes(h *Handler, sm *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))

	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Put("/", h.update)
	r.With(sm.RequireRole(models.RoleSuperAdmin)).Delete("/", h.delete)
	r.Get("/list", h.listNewest)
	r.Get("/{id}", h.show)
	r.Post("/{id}/logo", h.uploadLogo)
	return r
}
