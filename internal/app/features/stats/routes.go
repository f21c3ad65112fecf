// internal/app/features/stats/routes.go
package statsfeature

import (
	"net/http"

	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /api/stats.
func Routes(h *Handler, sm *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))

	r.Get("/views", h.monthlyViews)
	r.Get("/summary", h.summary)
	return r
}
