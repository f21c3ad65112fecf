// internal/app/features/logout/logout.go
package logout

import (
	"context"
	"net/http"

	"github.com/dalemusser/docuverse/internal/app/store/sessions"
	"github.com/dalemusser/docuverse/internal/app/system/auditlog"
	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"github.com/dalemusser/docuverse/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MsgNoSession is returned to Bearer API key callers, which never hold a
// session.
const MsgNoSession = "API key requests have no session to end"

// Handler ends admin sessions.
type Handler struct {
	sessionMgr *auth.SessionManager
	audit      *auditlog.Logger
	sessions   *sessions.Store
	logger     *zap.Logger
}

// NewHandler creates a logout Handler.
func NewHandler(sessionMgr *auth.SessionManager, auditLogger *auditlog.Logger, sessionsStore *sessions.Store, logger *zap.Logger) *Handler {
	return &Handler{
		sessionMgr: sessionMgr,
		audit:      auditLogger,
		sessions:   sessionsStore,
		logger:     logger,
	}
}

// Routes returns the router mounted at /api/auth/logout.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireSignedIn)
	r.Post("/", h.logout)
	return r
}

// logout closes the server-side record, which invalidates the cookie on
// every device holding it, then clears the cookie on this one. The record
// stays with logout_at set.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if auth.IsAPIKeyRequest(r) {
		jsonutil.BadRequest(w, MsgNoSession)
		return
	}

	user, _ := auth.CurrentUser(r)
	if user.Token != "" {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		err := h.sessions.Close(ctx, user.Token, sessions.EndReasonLogout)
		cancel()
		if err != nil {
			h.logger.Warn("failed to close session record",
				zap.String("user_id", user.ID),
				zap.Error(err))
		}
	}
	h.audit.Logout(r.Context(), r, user.ID)

	h.sessionMgr.DestroySession(w, r)
	jsonutil.Success(w, nil)
}
