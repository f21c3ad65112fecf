// internal/app/features/login/login.go
package login

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	errorsfeature "github.com/dalemusser/docuverse/internal/app/features/errors"
	"github.com/dalemusser/docuverse/internal/app/store/ratelimit"
	"github.com/dalemusser/docuverse/internal/app/store/sessions"
	userstore "github.com/dalemusser/docuverse/internal/app/store/users"
	"github.com/dalemusser/docuverse/internal/app/system/auditlog"
	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/app/system/authutil"
	"github.com/dalemusser/docuverse/internal/app/system/authz"
	"github.com/dalemusser/docuverse/internal/app/system/formutil"
	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"github.com/dalemusser/docuverse/internal/app/system/metrics"
	"github.com/dalemusser/docuverse/internal/app/system/normalize"
	"github.com/dalemusser/docuverse/internal/app/system/timeouts"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Responses shared with tests.
const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgDisabled           = "Account is disabled"
)

// Login attempt results recorded in metrics.
const (
	resultSuccess  = "success"
	resultInvalid  = "invalid"
	resultDisabled = "disabled"
	resultLocked   = "locked"
)

// Handler serves POST /api/auth/login.
type Handler struct {
	users          *userstore.Store
	sessionsStore  *sessions.Store
	rateLimitStore *ratelimit.Store // nil disables lockout
	sessionMgr     *auth.SessionManager
	sessionMaxAge  time.Duration
	errLog         *errorsfeature.ErrorLogger
	auditLogger    *auditlog.Logger
	logger         *zap.Logger
}

// NewHandler creates a login Handler. rateLimitStore may be nil.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	sessionsStore *sessions.Store,
	rateLimitStore *ratelimit.Store,
	sessionMaxAge time.Duration,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		users:          userstore.New(db),
		sessionsStore:  sessionsStore,
		rateLimitStore: rateLimitStore,
		sessionMgr:     sessionMgr,
		sessionMaxAge:  sessionMaxAge,
		errLog:         errLog,
		auditLogger:    auditLogger,
		logger:         logger,
	}
}

// Routes returns the login router. limit wraps the POST with the public
// request throttle.
func Routes(h *Handler, limit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	if limit != nil {
		r.Use(limit)
	}
	r.Post("/", h.handleLogin)
	return r
}

type loginRequest struct {
	Email    string `json:"email" validate:"required" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// UserInfo is the signed-in user as returned by login, setup and /me.
type UserInfo struct {
	ID          string            `json:"id"`
	Email       string            `json:"email"`
	Name        string            `json:"name,omitempty"`
	Role        string            `json:"role"`
	Permissions authz.Permissions `json:"permissions"`
}

// InfoFor describes u for API responses.
func InfoFor(u *models.User) UserInfo {
	return UserInfo{
		ID:          u.ID.Hex(),
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		Permissions: authz.For(u.Role),
	}
}

func lockoutMessage(lockedUntil *time.Time) string {
	if lockedUntil == nil {
		return "Too many failed login attempts. Please try again later."
	}
	remaining := time.Until(*lockedUntil)
	if remaining > time.Minute {
		return fmt.Sprintf("Too many failed login attempts. Please try again in %d minute(s).", int(remaining.Minutes())+1)
	}
	return fmt.Sprintf("Too many failed login attempts. Please try again in %d second(s).", int(remaining.Seconds())+1)
}

// recordFailure counts a failed attempt and reports whether it locked the
// account, writing the 429 when it did.
func (h *Handler) recordFailure(ctx context.Context, w http.ResponseWriter, r *http.Request, email string) bool {
	if h.rateLimitStore == nil {
		return false
	}
	lockedOut, lockedUntil, err := h.rateLimitStore.RecordFailure(ctx, email)
	if err != nil {
		h.errLog.Log(r, "failed to record login failure", err)
		return false
	}
	if !lockedOut {
		return false
	}
	h.auditLogger.LoginLockedOut(ctx, r, email)
	metrics.RecordLogin(resultLocked)
	jsonutil.TooManyRequests(w, lockoutMessage(lockedUntil))
	return true
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !formutil.Bind(w, r, &req) {
		return
	}
	email := normalize.Email(req.Email)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.rateLimitStore != nil {
		if allowed, _, lockedUntil := h.rateLimitStore.CheckAllowed(ctx, email); !allowed {
			h.auditLogger.LoginLockedOut(ctx, r, email)
			metrics.RecordLogin(resultLocked)
			jsonutil.TooManyRequests(w, lockoutMessage(lockedUntil))
			return
		}
	}

	user, err := h.users.GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		h.auditLogger.LoginFailedUserNotFound(ctx, r, email)
		if h.recordFailure(ctx, w, r, email) {
			return
		}
		metrics.RecordLogin(resultInvalid)
		jsonutil.Unauthorized(w, MsgInvalidCredentials)
		return
	}
	if err != nil {
		h.errLog.Internal(w, r, "database error during login lookup", err)
		return
	}

	if user.Status != models.StatusActive {
		h.auditLogger.LoginFailedUserDisabled(ctx, r, user.ID, email)
		metrics.RecordLogin(resultDisabled)
		jsonutil.Forbidden(w, MsgDisabled)
		return
	}

	if !authutil.CheckPassword(req.Password, user.PasswordHash) {
		h.auditLogger.LoginFailedWrongPassword(ctx, r, user.ID, email)
		if h.recordFailure(ctx, w, r, email) {
			return
		}
		metrics.RecordLogin(resultInvalid)
		jsonutil.Unauthorized(w, MsgInvalidCredentials)
		return
	}

	if h.rateLimitStore != nil {
		if err := h.rateLimitStore.ClearOnSuccess(ctx, email); err != nil {
			h.logger.Warn("failed to clear login attempts", zap.Error(err))
		}
	}

	if err := StartSession(w, r, h.sessionMgr, h.sessionsStore, user.ID, user.Role, h.sessionMaxAge, h.logger); err != nil {
		h.errLog.Internal(w, r, "failed to create session", err)
		return
	}

	h.auditLogger.LoginSuccess(ctx, r, user.ID, email)
	metrics.RecordLogin(resultSuccess)
	h.logger.Info("user signed in", zap.String("user_id", user.ID.Hex()))

	jsonutil.Success(w, map[string]any{"user": InfoFor(user)})
}
