// internal/app/features/setup/setup.go
//
// Package setup creates the first super admin on a fresh install. Once any
// user exists the endpoint refuses to run again.
package setup

import (
	"context"
	"errors"
	"net/http"
	"time"

	errorsfeature "github.com/dalemusser/docuverse/internal/app/features/errors"
	"github.com/dalemusser/docuverse/internal/app/features/login"
	"github.com/dalemusser/docuverse/internal/app/store/sessions"
	userstore "github.com/dalemusser/docuverse/internal/app/store/users"
	"github.com/dalemusser/docuverse/internal/app/system/auditlog"
	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/app/system/authutil"
	"github.com/dalemusser/docuverse/internal/app/system/formutil"
	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"github.com/dalemusser/docuverse/internal/app/system/normalize"
	"github.com/dalemusser/docuverse/internal/app/system/timeouts"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MsgAlreadyDone is returned when setup runs against a populated database.
const MsgAlreadyDone = "Setup has already been completed"

// Handler serves /api/setup.
type Handler struct {
	users         *userstore.Store
	sessionsStore *sessions.Store
	sessionMgr    *auth.SessionManager
	sessionMaxAge time.Duration
	errLog        *errorsfeature.ErrorLogger
	audit         *auditlog.Logger
	logger        *zap.Logger
}

// NewHandler creates a setup Handler.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	sessionsStore *sessions.Store,
	sessionMaxAge time.Duration,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		users:         userstore.New(db),
		sessionsStore: sessionsStore,
		sessionMgr:    sessionMgr,
		sessionMaxAge: sessionMaxAge,
		errLog:        errLog,
		audit:         auditLogger,
		logger:        logger,
	}
}

// Routes returns the setup router. Both routes are public.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.status)
	r.Post("/", h.create)
	return r
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	exists, err := h.users.Any(ctx)
	if err != nil {
		h.errLog.Internal(w, r, "failed to check for users", err)
		return
	}
	jsonutil.OK(w, map[string]bool{"needsSetup": !exists})
}

type createRequest struct {
	Email    string `json:"email" validate:"required,max=254" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
	Name     string `json:"name" validate:"max=200" label:"Name"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !formutil.Bind(w, r, &req) {
		return
	}
	email := normalize.Email(req.Email)
	if err := authutil.ValidateCredentials(email, req.Password, false); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	exists, err := h.users.Any(ctx)
	if err != nil {
		h.errLog.Internal(w, r, "failed to check for users", err)
		return
	}
	if exists {
		jsonutil.Forbidden(w, MsgAlreadyDone)
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.errLog.Internal(w, r, "failed to hash password", err)
		return
	}
	user, err := h.users.Create(ctx, models.User{
		Email:        email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         models.RoleSuperAdmin,
		Status:       models.StatusActive,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		// Two first-run requests raced; the other one won.
		jsonutil.Forbidden(w, MsgAlreadyDone)
		return
	}
	if err != nil {
		h.errLog.Internal(w, r, "failed to create first user", err)
		return
	}

	h.audit.SetupCompleted(ctx, r, user.ID, user.Email)
	h.logger.Info("initial super admin created", zap.String("email", user.Email))

	if err := login.StartSession(w, r, h.sessionMgr, h.sessionsStore, user.ID, user.Role, h.sessionMaxAge, h.logger); err != nil {
		// The account exists; the client can still sign in normally.
		h.errLog.Log(r, "failed to start session after setup", err)
	}

	jsonutil.Success(w, map[string]any{
		"id":      user.ID.Hex(),
		"message": "Setup complete",
		"user":    login.InfoFor(&user),
	})
}
