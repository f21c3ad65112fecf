// internal/app/features/users/handler.go
package users

import (
	"context"
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/docuverse/internal/app/features/errors"
	sessionstore "github.com/dalemusser/docuverse/internal/app/store/sessions"
	userstore "github.com/dalemusser/docuverse/internal/app/store/users"
	"github.com/dalemusser/docuverse/internal/app/system/auditlog"
	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/app/system/authutil"
	"github.com/dalemusser/docuverse/internal/app/system/formutil"
	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"github.com/dalemusser/docuverse/internal/app/system/normalize"
	"github.com/dalemusser/docuverse/internal/app/system/timeouts"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Messages for the account rules enforced here rather than in the store.
const (
	MsgSelfDelete     = "You cannot delete your own account"
	MsgLastSuperAdmin = "Cannot remove the last active super admin"
)

// Handler serves /api/users. Every route requires a super admin.
type Handler struct {
	users    *userstore.Store
	sessions *sessionstore.Store
	errLog   *errorsfeature.ErrorLogger
	audit    *auditlog.Logger
	logger   *zap.Logger
}

// NewHandler creates a users Handler.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, auditLogger *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		users:    userstore.New(db),
		sessions: sessionstore.New(db),
		errLog:   errLog,
		audit:    auditLogger,
		logger:   logger,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	users, err := h.users.List(ctx)
	if err != nil {
		h.errLog.Internal(w, r, "failed to list users", err)
		return
	}
	jsonutil.OK(w, users)
}

type createRequest struct {
	Email    string `json:"email" validate:"required,max=254" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
	Name     string `json:"name" validate:"max=200" label:"Name"`
	Role     string `json:"role"`
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
	role := normalize.Role(req.Role)
	if role == "" {
		role = models.RoleAdmin
	}
	if !models.IsValidRole(role) {
		jsonutil.BadRequest(w, "Role must be admin or super_admin")
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.errLog.Internal(w, r, "failed to hash password", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.users.Create(ctx, models.User{
		Email:        email,
		Name:         req.Name,
		Role:         role,
		PasswordHash: hash,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		jsonutil.Conflict(w, err.Error())
		return
	}
	if err != nil {
		h.errLog.Internal(w, r, "failed to create user", err)
		return
	}

	h.audit.UserCreated(ctx, r, auth.ActorID(r), u.ID, u.Email, u.Role)
	jsonutil.Success(w, map[string]any{"user": u})
}

type updateRequest struct {
	ID       string  `json:"id" validate:"required,objectid" label:"ID"`
	Email    string  `json:"email" validate:"required,max=254" label:"Email"`
	Name     string  `json:"name" validate:"max=200" label:"Name"`
	Password string  `json:"password"`
	Role     string  `json:"role" validate:"required" label:"Role"`
	Status   *string `json:"status"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !formutil.Bind(w, r, &req) {
		return
	}
	id, _ := formutil.ObjectID(req.ID)
	email := normalize.Email(req.Email)
	if err := authutil.ValidateCredentials(email, req.Password, true); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	role := normalize.Role(req.Role)
	if !models.IsValidRole(role) {
		jsonutil.BadRequest(w, "Role must be admin or super_admin")
		return
	}
	if req.Status != nil && !models.IsValidStatus(*req.Status) {
		jsonutil.BadRequest(w, userstore.ErrBadStatus.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	current, err := h.users.GetByID(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) {
		jsonutil.NotFound(w, "User not found")
		return
	}
	if err != nil {
		h.errLog.Internal(w, r, "failed to load user", err)
		return
	}

	stillSuper := role == models.RoleSuperAdmin && (req.Status == nil || *req.Status == models.StatusActive)
	if isActiveSuper(current) && !stillSuper {
		last, err := h.isLastSuperAdmin(ctx)
		if err != nil {
			h.errLog.Internal(w, r, "failed to count super admins", err)
			return
		}
		if last {
			jsonutil.BadRequest(w, MsgLastSuperAdmin)
			return
		}
	}

	upd := userstore.UserUpdate{Email: email, Name: req.Name, Role: role, Status: req.Status}
	if req.Password != "" {
		hash, err := authutil.HashPassword(req.Password)
		if err != nil {
			h.errLog.Internal(w, r, "failed to hash password", err)
			return
		}
		upd.PasswordHash = &hash
	}

	switch err := h.users.Update(ctx, id, upd); {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		jsonutil.Conflict(w, err.Error())
		return
	case errors.Is(err, userstore.ErrNotFound):
		jsonutil.NotFound(w, "User not found")
		return
	case errors.Is(err, userstore.ErrBadRole):
		jsonutil.BadRequest(w, "Role must be admin or super_admin")
		return
	case errors.Is(err, userstore.ErrBadStatus):
		jsonutil.BadRequest(w, err.Error())
		return
	case err != nil:
		h.errLog.Internal(w, r, "failed to update user", err)
		return
	}

	switch {
	case req.Status != nil && *req.Status == models.StatusDisabled:
		h.closeSessions(ctx, id, sessionstore.EndReasonDisabled)
	case upd.PasswordHash != nil:
		h.closeSessions(ctx, id, sessionstore.EndReasonPassword)
	}

	h.audit.UserUpdated(ctx, r, auth.ActorID(r), id, upd.PasswordHash != nil)
	jsonutil.Success(w, nil)
}

type deleteRequest struct {
	ID string `json:"id" validate:"required,objectid" label:"ID"`
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if !formutil.Bind(w, r, &req) {
		return
	}
	id, _ := formutil.ObjectID(req.ID)
	if auth.ActorID(r) == id.Hex() {
		jsonutil.BadRequest(w, MsgSelfDelete)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.users.GetByID(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) {
		jsonutil.NotFound(w, "User not found")
		return
	}
	if err != nil {
		h.errLog.Internal(w, r, "failed to load user", err)
		return
	}
	if isActiveSuper(u) {
		last, err := h.isLastSuperAdmin(ctx)
		if err != nil {
			h.errLog.Internal(w, r, "failed to count super admins", err)
			return
		}
		if last {
			jsonutil.BadRequest(w, MsgLastSuperAdmin)
			return
		}
	}

	if err := h.users.Delete(ctx, id); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			jsonutil.NotFound(w, "User not found")
			return
		}
		h.errLog.Internal(w, r, "failed to delete user", err)
		return
	}
	h.closeSessions(ctx, id, sessionstore.EndReasonUserDeleted)

	h.audit.UserDeleted(ctx, r, auth.ActorID(r), id, u.Email)
	jsonutil.Success(w, nil)
}

func isActiveSuper(u *models.User) bool {
	return u.Role == models.RoleSuperAdmin && u.Status == models.StatusActive
}

func (h *Handler) isLastSuperAdmin(ctx context.Context) (bool, error) {
	n, err := h.users.CountActiveSuperAdmins(ctx)
	if err != nil {
		return false, err
	}
	return n <= 1, nil
}

// closeSessions signs the user out everywhere. Failures are logged only;
// the account change has already been saved.
func (h *Handler) closeSessions(ctx context.Context, userID primitive.ObjectID, reason string) {
	n, err := h.sessions.CloseByUser(ctx, userID, reason)
	if err != nil {
		h.logger.Warn("failed to close user sessions", zap.String("user_id", userID.Hex()), zap.Error(err))
		return
	}
	if n > 0 {
		h.logger.Info("closed user sessions",
			zap.String("user_id", userID.Hex()),
			zap.Int64("count", n),
			zap.String("reason", reason))
	}
}
