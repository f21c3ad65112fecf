// internal/app/features/versions/handler.go
package versions

import (
	"context"
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/docuverse/internal/app/features/errors"
	appstore "github.com/dalemusser/docuverse/internal/app/store/apps"
	versionstore "github.com/dalemusser/docuverse/internal/app/store/versions"
	"github.com/dalemusser/docuverse/internal/app/system/auditlog"
	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/app/system/formutil"
	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"github.com/dalemusser/docuverse/internal/app/system/timeouts"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves /api/versions.
type Handler struct {
	apps     *appstore.Store
	versions *versionstore.Store
	errLog   *errorsfeature.ErrorLogger
	audit    *auditlog.Logger
	logger   *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, auditLogger *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		apps:     appstore.New(db, logger),
		versions: versionstore.New(db, logger),
		errLog:   errLog,
		audit:    auditLogger,
		logger:   logger,
	}
}

// statusFor maps store errors to responses. It reports false for errors it
// does not know.
func statusFor(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, versionstore.ErrNotFound), errors.Is(err, appstore.ErrNotFound):
		jsonutil.NotFound(w, err.Error())
	case errors.Is(err, versionstore.ErrDuplicateSlug):
		jsonutil.Conflict(w, err.Error())
	case errors.Is(err, versionstore.ErrLastDefault):
		jsonutil.BadRequest(w, err.Error())
	default:
		return false
	}
	return true
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	appID, ok := formutil.QueryID(w, r, "appId")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	versions, err := h.versions.ListByApp(ctx, appID)
	if err != nil {
		h.errLog.Internal(w, r, "failed to list versions", err)
		return
	}
	jsonutil.OK(w, versions)
}

type createRequest struct {
	AppID     string `json:"appId" validate:"required,objectid" label:"App"`
	Slug      string `json:"slug" validate:"required,slug" label:"Slug"`
	Name      string `json:"name" validate:"required,max=100" label:"Name"`
	IsDefault bool   `json:"isDefault"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !formutil.Bind(w, r, &req) {
		return
	}
	appID, _ := formutil.ObjectID(req.AppID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.apps.GetByID(ctx, appID); err != nil {
		if !statusFor(w, err) {
			h.errLog.Internal(w, r, "failed to load app", err)
		}
		return
	}

	v, err := h.versions.Create(ctx, models.Version{
		AppID:     appID,
		Slug:      req.Slug,
		Name:      req.Name,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		if !statusFor(w, err) {
			h.errLog.Internal(w, r, "failed to create version", err)
		}
		return
	}

	h.logger.Debug("version created", zap.String("app_id", appID.Hex()), zap.String("slug", v.Slug))
	jsonutil.Success(w, map[string]any{"versionId": v.ID.Hex(), "version": v})
}

type updateRequest struct {
	ID   string  `json:"id" validate:"required,objectid" label:"ID"`
	Slug *string `json:"slug" label:"Slug"`
	Name *string `json:"name" label:"Name"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !formutil.Bind(w, r, &req) {
		return
	}
	id, _ := formutil.ObjectID(req.ID)
	if req.Slug != nil && !validSlug(*req.Slug) {
		jsonutil.BadRequest(w, "Slug must contain only lowercase letters, numbers, and hyphens")
		return
	}
	if req.Name != nil && !validName(*req.Name) {
		jsonutil.BadRequest(w, "Name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, err := h.versions.Update(ctx, id, versionstore.VersionUpdate{Slug: req.Slug, Name: req.Name})
	if err != nil {
		if !statusFor(w, err) {
			h.errLog.Internal(w, r, "failed to update version", err)
		}
		return
	}
	jsonutil.Success(w, map[string]any{"version": v})
}

type defaultRequest struct {
	ID string `json:"id" validate:"required,objectid" label:"ID"`
}

func (h *Handler) setDefault(w http.ResponseWriter, r *http.Request) {
	var req defaultRequest
	if !formutil.Bind(w, r, &req) {
		return
	}
	id, _ := formutil.ObjectID(req.ID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.versions.SetDefault(ctx, id); err != nil {
		if !statusFor(w, err) {
			h.errLog.Internal(w, r, "failed to set default version", err)
		}
		return
	}
	jsonutil.Success(w, nil)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := formutil.QueryID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.versions.Delete(ctx, id); err != nil {
		if !statusFor(w, err) {
			h.errLog.Internal(w, r, "failed to delete version", err)
		}
		return
	}

	h.audit.VersionDeleted(ctx, r, auth.ActorID(r), id)
	jsonutil.Success(w, nil)
}
