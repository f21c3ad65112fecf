// internal/app/features/apps/handler.go
package apps

import (
	"context"
	"errors"
	"io"
	"net/http"

	errorsfeature "github.com/dalemusser/docuverse/internal/app/features/errors"
	appstore "github.com/dalemusser/docuverse/internal/app/store/apps"
	languagestore "github.com/dalemusser/docuverse/internal/app/store/languages"
	versionstore "github.com/dalemusser/docuverse/internal/app/store/versions"
	"github.com/dalemusser/docuverse/internal/app/system/auditlog"
	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/app/system/formutil"
	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"github.com/dalemusser/docuverse/internal/app/system/normalize"
	"github.com/dalemusser/docuverse/internal/app/system/timeouts"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// LogoStorage is the part of the file storage backend used for app logos.
type LogoStorage interface {
	Put(ctx context.Context, path string, r io.Reader, opts *storage.PutOptions) error
	URL(path string) string
	Delete(ctx context.Context, path string) error
}

// Handler serves /api/apps.
type Handler struct {
	apps      *appstore.Store
	versions  *versionstore.Store
	languages *languagestore.Store
	storage   LogoStorage
	errLog    *errorsfeature.ErrorLogger
	audit     *auditlog.Logger
	logger    *zap.Logger
}

// NewHandler creates an apps Handler. fileStorage may be nil, which
// disables logo uploads.
func NewHandler(
	db *mongo.Database,
	fileStorage LogoStorage,
	errLog *errorsfeature.ErrorLogger,
	auditLogger *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		apps:      appstore.New(db, logger),
		versions:  versionstore.New(db, logger),
		languages: languagestore.New(db, logger),
		storage:   fileStorage,
		errLog:    errLog,
		audit:     auditLogger,
		logger:    logger,
	}
}

type createRequest struct {
	Name        string `json:"name" validate:"required,max=200" label:"Name"`
	Slug        string `json:"slug" validate:"slug" label:"Slug"`
	Description string `json:"description" validate:"max=2000" label:"Description"`
	LogoURL     string `json:"logoUrl" validate:"httpurl,max=2048" label:"Logo URL"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !formutil.Bind(w, r, &req) {
		return
	}
	slug := req.Slug
	if slug == "" {
		slug = normalize.Slug(req.Name)
	}
	if !normalize.IsSlug(slug) {
		jsonutil.BadRequest(w, "Slug is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	app, err := h.apps.Create(ctx, models.App{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		LogoURL:     req.LogoURL,
	})
	if errors.Is(err, appstore.ErrDuplicateSlug) {
		jsonutil.Conflict(w, err.Error())
		return
	}
	if err != nil {
		h.errLog.Internal(w, r, "failed to create app", err)
		return
	}

	h.audit.AppCreated(ctx, r, auth.ActorID(r), app.ID, app.Slug)
	h.logger.Debug("app created", zap.String("app_id", app.ID.Hex()), zap.String("slug", app.Slug))

	jsonutil.Success(w, map[string]any{"appId": app.ID.Hex()})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	apps, err := h.apps.List(ctx)
	if err != nil {
		h.errLog.Internal(w, r, "failed to list apps", err)
		return
	}
	jsonutil.OK(w, apps)
}

func (h *Handler) listNewest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	apps, err := h.apps.ListNewest(ctx)
	if err != nil {
		h.errLog.Internal(w, r, "failed to list apps", err)
		return
	}
	jsonutil.Success(w, map[string]any{"data": apps})
}

type detailResponse struct {
	App       *models.App       `json:"app"`
	Versions  []models.Version  `json:"versions"`
	Languages []models.Language `json:"languages"`
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := formutil.ObjectID(chi.URLParam(r, "id"))
	if !ok {
		jsonutil.BadRequest(w, formutil.MsgInvalidID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	app, err := h.apps.GetByID(ctx, id)
	if errors.Is(err, appstore.ErrNotFound) {
		jsonutil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		h.errLog.Internal(w, r, "failed to load app", err)
		return
	}

	versions, err := h.versions.ListByApp(ctx, id)
	if err != nil {
		h.errLog.Internal(w, r, "failed to load versions", err)
		return
	}
	languages, err := h.languages.ListByApp(ctx, id)
	if err != nil {
		h.errLog.Internal(w, r, "failed to load languages", err)
		return
	}

	jsonutil.OK(w, detailResponse{App: app, Versions: versions, Languages: languages})
}

type updateRequest struct {
	ID          string  `json:"id" validate:"required,objectid" label:"ID"`
	Name        *string `json:"name" label:"Name"`
	Slug        *string `json:"slug" label:"Slug"`
	Description *string `json:"description" label:"Description"`
	LogoURL     *string `json:"logoUrl" label:"Logo URL"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !formutil.Bind(w, r, &req) {
		return
	}
	id, ok := formutil.BodyID(w, req.ID)
	if !ok {
		return
	}
	if req.Name != nil {
		switch n := normalize.Name(*req.Name); {
		case n == "":
			jsonutil.BadRequest(w, "Name is required")
			return
		case len(n) > 200:
			jsonutil.BadRequest(w, "Name must be at most 200 characters")
			return
		}
	}
	if req.Slug != nil && !normalize.IsSlug(normalize.Slug(*req.Slug)) {
		jsonutil.BadRequest(w, "Slug must contain only lowercase letters, numbers, and hyphens")
		return
	}
	if req.LogoURL != nil && *req.LogoURL != "" && !isLogoURL(*req.LogoURL) {
		jsonutil.BadRequest(w, "Logo URL must be a valid URL")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	app, err := h.apps.Update(ctx, id, appstore.AppUpdate{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		LogoURL:     req.LogoURL,
	})
	switch {
	case errors.Is(err, appstore.ErrNotFound):
		jsonutil.NotFound(w, err.Error())
		return
	case errors.Is(err, appstore.ErrDuplicateSlug):
		jsonutil.Conflict(w, err.Error())
		return
	case err != nil:
		h.errLog.Internal(w, r, "failed to update app", err)
		return
	}

	jsonutil.Success(w, map[string]any{"app": app})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := formutil.QueryID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	app, err := h.apps.Delete(ctx, id)
	if errors.Is(err, appstore.ErrNotFound) {
		jsonutil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		h.errLog.Internal(w, r, "failed to delete app", err)
		return
	}

	if app.LogoPath != "" && h.storage != nil {
		if err := h.storage.Delete(ctx, app.LogoPath); err != nil {
			h.logger.Warn("failed to delete app logo", zap.String("path", app.LogoPath), zap.Error(err))
		}
	}

	h.audit.AppDeleted(ctx, r, auth.ActorID(r), app.ID, app.Slug)

	jsonutil.Success(w, nil)
}
