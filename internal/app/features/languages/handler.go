// internal/app/features/languages/handler.go
package languages

import (
	"context"
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/docuverse/internal/app/features/errors"
	appstore "github.com/dalemusser/docuverse/internal/app/store/apps"
	languagestore "github.com/dalemusser/docuverse/internal/app/store/languages"
	"github.com/dalemusser/docuverse/internal/app/system/auditlog"
	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/app/system/formutil"
	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"github.com/dalemusser/docuverse/internal/app/system/timeouts"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves /api/languages.
type Handler struct {
	apps      *appstore.Store
	languages *languagestore.Store
	errLog    *errorsfeature.ErrorLogger
	audit     *auditlog.Logger
	logger    *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, auditLogger *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		apps:      appstore.New(db, logger),
		languages: languagestore.New(db, logger),
		errLog:    errLog,
		audit:     auditLogger,
		logger:    logger,
	}
}

// statusFor maps store errors to responses. It reports false for errors it
// does not know.
func statusFor(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, languagestore.ErrNotFound), errors.Is(err, appstore.ErrNotFound):
		jsonutil.NotFound(w, err.Error())
	case errors.Is(err, languagestore.ErrDuplicateCode):
		jsonutil.Conflict(w, err.Error())
	case errors.Is(err, languagestore.ErrLastDefault):
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

	languages, err := h.languages.ListByApp(ctx, appID)
	if err != nil {
		h.errLog.Internal(w, r, "failed to list languages", err)
		return
	}
	jsonutil.OK(w, languages)
}

type createRequest struct {
	AppID     string `json:"appId" validate:"required,objectid" label:"App"`
	Code      string `json:"code" validate:"required,max=20" label:"Code"`
	Name      string `json:"name" validate:"required,max=100" label:"Name"`
	IsDefault bool   `json:"isDefault"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !formutil.Bind(w, r, &req) {
		return
	}
	appID, _ := formutil.ObjectID(req.AppID)
	if !validCode(req.Code) {
		jsonutil.BadRequest(w, msgBadCode)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.apps.GetByID(ctx, appID); err != nil {
		if !statusFor(w, err) {
			h.errLog.Internal(w, r, "failed to load app", err)
		}
		return
	}

	l, err := h.languages.Create(ctx, models.Language{
		AppID:     appID,
		Code:      req.Code,
		Name:      req.Name,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		if !statusFor(w, err) {
			h.errLog.Internal(w, r, "failed to create language", err)
		}
		return
	}

	h.logger.Debug("language created", zap.String("app_id", appID.Hex()), zap.String("code", l.Code))
	jsonutil.Success(w, map[string]any{"languageId": l.ID.Hex(), "language": l})
}

type updateRequest struct {
	ID   string  `json:"id" validate:"required,objectid" label:"ID"`
	Code *string `json:"code" label:"Code"`
	Name *string `json:"name" label:"Name"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !formutil.Bind(w, r, &req) {
		return
	}
	id, _ := formutil.ObjectID(req.ID)
	if req.Code != nil && !validCode(*req.Code) {
		jsonutil.BadRequest(w, msgBadCode)
		return
	}
	if req.Name != nil && !validName(*req.Name) {
		jsonutil.BadRequest(w, "Name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	l, err := h.languages.Update(ctx, id, languagestore.LanguageUpdate{Code: req.Code, Name: req.Name})
	if err != nil {
		if !statusFor(w, err) {
			h.errLog.Internal(w, r, "failed to update language", err)
		}
		return
	}
	jsonutil.Success(w, map[string]any{"language": l})
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

	if err := h.languages.SetDefault(ctx, id); err != nil {
		if !statusFor(w, err) {
			h.errLog.Internal(w, r, "failed to set default language", err)
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

	if err := h.languages.Delete(ctx, id); err != nil {
		if !statusFor(w, err) {
			h.errLog.Internal(w, r, "failed to delete language", err)
		}
		return
	}

	h.audit.LanguageDeleted(ctx, r, auth.ActorID(r), id)
	jsonutil.Success(w, nil)
}
