// internal/app/features/settings/handler.go
package settings

import (
	"context"
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/docuverse/internal/app/features/errors"
	settingsstore "github.com/dalemusser/docuverse/internal/app/store/settings"
	"github.com/dalemusser/docuverse/internal/app/system/auditlog"
	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/app/system/formutil"
	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"github.com/dalemusser/docuverse/internal/app/system/timeouts"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves /api/settings.
type Handler struct {
	settings *settingsstore.Store
	errLog   *errorsfeature.ErrorLogger
	audit    *auditlog.Logger
	logger   *zap.Logger
}

// NewHandler creates a settings Handler.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, auditLogger *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		settings: settingsstore.New(db),
		errLog:   errLog,
		audit:    auditLogger,
		logger:   logger,
	}
}

// show is public; readers need the branding before anyone signs in.
func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	s, err := h.settings.Get(ctx)
	if err != nil {
		h.errLog.Internal(w, r, "failed to load settings", err)
		return
	}
	jsonutil.OK(w, s)
}

type saveRequest struct {
	BrandName    string `json:"brandName" validate:"required,max=100" label:"Brand name"`
	LogoURL      string `json:"logoUrl" validate:"httpurl" label:"Logo URL"`
	Description  string `json:"description" validate:"max=500" label:"Description"`
	PrimaryColor string `json:"primaryColor" validate:"hexcolor" label:"Primary color"`
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if !formutil.Bind(w, r, &req) {
		return
	}

	s := models.SiteSettings{
		BrandName:    strings.TrimSpace(req.BrandName),
		LogoURL:      strings.TrimSpace(req.LogoURL),
		Description:  strings.TrimSpace(req.Description),
		PrimaryColor: strings.ToLower(strings.TrimSpace(req.PrimaryColor)),
	}

	var updatedBy *primitive.ObjectID
	if oid, err := primitive.ObjectIDFromHex(auth.ActorID(r)); err == nil {
		updatedBy = &oid
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	saved, err := h.settings.Save(ctx, s, updatedBy)
	if err != nil {
		h.errLog.Internal(w, r, "failed to save settings", err)
		return
	}
	h.audit.SettingsUpdated(ctx, r, auth.ActorID(r))
	jsonutil.Success(w, map[string]any{"settings": saved})
}
