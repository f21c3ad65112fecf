// internal/app/features/pageviews/handler.go
//
// Package pageviews records reader page views. The endpoint is public and
// throttled; counts feed the stats rollup.
package pageviews

import (
	"context"
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/docuverse/internal/app/features/errors"
	pagestore "github.com/dalemusser/docuverse/internal/app/store/pages"
	pageviewstore "github.com/dalemusser/docuverse/internal/app/store/pageviews"
	"github.com/dalemusser/docuverse/internal/app/system/formutil"
	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"github.com/dalemusser/docuverse/internal/app/system/metrics"
	"github.com/dalemusser/docuverse/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves POST /api/page-views.
type Handler struct {
	pages  *pagestore.Store
	views  *pageviewstore.Store
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger
}

// NewHandler creates a page view Handler.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		pages:  pagestore.New(db, logger),
		views:  pageviewstore.New(db),
		errLog: errLog,
		logger: logger,
	}
}

// Routes returns the page view router. limit throttles by client IP.
func Routes(h *Handler, limit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	if limit != nil {
		r.Use(limit)
	}
	r.Post("/", h.record)
	return r
}

type recordRequest struct {
	PageID string `json:"pageId" validate:"required" label:"Page ID"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if !formutil.Bind(w, r, &req) {
		return
	}
	pageID, ok := formutil.BodyID(w, req.PageID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	page, err := h.pages.GetByID(ctx, pageID)
	if errors.Is(err, pagestore.ErrNotFound) {
		jsonutil.NotFound(w, "Page not found")
		return
	}
	if err != nil {
		h.errLog.Internal(w, r, "failed to load page for view", err)
		return
	}

	if err := h.views.Record(ctx, page.ID, page.AppID); err != nil {
		h.errLog.Internal(w, r, "failed to record page view", err)
		return
	}
	metrics.PageViewsTotal.Inc()
	jsonutil.Success(w, nil)
}
