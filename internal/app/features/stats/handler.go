// internal/app/features/stats/handler.go
package statsfeature

import (
	"context"
	"net/http"
	"time"

	errorsfeature "github.com/dalemusser/docuverse/internal/app/features/errors"
	appstore "github.com/dalemusser/docuverse/internal/app/store/apps"
	pagestore "github.com/dalemusser/docuverse/internal/app/store/pages"
	pageviewstore "github.com/dalemusser/docuverse/internal/app/store/pageviews"
	userstore "github.com/dalemusser/docuverse/internal/app/store/users"
	"github.com/dalemusser/docuverse/internal/app/system/formutil"
	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"github.com/dalemusser/docuverse/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Months of history returned by /views.
const historyMonths = 12

// Handler serves the admin dashboard numbers under /api/stats.
type Handler struct {
	apps   *appstore.Store
	pages  *pagestore.Store
	users  *userstore.Store
	views  *pageviewstore.Store
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger

	now func() time.Time
}

// NewHandler creates a stats handler.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		apps:   appstore.New(db, logger),
		pages:  pagestore.New(db, logger),
		users:  userstore.New(db),
		views:  pageviewstore.New(db),
		errLog: errLog,
		logger: logger,
		now:    time.Now,
	}
}

// monthlyViews returns monthly page views for one app, or for all apps when
// appId is omitted.
func (h *Handler) monthlyViews(w http.ResponseWriter, r *http.Request) {
	appID, ok := formutil.OptionalObjectID(query.Get(r, "appId"))
	if !ok {
		jsonutil.BadRequest(w, "Invalid appId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	months, err := h.views.Monthly(ctx, appID, h.now(), historyMonths)
	if err != nil {
		h.errLog.Internal(w, r, "failed to load monthly views", err)
		return
	}
	jsonutil.OK(w, map[string]any{"months": months})
}

// Summary holds the dashboard totals.
type Summary struct {
	Apps           int64 `json:"apps"`
	Pages          int64 `json:"pages"`
	Users          int64 `json:"users"`
	ViewsThisMonth int64 `json:"viewsThisMonth"`
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var s Summary
	var err error
	if s.Apps, err = h.apps.Count(ctx); err != nil {
		h.errLog.Internal(w, r, "failed to count apps", err)
		return
	}
	if s.Pages, err = h.pages.Count(ctx); err != nil {
		h.errLog.Internal(w, r, "failed to count pages", err)
		return
	}
	if s.Users, err = h.users.Count(ctx); err != nil {
		h.errLog.Internal(w, r, "failed to count users", err)
		return
	}
	if s.ViewsThisMonth, err = h.views.ThisMonth(ctx, nil, h.now()); err != nil {
		h.errLog.Internal(w, r, "failed to count views", err)
		return
	}
	jsonutil.OK(w, s)
}
