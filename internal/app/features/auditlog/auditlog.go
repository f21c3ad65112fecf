// internal/app/features/auditlog/auditlog.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"time"

	errorsfeature "github.com/dalemusser/docuverse/internal/app/features/errors"
	"github.com/dalemusser/docuverse/internal/app/store/audit"
	userstore "github.com/dalemusser/docuverse/internal/app/store/users"
	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/app/system/formutil"
	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"github.com/dalemusser/docuverse/internal/app/system/timeouts"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	dateLayout      = "2006-01-02"
)

// Handler serves GET /api/audit.
type Handler struct {
	auditStore *audit.Store
	userStore  *userstore.Store
	errLog     *errorsfeature.ErrorLogger
	logger     *zap.Logger
}

// NewHandler creates a new audit log Handler.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		auditStore: audit.New(db),
		userStore:  userstore.New(db),
		errLog:     errLog,
		logger:     logger,
	}
}

// Routes returns the audit router. Only super admins read the audit trail.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireRole(models.RoleSuperAdmin))
	r.Get("/", h.list)
	return r
}

// Item is one audit event with user ids resolved to emails.
type Item struct {
	audit.Event
	ActorEmail string `json:"actorEmail,omitempty"`
	UserEmail  string `json:"userEmail,omitempty"`
}

// ListResponse is the body of GET /api/audit.
type ListResponse struct {
	Items    []Item `json:"items"`
	Total    int64  `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

func intParam(r *http.Request, name string, def int) int {
	if n, err := strconv.Atoi(query.Get(r, name)); err == nil && n > 0 {
		return n
	}
	return def
}

// list returns audit events newest first. Filters: category, eventType,
// userId, start and end (YYYY-MM-DD, interpreted in tz, default UTC),
// page and pageSize.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page := intParam(r, "page", 1)
	size := intParam(r, "pageSize", defaultPageSize)
	if size > maxPageSize {
		size = maxPageSize
	}

	loc := time.UTC
	if tz := query.Get(r, "tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			jsonutil.BadRequest(w, "Invalid tz")
			return
		}
		loc = l
	}

	filter := audit.QueryFilter{
		Category:  query.Get(r, "category"),
		EventType: query.Get(r, "eventType"),
		Limit:     int64(size),
		Offset:    int64((page - 1) * size),
	}
	userID, ok := formutil.OptionalObjectID(query.Get(r, "userId"))
	if !ok {
		jsonutil.BadRequest(w, "Invalid userId")
		return
	}
	filter.UserID = userID

	if s := query.Get(r, "start"); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			jsonutil.BadRequest(w, "start must be YYYY-MM-DD")
			return
		}
		filter.StartTime = &t
	}
	if s := query.Get(r, "end"); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			jsonutil.BadRequest(w, "end must be YYYY-MM-DD")
			return
		}
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.auditStore.Query(ctx, filter)
	if err != nil {
		h.errLog.Internal(w, r, "failed to query audit events", err)
		return
	}
	total, err := h.auditStore.CountByFilter(ctx, filter)
	if err != nil {
		h.logger.Warn("failed to count audit events", zap.Error(err))
	}

	emails := h.emailsFor(ctx, events)
	items := make([]Item, 0, len(events))
	for _, e := range events {
		it := Item{Event: e}
		if e.ActorID != nil {
			it.ActorEmail = emails[*e.ActorID]
		}
		if e.UserID != nil {
			it.UserEmail = emails[*e.UserID]
		}
		items = append(items, it)
	}

	jsonutil.OK(w, ListResponse{Items: items, Total: total, Page: page, PageSize: size})
}

// emailsFor batch-loads the emails of every user an event mentions.
// Lookup failures only cost the display names.
func (h *Handler) emailsFor(ctx context.Context, events []audit.Event) map[primitive.ObjectID]string {
	seen := make(map[primitive.ObjectID]struct{})
	for _, e := range events {
		if e.ActorID != nil {
			seen[*e.ActorID] = struct{}{}
		}
		if e.UserID != nil {
			seen[*e.UserID] = struct{}{}
		}
	}
	out := make(map[primitive.ObjectID]string, len(seen))
	if len(seen) == 0 {
		return out
	}
	ids := make([]primitive.ObjectID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	users, err := h.userStore.GetByIDs(ctx, ids)
	if err != nil {
		h.logger.Warn("failed to resolve audit user emails", zap.Error(err))
		return out
	}
	for _, u := range users {
		out[u.ID] = u.Email
	}
	return out
}
