// internal/app/features/search/handler.go
package search

import (
	"context"
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/docuverse/internal/app/features/errors"
	pagestore "github.com/dalemusser/docuverse/internal/app/store/pages"
	"github.com/dalemusser/docuverse/internal/app/system/formutil"
	"github.com/dalemusser/docuverse/internal/app/system/htmlsanitize"
	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"github.com/dalemusser/docuverse/internal/app/system/metrics"
	"github.com/dalemusser/docuverse/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the public GET /api/search.
type Handler struct {
	pages  *pagestore.Store
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger
}

// NewHandler creates a search Handler.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		pages:  pagestore.New(db, logger),
		errLog: errLog,
		logger: logger,
	}
}

// Routes returns the search router. limit throttles by client IP.
func Routes(h *Handler, limit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	if limit != nil {
		r.Use(limit)
	}
	r.Get("/", h.search)
	return r
}

// excerptRunes bounds the plain-text snippet returned with each hit.
const excerptRunes = 160

// Result is one search hit. Content is reduced to a plain-text excerpt.
type Result struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	Excerpt    string `json:"excerpt"`
	VersionID  string `json:"versionId"`
	LanguageID string `json:"languageId"`
	ParentID   string `json:"parentId,omitempty"`
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	appID, ok := formutil.QueryID(w, r, "appId")
	if !ok {
		return
	}
	text := strings.TrimSpace(query.Get(r, "query"))
	if text == "" {
		jsonutil.BadRequest(w, "query is required")
		return
	}
	versionID, ok := formutil.OptionalObjectID(query.Get(r, "versionId"))
	if !ok {
		jsonutil.BadRequest(w, "Invalid versionId")
		return
	}
	languageID, ok := formutil.OptionalObjectID(query.Get(r, "languageId"))
	if !ok {
		jsonutil.BadRequest(w, "Invalid languageId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pages, err := h.pages.Search(ctx, pagestore.SearchQuery{
		AppID:      appID,
		VersionID:  versionID,
		LanguageID: languageID,
		Text:       text,
	})
	if err != nil {
		h.errLog.Internal(w, r, "search failed", err)
		return
	}
	metrics.SearchesTotal.Inc()

	results := make([]Result, 0, len(pages))
	for _, p := range pages {
		res := Result{
			ID:         p.ID.Hex(),
			Title:      p.Title,
			Slug:       p.Slug,
			Excerpt:    htmlsanitize.Excerpt(p.Content, excerptRunes),
			VersionID:  p.VersionID.Hex(),
			LanguageID: p.LanguageID.Hex(),
		}
		if p.ParentID != nil {
			res.ParentID = p.ParentID.Hex()
		}
		results = append(results, res)
	}
	jsonutil.OK(w, map[string]any{"results": results})
}
