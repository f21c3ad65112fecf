// internal/app/features/reader/reader.go
//
// Package reader serves the public documentation reader. One request
// resolves the URL against the app's versions and languages, builds the
// sidebar and returns the addressed page.
package reader

import (
	"context"
	"errors"
	"net/http"
	"time"

	errorsfeature "github.com/dalemusser/docuverse/internal/app/features/errors"
	appstore "github.com/dalemusser/docuverse/internal/app/store/apps"
	languagestore "github.com/dalemusser/docuverse/internal/app/store/languages"
	pagestore "github.com/dalemusser/docuverse/internal/app/store/pages"
	versionstore "github.com/dalemusser/docuverse/internal/app/store/versions"
	"github.com/dalemusser/docuverse/internal/app/system/docroute"
	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"github.com/dalemusser/docuverse/internal/app/system/normalize"
	"github.com/dalemusser/docuverse/internal/app/system/timeouts"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Not-found messages.
const (
	MsgAppNotFound  = "App not found"
	MsgPageNotFound = "Page not found"
	msgNoContent    = "App has no versions or languages"
)

// Handler serves /api/public.
type Handler struct {
	apps      *appstore.Store
	versions  *versionstore.Store
	languages *languagestore.Store
	pages     *pagestore.Store
	errLog    *errorsfeature.ErrorLogger
	logger    *zap.Logger
}

// NewHandler creates a reader Handler.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		apps:      appstore.New(db, logger),
		versions:  versionstore.New(db, logger),
		languages: languagestore.New(db, logger),
		pages:     pagestore.New(db, logger),
		errLog:    errLog,
		logger:    logger,
	}
}

// Routes returns the reader router. limit throttles by client IP.
func Routes(h *Handler, limit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	if limit != nil {
		r.Use(limit)
	}
	r.Get("/{appSlug}", h.read)
	r.Get("/{appSlug}/*", h.read)
	return r
}

// Page is the resolved page. Folders carry no content; the client shows
// FirstChildPath instead.
type Page struct {
	ID             primitive.ObjectID  `json:"id"`
	ParentID       *primitive.ObjectID `json:"parentId,omitempty"`
	Slug           string              `json:"slug"`
	Title          string              `json:"title"`
	Content        string              `json:"content,omitempty"`
	IsFolder       bool                `json:"isFolder"`
	FullPath       string              `json:"fullPath"`
	FirstChildPath string              `json:"firstChildPath,omitempty"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// Crumb is one breadcrumb entry, root first.
type Crumb struct {
	Title    string `json:"title"`
	FullPath string `json:"fullPath"`
	IsFolder bool   `json:"isFolder"`
}

// Response is the body of a reader request.
type Response struct {
	App         *models.App       `json:"app"`
	Version     *models.Version   `json:"version"`
	Language    *models.Language  `json:"language"`
	Versions    []models.Version  `json:"versions"`
	Languages   []models.Language `json:"languages"`
	Tree        []*docroute.Node  `json:"tree"`
	Page        Page              `json:"page"`
	Breadcrumbs []Crumb           `json:"breadcrumbs"`
}

func (h *Handler) read(w http.ResponseWriter, r *http.Request) {
	slug := normalize.Slug(chi.URLParam(r, "appSlug"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	app, err := h.apps.GetBySlug(ctx, slug)
	if errors.Is(err, appstore.ErrNotFound) {
		jsonutil.NotFound(w, MsgAppNotFound)
		return
	}
	if err != nil {
		h.errLog.Internal(w, r, "failed to load app", err)
		return
	}

	versions, err := h.versions.ListByApp(ctx, app.ID)
	if err != nil {
		h.errLog.Internal(w, r, "failed to load versions", err)
		return
	}
	languages, err := h.languages.ListByApp(ctx, app.ID)
	if err != nil {
		h.errLog.Internal(w, r, "failed to load languages", err)
		return
	}

	res, ok := docroute.Resolve(docroute.SplitPath(chi.URLParam(r, "*")), versions, languages)
	if !ok {
		jsonutil.NotFound(w, msgNoContent)
		return
	}

	pages, err := h.pages.ListScope(ctx, pagestore.Scope{
		AppID:      app.ID,
		VersionID:  res.Version.ID,
		LanguageID: res.Language.ID,
	})
	if err != nil {
		h.errLog.Internal(w, r, "failed to load pages", err)
		return
	}

	tree := docroute.BuildTree(pages, docroute.BasePath(app.Slug, res.Version, res.Language))
	node, ok := docroute.SelectPage(tree, res.PagePath)
	if !ok {
		jsonutil.NotFound(w, MsgPageNotFound)
		return
	}

	jsonutil.OK(w, Response{
		App:         app,
		Version:     res.Version,
		Language:    res.Language,
		Versions:    versions,
		Languages:   languages,
		Tree:        tree,
		Page:        pageFor(node, pages),
		Breadcrumbs: breadcrumbs(tree, node.ID),
	})
}

func pageFor(n *docroute.Node, pages []models.Page) Page {
	p := Page{
		ID:        n.ID,
		ParentID:  n.ParentID,
		Slug:      n.Slug,
		Title:     n.Title,
		IsFolder:  n.IsFolder,
		FullPath:  n.FullPath,
		UpdatedAt: n.UpdatedAt,
	}
	if n.IsFolder {
		if first := docroute.FirstPage(n.Children); first != nil {
			p.FirstChildPath = first.FullPath
		}
		return p
	}
	for i := range pages {
		if pages[i].ID == n.ID {
			p.Content = pages[i].Content
			break
		}
	}
	return p
}

func breadcrumbs(tree []*docroute.Node, id primitive.ObjectID) []Crumb {
	chain := docroute.Ancestors(tree, id)
	out := make([]Crumb, 0, len(chain))
	for _, n := range chain {
		out = append(out, Crumb{Title: n.Title, FullPath: n.FullPath, IsFolder: n.IsFolder})
	}
	return out
}
