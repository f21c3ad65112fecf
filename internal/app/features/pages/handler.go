// internal/app/features/pages/handler.go
package pages

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/docuverse/internal/app/features/errors"
	appstore "github.com/dalemusser/docuverse/internal/app/store/apps"
	languagestore "github.com/dalemusser/docuverse/internal/app/store/languages"
	pagestore "github.com/dalemusser/docuverse/internal/app/store/pages"
	versionstore "github.com/dalemusser/docuverse/internal/app/store/versions"
	"github.com/dalemusser/docuverse/internal/app/system/auditlog"
	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/app/system/docroute"
	"github.com/dalemusser/docuverse/internal/app/system/formutil"
	"github.com/dalemusser/docuverse/internal/app/system/htmlsanitize"
	"github.com/dalemusser/docuverse/internal/app/system/jsonutil"
	"github.com/dalemusser/docuverse/internal/app/system/normalize"
	"github.com/dalemusser/docuverse/internal/app/system/timeouts"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves /api/pages.
type Handler struct {
	apps      *appstore.Store
	versions  *versionstore.Store
	languages *languagestore.Store
	pages     *pagestore.Store
	errLog    *errorsfeature.ErrorLogger
	audit     *auditlog.Logger
	logger    *zap.Logger
}

// NewHandler creates a pages Handler.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, auditLogger *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		apps:      appstore.New(db, logger),
		versions:  versionstore.New(db, logger),
		languages: languagestore.New(db, logger),
		pages:     pagestore.New(db, logger),
		errLog:    errLog,
		audit:     auditLogger,
		logger:    logger,
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	jsonutil.Error(w, status, err.Error())
}

// list returns the pages of one scope, flat in sidebar order or, with
// ?tree=1, nested.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	appID, ok := formutil.QueryID(w, r, "appId")
	if !ok {
		return
	}
	versionID, ok := formutil.QueryID(w, r, "versionId")
	if !ok {
		return
	}
	languageID, ok := formutil.QueryID(w, r, "languageId")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sc, err := h.loadScope(ctx, appID, versionID, languageID)
	if err != nil {
		if !writeStoreError(w, err) {
			h.errLog.Internal(w, r, "failed to load page scope", err)
		}
		return
	}

	pages, err := h.pages.ListScope(ctx, sc.ids())
	if err != nil {
		h.errLog.Internal(w, r, "failed to list pages", err)
		return
	}

	if t := query.Get(r, "tree"); t == "1" || t == "true" {
		jsonutil.OK(w, docroute.BuildTree(pages, sc.basePath()))
		return
	}
	jsonutil.OK(w, pages)
}

type createRequest struct {
	AppID      string `json:"appId" validate:"required,objectid" label:"App"`
	VersionID  string `json:"versionId" validate:"required,objectid" label:"Version"`
	LanguageID string `json:"languageId" validate:"required,objectid" label:"Language"`
	ParentID   string `json:"parentId" validate:"objectid" label:"Parent"`
	Title      string `json:"title" validate:"required,max=200" label:"Title"`
	Slug       string `json:"slug" validate:"slug" label:"Slug"`
	Content    string `json:"content"`
	IsFolder   bool   `json:"isFolder"`
	Order      int    `json:"order"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !formutil.Bind(w, r, &req) {
		return
	}
	appID, _ := formutil.ObjectID(req.AppID)
	versionID, _ := formutil.ObjectID(req.VersionID)
	languageID, _ := formutil.ObjectID(req.LanguageID)
	parentID, _ := formutil.OptionalObjectID(req.ParentID)

	slug := req.Slug
	if slug == "" {
		slug = normalize.Slug(req.Title)
	}
	if !normalize.IsSlug(slug) {
		jsonutil.BadRequest(w, "Slug is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sc, err := h.loadScope(ctx, appID, versionID, languageID)
	if err != nil {
		if !writeStoreError(w, err) {
			h.errLog.Internal(w, r, "failed to load page scope", err)
		}
		return
	}

	p := models.Page{
		AppID:      sc.app.ID,
		VersionID:  sc.version.ID,
		LanguageID: sc.language.ID,
		ParentID:   parentID,
		Slug:       slug,
		Title:      req.Title,
		Order:      req.Order,
		IsFolder:   req.IsFolder,
	}
	if !p.IsFolder {
		p.Content = htmlsanitize.Content(req.Content)
	}

	p, err = h.pages.Create(ctx, p)
	if err != nil {
		if !writeStoreError(w, err) {
			h.errLog.Internal(w, r, "failed to create page", err)
		}
		return
	}

	h.logger.Debug("page created",
		zap.String("page_id", p.ID.Hex()),
		zap.String("app", sc.app.Slug),
		zap.String("slug", p.Slug))
	jsonutil.Success(w, map[string]any{"pageId": p.ID.Hex()})
}

// updateRequest leaves fields that are absent unchanged. ParentID "" moves
// the page to the root.
type updateRequest struct {
	ID       string  `json:"id" validate:"required,objectid" label:"ID"`
	Title    *string `json:"title" label:"Title"`
	Slug     *string `json:"slug" label:"Slug"`
	Content  *string `json:"content"`
	ParentID *string `json:"parentId"`
	Order    *int    `json:"order"`
	IsFolder *bool   `json:"isFolder"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !formutil.Bind(w, r, &req) {
		return
	}
	id, _ := formutil.ObjectID(req.ID)

	upd := pagestore.PageUpdate{
		Order:    req.Order,
		IsFolder: req.IsFolder,
	}
	if req.Title != nil {
		if normalize.Name(*req.Title) == "" {
			jsonutil.BadRequest(w, "Title is required")
			return
		}
		upd.Title = req.Title
	}
	if req.Slug != nil {
		if !normalize.IsSlug(normalize.Slug(*req.Slug)) {
			jsonutil.BadRequest(w, "Slug must contain only lowercase letters, numbers, and hyphens")
			return
		}
		upd.Slug = req.Slug
	}
	if req.Content != nil {
		clean := htmlsanitize.Content(*req.Content)
		upd.Content = &clean
	}
	if req.ParentID != nil {
		parent, ok := formutil.OptionalObjectID(*req.ParentID)
		if !ok {
			jsonutil.BadRequest(w, "Invalid parentId")
			return
		}
		upd.SetParent = true
		upd.ParentID = parent
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.pages.Update(ctx, id, upd)
	if err != nil {
		if !writeStoreError(w, err) {
			h.errLog.Internal(w, r, "failed to update page", err)
		}
		return
	}
	jsonutil.Success(w, map[string]any{"page": p})
}

type reorderItem struct {
	ID       string `json:"id"`
	Order    int    `json:"order"`
	ParentID string `json:"parentId"`
}

type reorderRequest struct {
	Items []reorderItem `json:"items"`
}

// reorder applies a drag-and-drop result. Every item must belong to the
// same scope; the batch is applied all or nothing.
func (h *Handler) reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !formutil.Bind(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		jsonutil.BadRequest(w, "items is required")
		return
	}

	items := make([]pagestore.ReorderItem, 0, len(req.Items))
	for _, it := range req.Items {
		id, ok := formutil.ObjectID(it.ID)
		if !ok {
			jsonutil.BadRequest(w, formutil.MsgInvalidID)
			return
		}
		parent, ok := formutil.OptionalObjectID(it.ParentID)
		if !ok {
			jsonutil.BadRequest(w, "Invalid parentId")
			return
		}
		items = append(items, pagestore.ReorderItem{ID: id, Order: it.Order, ParentID: parent})
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.pages.Reorder(ctx, items); err != nil {
		if !writeStoreError(w, err) {
			h.errLog.Internal(w, r, "failed to reorder pages", err)
		}
		return
	}
	jsonutil.Success(w, map[string]any{"updated": len(items)})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := formutil.QueryID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	removed, err := h.pages.Delete(ctx, id)
	if err != nil {
		if !writeStoreError(w, err) {
			h.errLog.Internal(w, r, "failed to delete page", err)
		}
		return
	}

	h.audit.PageDeleted(ctx, r, auth.ActorID(r), id, removed)
	jsonutil.Success(w, map[string]any{"deleted": removed})
}
