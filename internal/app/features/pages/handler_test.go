package pages

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/docuverse/internal/app/features/errors"
	appstore "github.com/dalemusser/docuverse/internal/app/store/apps"
	versionstore "github.com/dalemusser/docuverse/internal/app/store/versions"
	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/app/system/docroute"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"github.com/dalemusser/docuverse/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fixture struct {
	router http.Handler
	h      *Handler
	db     *mongo.Database
	app    models.App
	ver    models.Version
	lang   models.Language
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	h := NewHandler(db, errorsfeature.NewErrorLogger(logger), nil, logger)
	sm, err := auth.NewSessionManager("this-is-a-32-character-long-key!", "", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	app, err := appstore.New(db, logger).Create(ctx, models.App{Name: "Guide", Slug: "guide"})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	f := fixture{router: Routes(h, sm), h: h, db: db, app: app}
	if err := db.Collection("versions").FindOne(ctx, bson.M{"app_id": app.ID}).Decode(&f.ver); err != nil {
		t.Fatalf("load version: %v", err)
	}
	if err := db.Collection("languages").FindOne(ctx, bson.M{"app_id": app.ID}).Decode(&f.lang); err != nil {
		t.Fatalf("load language: %v", err)
	}
	return f
}

func (f fixture) do(t *testing.T, method, target string, body any, user testutil.TestUser) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, method, target, body, user))
	return rec
}

func (f fixture) create(t *testing.T, title, parentID string, order int) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/", map[string]any{
		"appId":      f.app.ID.Hex(),
		"versionId":  f.ver.ID.Hex(),
		"languageId": f.lang.ID.Hex(),
		"title":      title,
		"parentId":   parentID,
		"order":      order,
		"content":    "<p>" + title + "</p><script>alert(1)</script>",
	}, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusOK)
	var resp struct {
		PageID string `json:"pageId"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	return resp.PageID
}

func (f fixture) scopeQuery() string {
	return "?appId=" + f.app.ID.Hex() + "&versionId=" + f.ver.ID.Hex() + "&languageId=" + f.lang.ID.Hex()
}

func TestCreateAndList(t *testing.T) {
	f := setup(t)
	intro := f.create(t, "Introduction", "", 0)
	f.create(t, "Install", intro, 1)
	f.create(t, "Usage", "", 2)

	rec := f.do(t, http.MethodGet, "/"+f.scopeQuery(), nil, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusOK)
	var flat []models.Page
	testutil.DecodeJSON(t, rec, &flat)
	if len(flat) != 3 {
		t.Fatalf("pages = %d, want 3", len(flat))
	}
	for _, p := range flat {
		if strings.Contains(p.Content, "<script") {
			t.Errorf("page %q content was not sanitized: %q", p.Slug, p.Content)
		}
	}

	rec = f.do(t, http.MethodGet, "/"+f.scopeQuery()+"&tree=1", nil, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusOK)
	var tree []*docroute.Node
	testutil.DecodeJSON(t, rec, &tree)
	if len(tree) != 2 {
		t.Fatalf("roots = %d, want 2", len(tree))
	}
	if tree[0].Slug != "introduction" || len(tree[0].Children) != 1 {
		t.Fatalf("first root = %+v", tree[0])
	}
	if got := tree[0].Children[0].FullPath; got != "/guide/v1/en/introduction/install" {
		t.Errorf("child fullPath = %q", got)
	}

	t.Run("missing scope", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/?appId="+f.app.ID.Hex(), nil, testutil.AdminUser())
		testutil.AssertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("duplicate slug", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/", map[string]any{
			"appId": f.app.ID.Hex(), "versionId": f.ver.ID.Hex(), "languageId": f.lang.ID.Hex(),
			"title": "Usage",
		}, testutil.AdminUser())
		testutil.AssertStatus(t, rec, http.StatusConflict)
	})

	t.Run("parent from another scope", func(t *testing.T) {
		ctx, cancel := testutil.TestContext()
		defer cancel()
		v2, err := versionstore.New(f.db, zap.NewNop()).Create(ctx, models.Version{AppID: f.app.ID, Slug: "v2", Name: "2.0"})
		if err != nil {
			t.Fatalf("create v2: %v", err)
		}
		rec := f.do(t, http.MethodPost, "/", map[string]any{
			"appId": f.app.ID.Hex(), "versionId": v2.ID.Hex(), "languageId": f.lang.ID.Hex(),
			"title": "Orphan", "parentId": intro,
		}, testutil.AdminUser())
		testutil.AssertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("version of another app", func(t *testing.T) {
		ctx, cancel := testutil.TestContext()
		defer cancel()
		other, err := appstore.New(f.db, zap.NewNop()).Create(ctx, models.App{Name: "Other", Slug: "other"})
		if err != nil {
			t.Fatalf("create app: %v", err)
		}
		rec := f.do(t, http.MethodPost, "/", map[string]any{
			"appId": other.ID.Hex(), "versionId": f.ver.ID.Hex(), "languageId": f.lang.ID.Hex(),
			"title": "Cross",
		}, testutil.AdminUser())
		testutil.AssertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestCreateFolder(t *testing.T) {
	f := setup(t)
	rec := f.do(t, http.MethodPost, "/", map[string]any{
		"appId": f.app.ID.Hex(), "versionId": f.ver.ID.Hex(), "languageId": f.lang.ID.Hex(),
		"title": "Guides", "isFolder": true, "content": "ignored",
	}, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusOK)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	var p models.Page
	if err := f.db.Collection("pages").FindOne(ctx, bson.M{"slug": "guides"}).Decode(&p); err != nil {
		t.Fatalf("find folder: %v", err)
	}
	if !p.IsFolder || p.Content != "" {
		t.Errorf("folder = %+v", p)
	}
}

func TestUpdateRejectsCycle(t *testing.T) {
	f := setup(t)
	a := f.create(t, "A", "", 0)
	b := f.create(t, "B", a, 0)
	c := f.create(t, "C", b, 0)

	rec := f.do(t, http.MethodPut, "/", map[string]any{"id": a, "parentId": c}, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusBadRequest)

	rec = f.do(t, http.MethodPut, "/", map[string]any{"id": a, "parentId": a}, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusBadRequest)

	rec = f.do(t, http.MethodPut, "/", map[string]any{"id": c, "parentId": "", "title": "C moved"}, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusOK)
	var resp struct {
		Page models.Page `json:"page"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Page.ParentID != nil || resp.Page.Title != "C moved" {
		t.Errorf("page = %+v", resp.Page)
	}

	rec = f.do(t, http.MethodPut, "/", map[string]any{"id": testutil.NewID().Hex(), "title": "X"}, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusNotFound)
}

func TestReorder(t *testing.T) {
	f := setup(t)
	a := f.create(t, "A", "", 0)
	b := f.create(t, "B", "", 1)

	rec := f.do(t, http.MethodPost, "/reorder", map[string]any{"items": []map[string]any{
		{"id": b, "order": 0},
		{"id": a, "order": 0, "parentId": b},
	}}, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusOK)

	rec = f.do(t, http.MethodGet, "/"+f.scopeQuery()+"&tree=1", nil, testutil.AdminUser())
	var tree []*docroute.Node
	testutil.DecodeJSON(t, rec, &tree)
	if len(tree) != 1 || tree[0].Slug != "b" || len(tree[0].Children) != 1 || tree[0].Children[0].Slug != "a" {
		t.Fatalf("tree after reorder: %s", rec.Body.String())
	}

	rec = f.do(t, http.MethodPost, "/reorder", map[string]any{"items": []map[string]any{
		{"id": b, "order": 0, "parentId": a},
	}}, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusBadRequest)

	rec = f.do(t, http.MethodPost, "/reorder", map[string]any{"items": []map[string]any{}}, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestDeleteCascades(t *testing.T) {
	f := setup(t)
	a := f.create(t, "A", "", 0)
	b := f.create(t, "B", a, 0)
	f.create(t, "C", b, 0)
	f.create(t, "D", "", 1)

	rec := f.do(t, http.MethodDelete, "/?id="+a, nil, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	rec = f.do(t, http.MethodDelete, "/?id="+a, nil, testutil.SuperAdminUser())
	testutil.AssertStatus(t, rec, http.StatusOK)
	var resp struct {
		Deleted int64 `json:"deleted"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Deleted != 3 {
		t.Errorf("deleted = %d, want 3", resp.Deleted)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := f.db.Collection("pages").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("pages left = %d, want 1", n)
	}
}
