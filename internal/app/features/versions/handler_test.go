package versions

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/docuverse/internal/app/features/errors"
	appstore "github.com/dalemusser/docuverse/internal/app/store/apps"
	pagestore "github.com/dalemusser/docuverse/internal/app/store/pages"
	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"github.com/dalemusser/docuverse/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func setup(t *testing.T) (http.Handler, *Handler, *mongo.Database, models.App) {
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
	app, err := appstore.New(db, logger).Create(ctx, models.App{Name: "Product", Slug: "product"})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	return Routes(h, sm), h, db, app
}

func defaultLanguage(t *testing.T, db *mongo.Database, appID primitive.ObjectID) primitive.ObjectID {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	var l models.Language
	if err := db.Collection("languages").FindOne(ctx, bson.M{"app_id": appID, "is_default": true}).Decode(&l); err != nil {
		t.Fatalf("default language: %v", err)
	}
	return l.ID
}

func do(t *testing.T, router http.Handler, method, target string, body any, user testutil.TestUser) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, method, target, body, user))
	return rec
}

func createVersion(t *testing.T, router http.Handler, appID, slug string, isDefault bool) models.Version {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/", map[string]any{
		"appId": appID, "slug": slug, "name": slug, "isDefault": isDefault,
	}, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusOK)
	var resp struct {
		Version models.Version `json:"version"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	return resp.Version
}

func defaults(t *testing.T, router http.Handler, appID string) []string {
	t.Helper()
	rec := do(t, router, http.MethodGet, "/?appId="+appID, nil, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusOK)
	var list []models.Version
	testutil.DecodeJSON(t, rec, &list)
	var out []string
	for _, v := range list {
		if v.IsDefault {
			out = append(out, v.Slug)
		}
	}
	return out
}

func TestCreateAndList(t *testing.T) {
	router, _, _, app := setup(t)
	appID := app.ID.Hex()

	createVersion(t, router, appID, "v2", false)
	if got := defaults(t, router, appID); len(got) != 1 || got[0] != "v1" {
		t.Errorf("defaults = %v, want [v1]", got)
	}

	createVersion(t, router, appID, "v3", true)
	if got := defaults(t, router, appID); len(got) != 1 || got[0] != "v3" {
		t.Errorf("defaults = %v, want [v3]", got)
	}

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"duplicate slug", map[string]any{"appId": appID, "slug": "v2", "name": "Two"}, http.StatusConflict},
		{"missing slug", map[string]any{"appId": appID, "name": "Two"}, http.StatusBadRequest},
		{"bad app id", map[string]any{"appId": "zzz", "slug": "v9", "name": "Nine"}, http.StatusBadRequest},
		{"unknown app", map[string]any{"appId": testutil.NewID().Hex(), "slug": "v9", "name": "Nine"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/", tt.body, testutil.AdminUser())
			testutil.AssertStatus(t, rec, tt.want)
		})
	}

	rec := do(t, router, http.MethodGet, "/", nil, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestSetDefault(t *testing.T) {
	router, _, _, app := setup(t)
	appID := app.ID.Hex()
	v2 := createVersion(t, router, appID, "v2", false)

	rec := do(t, router, http.MethodPost, "/default", map[string]any{"id": v2.ID.Hex()}, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusOK)
	if got := defaults(t, router, appID); len(got) != 1 || got[0] != "v2" {
		t.Errorf("defaults = %v, want [v2]", got)
	}

	rec = do(t, router, http.MethodPost, "/default", map[string]any{"id": testutil.NewID().Hex()}, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusNotFound)
}

func TestUpdate(t *testing.T) {
	router, _, _, app := setup(t)
	v2 := createVersion(t, router, app.ID.Hex(), "v2", false)

	rec := do(t, router, http.MethodPut, "/", map[string]any{"id": v2.ID.Hex(), "name": "Two"}, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusOK)

	rec = do(t, router, http.MethodPut, "/", map[string]any{"id": v2.ID.Hex(), "slug": "v1"}, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusConflict)

	rec = do(t, router, http.MethodPut, "/", map[string]any{"id": v2.ID.Hex(), "slug": "!!!"}, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestDelete(t *testing.T) {
	router, _, db, app := setup(t)
	v2 := createVersion(t, router, app.ID.Hex(), "v2", false)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	pages := pagestore.New(db, zap.NewNop())
	langs := defaultLanguage(t, db, app.ID)
	if _, err := pages.Create(ctx, models.Page{
		AppID: app.ID, VersionID: v2.ID, LanguageID: langs, Slug: "intro", Title: "Intro",
	}); err != nil {
		t.Fatalf("create page: %v", err)
	}

	rec := do(t, router, http.MethodDelete, "/?id="+v2.ID.Hex(), nil, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	rec = do(t, router, http.MethodDelete, "/?id="+v2.ID.Hex(), nil, testutil.SuperAdminUser())
	testutil.AssertStatus(t, rec, http.StatusOK)

	left, err := pages.ListScope(ctx, pagestore.Scope{AppID: app.ID, VersionID: v2.ID, LanguageID: langs})
	if err != nil {
		t.Fatalf("ListScope: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("pages left under deleted version = %d", len(left))
	}

	var v1 models.Version
	if err := db.Collection("versions").FindOne(ctx, bson.M{"app_id": app.ID, "slug": "v1"}).Decode(&v1); err != nil {
		t.Fatalf("find v1: %v", err)
	}
	rec = do(t, router, http.MethodDelete, "/?id="+v1.ID.Hex(), nil, testutil.SuperAdminUser())
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	if msg := testutil.ErrorMessage(t, rec); msg != "Cannot delete the default version" {
		t.Errorf("error = %q", msg)
	}
}
