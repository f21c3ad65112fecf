package pageviews

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/docuverse/internal/app/features/errors"
	appstore "github.com/dalemusser/docuverse/internal/app/store/apps"
	pagestore "github.com/dalemusser/docuverse/internal/app/store/pages"
	pageviewstore "github.com/dalemusser/docuverse/internal/app/store/pageviews"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"github.com/dalemusser/docuverse/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestRecord(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	router := Routes(NewHandler(db, errorsfeature.NewErrorLogger(logger), logger), nil)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	app, err := appstore.New(db, logger).Create(ctx, models.App{Name: "Guide", Slug: "guide"})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	var ver models.Version
	var lang models.Language
	if err := db.Collection("versions").FindOne(ctx, bson.M{"app_id": app.ID}).Decode(&ver); err != nil {
		t.Fatalf("load version: %v", err)
	}
	if err := db.Collection("languages").FindOne(ctx, bson.M{"app_id": app.ID}).Decode(&lang); err != nil {
		t.Fatalf("load language: %v", err)
	}
	page, err := pagestore.New(db, logger).Create(ctx, models.Page{
		AppID: app.ID, VersionID: ver.ID, LanguageID: lang.ID, Slug: "intro", Title: "Intro",
	})
	if err != nil {
		t.Fatalf("create page: %v", err)
	}

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"recorded", map[string]string{"pageId": page.ID.Hex()}, http.StatusOK},
		{"recorded again", map[string]string{"pageId": page.ID.Hex()}, http.StatusOK},
		{"missing page id", map[string]string{}, http.StatusBadRequest},
		{"malformed page id", map[string]string{"pageId": "nope"}, http.StatusBadRequest},
		{"unknown page", map[string]string{"pageId": testutil.NewID().Hex()}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", tt.body))
			testutil.AssertStatus(t, rec, tt.status)
		})
	}

	n, err := pageviewstore.New(db).ThisMonth(ctx, &app.ID, time.Now())
	if err != nil {
		t.Fatalf("ThisMonth: %v", err)
	}
	if n != 2 {
		t.Errorf("views = %d, want 2", n)
	}
}
