package languages

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/docuverse/internal/app/features/errors"
	appstore "github.com/dalemusser/docuverse/internal/app/store/apps"
	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"github.com/dalemusser/docuverse/internal/testutil"
	"go.uber.org/zap"
)

func setup(t *testing.T) (http.Handler, models.App) {
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
	return Routes(h, sm), app
}

func do(t *testing.T, router http.Handler, method, target string, body any, user testutil.TestUser) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, method, target, body, user))
	return rec
}

func list(t *testing.T, router http.Handler, appID string) []models.Language {
	t.Helper()
	rec := do(t, router, http.MethodGet, "/?appId="+appID, nil, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusOK)
	var out []models.Language
	testutil.DecodeJSON(t, rec, &out)
	return out
}

func TestCreate(t *testing.T) {
	router, app := setup(t)
	appID := app.ID.Hex()

	rec := do(t, router, http.MethodPost, "/", map[string]any{"appId": appID, "code": "pt-BR", "name": "Português"}, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusOK)
	var resp struct {
		Language models.Language `json:"language"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Language.Code != "pt-br" {
		t.Errorf("code = %q, want pt-br", resp.Language.Code)
	}
	if resp.Language.IsDefault {
		t.Error("second language should not become the default")
	}

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"duplicate code", map[string]any{"appId": appID, "code": "EN", "name": "English again"}, http.StatusConflict},
		{"bad code", map[string]any{"appId": appID, "code": "en us", "name": "Bad"}, http.StatusBadRequest},
		{"missing name", map[string]any{"appId": appID, "code": "fr"}, http.StatusBadRequest},
		{"unknown app", map[string]any{"appId": testutil.NewID().Hex(), "code": "fr", "name": "French"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/", tt.body, testutil.AdminUser())
			testutil.AssertStatus(t, rec, tt.want)
		})
	}

	if n := len(list(t, router, appID)); n != 2 {
		t.Errorf("languages = %d, want 2", n)
	}
}

func TestDefaultAndDelete(t *testing.T) {
	router, app := setup(t)
	appID := app.ID.Hex()

	rec := do(t, router, http.MethodPost, "/", map[string]any{"appId": appID, "code": "de", "name": "Deutsch"}, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusOK)

	var en, de models.Language
	for _, l := range list(t, router, appID) {
		switch l.Code {
		case "en":
			en = l
		case "de":
			de = l
		}
	}

	rec = do(t, router, http.MethodDelete, "/?id="+en.ID.Hex(), nil, testutil.SuperAdminUser())
	testutil.AssertStatus(t, rec, http.StatusBadRequest)

	rec = do(t, router, http.MethodPost, "/default", map[string]any{"id": de.ID.Hex()}, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusOK)

	rec = do(t, router, http.MethodDelete, "/?id="+en.ID.Hex(), nil, testutil.SuperAdminUser())
	testutil.AssertStatus(t, rec, http.StatusOK)

	left := list(t, router, appID)
	if len(left) != 1 || left[0].Code != "de" || !left[0].IsDefault {
		t.Errorf("languages after delete = %+v", left)
	}
}
