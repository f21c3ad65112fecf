package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/docuverse/internal/app/features/login"
	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/testutil"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	sm, err := auth.NewSessionManager("this-is-a-32-character-long-key!", "", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return Routes(sm)
}

func TestValidate(t *testing.T) {
	router := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/validate", nil))
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
	if msg := testutil.ErrorMessage(t, rec); msg != MsgInvalid {
		t.Errorf("error = %q", msg)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.WithUser(httptest.NewRequest(http.MethodGet, "/validate", nil), testutil.AdminUser()))
	testutil.AssertStatus(t, rec, http.StatusOK)
	var body struct {
		Valid bool `json:"valid"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if !body.Valid {
		t.Error("valid = false")
	}
}

func TestMe(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		name      string
		user      testutil.TestUser
		canDelete bool
		canManage bool
	}{
		{"admin", testutil.AdminUser(), false, false},
		{"super admin", testutil.SuperAdminUser(), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, testutil.WithUser(httptest.NewRequest(http.MethodGet, "/me", nil), tt.user))
			testutil.AssertStatus(t, rec, http.StatusOK)

			var body struct {
				User login.UserInfo `json:"user"`
			}
			testutil.DecodeJSON(t, rec, &body)
			if body.User.ID != tt.user.ID || body.User.Email != tt.user.Email {
				t.Errorf("user = %+v", body.User)
			}
			p := body.User.Permissions
			if !p.CanEdit || p.CanDelete != tt.canDelete || p.CanManageUsers != tt.canManage {
				t.Errorf("permissions = %+v", p)
			}
		})
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
}

func TestCSRFToken(t *testing.T) {
	router := testutil.CSRFProtect(newRouter(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/csrf", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q", cc)
	}

	var resp struct {
		CSRFToken string `json:"csrfToken"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.CSRFToken == "" {
		t.Error("csrfToken is empty")
	}
}
