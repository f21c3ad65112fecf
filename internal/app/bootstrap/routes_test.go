package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/docuverse/internal/app/system/auth"
)

func TestCSRFExempt(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/api/setup", true},
		{"/api/auth/login", true},
		{"/api/auth/login/", true},
		{"/api/page-views", true},
		{"/api/public/docs/v1/en/intro", true},
		{"/api/health", true},
		{"/api/auth/logout", false},
		{"/api/apps", false},
		{"/api/pages/reorder", false},
		{"/api/publicity", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodPost, tt.path, nil)
		if got := csrfExempt(r); got != tt.want {
			t.Errorf("csrfExempt(%s) = %v, want %v", tt.path, got, tt.want)
		}
	}

	r := httptest.NewRequest(http.MethodPost, "/api/apps", nil)
	r = auth.WithTestUser(r, &auth.SessionUser{ID: auth.APIKeyUserID, Role: "admin"})
	if !csrfExempt(r) {
		t.Error("API key requests should be exempt")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" https://a.example , ,https://b.example,")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("splitList() = %v", got)
	}
	if splitList("") != nil {
		t.Error("splitList(\"\") should be nil")
	}
}

func TestUploadHeaders(t *testing.T) {
	h := uploadHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/logos/x.png", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("Content-Security-Policy"); got == "" {
		t.Error("Content-Security-Policy not set")
	}
}
