package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/docuverse/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type downDB struct{}

func (downDB) Ping(context.Context, *readpref.ReadPref) error {
	return errors.New("connection refused")
}

func TestHandler_Check(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db.Client(), zap.NewNop())

	rec := httptest.NewRecorder()
	Routes(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var resp Response
	testutil.DecodeJSON(t, rec, &resp)
	if resp != (Response{Status: "ok", Database: "connected"}) {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandler_CheckDown(t *testing.T) {
	h := NewHandler(downDB{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	testutil.AssertStatus(t, rec, http.StatusServiceUnavailable)

	var resp Response
	testutil.DecodeJSON(t, rec, &resp)
	if resp != (Response{Status: "error", Database: "disconnected"}) {
		t.Errorf("response = %+v", resp)
	}

	rec = httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	testutil.AssertStatus(t, rec, http.StatusServiceUnavailable)
}

func TestHandler_Live(t *testing.T) {
	// Live never touches the database.
	h := NewHandler(downDB{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Live(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var body map[string]string
	testutil.DecodeJSON(t, rec, &body)
	if body["status"] != "alive" {
		t.Errorf("status = %q, want alive", body["status"])
	}
}

func TestMountRootEndpoints(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := chi.NewRouter()
	MountRootEndpoints(r, NewHandler(db.Client(), zap.NewNop()))

	for _, path := range []string{"/health", "/ready", "/readyz", "/live", "/livez"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			testutil.AssertStatus(t, rec, http.StatusOK)
		})
	}
}
