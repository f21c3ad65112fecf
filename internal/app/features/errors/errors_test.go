package errors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/docuverse/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorLogger_Internal(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	el := NewErrorLogger(zap.New(core))

	user := testutil.AdminUser()
	req := testutil.WithUser(httptest.NewRequest(http.MethodPost, "/api/apps", nil), user)
	rec := httptest.NewRecorder()

	el.Internal(rec, req, "failed to create app", http.ErrBodyNotAllowed)

	testutil.AssertStatus(t, rec, http.StatusInternalServerError)
	if msg := testutil.ErrorMessage(t, rec); msg != MsgInternal {
		t.Errorf("error = %q, want %q", msg, MsgInternal)
	}

	if logs.Len() != 1 {
		t.Fatalf("log entries = %d, want 1", logs.Len())
	}
	ctx := logs.All()[0].ContextMap()
	if ctx["path"] != "/api/apps" || ctx["method"] != "POST" || ctx["user_id"] != user.ID {
		t.Errorf("log context = %v", ctx)
	}
}

func TestErrorLogger_Nil(t *testing.T) {
	var el *ErrorLogger
	rec := httptest.NewRecorder()
	el.Internal(rec, httptest.NewRequest(http.MethodGet, "/", nil), "x", http.ErrAbortHandler)
	testutil.AssertStatus(t, rec, http.StatusInternalServerError)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFound(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	testutil.AssertStatus(t, rec, http.StatusNotFound)

	rec = httptest.NewRecorder()
	MethodNotAllowed(rec, httptest.NewRequest(http.MethodPatch, "/api/apps", nil))
	testutil.AssertStatus(t, rec, http.StatusMethodNotAllowed)
}
