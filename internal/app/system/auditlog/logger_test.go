package auditlog

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/docuverse/internal/app/store/audit"
	"github.com/dalemusser/docuverse/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilIsNoop(t *testing.T) {
	var l *Logger
	r := httptest.NewRequest("POST", "/api/auth/login", nil)
	l.LoginFailedUserNotFound(r.Context(), r, "x@example.com")
}

func TestLogger_Destinations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name     string
		dest     string
		wantDB   int64
		wantLogs int
	}{
		{"all", All, 1, 1},
		{"db", DB, 1, 0},
		{"log", Log, 0, 1},
		{"off", Off, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _ = db.Collection(audit.CollectionName).DeleteMany(ctx, map[string]any{})
			core, logs := observer.New(zapcore.InfoLevel)
			l := New(store, zap.New(core), Config{Auth: tt.dest, Admin: All})

			r := httptest.NewRequest("POST", "/api/auth/login", nil)
			r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
			l.LoginSuccess(ctx, r, testutil.NewID(), "a@example.com")

			n, _ := store.CountByFilter(ctx, audit.QueryFilter{Category: audit.CategoryAuth})
			if n != tt.wantDB {
				t.Errorf("stored = %d, want %d", n, tt.wantDB)
			}
			if logs.Len() != tt.wantLogs {
				t.Errorf("zap entries = %d, want %d", logs.Len(), tt.wantLogs)
			}
		})
	}
}

func TestLogger_AdminActor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	l := New(store, zap.NewNop(), Config{Auth: Off, Admin: DB})
	r := httptest.NewRequest("DELETE", "/api/apps", nil)
	r.RemoteAddr = "198.51.100.4:5555"

	actor := testutil.NewID()
	l.AppDeleted(ctx, r, actor.Hex(), testutil.NewID(), "docs")
	l.SettingsUpdated(ctx, r, "api-key")

	events, err := store.Query(ctx, audit.QueryFilter{Category: audit.CategoryAdmin})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	for _, e := range events {
		if e.IP != "198.51.100.4" {
			t.Errorf("IP = %q, want 198.51.100.4", e.IP)
		}
		switch e.EventType {
		case audit.EventAppDeleted:
			if e.ActorID == nil || *e.ActorID != actor {
				t.Errorf("ActorID = %v, want %v", e.ActorID, actor)
			}
		case audit.EventSettingsUpdated:
			if e.ActorID != nil || e.Details["actor"] != "api-key" {
				t.Errorf("api key actor not recorded: %+v", e)
			}
		}
	}
}
