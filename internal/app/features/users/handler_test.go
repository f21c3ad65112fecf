package users

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/docuverse/internal/app/features/errors"
	sessionstore "github.com/dalemusser/docuverse/internal/app/store/sessions"
	userstore "github.com/dalemusser/docuverse/internal/app/store/users"
	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"github.com/dalemusser/docuverse/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func setup(t *testing.T) (http.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	h := NewHandler(db, errorsfeature.NewErrorLogger(logger), nil, logger)
	sm, err := auth.NewSessionManager("this-is-a-32-character-long-key!", "", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return Routes(h, sm), db
}

func do(t *testing.T, router http.Handler, method string, body any, user testutil.TestUser) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(t, method, "/", body, user))
	return rec
}

func insertUser(t *testing.T, db *mongo.Database, email, role string) models.User {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u, err := userstore.New(db).Create(ctx, models.User{Email: email, Role: role, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestCreateAndList(t *testing.T) {
	router, _ := setup(t)
	owner := testutil.SuperAdminUser()

	rec := do(t, router, http.MethodPost, map[string]any{
		"email": " New@Example.com ", "password": "correct-horse", "name": "New",
	}, owner)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var created struct {
		User models.User `json:"user"`
	}
	testutil.DecodeJSON(t, rec, &created)
	if created.User.Email != "new@example.com" || created.User.Role != models.RoleAdmin {
		t.Errorf("user = %+v", created.User)
	}

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"duplicate email", map[string]any{"email": "new@example.com", "password": "another-pass"}, http.StatusConflict},
		{"short password", map[string]any{"email": "short@example.com", "password": "abc"}, http.StatusBadRequest},
		{"bad email", map[string]any{"email": "nope", "password": "correct-horse"}, http.StatusBadRequest},
		{"bad role", map[string]any{"email": "r@example.com", "password": "correct-horse", "role": "root"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, tt.body, owner)
			testutil.AssertStatus(t, rec, tt.want)
		})
	}

	rec = do(t, router, http.MethodGet, nil, owner)
	testutil.AssertStatus(t, rec, http.StatusOK)
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("user list leaks password data: %s", rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, nil, testutil.AdminUser())
	testutil.AssertStatus(t, rec, http.StatusForbidden)
}

func TestDeleteRules(t *testing.T) {
	router, db := setup(t)
	super := insertUser(t, db, "root@example.com", models.RoleSuperAdmin)
	admin := insertUser(t, db, "ed@example.com", models.RoleAdmin)

	self := testutil.SuperAdminUser()
	self.ID = super.ID.Hex()
	rec := do(t, router, http.MethodDelete, map[string]any{"id": super.ID.Hex()}, self)
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	if msg := testutil.ErrorMessage(t, rec); msg != MsgSelfDelete {
		t.Errorf("error = %q", msg)
	}

	other := testutil.SuperAdminUser()
	rec = do(t, router, http.MethodDelete, map[string]any{"id": super.ID.Hex()}, other)
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	if msg := testutil.ErrorMessage(t, rec); msg != MsgLastSuperAdmin {
		t.Errorf("error = %q", msg)
	}

	rec = do(t, router, http.MethodDelete, map[string]any{"id": admin.ID.Hex()}, other)
	testutil.AssertStatus(t, rec, http.StatusOK)

	rec = do(t, router, http.MethodDelete, map[string]any{"id": admin.ID.Hex()}, other)
	testutil.AssertStatus(t, rec, http.StatusNotFound)

	insertUser(t, db, "second@example.com", models.RoleSuperAdmin)
	rec = do(t, router, http.MethodDelete, map[string]any{"id": super.ID.Hex()}, other)
	testutil.AssertStatus(t, rec, http.StatusOK)
}

func TestUpdate(t *testing.T) {
	router, db := setup(t)
	super := insertUser(t, db, "root@example.com", models.RoleSuperAdmin)
	admin := insertUser(t, db, "ed@example.com", models.RoleAdmin)
	owner := testutil.SuperAdminUser()

	ctx, cancel := testutil.TestContext()
	defer cancel()
	sessions := sessionstore.New(db)
	if err := sessions.Create(ctx, sessionstore.Session{
		Token: "tok-ed", UserID: admin.ID, ExpiresAt: time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("create session: %v", err)
	}

	rec := do(t, router, http.MethodPut, map[string]any{
		"id": admin.ID.Hex(), "email": "ed@example.com", "name": "Ed", "role": "admin", "password": "brand-new-pass",
	}, owner)
	testutil.AssertStatus(t, rec, http.StatusOK)
	if sessions.IsActive(ctx, "tok-ed") {
		t.Error("password change should close the user's sessions")
	}

	rec = do(t, router, http.MethodPut, map[string]any{
		"id": admin.ID.Hex(), "email": "root@example.com", "role": "admin",
	}, owner)
	testutil.AssertStatus(t, rec, http.StatusConflict)

	rec = do(t, router, http.MethodPut, map[string]any{
		"id": super.ID.Hex(), "email": "root@example.com", "role": "admin",
	}, owner)
	testutil.AssertStatus(t, rec, http.StatusBadRequest)

	rec = do(t, router, http.MethodPut, map[string]any{
		"id": testutil.NewID().Hex(), "email": "ghost@example.com", "role": "admin",
	}, owner)
	testutil.AssertStatus(t, rec, http.StatusNotFound)
}

func TestUpdate_InvalidStatus(t *testing.T) {
	router, db := setup(t)
	admin := insertUser(t, db, "ed@example.com", models.RoleAdmin)

	rec := do(t, router, http.MethodPut, map[string]any{
		"id": admin.ID.Hex(), "email": "ed@example.com", "role": "admin", "status": "foo",
	}, testutil.SuperAdminUser())
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	if got := testutil.ErrorMessage(t, rec); got != userstore.ErrBadStatus.Error() {
		t.Errorf("error = %q, want %q", got, userstore.ErrBadStatus.Error())
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	u, err := userstore.New(db).GetByID(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.Status != models.StatusActive {
		t.Errorf("Status = %q, want %q", u.Status, models.StatusActive)
	}
}
