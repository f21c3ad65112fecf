package userstore

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/docuverse/internal/domain/models"
	"github.com/dalemusser/docuverse/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		Email:        "  Admin@Example.COM ",
		Name:         "Ada",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID.IsZero() {
		t.Error("Create() did not assign ID")
	}
	if created.Email != "admin@example.com" {
		t.Errorf("Email = %q, want lowercased", created.Email)
	}
	if created.Role != models.RoleAdmin {
		t.Errorf("Role = %q, want %q", created.Role, models.RoleAdmin)
	}
	if created.Status != models.StatusActive {
		t.Errorf("Status = %q, want %q", created.Status, models.StatusActive)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
}

func TestStore_Create_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{Email: "x@example.com", Role: "editor"})
	if !errors.Is(err, ErrBadRole) {
		t.Errorf("Create() error = %v, want ErrBadRole", err)
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{Email: "dup@example.com"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err := store.Create(ctx, models.User{Email: "DUP@example.com"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("Create() duplicate error = %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, _ := store.Create(ctx, models.User{Email: "find@example.com"})

	got, err := store.GetByEmail(ctx, "FIND@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("GetByEmail() ID = %v, want %v", got.ID, u.ID)
	}

	if _, err := store.GetByEmail(ctx, "none@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByEmail() missing error = %v, want ErrNotFound", err)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, _ := store.Create(ctx, models.User{Email: "a@example.com", PasswordHash: "old"})
	b, _ := store.Create(ctx, models.User{Email: "b@example.com"})

	t.Run("keeps password when nil", func(t *testing.T) {
		err := store.Update(ctx, a.ID, UserUpdate{Email: "a2@example.com", Name: "A", Role: "super_admin"})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		got, _ := store.GetByID(ctx, a.ID)
		if got.Email != "a2@example.com" || got.Role != models.RoleSuperAdmin || got.PasswordHash != "old" {
			t.Errorf("after Update() = %+v", got)
		}
	})

	t.Run("rehash when given", func(t *testing.T) {
		hash := "new"
		_ = store.Update(ctx, a.ID, UserUpdate{Email: "a2@example.com", Role: "admin", PasswordHash: &hash})
		got, _ := store.GetByID(ctx, a.ID)
		if got.PasswordHash != "new" {
			t.Errorf("PasswordHash = %q, want new", got.PasswordHash)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		err := store.Update(ctx, b.ID, UserUpdate{Email: "a2@example.com", Role: "admin"})
		if !errors.Is(err, ErrDuplicateEmail) {
			t.Errorf("Update() error = %v, want ErrDuplicateEmail", err)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		err := store.Update(ctx, testutil.NewID(), UserUpdate{Email: "z@example.com", Role: "admin"})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Update() error = %v, want ErrNotFound", err)
		}
	})
	t.Run("bad status", func(t *testing.T) {
		status := "foo"
		err := store.Update(ctx, b.ID, UserUpdate{Email: "b@example.com", Role: "admin", Status: &status})
		if !errors.Is(err, ErrBadStatus) {
			t.Errorf("Update() error = %v, want ErrBadStatus", err)
		}
	})
}

func TestStore_DeleteAndCounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	exists, err := store.Any(ctx)
	if err != nil || exists {
		t.Fatalf("Any() on empty = %v, %v", exists, err)
	}

	s1, _ := store.Create(ctx, models.User{Email: "s1@example.com", Role: models.RoleSuperAdmin})
	_, _ = store.Create(ctx, models.User{Email: "s2@example.com", Role: models.RoleSuperAdmin, Status: models.StatusDisabled})
	_, _ = store.Create(ctx, models.User{Email: "a@example.com"})

	if n, _ := store.CountActiveSuperAdmins(ctx); n != 1 {
		t.Errorf("CountActiveSuperAdmins() = %d, want 1", n)
	}
	if n, _ := store.Count(ctx); n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}

	if err := store.Delete(ctx, s1.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, s1.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}

	list, _ := store.List(ctx)
	if len(list) != 2 || list[0].Email != "a@example.com" {
		t.Errorf("List() = %+v, want 2 users sorted by email", list)
	}
}

func TestStore_GetByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, _ := store.Create(ctx, models.User{Email: "a@example.com"})
	b, _ := store.Create(ctx, models.User{Email: "b@example.com"})

	users, err := store.GetByIDs(ctx, []primitive.ObjectID{a.ID, b.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("GetByIDs() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("GetByIDs() returned %d users, want 2", len(users))
	}

	if users, err := store.GetByIDs(ctx, nil); err != nil || users != nil {
		t.Errorf("GetByIDs(nil) = %v, %v", users, err)
	}
}

func TestFetcher_FetchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	active, _ := store.Create(ctx, models.User{Email: "on@example.com", Name: "On", Role: models.RoleSuperAdmin})
	disabled, _ := store.Create(ctx, models.User{Email: "off@example.com", Status: models.StatusDisabled})

	f := NewFetcher(db, zap.NewNop())

	su := f.FetchUser(context.Background(), active.ID.Hex())
	if su == nil {
		t.Fatal("FetchUser() = nil for active user")
	}
	if su.Email != "on@example.com" || su.Role != models.RoleSuperAdmin || su.Name != "On" {
		t.Errorf("FetchUser() = %+v", su)
	}

	if f.FetchUser(context.Background(), disabled.ID.Hex()) != nil {
		t.Error("FetchUser() returned disabled user")
	}
	if f.FetchUser(context.Background(), "bad-id") != nil {
		t.Error("FetchUser() returned user for malformed id")
	}
}
