package sessions

import (
	"testing"
	"time"

	"github.com/dalemusser/docuverse/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Lifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	err := store.Create(ctx, Session{
		Token:     "tok-1",
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !store.IsActive(ctx, "tok-1") {
		t.Error("IsActive() = false for new session")
	}
	if store.IsActive(ctx, "") {
		t.Error("IsActive(\"\") = true")
	}
	if store.IsActive(ctx, "missing") {
		t.Error("IsActive(missing) = true")
	}

	got, err := store.GetByToken(ctx, "tok-1")
	if err != nil {
		t.Fatalf("GetByToken() error = %v", err)
	}
	if got.UserID != userID {
		t.Errorf("UserID = %v, want %v", got.UserID, userID)
	}

	if err := store.Close(ctx, "tok-1", EndReasonLogout); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if store.IsActive(ctx, "tok-1") {
		t.Error("IsActive() = true after Close")
	}
}

func TestStore_ExpiredIsInactive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_ = store.Create(ctx, Session{Token: "old", UserID: primitive.NewObjectID(), ExpiresAt: time.Now().UTC().Add(-time.Minute)})
	if store.IsActive(ctx, "old") {
		t.Error("IsActive() = true for expired session")
	}
}

func TestStore_CloseByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	other := primitive.NewObjectID()
	exp := time.Now().UTC().Add(time.Hour)
	_ = store.Create(ctx, Session{Token: "a", UserID: userID, ExpiresAt: exp})
	_ = store.Create(ctx, Session{Token: "b", UserID: userID, ExpiresAt: exp})
	_ = store.Create(ctx, Session{Token: "c", UserID: other, ExpiresAt: exp})

	n, err := store.CloseByUser(ctx, userID, EndReasonUserDeleted)
	if err != nil {
		t.Fatalf("CloseByUser() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CloseByUser() = %d, want 2", n)
	}
	active, _ := store.CountActive(ctx)
	if active != 1 {
		t.Errorf("CountActive() = %d, want 1", active)
	}
}

func TestStore_DeleteEnded(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	_ = store.Create(ctx, Session{Token: "expired", UserID: primitive.NewObjectID(), ExpiresAt: now.Add(-2 * time.Hour)})
	_ = store.Create(ctx, Session{Token: "open", UserID: primitive.NewObjectID(), ExpiresAt: now.Add(time.Hour)})

	n, err := store.DeleteEnded(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("DeleteEnded() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteEnded() = %d, want 1", n)
	}
}
