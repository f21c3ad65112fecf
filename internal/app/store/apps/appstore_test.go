package appstore

import (
	"errors"
	"testing"

	languagestore "github.com/dalemusser/docuverse/internal/app/store/languages"
	pagestore "github.com/dalemusser/docuverse/internal/app/store/pages"
	pageviewstore "github.com/dalemusser/docuverse/internal/app/store/pageviews"
	versionstore "github.com/dalemusser/docuverse/internal/app/store/versions"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"github.com/dalemusser/docuverse/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestStore_Create_WithDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	app, err := store.Create(ctx, models.App{Slug: "My-Docs", Name: " My Docs "})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if app.Slug != "my-docs" || app.Name != "My Docs" {
		t.Errorf("Create() = %+v, want normalized slug and name", app)
	}

	versions, err := versionstore.New(db, nil).ListByApp(ctx, app.ID)
	if err != nil {
		t.Fatalf("ListByApp() error = %v", err)
	}
	if len(versions) != 1 || !versions[0].IsDefault || versions[0].Slug != models.DefaultVersionSlug {
		t.Errorf("versions = %+v, want one default %q", versions, models.DefaultVersionSlug)
	}

	languages, err := languagestore.New(db, nil).ListByApp(ctx, app.ID)
	if err != nil {
		t.Fatalf("ListByApp() error = %v", err)
	}
	if len(languages) != 1 || !languages[0].IsDefault || languages[0].Code != models.DefaultLanguageCode {
		t.Errorf("languages = %+v, want one default %q", languages, models.DefaultLanguageCode)
	}
}

func TestStore_Create_DuplicateSlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.App{Slug: "docs", Name: "Docs"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err := store.Create(ctx, models.App{Slug: "docs", Name: "Other"})
	if !errors.Is(err, ErrDuplicateSlug) {
		t.Errorf("Create() error = %v, want ErrDuplicateSlug", err)
	}
}

func TestStore_ListOrders(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, n := range []string{"beta", "alpha", "gamma"} {
		if _, err := store.Create(ctx, models.App{Slug: n, Name: n}); err != nil {
			t.Fatalf("Create(%q) error = %v", n, err)
		}
	}

	byName, _ := store.List(ctx)
	if byName[0].Name != "alpha" || byName[2].Name != "gamma" {
		t.Errorf("List() order = %v, %v, %v", byName[0].Name, byName[1].Name, byName[2].Name)
	}
	newest, _ := store.ListNewest(ctx)
	if newest[0].Name != "gamma" {
		t.Errorf("ListNewest()[0] = %q, want gamma", newest[0].Name)
	}
	if n, _ := store.Count(ctx); n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
}

func TestStore_UpdateAndLogo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	app, _ := store.Create(ctx, models.App{Slug: "docs", Name: "Docs"})
	other, _ := store.Create(ctx, models.App{Slug: "other", Name: "Other"})

	prev, err := store.SetLogo(ctx, app.ID, "/files/logos/a.png", "logos/a.png")
	if err != nil || prev != "" {
		t.Fatalf("SetLogo() = %q, %v", prev, err)
	}
	prev, _ = store.SetLogo(ctx, app.ID, "/files/logos/b.png", "logos/b.png")
	if prev != "logos/a.png" {
		t.Errorf("SetLogo() previous = %q, want logos/a.png", prev)
	}

	name, url := "Renamed", "https://example.com/logo.svg"
	got, err := store.Update(ctx, app.ID, AppUpdate{Name: &name, LogoURL: &url})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Name != name || got.LogoURL != url || got.LogoPath != "" {
		t.Errorf("Update() = %+v", got)
	}

	slug := "docs"
	if _, err := store.Update(ctx, other.ID, AppUpdate{Slug: &slug}); !errors.Is(err, ErrDuplicateSlug) {
		t.Errorf("Update() duplicate error = %v, want ErrDuplicateSlug", err)
	}
	if _, err := store.Update(ctx, testutil.NewID(), AppUpdate{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() missing error = %v, want ErrNotFound", err)
	}
}

func TestStore_Delete_Cascades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	app, _ := store.Create(ctx, models.App{Slug: "docs", Name: "Docs"})
	keep, _ := store.Create(ctx, models.App{Slug: "keep", Name: "Keep"})

	versions, _ := versionstore.New(db, nil).ListByApp(ctx, app.ID)
	languages, _ := languagestore.New(db, nil).ListByApp(ctx, app.ID)
	page, err := pagestore.New(db, nil).Create(ctx, models.Page{
		AppID: app.ID, VersionID: versions[0].ID, LanguageID: languages[0].ID,
		Slug: "intro", Title: "Intro",
	})
	if err != nil {
		t.Fatalf("page Create() error = %v", err)
	}
	_ = pageviewstore.New(db).Record(ctx, page.ID, app.ID)

	deleted, err := store.Delete(ctx, app.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted.ID != app.ID {
		t.Errorf("Delete() returned %v, want %v", deleted.ID, app.ID)
	}

	for _, name := range []string{
		versionstore.CollectionName,
		languagestore.CollectionName,
		pagestore.CollectionName,
		pageviewstore.CollectionName,
	} {
		n, _ := db.Collection(name).CountDocuments(ctx, bson.M{"app_id": app.ID})
		if n != 0 {
			t.Errorf("%s left %d orphans", name, n)
		}
	}
	if _, err := store.GetByID(ctx, keep.ID); err != nil {
		t.Errorf("other app removed: %v", err)
	}
	if _, err := store.Delete(ctx, app.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestStore_GetBySlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	app, _ := store.Create(ctx, models.App{Slug: "docs", Name: "Docs"})
	got, err := store.GetBySlug(ctx, "DOCS")
	if err != nil || got.ID != app.ID {
		t.Errorf("GetBySlug() = %v, %v", got, err)
	}
	if _, err := store.GetBySlug(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBySlug() error = %v, want ErrNotFound", err)
	}
}
