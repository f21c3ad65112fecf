// internal/app/store/apps/appstore.go
package appstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	languagestore "github.com/dalemusser/docuverse/internal/app/store/languages"
	pagestore "github.com/dalemusser/docuverse/internal/app/store/pages"
	pageviewstore "github.com/dalemusser/docuverse/internal/app/store/pageviews"
	versionstore "github.com/dalemusser/docuverse/internal/app/store/versions"
	"github.com/dalemusser/docuverse/internal/app/system/normalize"
	"github.com/dalemusser/docuverse/internal/app/system/txn"
	"github.com/dalemusser/docuverse/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// CollectionName holds one document per documentation site.
const CollectionName = "apps"

var (
	// ErrNotFound is returned when no app matches.
	ErrNotFound = errors.New("App not found")
	// ErrDuplicateSlug is returned when another app already uses the slug.
	ErrDuplicateSlug = errors.New("An app with this slug already exists")
)

// Store provides access to apps and owns their cascades.
type Store struct {
	db  *mongo.Database
	c   *mongo.Collection
	log *zap.Logger
}

// New creates an app store. logger may be nil.
func New(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{db: db, c: db.Collection(CollectionName), log: logger}
}

// Create inserts the app together with its default version (v1 / "1.0")
// and default language (en / English) in one transaction.
func (s *Store) Create(ctx context.Context, a models.App) (models.App, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.Slug = normalize.Slug(a.Slug)
	a.Name = normalize.Name(a.Name)
	a.CreatedAt = now
	a.UpdatedAt = now

	version := models.Version{
		ID:        primitive.NewObjectID(),
		AppID:     a.ID,
		Slug:      models.DefaultVersionSlug,
		Name:      models.DefaultVersionName,
		IsDefault: true,
	}
	language := models.Language{
		ID:        primitive.NewObjectID(),
		AppID:     a.ID,
		Code:      models.DefaultLanguageCode,
		Name:      models.DefaultLanguageName,
		IsDefault: true,
	}

	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.c.InsertOne(ctx, a); err != nil {
			return err
		}
		if _, err := s.db.Collection(versionstore.CollectionName).InsertOne(ctx, version); err != nil {
			return fmt.Errorf("insert default version: %w", err)
		}
		if _, err := s.db.Collection(languagestore.CollectionName).InsertOne(ctx, language); err != nil {
			return fmt.Errorf("insert default language: %w", err)
		}
		return nil
	})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.App{}, ErrDuplicateSlug
		}
		return models.App{}, err
	}
	return a, nil
}

func (s *Store) find(ctx context.Context, sort bson.D) ([]models.App, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	apps := []models.App{}
	if err := cur.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// List returns every app ordered by name.
func (s *Store) List(ctx context.Context) ([]models.App, error) {
	return s.find(ctx, bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
}

// ListNewest returns every app, most recently created first.
func (s *Store) ListNewest(ctx context.Context) ([]models.App, error) {
	return s.find(ctx, bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.App, error) {
	var a models.App
	err := s.c.FindOne(ctx, filter).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID returns the app with the given id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.App, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetBySlug returns the app with the given slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*models.App, error) {
	return s.findOne(ctx, bson.M{"slug": normalize.Slug(slug)})
}

// AppUpdate holds the fields an update may change. Nil fields are left alone.
type AppUpdate struct {
	Name        *string
	Slug        *string
	Description *string
	LogoURL     *string
}

// Update applies upd to the app. Setting LogoURL clears any uploaded logo
// path since the URL no longer points at it.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd AppUpdate) (*models.App, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}
	if upd.Name != nil {
		set["name"] = normalize.Name(*upd.Name)
	}
	if upd.Slug != nil {
		set["slug"] = normalize.Slug(*upd.Slug)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.LogoURL != nil {
		set["logo_url"] = *upd.LogoURL
		unset["logo_path"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var a models.App
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, err
	}
	return &a, nil
}

// SetLogo records an uploaded logo. It returns the storage path of the
// previous upload, if any, so the caller can remove the old file.
func (s *Store) SetLogo(ctx context.Context, id primitive.ObjectID, url, path string) (string, error) {
	var before models.App
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"logo_url":   url,
		"logo_path":  path,
		"updated_at": time.Now().UTC(),
	}}).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return before.LogoPath, nil
}

// Delete removes the app with its versions, languages, pages and page
// views in one transaction. The deleted app is returned so the caller can
// clean up its uploaded logo.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (*models.App, error) {
	var deleted models.App
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&deleted)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		byApp := bson.M{"app_id": id}
		for _, name := range []string{
			versionstore.CollectionName,
			languagestore.CollectionName,
			pagestore.CollectionName,
			pageviewstore.CollectionName,
		} {
			if _, err := s.db.Collection(name).DeleteMany(ctx, byApp); err != nil {
				return fmt.Errorf("cascade %s: %w", name, err)
			}
		}
		if _, err := s.db.Collection(pageviewstore.MonthlyCollectionName).DeleteMany(ctx, byApp); err != nil {
			return fmt.Errorf("cascade %s: %w", pageviewstore.MonthlyCollectionName, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

// Count returns the number of apps.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
