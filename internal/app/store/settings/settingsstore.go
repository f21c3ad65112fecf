// internal/app/store/settings/settingsstore.go
package settingsstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/docuverse/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName holds the singleton settings document.
const CollectionName = "site_settings"

var singleton = bson.M{"singleton": true}

// Store provides access to the site_settings collection.
// There is one settings document for the whole platform.
type Store struct {
	c *mongo.Collection
}

// New creates a new settings store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Get returns the site settings. Missing documents and blank fields fall
// back to the defaults.
func (s *Store) Get(ctx context.Context) (*models.SiteSettings, error) {
	settings := models.DefaultSiteSettings()
	var stored models.SiteSettings
	err := s.c.FindOne(ctx, singleton).Decode(&stored)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}

	if stored.BrandName == "" {
		stored.BrandName = settings.BrandName
	}
	if stored.Description == "" {
		stored.Description = settings.Description
	}
	if stored.PrimaryColor == "" {
		stored.PrimaryColor = settings.PrimaryColor
	}
	return &stored, nil
}

// Save upserts the settings document.
func (s *Store) Save(ctx context.Context, settings models.SiteSettings, updatedBy *primitive.ObjectID) (*models.SiteSettings, error) {
	now := time.Now().UTC()
	settings.UpdatedAt = &now
	settings.UpdatedByID = updatedBy

	update := bson.M{
		"$set": bson.M{
			"singleton":     true,
			"brand_name":    settings.BrandName,
			"logo_url":      settings.LogoURL,
			"description":   settings.Description,
			"primary_color": settings.PrimaryColor,
			"updated_at":    now,
			"updated_by_id": updatedBy,
		},
		"$setOnInsert": bson.M{
			"_id": primitive.NewObjectID(),
		},
	}
	if _, err := s.c.UpdateOne(ctx, singleton, update, options.Update().SetUpsert(true)); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Exists checks if settings have been saved.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	count, err := s.c.CountDocuments(ctx, singleton)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
