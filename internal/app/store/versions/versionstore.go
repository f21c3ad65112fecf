// internal/app/store/versions/versionstore.go
package versionstore

import (
	"context"
	"errors"
	"fmt"

	pagestore "github.com/dalemusser/docuverse/internal/app/store/pages"
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

// CollectionName holds the versions of every app.
const CollectionName = "versions"

var (
	// ErrNotFound is returned when no version matches.
	ErrNotFound = errors.New("Version not found")
	// ErrDuplicateSlug is returned when the app already has a version with the slug.
	ErrDuplicateSlug = errors.New("A version with this slug already exists")
	// ErrLastDefault is returned when deleting the default version.
	ErrLastDefault = errors.New("Cannot delete the default version")
)

// Store provides access to the versions collection.
type Store struct {
	db  *mongo.Database
	c   *mongo.Collection
	log *zap.Logger
}

// New creates a version store. logger may be nil.
func New(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{db: db, c: db.Collection(CollectionName), log: logger}
}

// ListByApp returns the app's versions in creation order.
func (s *Store) ListByApp(ctx context.Context, appID primitive.ObjectID) ([]models.Version, error) {
	cur, err := s.c.Find(ctx, bson.M{"app_id": appID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	versions := []models.Version{}
	if err := cur.All(ctx, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// GetByID returns the version with the given id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Version, error) {
	var v models.Version
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create adds a version to an app. The first version of an app is always
// the default; a new default replaces the old one in the same transaction.
func (s *Store) Create(ctx context.Context, v models.Version) (models.Version, error) {
	v.ID = primitive.NewObjectID()
	v.Slug = normalize.Slug(v.Slug)
	v.Name = normalize.Name(v.Name)

	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		existing, err := s.c.CountDocuments(ctx, bson.M{"app_id": v.AppID})
		if err != nil {
			return err
		}
		if existing == 0 {
			v.IsDefault = true
		}
		if v.IsDefault && existing > 0 {
			if _, err := s.c.UpdateMany(ctx, bson.M{"app_id": v.AppID}, bson.M{"$set": bson.M{"is_default": false}}); err != nil {
				return err
			}
		}
		_, err = s.c.InsertOne(ctx, v)
		return err
	})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Version{}, ErrDuplicateSlug
		}
		return models.Version{}, err
	}
	return v, nil
}

// VersionUpdate holds the fields an update may change.
type VersionUpdate struct {
	Slug *string
	Name *string
}

// Update changes a version's slug or name.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd VersionUpdate) (*models.Version, error) {
	set := bson.M{}
	if upd.Slug != nil {
		set["slug"] = normalize.Slug(*upd.Slug)
	}
	if upd.Name != nil {
		set["name"] = normalize.Name(*upd.Name)
	}
	if len(set) == 0 {
		return s.GetByID(ctx, id)
	}

	var v models.Version
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, err
	}
	return &v, nil
}

// SetDefault makes the version its app's default, clearing the previous one.
func (s *Store) SetDefault(ctx context.Context, id primitive.ObjectID) error {
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		var v models.Version
		err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if _, err := s.c.UpdateMany(ctx, bson.M{"app_id": v.AppID, "_id": bson.M{"$ne": id}},
			bson.M{"$set": bson.M{"is_default": false}}); err != nil {
			return err
		}
		_, err = s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_default": true}})
		return err
	})
}

// Delete removes a non-default version and every page written for it,
// along with those pages' views.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		var v models.Version
		err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if v.IsDefault {
			return ErrLastDefault
		}
		if _, err := s.c.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			return err
		}
		if err := pagestore.DeleteWhere(ctx, s.db, bson.M{"version_id": id}); err != nil {
			return fmt.Errorf("cascade pages: %w", err)
		}
		return nil
	})
}
