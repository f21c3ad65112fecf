// internal/app/store/languages/languagestore.go
package languagestore

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

// CollectionName holds the languages of every app.
const CollectionName = "languages"

var (
	// ErrNotFound is returned when no language matches.
	ErrNotFound = errors.New("Language not found")
	// ErrDuplicateCode is returned when the app already has a language with the code.
	ErrDuplicateCode = errors.New("A language with this code already exists")
	// ErrLastDefault is returned when deleting the default language.
	ErrLastDefault = errors.New("Cannot delete the default language")
)

// Store provides access to the languages collection.
type Store struct {
	db  *mongo.Database
	c   *mongo.Collection
	log *zap.Logger
}

// New creates a language store. logger may be nil.
func New(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{db: db, c: db.Collection(CollectionName), log: logger}
}

// ListByApp returns the app's languages in creation order.
func (s *Store) ListByApp(ctx context.Context, appID primitive.ObjectID) ([]models.Language, error) {
	cur, err := s.c.Find(ctx, bson.M{"app_id": appID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	languages := []models.Language{}
	if err := cur.All(ctx, &languages); err != nil {
		return nil, err
	}
	return languages, nil
}

// GetByID returns the language with the given id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Language, error) {
	var l models.Language
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create adds a language to an app. The first language of an app is always
// the default; a new default replaces the old one in the same transaction.
func (s *Store) Create(ctx context.Context, l models.Language) (models.Language, error) {
	l.ID = primitive.NewObjectID()
	l.Code = normalize.LanguageCode(l.Code)
	l.Name = normalize.Name(l.Name)

	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		existing, err := s.c.CountDocuments(ctx, bson.M{"app_id": l.AppID})
		if err != nil {
			return err
		}
		if existing == 0 {
			l.IsDefault = true
		}
		if l.IsDefault && existing > 0 {
			if _, err := s.c.UpdateMany(ctx, bson.M{"app_id": l.AppID}, bson.M{"$set": bson.M{"is_default": false}}); err != nil {
				return err
			}
		}
		_, err = s.c.InsertOne(ctx, l)
		return err
	})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Language{}, ErrDuplicateCode
		}
		return models.Language{}, err
	}
	return l, nil
}

// LanguageUpdate holds the fields an update may change.
type LanguageUpdate struct {
	Code *string
	Name *string
}

// Update changes a language's code or name.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd LanguageUpdate) (*models.Language, error) {
	set := bson.M{}
	if upd.Code != nil {
		set["code"] = normalize.LanguageCode(*upd.Code)
	}
	if upd.Name != nil {
		set["name"] = normalize.Name(*upd.Name)
	}
	if len(set) == 0 {
		return s.GetByID(ctx, id)
	}

	var l models.Language
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return &l, nil
}

// SetDefault makes the language its app's default, clearing the previous one.
func (s *Store) SetDefault(ctx context.Context, id primitive.ObjectID) error {
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		var l models.Language
		err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if _, err := s.c.UpdateMany(ctx, bson.M{"app_id": l.AppID, "_id": bson.M{"$ne": id}},
			bson.M{"$set": bson.M{"is_default": false}}); err != nil {
			return err
		}
		_, err = s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_default": true}})
		return err
	})
}

// Delete removes a non-default language and every page written for it,
// along with those pages' views.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		var l models.Language
		err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if l.IsDefault {
			return ErrLastDefault
		}
		if _, err := s.c.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			return err
		}
		if err := pagestore.DeleteWhere(ctx, s.db, bson.M{"language_id": id}); err != nil {
			return fmt.Errorf("cascade pages: %w", err)
		}
		return nil
	})
}
