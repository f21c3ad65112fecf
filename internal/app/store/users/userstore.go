// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/docuverse/internal/app/system/normalize"
	"github.com/dalemusser/docuverse/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName holds admin accounts.
const CollectionName = "users"

var (
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when another user already has the email.
	ErrDuplicateEmail = errors.New("Email already exists")
	// ErrBadRole is returned for roles other than admin and super_admin.
	ErrBadRole = errors.New("invalid role")
	// ErrBadStatus is returned for statuses other than active and disabled.
	ErrBadStatus = errors.New("Status must be active or disabled")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Create inserts a new user after normalizing and validating fields.
// Role defaults to admin and status to active.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Email = normalize.Email(u.Email)
	u.Name = normalize.Name(u.Name)
	u.Role = normalize.Role(u.Role)
	if u.Role == "" {
		u.Role = models.RoleAdmin
	}
	if u.Status == "" {
		u.Status = models.StatusActive
	}
	if !models.IsValidRole(u.Role) {
		return models.User{}, ErrBadRole
	}
	if !models.IsValidStatus(u.Status) {
		return models.User{}, ErrBadStatus
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail looks up a user by email, case-insensitively.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

// List returns all users ordered by email.
func (s *Store) List(ctx context.Context) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetByIDs loads the users with the given ids. Unknown ids are skipped.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UserUpdate holds the fields that can be updated for a user.
// Nil pointers leave the stored value unchanged.
type UserUpdate struct {
	Email        string
	Name         string
	Role         string
	Status       *string
	PasswordHash *string
}

// Update replaces a user's editable fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd UserUpdate) error {
	role := normalize.Role(upd.Role)
	if !models.IsValidRole(role) {
		return ErrBadRole
	}

	set := bson.M{
		"email":      normalize.Email(upd.Email),
		"name":       normalize.Name(upd.Name),
		"role":       role,
		"updated_at": time.Now().UTC(),
	}
	if upd.Status != nil {
		if !models.IsValidStatus(*upd.Status) {
			return ErrBadStatus
		}
		set["status"] = *upd.Status
	}
	if upd.PasswordHash != nil {
		set["password_hash"] = *upd.PasswordHash
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a user by ID.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the total number of users.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// Any reports whether at least one user exists.
func (s *Store) Any(ctx context.Context) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CountActiveSuperAdmins returns the number of active super_admin users.
func (s *Store) CountActiveSuperAdmins(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"role":   models.RoleSuperAdmin,
		"status": models.StatusActive,
	})
}
