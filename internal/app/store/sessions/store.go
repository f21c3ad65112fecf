// internal/app/store/sessions/store.go
package sessions

import (
	"context"
	"time"

	"github.com/dalemusser/docuverse/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CollectionName holds server-side session records.
const CollectionName = "sessions"

// Session end reasons
const (
	EndReasonLogout      = "logout"
	EndReasonUserDeleted = "user_deleted"
	EndReasonPassword    = "password_changed"
	EndReasonDisabled    = "user_disabled"
)

// Session is the server-side record behind a session cookie. The cookie
// carries the token; closing the record signs the cookie out everywhere.
type Session struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Token     string             `bson:"token"`
	UserID    primitive.ObjectID `bson:"user_id"`
	IPAddress string             `bson:"ip_address,omitempty"`
	UserAgent string             `bson:"user_agent,omitempty"`
	LoginAt   time.Time          `bson:"login_at"`
	LogoutAt  *time.Time         `bson:"logout_at,omitempty"` // nil while open
	EndReason string             `bson:"end_reason,omitempty"`
	ExpiresAt time.Time          `bson:"expires_at"`
}

// Store manages session records in MongoDB.
type Store struct {
	c *mongo.Collection
}

// New creates a new session Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Create inserts a session record.
func (s *Store) Create(ctx context.Context, session Session) error {
	if session.ID.IsZero() {
		session.ID = primitive.NewObjectID()
	}
	if session.LoginAt.IsZero() {
		session.LoginAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, session)
	return err
}

func activeFilter(token string) bson.M {
	return bson.M{
		"token":      token,
		"logout_at":  nil,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}
}

// GetByToken retrieves an open, unexpired session by token.
func (s *Store) GetByToken(ctx context.Context, token string) (*Session, error) {
	var session Session
	if err := s.c.FindOne(ctx, activeFilter(token)).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

// IsActive reports whether token names an open, unexpired session.
// An empty token or a lookup error counts as inactive.
func (s *Store) IsActive(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	n, err := s.c.CountDocuments(ctx, activeFilter(token))
	return err == nil && n > 0
}

// Close marks one session as ended.
func (s *Store) Close(ctx context.Context, token, reason string) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"token": token, "logout_at": nil},
		bson.M{"$set": bson.M{"logout_at": now, "end_reason": reason}},
	)
	return err
}

// CloseByUser ends every open session of a user.
func (s *Store) CloseByUser(ctx context.Context, userID primitive.ObjectID, reason string) (int64, error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "logout_at": nil},
		bson.M{"$set": bson.M{"logout_at": now, "end_reason": reason}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// CountActive counts open, unexpired sessions.
func (s *Store) CountActive(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"logout_at":  nil,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	})
}

// DeleteEnded removes sessions that expired or were closed before cutoff.
// The TTL index covers expiry too; this also clears closed records.
func (s *Store) DeleteEnded(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"expires_at": bson.M{"$lt": cutoff}},
		bson.M{"logout_at": bson.M{"$lt": cutoff}},
	}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
