// internal/app/store/ratelimit/store.go
package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName holds failed-login counters.
const CollectionName = "rate_limits"

// Attempt tracks failed sign-in attempts for one email.
type Attempt struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	AttemptCount int                `bson:"attempt_count"` // failures in current window
	WindowStart  time.Time          `bson:"window_start"`
	LockedUntil  *time.Time         `bson:"locked_until"` // nil when not locked
	LastAttempt  time.Time          `bson:"last_attempt"`
}

// Config controls the lockout policy.
type Config struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

// Store manages failed-login lockouts.
type Store struct {
	c   *mongo.Collection
	cfg Config
}

// New creates a rate limit Store. MaxAttempts below 1 is treated as 1.
func New(db *mongo.Database, cfg Config) *Store {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Store{c: db.Collection(CollectionName), cfg: cfg}
}

func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CheckAllowed reports whether a sign-in for email may proceed.
// remaining is -1 while locked. Lookup errors fail open.
func (s *Store) CheckAllowed(ctx context.Context, email string) (allowed bool, remaining int, lockedUntil *time.Time) {
	now := time.Now().UTC()

	var a Attempt
	err := s.c.FindOne(ctx, bson.M{"email": key(email)}).Decode(&a)
	if err != nil {
		return true, s.cfg.MaxAttempts, nil
	}

	if a.LockedUntil != nil && now.Before(*a.LockedUntil) {
		return false, -1, a.LockedUntil
	}
	if now.After(a.WindowStart.Add(s.cfg.Window)) {
		return true, s.cfg.MaxAttempts, nil
	}

	remaining = s.cfg.MaxAttempts - a.AttemptCount
	if remaining <= 0 {
		return false, 0, nil
	}
	return true, remaining, nil
}

// RecordFailure counts a failed sign-in and locks the email once the window's
// count reaches MaxAttempts. It returns whether this failure caused a lockout.
func (s *Store) RecordFailure(ctx context.Context, email string) (lockedOut bool, lockedUntil *time.Time, err error) {
	k := key(email)
	now := time.Now().UTC()

	// Start a fresh window when the old one has lapsed.
	_, err = s.c.UpdateOne(ctx,
		bson.M{"email": k, "window_start": bson.M{"$lt": now.Add(-s.cfg.Window)}},
		bson.M{"$set": bson.M{"attempt_count": 0, "window_start": now, "locked_until": nil}},
	)
	if err != nil {
		return false, nil, err
	}

	var a Attempt
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"email": k},
		bson.M{
			"$inc":         bson.M{"attempt_count": 1},
			"$set":         bson.M{"last_attempt": now},
			"$setOnInsert": bson.M{"window_start": now, "locked_until": nil},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&a)
	if err != nil {
		return false, nil, err
	}

	if a.AttemptCount < s.cfg.MaxAttempts {
		return false, nil, nil
	}

	until := now.Add(s.cfg.Lockout)
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": a.ID}, bson.M{"$set": bson.M{"locked_until": until}}); err != nil {
		return false, nil, err
	}
	return true, &until, nil
}

// ClearOnSuccess resets the counter after a successful sign-in.
func (s *Store) ClearOnSuccess(ctx context.Context, email string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"email": key(email)})
	return err
}

// GetAttempt returns the attempt record for email, or nil.
func (s *Store) GetAttempt(ctx context.Context, email string) (*Attempt, error) {
	var a Attempt
	err := s.c.FindOne(ctx, bson.M{"email": key(email)}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteStale removes records whose last attempt is before cutoff and that
// are not currently locked.
func (s *Store) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"last_attempt": bson.M{"$lt": cutoff},
		"$or": bson.A{
			bson.M{"locked_until": nil},
			bson.M{"locked_until": bson.M{"$lt": time.Now().UTC()}},
		},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
