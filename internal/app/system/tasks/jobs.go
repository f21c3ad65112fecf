// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/docuverse/internal/app/store/audit"
	pageviewstore "github.com/dalemusser/docuverse/internal/app/store/pageviews"
	"github.com/dalemusser/docuverse/internal/app/store/ratelimit"
	"github.com/dalemusser/docuverse/internal/app/store/sessions"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Job names.
const (
	PageViewRollup   = "pageview_rollup"
	SessionCleanup   = "session_cleanup"
	RateLimitCleanup = "ratelimit_cleanup"
	AuditCleanup     = "audit_cleanup"
)

// PageViewRollupJob recomputes monthly view counts for the current and
// previous month.
func PageViewRollupJob(db *mongo.Database, logger *zap.Logger) Job {
	store := pageviewstore.New(db)
	return Job{
		Name:     PageViewRollup,
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			n, err := store.Rollup(ctx, time.Now())
			if err != nil {
				return err
			}
			logger.Debug("page views rolled up", zap.Int("buckets", n))
			return nil
		},
	}
}

// SessionCleanupJob removes sessions that have expired or ended more than
// retention ago. Expired sessions are also swept by the TTL index; this
// covers ended sessions whose expiry is still in the future.
func SessionCleanupJob(db *mongo.Database, logger *zap.Logger, retention time.Duration) Job {
	store := sessions.New(db)
	return Job{
		Name:     SessionCleanup,
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			deleted, err := store.DeleteEnded(ctx, time.Now().Add(-retention))
			if err != nil {
				return err
			}
			if deleted > 0 {
				logger.Info("cleaned up ended sessions", zap.Int64("deleted", deleted))
			}
			return nil
		},
	}
}

// RateLimitCleanupJob removes lockout records whose last attempt is older
// than maxAge.
func RateLimitCleanupJob(db *mongo.Database, logger *zap.Logger, maxAge time.Duration) Job {
	store := ratelimit.New(db, ratelimit.Config{})
	return Job{
		Name:     RateLimitCleanup,
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			deleted, err := store.DeleteStale(ctx, time.Now().Add(-maxAge))
			if err != nil {
				return err
			}
			if deleted > 0 {
				logger.Info("cleaned up stale rate limit records", zap.Int64("deleted", deleted))
			}
			return nil
		},
	}
}

// AuditCleanupJob removes audit events older than retention. A zero
// retention keeps events forever and the job is a no-op.
func AuditCleanupJob(db *mongo.Database, logger *zap.Logger, retention time.Duration) Job {
	store := audit.New(db)
	return Job{
		Name:     AuditCleanup,
		Interval: 24 * time.Hour,
		Run: func(ctx context.Context) error {
			if retention <= 0 {
				return nil
			}
			deleted, err := store.DeleteOlderThan(ctx, time.Now().Add(-retention))
			if err != nil {
				return err
			}
			if deleted > 0 {
				logger.Info("cleaned up old audit events",
					zap.Int64("deleted", deleted),
					zap.Duration("retention", retention))
			}
			return nil
		},
	}
}
