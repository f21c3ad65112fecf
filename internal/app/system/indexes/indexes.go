// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each collection's index set is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, spec := range collections() {
		if err := ensureIndexSet(ctx, db.Collection(spec.name), spec.models); err != nil {
			problems = append(problems, spec.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type collectionSpec struct {
	name   string
	models []mongo.IndexModel
}

func idx(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name)}
}

func uniq(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name).SetUnique(true)}
}

func ttl(name, field string, after time.Duration) mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetName(name).SetExpireAfterSeconds(int32(after.Seconds())),
	}
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func collections() []collectionSpec {
	return []collectionSpec{
		{"apps", []mongo.IndexModel{
			uniq("uniq_apps_slug", bson.D{{Key: "slug", Value: 1}}),
			// apps/list is newest first
			idx("idx_apps_created", bson.D{{Key: "created_at", Value: -1}}),
		}},
		{"versions", []mongo.IndexModel{
			uniq("uniq_versions_app_slug", bson.D{{Key: "app_id", Value: 1}, {Key: "slug", Value: 1}}),
			idx("idx_versions_app_default", bson.D{{Key: "app_id", Value: 1}, {Key: "is_default", Value: -1}}),
		}},
		{"languages", []mongo.IndexModel{
			uniq("uniq_languages_app_code", bson.D{{Key: "app_id", Value: 1}, {Key: "code", Value: 1}}),
			idx("idx_languages_app_default", bson.D{{Key: "app_id", Value: 1}, {Key: "is_default", Value: -1}}),
		}},
		{"pages", []mongo.IndexModel{
			uniq("uniq_pages_scope_slug", bson.D{
				{Key: "app_id", Value: 1},
				{Key: "version_id", Value: 1},
				{Key: "language_id", Value: 1},
				{Key: "slug", Value: 1},
			}),
			// Sidebar load: every page of one scope in order
			idx("idx_pages_scope_order", bson.D{
				{Key: "app_id", Value: 1},
				{Key: "version_id", Value: 1},
				{Key: "language_id", Value: 1},
				{Key: "order", Value: 1},
			}),
			idx("idx_pages_parent", bson.D{{Key: "parent_id", Value: 1}}),
			idx("idx_pages_version", bson.D{{Key: "version_id", Value: 1}}),
			idx("idx_pages_language", bson.D{{Key: "language_id", Value: 1}}),
		}},
		{"users", []mongo.IndexModel{
			uniq("uniq_users_email", bson.D{{Key: "email", Value: 1}}),
			idx("idx_users_role_status", bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}}),
		}},
		{"page_views", []mongo.IndexModel{
			idx("idx_page_views_page", bson.D{{Key: "page_id", Value: 1}}),
			idx("idx_page_views_app_viewed", bson.D{{Key: "app_id", Value: 1}, {Key: "viewed_at", Value: 1}}),
			idx("idx_page_views_viewed", bson.D{{Key: "viewed_at", Value: 1}}),
		}},
		{"page_view_monthly", []mongo.IndexModel{
			uniq("uniq_page_view_monthly_month_app", bson.D{{Key: "month", Value: 1}, {Key: "app_id", Value: 1}}),
		}},
		{"sessions", []mongo.IndexModel{
			uniq("idx_session_token", bson.D{{Key: "token", Value: 1}}),
			idx("idx_session_user", bson.D{{Key: "user_id", Value: 1}}),
			ttl("idx_session_ttl", "expires_at", 0),
		}},
		{"rate_limits", []mongo.IndexModel{
			uniq("idx_ratelimit_email", bson.D{{Key: "email", Value: 1}}),
			// Records clear themselves a day after the last attempt
			ttl("idx_ratelimit_ttl", "last_attempt", 24*time.Hour),
		}},
		{"audit_events", []mongo.IndexModel{
			idx("idx_audit_user", bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}),
			idx("idx_audit_actor", bson.D{{Key: "actor_id", Value: 1}, {Key: "created_at", Value: -1}}),
			idx("idx_audit_category", bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}}),
			idx("idx_audit_created", bson.D{{Key: "created_at", Value: -1}}),
		}},
	}
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(p *bool) bool {
	return p != nil && *p
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		// Collection may not exist yet; everything gets created.
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var ix existingIndex
		if err := cur.Decode(&ix); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(ix.Key)] = ix
	}
	return existing
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listExisting(ctx, coll)

	for _, m := range models {
		name := *m.Options.Name
		unique := boolVal(m.Options.Unique)
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if boolVal(ex.Unique) == unique {
				zap.L().Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", sig))
				continue
			}
			// Uniqueness changed; drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s: drop failed: %v", name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && unique {
				errs = append(errs, fmt.Sprintf("%s: cannot create unique index (duplicates present)", name))
			} else {
				errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			}
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", name),
				zap.String("keys", sig),
				zap.Error(err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
