// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// collection pairs a collection name with its optional JSON-Schema.
type collection struct {
	name   string
	schema func() bson.M
}

// collections lists everything the app writes to. Collections must exist
// before multi-document transactions touch them on older servers.
var collections = []collection{
	{"apps", appsSchema},
	{"versions", versionsSchema},
	{"languages", languagesSchema},
	{"pages", pagesSchema},
	{"users", usersSchema},
	{"site_settings", nil},
	{"page_views", nil},
	{"page_view_monthly", nil},
	{"sessions", nil},
	{"rate_limits", nil},
	{"audit_events", nil},
}

// Server error codes and messages EnsureAll tolerates.
var (
	namespaceExists = commandErr{codes: []int32{48}, phrases: []string{"already exists", "namespace exists"}}
	unsupported     = commandErr{codes: []int32{59, 115}, phrases: []string{"no such command", "not implemented", "not supported"}}
)

// EnsureAll creates missing collections and attaches JSON-Schema validators
// with validationLevel "moderate", so documents written before a schema
// change are not rejected on unrelated updates. Servers without collMod
// validators (some DocumentDB versions) skip that step with a log line.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, c := range collections {
		if err := ensureCollection(ctx, db, c.name); err != nil {
			problems = append(problems, c.name+": "+err.Error())
			continue
		}
		if c.schema == nil {
			continue
		}
		err := setValidator(ctx, db, c.name, c.schema())
		switch {
		case err == nil:
		case unsupported.matches(err):
			zap.L().Info("validator skipped (unsupported)", zap.String("collection", c.name))
		default:
			problems = append(problems, c.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection creates name unless it exists. A concurrent creator is
// not an error.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) error {
	if exists, err := collectionExists(ctx, db, name); err == nil && exists {
		return nil
	}
	if err := db.CreateCollection(ctx, name); err != nil && !namespaceExists.matches(err) {
		return err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, schema bson.M) error {
	return db.RunCommand(ctx, bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: schema},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}).Err()
}

// commandErr recognizes a server error by code, or by message when the
// driver did not surface a CommandError.
type commandErr struct {
	codes   []int32
	phrases []string
}

func (c commandErr) matches(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		for _, code := range c.codes {
			if ce.Code == code {
				return true
			}
		}
	}
	msg := strings.ToLower(err.Error())
	for _, p := range c.phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func appsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"slug", "name"},
			"properties": bson.M{
				"slug": bson.M{"bsonType": "string", "pattern": "^[a-z0-9][a-z0-9._-]*$"},
				"name": nonBlank,
			},
		},
	}
}

func versionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"app_id", "slug", "name", "is_default"},
			"properties": bson.M{
				"app_id":     bson.M{"bsonType": "objectId"},
				"slug":       nonBlank,
				"name":       nonBlank,
				"is_default": bson.M{"bsonType": "bool"},
			},
		},
	}
}

func languagesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"app_id", "code", "name", "is_default"},
			"properties": bson.M{
				"app_id":     bson.M{"bsonType": "objectId"},
				"code":       nonBlank,
				"name":       nonBlank,
				"is_default": bson.M{"bsonType": "bool"},
			},
		},
	}
}

func pagesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"app_id", "version_id", "language_id", "slug", "title", "order", "is_folder"},
			"properties": bson.M{
				"app_id":      bson.M{"bsonType": "objectId"},
				"version_id":  bson.M{"bsonType": "objectId"},
				"language_id": bson.M{"bsonType": "objectId"},
				"parent_id":   bson.M{"bsonType": bson.A{"objectId", "null"}},
				"slug":        nonBlank,
				"title":       nonBlank,
				"content":     bson.M{"bsonType": "string"},
				"order":       bson.M{"bsonType": bson.A{"int", "long"}},
				"is_folder":   bson.M{"bsonType": "bool"},
			},
		},
	}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "password_hash", "role", "status"},
			"properties": bson.M{
				"email":         bson.M{"bsonType": "string", "pattern": "^[^\\s@]+@[^\\s@]+\\.[^\\s@]+$"},
				"name":          bson.M{"bsonType": "string"},
				"password_hash": bson.M{"bsonType": "string"},
				"role":          bson.M{"enum": bson.A{"admin", "super_admin"}},
				"status":        bson.M{"enum": bson.A{"active", "disabled"}},
			},
		},
	}
}
