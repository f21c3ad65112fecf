// Package testutil provides database and HTTP helpers for package tests.
package testutil

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/docuverse/internal/app/system/indexes"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultTestURI is used when DOCUVERSE_TEST_MONGO_URI is unset.
const DefaultTestURI = "mongodb://localhost:27017"

// dbPrefix starts every per-test database name.
const dbPrefix = "dv_test_"

// maxDBName is MongoDB's database name limit.
const maxDBName = 63

var (
	connectOnce sync.Once
	shared      *mongo.Client
	connectErr  error

	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

func testURI() string {
	if uri := os.Getenv("DOCUVERSE_TEST_MONGO_URI"); uri != "" {
		return uri
	}
	return DefaultTestURI
}

// client connects once per test binary.
func client() (*mongo.Client, error) {
	connectOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		opts := options.Client().
			ApplyURI(testURI()).
			SetMaxPoolSize(200).
			SetServerSelectionTimeout(5 * time.Second)

		shared, connectErr = mongo.Connect(ctx, opts)
		if connectErr == nil {
			connectErr = shared.Ping(ctx, nil)
		}
	})
	return shared, connectErr
}

// SetupTestDB returns an empty database private to t, with the production
// indexes in place. The database is dropped when t finishes.
//
// Tests are skipped when MongoDB is unreachable, unless
// DOCUVERSE_TEST_REQUIRE_DB is set, in which case they fail.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	c, err := client()
	if err != nil {
		if os.Getenv("DOCUVERSE_TEST_REQUIRE_DB") != "" {
			t.Fatalf("test MongoDB unavailable: %v", err)
		}
		t.Skipf("test MongoDB unavailable: %v", err)
	}

	db := c.Database(DBName(t.Name()))

	ctx, cancel := TestContext()
	defer cancel()
	if err := db.Drop(ctx); err != nil {
		t.Fatalf("drop test database: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("drop test database on cleanup: %v", err)
		}
	})

	return db
}

// DBName maps a test name to a database name. Names that would exceed
// MongoDB's limit are truncated and suffixed with a hash so subtests with
// long shared prefixes stay distinct.
func DBName(testName string) string {
	name := dbPrefix + unsafeChars.ReplaceAllString(testName, "_")
	if len(name) <= maxDBName {
		return name
	}
	sum := sha1.Sum([]byte(testName))
	suffix := "_" + hex.EncodeToString(sum[:])[:8]
	return strings.TrimRight(name[:maxDBName-len(suffix)], "_") + suffix
}

// TestContext returns a context with a reasonable timeout for test operations.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
