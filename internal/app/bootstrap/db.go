// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/docuverse/internal/app/system/indexes"
	"github.com/dalemusser/docuverse/internal/app/system/seeding"
	"github.com/dalemusser/docuverse/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB pool and the logo storage backend.
//
// WAFFLE calls this after configuration is loaded and validated, before
// EnsureSchema and Startup.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err != nil {
		return DBDeps{}, err
	}
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
		zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
	)

	files, err := newFileStorage(ctx, appCfg, logger)
	if err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, err
	}

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
		FileStorage:   files,
	}, nil
}

// newFileStorage builds the store behind app logo uploads: local disk served
// at StorageLocalURL, or S3 with optional signed CloudFront URLs.
func newFileStorage(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (storage.Store, error) {
	switch appCfg.StorageType {
	case "s3":
		s, err := storage.NewS3(ctx, storage.S3Config{
			Region:                   appCfg.StorageS3Region,
			Bucket:                   appCfg.StorageS3Bucket,
			Prefix:                   appCfg.StorageS3Prefix,
			CloudFrontURL:            appCfg.StorageCFURL,
			CloudFrontKeyPairID:      appCfg.StorageCFKeyPairID,
			CloudFrontPrivateKeyPath: appCfg.StorageCFKeyPath,
		})
		if err != nil {
			return nil, fmt.Errorf("init S3 storage: %w", err)
		}
		logger.Info("logo storage: S3",
			zap.String("bucket", appCfg.StorageS3Bucket),
			zap.String("prefix", appCfg.StorageS3Prefix),
			zap.Bool("cloudfront", appCfg.StorageCFURL != ""),
		)
		return s, nil

	case "local", "":
		s, err := storage.NewLocal(storage.LocalConfig{
			BasePath: appCfg.StorageLocalPath,
			BaseURL:  appCfg.StorageLocalURL,
		})
		if err != nil {
			return nil, fmt.Errorf("init local storage: %w", err)
		}
		logger.Info("logo storage: local",
			zap.String("path", appCfg.StorageLocalPath),
			zap.String("url", appCfg.StorageLocalURL),
		)
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage type: %s", appCfg.StorageType)
}

// EnsureSchema prepares the database before any request is served.
//
// Order matters: collections and their JSON-Schema validators first, then
// indexes (the unique slug and path constraints live there), then the
// default settings document. The context carries coreCfg.IndexBootTimeout.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	steps := []struct {
		name string
		run  func() error
	}{
		{"validators", func() error { return validators.EnsureAll(ctx, db) }},
		{"indexes", func() error { return indexes.EnsureAll(ctx, db) }},
		{"seed", func() error { return seeding.SeedAll(ctx, db, logger) }},
	}
	for _, s := range steps {
		if err := s.run(); err != nil {
			logger.Error("schema step failed", zap.String("step", s.name), zap.Error(err))
			return fmt.Errorf("ensure schema (%s): %w", s.name, err)
		}
	}

	logger.Info("database schema ensured")
	return nil
}
