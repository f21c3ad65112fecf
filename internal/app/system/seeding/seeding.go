// internal/app/system/seeding/seeding.go
package seeding

import (
	"context"

	settingsstore "github.com/dalemusser/docuverse/internal/app/store/settings"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SeedAll seeds default data if not already present.
func SeedAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	return seedSettings(ctx, db, logger)
}

// seedSettings stores the default branding so the settings document exists
// from first boot.
func seedSettings(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	store := settingsstore.New(db)

	exists, err := store.Exists(ctx)
	if err != nil {
		logger.Error("failed to check site settings", zap.Error(err))
		return err
	}
	if exists {
		return nil
	}

	if _, err := store.Save(ctx, models.DefaultSiteSettings(), nil); err != nil {
		logger.Error("failed to seed site settings", zap.Error(err))
		return err
	}
	logger.Info("seeded default site settings")
	return nil
}
