// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	userstore "github.com/dalemusser/docuverse/internal/app/store/users"
	"github.com/dalemusser/docuverse/internal/app/system/authutil"
	"github.com/dalemusser/docuverse/internal/app/system/tasks"
	"github.com/dalemusser/docuverse/internal/app/system/timeouts"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Session and lockout records are kept this long after they end so recent
// activity stays visible.
const endedRecordRetention = 7 * 24 * time.Hour

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// It applies the configured database deadlines, seeds the super admin when
// one is configured, and starts the background task runner.
//
// Returning a non-nil error aborts startup.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.DBTimeoutShort,
		Medium: appCfg.DBTimeoutMedium,
		Long:   appCfg.DBTimeoutLong,
	})

	if appCfg.SeedAdminEmail != "" {
		if err := ensureAdminUser(ctx, deps.MongoDatabase, appCfg, logger); err != nil {
			logger.Error("failed to seed admin user", zap.Error(err))
			return err
		}
	}

	startTaskRunner(deps.MongoDatabase, appCfg, logger)

	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner initializes and starts the background task runner.
func startTaskRunner(db *mongo.Database, appCfg AppConfig, logger *zap.Logger) {
	taskRunner = tasks.New(logger)

	taskRunner.Register(tasks.PageViewRollupJob(db, logger))
	taskRunner.Register(tasks.SessionCleanupJob(db, logger, endedRecordRetention))
	taskRunner.Register(tasks.RateLimitCleanupJob(db, logger, endedRecordRetention))
	taskRunner.Register(tasks.AuditCleanupJob(db, logger, appCfg.AuditRetention))

	taskRunner.Start()
}

// ensureAdminUser makes sure the configured email belongs to an active
// super admin. An existing account is promoted and re-enabled but keeps its
// password; a missing one is created with the configured password.
func ensureAdminUser(ctx context.Context, db *mongo.Database, appCfg AppConfig, logger *zap.Logger) error {
	users := userstore.New(db)

	existing, err := users.GetByEmail(ctx, appCfg.SeedAdminEmail)
	switch {
	case err == nil:
		if existing.Role == models.RoleSuperAdmin && existing.Status == models.StatusActive {
			logger.Debug("admin user already configured", zap.String("email", existing.Email))
			return nil
		}
		active := models.StatusActive
		if err := users.Update(ctx, existing.ID, userstore.UserUpdate{
			Email:  existing.Email,
			Name:   existing.Name,
			Role:   models.RoleSuperAdmin,
			Status: &active,
		}); err != nil {
			return err
		}
		logger.Info("promoted existing user to super admin",
			zap.String("email", existing.Email),
			zap.String("user_id", existing.ID.Hex()),
			zap.String("previous_role", existing.Role))
		return nil

	case !errors.Is(err, userstore.ErrNotFound):
		return err
	}

	if err := authutil.ValidateCredentials(appCfg.SeedAdminEmail, appCfg.SeedAdminPassword, false); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	hash, err := authutil.HashPassword(appCfg.SeedAdminPassword)
	if err != nil {
		return err
	}

	name := appCfg.SeedAdminName
	if name == "" {
		name = "Admin"
	}
	u, err := users.Create(ctx, models.User{
		Email:        appCfg.SeedAdminEmail,
		Name:         name,
		PasswordHash: hash,
		Role:         models.RoleSuperAdmin,
	})
	if err != nil {
		return err
	}

	logger.Info("created admin user",
		zap.String("email", u.Email),
		zap.String("user_id", u.ID.Hex()))
	return nil
}
