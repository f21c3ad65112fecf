// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/docuverse/internal/app/system/validation"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "DOCUVERSE"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: DOCUVERSE_MONGO_URI, DOCUVERSE_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "docuverse", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "admin_session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "168h", Desc: "Session lifetime (e.g., 168h, 24h)"},

	{Name: "csrf_key", Default: "dev-only-csrf-key-please-change-0123456789", Desc: "CSRF token signing key (32+ chars in production)"},
	{Name: "api_key", Default: "", Desc: "Bearer key for publishing automation (empty disables)"},

	// Login lockout
	{Name: "rate_limit_enabled", Default: true, Desc: "Lock accounts after repeated failed logins"},
	{Name: "rate_limit_login_attempts", Default: 5, Desc: "Failed login attempts before lockout"},
	{Name: "rate_limit_login_window", Default: "15m", Desc: "Window for counting failed attempts"},
	{Name: "rate_limit_login_lockout", Default: "15m", Desc: "Lockout duration"},

	// Public endpoints
	{Name: "public_rate_limit", Default: 120, Desc: "Requests per minute per IP on public endpoints (0 disables)"},
	{Name: "public_cors_origins", Default: "*", Desc: "Comma-separated origins allowed to call the public API"},

	{Name: "metrics_enabled", Default: true, Desc: "Serve Prometheus metrics at /metrics"},

	// File storage
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage path for uploaded files"},
	{Name: "storage_local_url", Default: "/files", Desc: "URL prefix for serving local files"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "uploads/", Desc: "S3 key prefix"},
	{Name: "storage_cf_url", Default: "", Desc: "CloudFront distribution URL"},
	{Name: "storage_cf_keypair_id", Default: "", Desc: "CloudFront key pair ID"},
	{Name: "storage_cf_key_path", Default: "", Desc: "Path to CloudFront private key file"},

	// Audit logging
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_retention", Default: "2160h", Desc: "How long audit events are kept (0 keeps forever)"},

	// Database deadlines
	{Name: "db_timeout_short", Default: "5s", Desc: "Deadline for single-document operations"},
	{Name: "db_timeout_medium", Default: "10s", Desc: "Deadline for list queries and small transactions"},
	{Name: "db_timeout_long", Default: "30s", Desc: "Deadline for cascades and aggregations"},

	// Admin seeding
	{Name: "seed_admin_email", Default: "", Desc: "Email of a super admin to create on startup"},
	{Name: "seed_admin_name", Default: "Admin", Desc: "Name of the seeded super admin"},
	{Name: "seed_admin_password", Default: "", Desc: "Password for the seeded super admin (required with seed_admin_email)"},
}

// splitList parses a comma-separated config value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// environment variables (WAFFLE_* for core, DOCUVERSE_* for the app) and
// flags, with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 7*24*time.Hour),

		CSRFKey: appValues.String("csrf_key"),
		APIKey:  appValues.String("api_key"),

		RateLimitEnabled:       appValues.Bool("rate_limit_enabled"),
		RateLimitLoginAttempts: appValues.Int("rate_limit_login_attempts"),
		RateLimitLoginWindow:   appValues.Duration("rate_limit_login_window", 15*time.Minute),
		RateLimitLoginLockout:  appValues.Duration("rate_limit_login_lockout", 15*time.Minute),

		PublicRateLimit:   appValues.Int("public_rate_limit"),
		PublicCORSOrigins: splitList(appValues.String("public_cors_origins")),
		MetricsEnabled:    appValues.Bool("metrics_enabled"),

		StorageType:        appValues.String("storage_type"),
		StorageLocalPath:   appValues.String("storage_local_path"),
		StorageLocalURL:    appValues.String("storage_local_url"),
		StorageS3Region:    appValues.String("storage_s3_region"),
		StorageS3Bucket:    appValues.String("storage_s3_bucket"),
		StorageS3Prefix:    appValues.String("storage_s3_prefix"),
		StorageCFURL:       appValues.String("storage_cf_url"),
		StorageCFKeyPairID: appValues.String("storage_cf_keypair_id"),
		StorageCFKeyPath:   appValues.String("storage_cf_key_path"),

		AuditLogAuth:   appValues.String("audit_log_auth"),
		AuditLogAdmin:  appValues.String("audit_log_admin"),
		AuditRetention: appValues.Duration("audit_retention", 90*24*time.Hour),

		DBTimeoutShort:  appValues.Duration("db_timeout_short", 5*time.Second),
		DBTimeoutMedium: appValues.Duration("db_timeout_medium", 10*time.Second),
		DBTimeoutLong:   appValues.Duration("db_timeout_long", 30*time.Second),

		SeedAdminEmail:    appValues.String("seed_admin_email"),
		SeedAdminName:     appValues.String("seed_admin_name"),
		SeedAdminPassword: appValues.String("seed_admin_password"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig rejects configurations the app cannot run with.
//
// The MongoDB URI is checked by WAFFLE; field rules come from the validate
// tags on AppConfig. In production the session and CSRF keys must be real
// secrets.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if err := validation.Struct(appCfg); err != nil {
		logger.Error("invalid app configuration", zap.Error(err))
		return err
	}

	if coreCfg != nil && coreCfg.Env == "prod" {
		if len(appCfg.SessionKey) < 32 || strings.HasPrefix(appCfg.SessionKey, "dev-only") {
			return fmt.Errorf("session_key must be at least 32 random characters in production")
		}
		if len(appCfg.CSRFKey) < 32 || strings.HasPrefix(appCfg.CSRFKey, "dev-only") {
			return fmt.Errorf("csrf_key must be at least 32 random characters in production")
		}
	}

	return nil
}
