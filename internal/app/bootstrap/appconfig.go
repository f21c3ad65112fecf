// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (DOCUVERSE_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers ports, TLS, logging and CORS; everything Docuverse needs on top of
// that lives here.
//
// The validate tags are checked by ValidateConfig before anything connects.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string `validate:"required"`
	MongoDatabase    string `validate:"required"`
	MongoMaxPoolSize uint64 `validate:"gte=1"`
	MongoMinPoolSize uint64 `validate:"ltefield=MongoMaxPoolSize"`

	// Admin session cookie
	SessionKey    string        `validate:"required"`
	SessionName   string        `validate:"required"`
	SessionDomain string        // blank means current host
	SessionMaxAge time.Duration `validate:"gt=0"`

	// CSRFKey signs CSRF tokens for cookie-authenticated writes.
	CSRFKey string `validate:"required"`

	// APIKey lets publishing jobs act as an admin with a Bearer token.
	// Empty disables API key authentication.
	APIKey string

	// Login lockout after repeated failures
	RateLimitEnabled       bool
	RateLimitLoginAttempts int           `validate:"gte=1"`
	RateLimitLoginWindow   time.Duration `validate:"gt=0"`
	RateLimitLoginLockout  time.Duration `validate:"gt=0"`

	// Public endpoints (reader, search, page views, login)
	PublicRateLimit   int `validate:"gte=0"` // requests per minute per IP, 0 disables
	PublicCORSOrigins []string

	// MetricsEnabled mounts the Prometheus handler at /metrics.
	MetricsEnabled bool

	// File storage for uploaded app logos
	StorageType      string `validate:"oneof=local s3"`
	StorageLocalPath string `validate:"required_if=StorageType local"`
	StorageLocalURL  string `validate:"required_if=StorageType local"`

	// S3/CloudFront configuration (only used if StorageType is "s3")
	StorageS3Region    string `validate:"required_if=StorageType s3"`
	StorageS3Bucket    string `validate:"required_if=StorageType s3"`
	StorageS3Prefix    string
	StorageCFURL       string
	StorageCFKeyPairID string
	StorageCFKeyPath   string

	// Audit logging destinations: "all" (MongoDB + zap), "db", "log" or "off"
	AuditLogAuth   string        `validate:"oneof=all db log off"`
	AuditLogAdmin  string        `validate:"oneof=all db log off"`
	AuditRetention time.Duration `validate:"gte=0"` // 0 keeps events forever

	// Database operation deadlines
	DBTimeoutShort  time.Duration `validate:"gt=0"`
	DBTimeoutMedium time.Duration `validate:"gt=0"`
	DBTimeoutLong   time.Duration `validate:"gt=0"`

	// Super admin created or promoted on startup, for headless installs
	SeedAdminEmail    string `validate:"omitempty,email"`
	SeedAdminName     string
	SeedAdminPassword string `validate:"required_with=SeedAdminEmail"`
}
