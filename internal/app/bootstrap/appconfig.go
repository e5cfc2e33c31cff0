// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, log level, body limits); everything
// the lead service itself needs lives here and is passed to every lifecycle
// hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Redis holds refresh tokens.
	RedisURL string // e.g., redis://localhost:6379/0

	// Bearer-token authentication
	JWTSecret       string        // HS256 signing key for access tokens
	AccessTokenTTL  time.Duration // lifetime of an access token
	RefreshTokenTTL time.Duration // lifetime of an unused refresh token

	// Browser front-end origins allowed by CORS
	CORSAllowedOrigins []string

	// Region used when a lead phone number has no country code (ISO 3166, e.g. "IN")
	PhoneDefaultRegion string

	// Login attempts allowed per minute per client IP
	LoginRatePerMinute int

	// Audit logging destinations: "all", "db", "log" or "off"
	AuditLogPipeline string
	AuditLogAuth     string

	// Cron spec for the leads_by_stage gauge refresh
	StageSnapshotSchedule string

	// Bootstrap admin, created on startup when no user has this email
	AdminEmail    string
	AdminPassword string
}
