// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/imaggar-technologies/brintelli/internal/app/system/auditlog"
	"github.com/imaggar-technologies/brintelli/internal/app/system/phone"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// minProdSecretLen is the shortest JWT secret accepted when env is prod.
const minProdSecretLen = 32

// appConfigKeys defines the configuration keys for Brintelli.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: BRINTELLI_MONGO_URI, BRINTELLI_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "brintelli", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "redis_url", Default: "redis://localhost:6379/0", Desc: "Redis URL for refresh tokens"},

	{Name: "jwt_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Access token signing key (must be strong in production)"},
	{Name: "access_token_ttl", Default: "15m", Desc: "Access token lifetime (e.g., 15m, 1h)"},
	{Name: "refresh_token_ttl", Default: "720h", Desc: "Refresh token lifetime (e.g., 720h)"},

	{Name: "cors_allowed_origins", Default: "http://localhost:5173", Desc: "Comma-separated origins allowed by CORS"},

	{Name: "phone_default_region", Default: "IN", Desc: "Region for lead phone numbers without a country code"},
	{Name: "login_rate_per_minute", Default: 20, Desc: "Login attempts per minute per client IP"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_pipeline", Default: "all", Desc: "Pipeline event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "stage_snapshot_schedule", Default: "*/5 * * * *", Desc: "Cron spec for the per-stage lead gauge"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of the bootstrap admin (created on startup if missing)"},
	{Name: "admin_password", Default: "", Desc: "Password for the bootstrap admin"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// BRINTELLI_* environment variables and command-line flags, merged with
// precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "BRINTELLI", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		RedisURL: appValues.String("redis_url"),

		JWTSecret:       appValues.String("jwt_secret"),
		AccessTokenTTL:  appValues.Duration("access_token_ttl", 15*time.Minute),
		RefreshTokenTTL: appValues.Duration("refresh_token_ttl", 30*24*time.Hour),

		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),

		PhoneDefaultRegion: strings.ToUpper(strings.TrimSpace(appValues.String("phone_default_region"))),
		LoginRatePerMinute: appValues.Int("login_rate_per_minute"),

		AuditLogAuth:     appValues.String("audit_log_auth"),
		AuditLogPipeline: appValues.String("audit_log_pipeline"),

		StageSnapshotSchedule: appValues.String("stage_snapshot_schedule"),

		AdminEmail:    appValues.String("admin_email"),
		AdminPassword: appValues.String("admin_password"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Everything that would otherwise fail on first use (a bad Redis URL, an
// unknown phone region, a cron typo) is caught here.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if _, err := redis.ParseURL(appCfg.RedisURL); err != nil {
		return fmt.Errorf("invalid redis_url: %w", err)
	}

	if appCfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && len(appCfg.JWTSecret) < minProdSecretLen {
		return fmt.Errorf("jwt_secret must be at least %d characters in prod", minProdSecretLen)
	}
	if appCfg.AccessTokenTTL <= 0 || appCfg.RefreshTokenTTL <= 0 {
		return fmt.Errorf("access_token_ttl and refresh_token_ttl must be positive")
	}
	if appCfg.RefreshTokenTTL <= appCfg.AccessTokenTTL {
		return fmt.Errorf("refresh_token_ttl (%s) must be longer than access_token_ttl (%s)",
			appCfg.RefreshTokenTTL, appCfg.AccessTokenTTL)
	}

	if _, err := phone.New(appCfg.PhoneDefaultRegion); err != nil {
		return fmt.Errorf("phone_default_region: %w", err)
	}
	if appCfg.LoginRatePerMinute < 1 {
		return fmt.Errorf("login_rate_per_minute must be at least 1")
	}
	if _, err := cron.ParseStandard(appCfg.StageSnapshotSchedule); err != nil {
		return fmt.Errorf("stage_snapshot_schedule %q: %w", appCfg.StageSnapshotSchedule, err)
	}

	for _, dest := range []string{appCfg.AuditLogAuth, appCfg.AuditLogPipeline} {
		switch dest {
		case "", auditlog.All, auditlog.DB, auditlog.Log, auditlog.Off:
		default:
			return fmt.Errorf("audit log destination %q must be one of all, db, log, off", dest)
		}
	}

	if (appCfg.AdminEmail == "") != (appCfg.AdminPassword == "") {
		logger.Warn("admin_email and admin_password must be set together; skipping admin bootstrap")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
