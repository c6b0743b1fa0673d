// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for hrdesk.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, api_base_url, etc.
//   - Environment variables: HRDESK_MONGO_URI, HRDESK_API_BASE_URL, etc.
//   - Command-line flags: --mongo_uri, --api_base_url, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "hrdesk", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_block_key", Default: "", Desc: "Session encryption key, 16/24/32 bytes (blank generates one per process)"},
	{Name: "session_name", Default: "hrdesk-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie lifetime"},

	// Upstream HR API
	{Name: "api_base_url", Default: "http://localhost:8000", Desc: "Base URL of the HR REST API"},
	{Name: "api_timeout", Default: "10s", Desc: "Timeout for one upstream request"},
	{Name: "api_rate_limit", Default: 50, Desc: "Upstream requests per second across all users (0 disables)"},
	{Name: "api_rate_burst", Default: 20, Desc: "Upstream request burst"},

	// Badge counts
	{Name: "admin_refresh_interval", Default: "30s", Desc: "How long admin counts stay fresh"},
	{Name: "hr_refresh_interval", Default: "30s", Desc: "How long HR counts stay fresh"},
	{Name: "staff_refresh_interval", Default: "5m", Desc: "How long staff counts stay fresh"},
	{Name: "count_poll_interval", Default: "15s", Desc: "Background count poller tick"},
	{Name: "aggregator_idle_ttl", Default: "30m", Desc: "Drop a user's counts after this long unused (0 keeps them)"},

	// Completion markers
	{Name: "marker_ttl", Default: "0s", Desc: "Delete local completion markers older than this (0 keeps them)"},
	{Name: "marker_prune_interval", Default: "1h", Desc: "How often expired markers are pruned"},

	// Login and audit
	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts per IP per minute"},
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, HRDESK_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "HRDESK", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:      appValues.String("session_key"),
		SessionBlockKey: appValues.String("session_block_key"),
		SessionName:     appValues.String("session_name"),
		SessionDomain:   appValues.String("session_domain"),
		SessionMaxAge:   appValues.Duration("session_max_age", 24*time.Hour),

		APIBaseURL:   appValues.String("api_base_url"),
		APITimeout:   appValues.Duration("api_timeout", 10*time.Second),
		APIRateLimit: float64(appValues.Int("api_rate_limit")),
		APIRateBurst: appValues.Int("api_rate_burst"),

		AdminRefreshInterval: appValues.Duration("admin_refresh_interval", 30*time.Second),
		HRRefreshInterval:    appValues.Duration("hr_refresh_interval", 30*time.Second),
		StaffRefreshInterval: appValues.Duration("staff_refresh_interval", 5*time.Minute),
		CountPollInterval:    appValues.Duration("count_poll_interval", 15*time.Second),
		AggregatorIdleTTL:    appValues.Duration("aggregator_idle_ttl", 30*time.Minute),

		MarkerTTL:           appValues.Duration("marker_ttl", 0),
		MarkerPruneInterval: appValues.Duration("marker_prune_interval", time.Hour),

		LoginRateLimit: appValues.Int("login_rate_limit"),
		AuditLogAuth:   appValues.String("audit_log_auth"),
	}
	appCfg.Dev = coreCfg.Env == "dev"

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// hrdesk checks the MongoDB URI, the API base URL and the refresh cadence
// before anything connects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if err := validateAppConfig(appCfg); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}
	return nil
}

// validateAppConfig holds the checks that do not depend on WAFFLE.
func validateAppConfig(appCfg AppConfig) error {
	u, err := url.Parse(appCfg.APIBaseURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_base_url must be an absolute http(s) URL, got %q", appCfg.APIBaseURL)
	}

	positive := []struct {
		name string
		d    time.Duration
	}{
		{"api_timeout", appCfg.APITimeout},
		{"admin_refresh_interval", appCfg.AdminRefreshInterval},
		{"hr_refresh_interval", appCfg.HRRefreshInterval},
		{"staff_refresh_interval", appCfg.StaffRefreshInterval},
		{"count_poll_interval", appCfg.CountPollInterval},
	}
	for _, p := range positive {
		if p.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", p.name, p.d)
		}
	}
	if appCfg.AggregatorIdleTTL < 0 || appCfg.MarkerTTL < 0 {
		return errors.New("aggregator_idle_ttl and marker_ttl must not be negative")
	}
	if appCfg.MarkerTTL > 0 && appCfg.MarkerPruneInterval <= 0 {
		return errors.New("marker_prune_interval must be positive when marker_ttl is set")
	}

	switch appCfg.AuditLogAuth {
	case "", "all", "db", "log", "off":
	default:
		return fmt.Errorf("audit_log_auth must be one of all, db, log, off; got %q", appCfg.AuditLogAuth)
	}
	return nil
}
