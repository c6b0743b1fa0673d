// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - Request body size limits
//
// AppConfig carries everything specific to hrdesk: the MongoDB that holds
// completion evidence and the audit trail, the session cookie, the upstream
// HR API, and the badge-count refresh cadence.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey      string        // Secret key for signing session cookies (must be strong in production)
	SessionBlockKey string        // 16/24/32-byte key encrypting the cookie (it carries the API token)
	SessionName     string        // Cookie name for sessions (default: hrdesk-session)
	SessionDomain   string        // Cookie domain (blank means current host)
	SessionMaxAge   time.Duration // Cookie lifetime

	// Upstream HR API
	APIBaseURL   string        // e.g. https://hr.example.com
	APITimeout   time.Duration // per upstream request
	APIRateLimit float64       // requests per second across all users; 0 disables
	APIRateBurst int

	// Badge-count refresh cadence
	AdminRefreshInterval time.Duration // staleness window for admin counts
	HRRefreshInterval    time.Duration // staleness window for HR counts
	StaffRefreshInterval time.Duration // staleness window for staff counts
	CountPollInterval    time.Duration // background poller tick
	AggregatorIdleTTL    time.Duration // drop aggregators unused this long (0 keeps them)

	// Local completion markers
	MarkerTTL           time.Duration // delete markers older than this (0 keeps them forever)
	MarkerPruneInterval time.Duration

	// Login throttling and auditing
	LoginRateLimit int    // attempts per IP per minute
	AuditLogAuth   string // "all", "db", "log" or "off"

	// Dev exposes the per-user count debug endpoint.
	Dev bool
}
