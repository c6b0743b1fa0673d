// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/hrdesk/internal/app/store/audit"
	"github.com/dalemusser/hrdesk/internal/app/store/completions"
	"github.com/dalemusser/hrdesk/internal/app/system/auditlog"
	"github.com/dalemusser/hrdesk/internal/app/system/auth"
	"github.com/dalemusser/hrdesk/internal/app/system/counts"
	"github.com/dalemusser/hrdesk/internal/app/system/events"
	"github.com/dalemusser/hrdesk/internal/app/system/hrapi"
	"github.com/dalemusser/hrdesk/internal/app/system/metrics"
	"github.com/dalemusser/hrdesk/internal/app/system/ratelimit"
	"github.com/dalemusser/hrdesk/internal/app/system/sidebar"
	"github.com/dalemusser/hrdesk/internal/app/system/timeouts"
	"github.com/dalemusser/hrdesk/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// limiterPruneInterval is how often idle login limiter buckets are dropped.
const limiterPruneInterval = 5 * time.Minute

// services is everything Startup builds that BuildHandler and Shutdown need.
type services struct {
	API         *hrapi.Client
	Sessions    *auth.SessionManager
	Bus         *events.Bus
	Registry    *counts.Registry
	Gatherer    prometheus.Gatherer
	Completions *completions.Store
	AuditStore  *audit.Store
	Audit       *auditlog.Logger
	Limiter     *ratelimit.LoginLimiter
	Sidebars    *sidebar.Set
	Dev         bool

	stoppers []interface{ Stop() }
}

var (
	svcMu sync.Mutex
	svc   *services
)

func current() (*services, error) {
	svcMu.Lock()
	defer svcMu.Unlock()
	if svc == nil {
		return nil, errors.New("bootstrap: Startup has not run")
	}
	return svc, nil
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It wires
// the upstream client, the count registry and its background workers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts configured from environment", zap.Int("overrides", n))
	}

	s, err := newServices(appCfg, deps, coreCfg.Env == "prod", logger)
	if err != nil {
		return err
	}
	s.start(appCfg, logger)

	svcMu.Lock()
	svc = s
	svcMu.Unlock()
	return nil
}

// newServices builds the long-lived collaborators without starting any
// goroutines.
func newServices(appCfg AppConfig, deps DBDeps, secure bool, logger *zap.Logger) (*services, error) {
	api, err := hrapi.New(hrapi.Config{
		BaseURL:   appCfg.APIBaseURL,
		Timeout:   appCfg.APITimeout,
		RateLimit: appCfg.APIRateLimit,
		Burst:     appCfg.APIRateBurst,
	}, logger)
	if err != nil {
		logger.Error("hr api client init failed", zap.Error(err))
		return nil, err
	}

	// Secure cookies are enabled in production mode.
	sm, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionBlockKey, appCfg.SessionName,
		appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store := completions.New(deps.MongoDatabase)
	auditStore := audit.New(deps.MongoDatabase)
	auditLog := auditlog.New(auditStore, logger, auditlog.Config{Auth: appCfg.AuditLogAuth})

	bus := events.NewBus(logger)
	registry := counts.NewRegistry(counts.RegistryConfig{
		Client:   api,
		Bus:      bus,
		Evidence: store,
		Intervals: counts.Intervals{
			Admin: appCfg.AdminRefreshInterval,
			HR:    appCfg.HRRefreshInterval,
			Staff: appCfg.StaffRefreshInterval,
		},
		Metrics: m,
	}, logger)

	// The aggregator is already gone when this runs; the session itself is
	// torn down on the user's next request.
	registry.OnUnauthorized(func(userID string) {
		logger.Info("upstream rejected token during count refresh", zap.String("user_id", userID))
	})

	sm.OnExpire(func(ctx context.Context, u auth.SessionUser) {
		registry.Evict(u.ID)
		auditLog.SessionExpired(ctx, nil, u.ID, "upstream_401")
	})

	return &services{
		API:         api,
		Sessions:    sm,
		Bus:         bus,
		Registry:    registry,
		Gatherer:    reg,
		Completions: store,
		AuditStore:  auditStore,
		Audit:       auditLog,
		Limiter:     ratelimit.NewLoginLimiter(appCfg.LoginRateLimit),
		Sidebars:    sidebar.NewSet(),
		Dev:         appCfg.Dev,
	}, nil
}

// start launches the background workers.
func (s *services) start(appCfg AppConfig, logger *zap.Logger) {
	poller := workers.NewCountPoller(s.Registry, logger, appCfg.CountPollInterval, appCfg.AggregatorIdleTTL, timeouts.Refresh())
	poller.Start()
	s.stoppers = append(s.stoppers, poller)

	lp := workers.NewLimiterPrune(s.Limiter, logger, limiterPruneInterval)
	lp.Start()
	s.stoppers = append(s.stoppers, lp)

	if appCfg.MarkerTTL > 0 {
		mp := workers.NewMarkerPrune(s.Completions, logger, appCfg.MarkerPruneInterval, appCfg.MarkerTTL)
		mp.Start()
		s.stoppers = append(s.stoppers, mp)
	}

	logger.Info("background workers started", zap.Int("count", len(s.stoppers)))
}

// stop halts the workers and releases every aggregator.
func (s *services) stop() {
	for i := len(s.stoppers) - 1; i >= 0; i-- {
		s.stoppers[i].Stop()
	}
	s.stoppers = nil
	s.Registry.Close()
}
