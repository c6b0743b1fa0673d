package counts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/hrdesk/internal/app/system/events"
	"github.com/dalemusser/hrdesk/internal/app/system/hrapi"
	"github.com/dalemusser/hrdesk/internal/app/system/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownRole is returned for a role with no count profile.
var ErrUnknownRole = errors.New("counts: unknown role")

// syncAllLimit caps concurrent aggregator refreshes in SyncAll.
const syncAllLimit = 8

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	Client    *hrapi.Client
	Bus       *events.Bus
	Evidence  EvidenceLoader
	Intervals Intervals
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

// Registry holds one Aggregator per signed-in user.
type Registry struct {
	cfg RegistryConfig
	log *zap.Logger

	mu   sync.Mutex
	aggs map[string]*Aggregator

	draining sync.WaitGroup // evicted aggregators still finishing async refreshes

	hookMu   sync.RWMutex
	onUnauth []func(userID string)
}

// NewRegistry builds an empty Registry.
func NewRegistry(cfg RegistryConfig, logger *zap.Logger) *Registry {
	if cfg.Intervals == (Intervals{}) {
		cfg.Intervals = DefaultIntervals()
	}
	return &Registry{
		cfg:  cfg,
		log:  logger,
		aggs: make(map[string]*Aggregator),
	}
}

// OnUnauthorized registers a hook that runs when a live aggregator's fetch
// gets a 401. The aggregator has already been evicted when the hook runs.
func (r *Registry) OnUnauthorized(h func(userID string)) {
	r.hookMu.Lock()
	defer r.hookMu.Unlock()
	r.onUnauth = append(r.onUnauth, h)
}

// For returns userID's aggregator, creating it on first use. The token is
// refreshed on every call; a role change replaces the aggregator.
func (r *Registry) For(userID, role, token string) (*Aggregator, error) {
	if userID == "" {
		return nil, fmt.Errorf("counts: empty user id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.aggs[userID]; ok {
		if a.Role() == role {
			a.SetToken(token)
			a.Touch()
			return a, nil
		}
		r.log.Info("role changed; replacing count aggregator",
			zap.String("user_id", userID),
			zap.String("from", a.Role()),
			zap.String("to", role))
		r.dropLocked(userID, a)
	}

	p, ok := ProfileFor(role, r.cfg.Intervals, r.cfg.Evidence)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	var a *Aggregator
	a = NewAggregator(userID, token, p, Options{
		Client:         r.cfg.Client,
		Log:            r.log,
		Metrics:        r.cfg.Metrics,
		OnUnauthorized: func(string) { r.unauthorized(a) },
		Now:            r.cfg.Now,
	})
	if r.cfg.Bus != nil {
		a.Attach(r.cfg.Bus)
	}
	r.aggs[userID] = a
	r.cfg.Metrics.SetAggregators(len(r.aggs))
	return a, nil
}

// Lookup returns an existing aggregator without creating one.
func (r *Registry) Lookup(userID string) (*Aggregator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.aggs[userID]
	return a, ok
}

// Evict drops userID's aggregator. It does not wait for in-flight fetches,
// so it is safe to call from inside one.
func (r *Registry) Evict(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.aggs[userID]; ok {
		r.dropLocked(userID, a)
	}
}

// EvictIdle drops aggregators unused for longer than ttl and returns how many
// were dropped.
func (r *Registry) EvictIdle(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	now := time.Now
	if r.cfg.Now != nil {
		now = r.cfg.Now
	}
	cutoff := now().Add(-ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, a := range r.aggs {
		if a.LastUsed().Before(cutoff) {
			r.dropLocked(id, a)
			n++
		}
	}
	return n
}

func (r *Registry) dropLocked(userID string, a *Aggregator) {
	a.Close()
	delete(r.aggs, userID)
	r.cfg.Metrics.SetAggregators(len(r.aggs))

	r.draining.Add(1)
	go func() {
		defer r.draining.Done()
		a.Wait()
	}()
}

// Len returns the number of live aggregators.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.aggs)
}

// SyncAll runs Sync on every live aggregator. Aggregators inside their
// staleness window return immediately. Individual failures are logged.
func (r *Registry) SyncAll(ctx context.Context) {
	r.mu.Lock()
	list := make([]*Aggregator, 0, len(r.aggs))
	for _, a := range r.aggs {
		list = append(list, a)
	}
	r.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(syncAllLimit)
	for _, a := range list {
		g.Go(func() error {
			if _, err := a.Sync(gctx); err != nil && !errors.Is(err, ErrSessionExpired) {
				r.log.Debug("background count sync failed",
					zap.String("user_id", a.UserID()), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Close drops every aggregator and waits for their async refreshes.
func (r *Registry) Close() {
	r.mu.Lock()
	for id, a := range r.aggs {
		r.dropLocked(id, a)
	}
	r.mu.Unlock()

	r.draining.Wait()
}

// unauthorized evicts from and runs the hooks, unless from has already been
// replaced, in which case its late 401 says nothing about the live aggregator.
func (r *Registry) unauthorized(from *Aggregator) {
	userID := from.UserID()

	r.mu.Lock()
	cur, ok := r.aggs[userID]
	if !ok || cur != from {
		r.mu.Unlock()
		r.log.Debug("ignoring 401 from a replaced count aggregator", zap.String("user_id", userID))
		return
	}
	r.dropLocked(userID, cur)
	r.mu.Unlock()

	r.hookMu.RLock()
	hooks := append([]func(string){}, r.onUnauth...)
	r.hookMu.RUnlock()
	for _, h := range hooks {
		h(userID)
	}
}
