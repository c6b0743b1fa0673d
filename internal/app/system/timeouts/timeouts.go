// Package timeouts provides centralized timeout values for handler operations.
//
// Handlers wrap their I/O in context.WithTimeout using these values so the
// budgets are adjusted in one place. Configure is called once at startup;
// until then the defaults apply.
//
// Categories:
//   - Ping: health checks (MongoDB ping, upstream reachability)
//   - Store: single MongoDB reads and writes (markers, history, audit)
//   - Upstream: one call to the HR API from a page action
//   - Refresh: a full count refresh, which fans out to several upstream calls
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing     = 2 * time.Second
	DefaultStore    = 5 * time.Second
	DefaultUpstream = 10 * time.Second
	DefaultRefresh  = 20 * time.Second
)

var mu sync.RWMutex

var (
	ping     = DefaultPing
	store    = DefaultStore
	upstream = DefaultUpstream
	refresh  = DefaultRefresh
)

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Store returns the timeout for a single MongoDB operation.
func Store() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return store
}

// Upstream returns the timeout for one HR API call made on behalf of a page.
func Upstream() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return upstream
}

// Refresh returns the timeout for a full count refresh.
func Refresh() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return refresh
}

// Config holds timeout configuration values.
// Zero values are ignored (defaults are kept).
type Config struct {
	Ping     time.Duration
	Store    time.Duration
	Upstream time.Duration
	Refresh  time.Duration
}

// Configure sets custom timeout values. Zero values in the config are ignored.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Store > 0 {
		store = cfg.Store
	}
	if cfg.Upstream > 0 {
		upstream = cfg.Upstream
	}
	if cfg.Refresh > 0 {
		refresh = cfg.Refresh
	}
}

// Reset restores all timeouts to their default values.
// Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	store = DefaultStore
	upstream = DefaultUpstream
	refresh = DefaultRefresh
}

// ConfigureFromEnv reads HRDESK_TIMEOUT_PING, HRDESK_TIMEOUT_STORE,
// HRDESK_TIMEOUT_UPSTREAM and HRDESK_TIMEOUT_REFRESH (Go durations).
// Unset or invalid values are skipped. Returns how many were applied.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()
	configured := 0
	for _, e := range []struct {
		name string
		dst  *time.Duration
	}{
		{"HRDESK_TIMEOUT_PING", &ping},
		{"HRDESK_TIMEOUT_STORE", &store},
		{"HRDESK_TIMEOUT_UPSTREAM", &upstream},
		{"HRDESK_TIMEOUT_REFRESH", &refresh},
	} {
		v := os.Getenv(e.name)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*e.dst = d
			configured++
		}
	}
	return configured
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{
		Ping:     ping,
		Store:    store,
		Upstream: upstream,
		Refresh:  refresh,
	}
}

// WithTimeout creates a context with timeout and returns a cancel function that
// logs a warning if the context ended because the deadline passed.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Refresh(), h.Log, "count refresh")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
