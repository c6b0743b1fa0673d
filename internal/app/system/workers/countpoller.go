// internal/app/system/workers/countpoller.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CountSyncer is what CountPoller drives; *counts.Registry satisfies it.
type CountSyncer interface {
	SyncAll(ctx context.Context)
	EvictIdle(ttl time.Duration) int
	Len() int
}

// CountPoller is a background worker that keeps the live count aggregators
// fresh and drops the ones nobody has looked at for a while.
type CountPoller struct {
	registry CountSyncer
	log      *zap.Logger
	interval time.Duration
	idleTTL  time.Duration
	budget   time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCountPoller creates a new count poller.
//
// Parameters:
//   - registry: the aggregator registry
//   - logger: zap logger for logging
//   - interval: how often to tick (e.g., 15 seconds)
//   - idleTTL: how long an aggregator may go unused before it is evicted (0 keeps them)
//   - budget: the timeout for one SyncAll pass
func NewCountPoller(registry CountSyncer, logger *zap.Logger, interval, idleTTL, budget time.Duration) *CountPoller {
	return &CountPoller{
		registry: registry,
		log:      logger,
		interval: interval,
		idleTTL:  idleTTL,
		budget:   budget,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background polling loop.
func (w *CountPoller) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("count poller started",
		zap.Duration("interval", w.interval),
		zap.Duration("idle_ttl", w.idleTTL))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *CountPoller) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("count poller stopped")
}

func (w *CountPoller) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.tick()
		}
	}
}

func (w *CountPoller) tick() {
	if n := w.registry.EvictIdle(w.idleTTL); n > 0 {
		w.log.Info("evicted idle count aggregators", zap.Int("count", n))
	}
	if w.registry.Len() == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.budget)
	defer cancel()

	// Stop interrupts an in-flight pass.
	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	w.registry.SyncAll(ctx)
}
