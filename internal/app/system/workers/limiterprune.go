// internal/app/system/workers/limiterprune.go
package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pruner drops idle entries; *ratelimit.LoginLimiter satisfies it.
type Pruner interface {
	Prune() int
}

// LimiterPrune periodically drops idle rate limiter buckets so the limiter's
// memory stays bounded.
type LimiterPrune struct {
	target   Pruner
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewLimiterPrune creates a new limiter prune worker.
func NewLimiterPrune(target Pruner, logger *zap.Logger, interval time.Duration) *LimiterPrune {
	return &LimiterPrune{
		target:   target,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *LimiterPrune) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop signals the worker to stop and waits for it to finish.
func (w *LimiterPrune) Stop() {
	close(w.stopCh)
	w.wg.Wait()
}

func (w *LimiterPrune) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			if n := w.target.Prune(); n > 0 {
				w.log.Debug("pruned rate limiter buckets", zap.Int("count", n))
			}
		}
	}
}
