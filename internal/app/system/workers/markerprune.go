// internal/app/system/workers/markerprune.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MarkerPruner deletes completion markers and submission history older than
// a cutoff; *completions.Store satisfies it.
type MarkerPruner interface {
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// MarkerPrune is a background worker that expires local completion evidence
// (markers and submission history) after a configured TTL.
type MarkerPrune struct {
	store    MarkerPruner
	log      *zap.Logger
	interval time.Duration
	ttl      time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewMarkerPrune creates a new marker prune worker.
//
// Parameters:
//   - store: the completions store
//   - logger: zap logger for logging
//   - interval: how often to run (e.g., 1 hour)
//   - ttl: how old a marker or submission must be before it is removed
func NewMarkerPrune(store MarkerPruner, logger *zap.Logger, interval, ttl time.Duration) *MarkerPrune {
	return &MarkerPrune{
		store:    store,
		log:      logger,
		interval: interval,
		ttl:      ttl,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background prune loop.
func (w *MarkerPrune) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("marker prune worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("ttl", w.ttl))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *MarkerPrune) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("marker prune worker stopped")
}

func (w *MarkerPrune) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.prune()
		}
	}
}

func (w *MarkerPrune) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.store.PruneOlderThan(ctx, w.now().Add(-w.ttl))
	if err != nil {
		w.log.Error("failed to prune completion evidence", zap.Error(err))
		return
	}
	if count > 0 {
		w.log.Info("pruned completion evidence", zap.Int64("count", count))
	}
}
