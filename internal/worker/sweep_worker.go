package worker

import (
	"context"
	"sync"
	"time"

	"github.com/zotapay/deposit-gateway/internal/observability"
	"github.com/zotapay/deposit-gateway/internal/service"
	"go.uber.org/zap"
)

// SweepWorker periodically re-checks pending orders left past their
// expiration window and forces a status refresh for each.
type SweepWorker struct {
	svc       *service.ReconcileService
	interval  time.Duration
	batchSize int32
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewSweepWorker constructs a worker with a default hourly interval.
func NewSweepWorker(svc *service.ReconcileService) *SweepWorker {
	return &SweepWorker{
		svc:       svc,
		interval:  time.Hour,
		batchSize: 50,
		stopCh:    make(chan struct{}),
	}
}

// WithInterval updates the sweep interval.
func (w *SweepWorker) WithInterval(interval time.Duration) *SweepWorker {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// WithBatchSize updates the per-run order limit.
func (w *SweepWorker) WithBatchSize(size int32) *SweepWorker {
	if size > 0 {
		w.batchSize = size
	}
	return w
}

// Start blocks and runs the sweep at the configured interval.
func (w *SweepWorker) Start(ctx context.Context) {
	zap.L().Info("sweep worker starting", zap.Duration("interval", w.interval), zap.Int32("batch", w.batchSize))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately at startup.
	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("sweep worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("sweep worker stop signal received")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// Stop stops the running worker loop.
func (w *SweepWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *SweepWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

// RunOnce executes a single sweep immediately. Useful for testing or manual
// triggering.
func (w *SweepWorker) RunOnce(ctx context.Context) error {
	return w.svc.SweepExpired(ctx, w.batchSize)
}

func (w *SweepWorker) runOnce(ctx context.Context) {
	if err := w.svc.SweepExpired(ctx, w.batchSize); err != nil {
		observability.IncrementWorkerRun("sweep", "failed")
		zap.L().Error("sweep run failed", zap.Error(err))
		return
	}
	observability.IncrementWorkerRun("sweep", "success")
}
