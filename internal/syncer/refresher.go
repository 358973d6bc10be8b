package syncer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/cityhall/internal/content"
)

// Runner performs one full sync.
type Runner interface {
	Sync(ctx context.Context) (*content.Snapshot, error)
}

// Refresher re-runs syncs on a fixed interval.
type Refresher struct {
	runner   Runner
	interval time.Duration
	logger   *zap.Logger
}

// NewRefresher creates a Refresher. A non-positive interval disables it.
func NewRefresher(runner Runner, interval time.Duration, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{runner: runner, interval: interval, logger: logger.Named("refresher")}
}

// Run blocks until ctx is done. A failed refresh is logged and the
// previously published snapshot stays in place.
func (r *Refresher) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Info("periodic sync disabled")
		<-ctx.Done()
		return
	}
	r.logger.Info("periodic sync scheduled", zap.Duration("interval", r.interval))
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.runner.Sync(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				r.logger.Warn("periodic sync failed, keeping previous snapshot", zap.Error(err))
			}
		}
	}
}
