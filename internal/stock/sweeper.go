package stock

import (
	"context"
	"time"

	"passprint-service/internal/util"

	"go.uber.org/zap"
)

// Sweeper periodically re-evaluates every active product's alert state, so
// stock mutated outside UpdateStock still raises alerts. Runs until its
// context is cancelled; a failed tick is logged and retried on the next one.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a stock sweeper
func NewSweeper(manager *Manager, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{
		manager:  manager,
		interval: interval,
		logger:   util.GetLogger(),
	}
}

// Start runs the sweep loop until ctx is cancelled
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting stock sweeper", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stock sweeper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	start := time.Now()
	util.StockSweepsTotal.Inc()

	if err := s.manager.SweepAlerts(ctx); err != nil {
		util.StockSweepFailuresTotal.Inc()
		s.logger.Error("Stock sweep failed", zap.Error(err))
	}

	util.StockSweepDuration.Observe(time.Since(start).Seconds())
}
