package chat

import (
	"context"
	"time"

	"passprint-service/internal/models"
	"passprint-service/internal/util"

	"go.uber.org/zap"
)

// Sweep runs one maintenance pass: active sessions idle beyond the inactivity
// threshold are auto-closed with a system notice, and sessions that have been
// closed longer than the retention window are deleted from the registry.
func (r *Registry) Sweep(ctx context.Context, inactivity, retention time.Duration) {
	r.mu.Lock()
	now := r.now()

	var autoClosed []string
	var purged int
	for sessionID, session := range r.sessions {
		switch session.Status {
		case models.SessionStatusActive:
			if now.Sub(session.LastActivity) > inactivity {
				r.closeLocked(session, "Conversation closed automatically due to inactivity.")
				autoClosed = append(autoClosed, sessionID)
			}
		case models.SessionStatusClosed:
			if now.Sub(session.LastActivity) > retention {
				delete(r.sessions, sessionID)
				purged++
			}
		}
	}
	r.mu.Unlock()

	for _, sessionID := range autoClosed {
		r.sessionClosed(ctx, sessionID, "inactivity")
	}
	if purged > 0 {
		util.ChatSessionsPurgedTotal.Add(float64(purged))
		r.logger.Info("Purged closed chat sessions", zap.Int("count", purged))
	}
}

// Sweeper periodically runs Registry.Sweep until its context is cancelled
type Sweeper struct {
	registry   *Registry
	interval   time.Duration
	inactivity time.Duration
	retention  time.Duration
	logger     *zap.Logger
}

// NewSweeper creates a chat sweeper
func NewSweeper(registry *Registry, interval, inactivity, retention time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if inactivity <= 0 {
		inactivity = 2 * time.Hour
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &Sweeper{
		registry:   registry,
		interval:   interval,
		inactivity: inactivity,
		retention:  retention,
		logger:     util.GetLogger(),
	}
}

// Start runs the sweep loop until ctx is cancelled
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting chat sweeper",
		zap.Duration("interval", s.interval),
		zap.Duration("inactivity", s.inactivity),
		zap.Duration("retention", s.retention))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Chat sweeper stopped")
			return
		case <-ticker.C:
			util.ChatSweepsTotal.Inc()
			s.registry.Sweep(ctx, s.inactivity, s.retention)
		}
	}
}
