package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper is the session registry operation run on every tick.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// SessionSweeper periodically evicts session stores that have been idle too long
type SessionSweeper struct {
	sessions Sweeper
	logger   *slog.Logger
	interval time.Duration
	idle     time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSessionSweeper creates a new session sweeper
func NewSessionSweeper(sessions Sweeper, logger *slog.Logger, interval, idle time.Duration) *SessionSweeper {
	return &SessionSweeper{
		sessions: sessions,
		logger:   logger,
		interval: interval,
		idle:     idle,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop until ctx is cancelled or Stop is called.
func (ss *SessionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(ss.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ss.runSweep()
		case <-ss.stopCh:
			ss.logger.Info("session sweeper stopped")
			return
		case <-ctx.Done():
			ss.logger.Info("session sweeper context cancelled")
			return
		}
	}
}

// runSweep evicts idle sessions
func (ss *SessionSweeper) runSweep() {
	removed := ss.sessions.Sweep(ss.idle)
	if removed > 0 {
		ss.logger.Info("idle sessions evicted",
			slog.Int("removed", removed),
			slog.Duration("idle", ss.idle))
		return
	}
	ss.logger.Debug("session sweep found nothing to evict")
}

// Stop gracefully stops the sweeper. It is safe to call more than once.
func (ss *SessionSweeper) Stop() {
	ss.stopOnce.Do(func() { close(ss.stopCh) })
}
