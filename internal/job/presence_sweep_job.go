package job

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/afnanahmadtariq/collab-pm/internal/realtime"
)

// PresenceSweeper is the part of the presence store the sweep needs
type PresenceSweeper interface {
	SweepOffline(ctx context.Context, before time.Time) (int, error)
}

// PresenceSweepJob drops offline presence records older than the retention window
type PresenceSweepJob struct {
	store     PresenceSweeper
	retention time.Duration
	timeout   time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

var _ PresenceSweeper = (realtime.PresenceStore)(nil)

// NewPresenceSweepJob creates a new PresenceSweepJob. retention <= 0 defaults to 24h.
func NewPresenceSweepJob(store PresenceSweeper, retention time.Duration, logger *zap.Logger) *PresenceSweepJob {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &PresenceSweepJob{
		store:     store,
		retention: retention,
		timeout:   30 * time.Second,
		now:       time.Now,
		logger:    logger,
	}
}

// Run executes one sweep
func (j *PresenceSweepJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	cutoff := j.now().Add(-j.retention)
	removed, err := j.store.SweepOffline(ctx, cutoff)
	if err != nil {
		j.logger.Error("Presence sweep failed",
			zap.Time("cutoff", cutoff),
			zap.Error(err))
		return
	}
	if removed > 0 {
		j.logger.Info("Presence sweep completed",
			zap.Int("removed", removed),
			zap.Time("cutoff", cutoff))
	}
}
