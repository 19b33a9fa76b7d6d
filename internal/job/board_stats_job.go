package job

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Counter counts rows of one table
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// HubStats reports live connection and room counts
type HubStats interface {
	Stats() (conns, rooms int)
}

// StatsRecorder receives the gauge values
type StatsRecorder interface {
	SetBoardsTotal(count int64)
	SetTasksTotal(count int64)
	SetWSConnections(count int)
	SetWSRooms(count int)
}

// BoardStatsJob refreshes the board/task totals and live socket gauges
type BoardStatsJob struct {
	boards   Counter
	tasks    Counter
	hub      HubStats
	recorder StatsRecorder
	timeout  time.Duration
	logger   *zap.Logger
}

// NewBoardStatsJob creates a new BoardStatsJob. hub may be nil.
func NewBoardStatsJob(boards, tasks Counter, hub HubStats, recorder StatsRecorder, logger *zap.Logger) *BoardStatsJob {
	return &BoardStatsJob{
		boards:   boards,
		tasks:    tasks,
		hub:      hub,
		recorder: recorder,
		timeout:  10 * time.Second,
		logger:   logger,
	}
}

// Run executes one refresh. A failed count leaves that gauge untouched.
func (j *BoardStatsJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if n, err := j.boards.Count(ctx); err != nil {
		j.logger.Warn("Failed to count boards", zap.Error(err))
	} else {
		j.recorder.SetBoardsTotal(n)
	}

	if n, err := j.tasks.Count(ctx); err != nil {
		j.logger.Warn("Failed to count tasks", zap.Error(err))
	} else {
		j.recorder.SetTasksTotal(n)
	}

	if j.hub != nil {
		conns, rooms := j.hub.Stats()
		j.recorder.SetWSConnections(conns)
		j.recorder.SetWSRooms(rooms)
	}
}
