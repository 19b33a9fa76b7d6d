package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/afnanahmadtariq/collab-pm/internal/realtime"
)

// MockPresenceSweeper is a mock implementation of PresenceSweeper
type MockPresenceSweeper struct {
	mock.Mock
}

func (m *MockPresenceSweeper) SweepOffline(ctx context.Context, before time.Time) (int, error) {
	args := m.Called(ctx, before)
	return args.Int(0), args.Error(1)
}

// MockCounter is a mock implementation of Counter
type MockCounter struct {
	mock.Mock
}

func (m *MockCounter) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockStatsRecorder is a mock implementation of StatsRecorder
type MockStatsRecorder struct {
	mock.Mock
}

func (m *MockStatsRecorder) SetBoardsTotal(count int64) { m.Called(count) }
func (m *MockStatsRecorder) SetTasksTotal(count int64)  { m.Called(count) }
func (m *MockStatsRecorder) SetWSConnections(count int) { m.Called(count) }
func (m *MockStatsRecorder) SetWSRooms(count int)       { m.Called(count) }

type fixedStats struct{ conns, rooms int }

func (s fixedStats) Stats() (int, int) { return s.conns, s.rooms }

func TestPresenceSweepJob_UsesRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sweeper := new(MockPresenceSweeper)
	sweeper.On("SweepOffline", mock.Anything, now.Add(-6*time.Hour)).Return(3, nil).Once()

	job := NewPresenceSweepJob(sweeper, 6*time.Hour, zap.NewNop())
	job.now = func() time.Time { return now }
	job.Run()

	sweeper.AssertExpectations(t)
}

func TestPresenceSweepJob_LogsFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	sweeper := new(MockPresenceSweeper)
	sweeper.On("SweepOffline", mock.Anything, mock.Anything).Return(0, errors.New("redis down"))

	NewPresenceSweepJob(sweeper, 0, zap.New(core)).Run()

	assert.Equal(t, 1, logs.FilterMessage("Presence sweep failed").Len())
}

func TestPresenceSweepJob_MemoryStore(t *testing.T) {
	store := realtime.NewMemoryPresenceStore()
	ctx := context.Background()
	now := time.Now()
	orgID := uuid.New()

	require.NoError(t, store.Set(ctx, orgID, realtime.Presence{UserID: uuid.New(), Status: realtime.StatusOffline, LastSeen: now.Add(-48 * time.Hour)}))
	require.NoError(t, store.Set(ctx, orgID, realtime.Presence{UserID: uuid.New(), Status: realtime.StatusOnline, LastSeen: now.Add(-48 * time.Hour)}))
	require.NoError(t, store.Set(ctx, orgID, realtime.Presence{UserID: uuid.New(), Status: realtime.StatusOffline, LastSeen: now}))

	NewPresenceSweepJob(store, 24*time.Hour, zap.NewNop()).Run()

	left, err := store.List(ctx, orgID)
	require.NoError(t, err)
	assert.Len(t, left, 2)
}

func TestBoardStatsJob_Run(t *testing.T) {
	boards := new(MockCounter)
	tasks := new(MockCounter)
	recorder := new(MockStatsRecorder)

	boards.On("Count", mock.Anything).Return(int64(4), nil)
	tasks.On("Count", mock.Anything).Return(int64(0), errors.New("timeout"))
	recorder.On("SetBoardsTotal", int64(4)).Once()
	recorder.On("SetWSConnections", 7).Once()
	recorder.On("SetWSRooms", 3).Once()

	NewBoardStatsJob(boards, tasks, fixedStats{conns: 7, rooms: 3}, recorder, zap.NewNop()).Run()

	recorder.AssertExpectations(t)
	recorder.AssertNotCalled(t, "SetTasksTotal", mock.Anything)
}

type countingJob struct{ runs atomic.Int32 }

func (j *countingJob) Run() { j.runs.Add(1) }

func TestScheduler(t *testing.T) {
	s := NewScheduler(zap.NewNop())

	require.NoError(t, s.Add("disabled", "", &countingJob{}))
	assert.Error(t, s.Add("broken", "not a spec", &countingJob{}))

	job := &countingJob{}
	require.NoError(t, s.Add("fast", "@every 10ms", job))
	s.Start()
	assert.Eventually(t, func() bool { return job.runs.Load() > 0 }, 3*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
