package board

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afnanahmadtariq/collab-pm/internal/dto"
)

// Hooks observe the machine. They run outside the state lock.
type Hooks struct {
	// Applied runs after a command changed local state, before it is persisted
	Applied func(cmd Command)
	// Settled runs once per dispatched command with its outcome
	Settled func(cmd Command, o Outcome)
	// Changed runs after remote merges, rollbacks and refetches
	Changed func(snapshot dto.BoardResponse)
}

// Config configures a Machine
type Config struct {
	Persister Persister
	Refetcher Refetcher
	Timeout   time.Duration
	Hooks     Hooks
	Logger    *zap.Logger
}

// Machine is the optimistic board: local state, the dispatch queue and hooks
type Machine struct {
	queue  *Queue
	hooks  Hooks
	logger *zap.Logger
}

// NewMachine mirrors board and persists through cfg.Persister
func NewMachine(board *dto.BoardResponse, cfg Config) *Machine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Machine{hooks: cfg.Hooks, logger: logger}
	m.queue = NewQueue(NewState(board), QueueConfig{
		Persister: cfg.Persister,
		Refetcher: cfg.Refetcher,
		Timeout:   cfg.Timeout,
		Logger:    logger,
		OnChange:  m.changed,
	})
	return m
}

// Dispatch applies cmd and returns a channel for its outcome
func (m *Machine) Dispatch(cmd Command) <-chan Outcome {
	done, applied := m.queue.dispatch(cmd)
	if !applied {
		o := <-done
		m.settled(cmd, o)
		out := make(chan Outcome, 1)
		out <- o
		return out
	}

	if m.hooks.Applied != nil {
		m.hooks.Applied(cmd)
	}
	if m.hooks.Settled == nil {
		return done
	}
	out := make(chan Outcome, 1)
	go func() {
		o := <-done
		m.settled(cmd, o)
		out <- o
	}()
	return out
}

// MoveTask moves a task to index of columnID
func (m *Machine) MoveTask(taskID, columnID uuid.UUID, index int) <-chan Outcome {
	return m.Dispatch(&MoveTaskCommand{TaskID: taskID, ColumnID: columnID, Index: index})
}

// Drop resolves a pointer release over overID (a task or a column) and moves the task there
func (m *Machine) Drop(activeTaskID, overID uuid.UUID) <-chan Outcome {
	var (
		target Location
		ok     bool
	)
	m.queue.WithState(func(s *State) {
		target, ok = s.ResolveDrop(activeTaskID, overID)
	})
	if !ok {
		out := make(chan Outcome, 1)
		out <- Outcome{Status: Skipped, Err: ErrNotApplied}
		return out
	}
	return m.MoveTask(activeTaskID, target.ColumnID, target.Index)
}

// CreateTask inserts t at index of t.ColumnID
func (m *Machine) CreateTask(t dto.TaskResponse, index int) <-chan Outcome {
	return m.Dispatch(&CreateTaskCommand{Task: t, Index: index})
}

// UpdateTask edits task content
func (m *Machine) UpdateTask(taskID uuid.UUID, req dto.UpdateTaskRequest) <-chan Outcome {
	return m.Dispatch(&UpdateTaskCommand{TaskID: taskID, Req: req})
}

// DeleteTask removes a task
func (m *Machine) DeleteTask(taskID uuid.UUID) <-chan Outcome {
	return m.Dispatch(&DeleteTaskCommand{TaskID: taskID})
}

// CreateColumn inserts a column at index. Task creates and moves into the new column
// wait for it to be confirmed; a move of a task with its own pending commands does not.
func (m *Machine) CreateColumn(c dto.ColumnResponse, index int) <-chan Outcome {
	return m.Dispatch(&CreateColumnCommand{Column: c, Index: index})
}

// UpdateColumn renames or recolors a column
func (m *Machine) UpdateColumn(columnID uuid.UUID, name, color *string) <-chan Outcome {
	return m.Dispatch(&UpdateColumnCommand{ColumnID: columnID, Name: name, Color: color})
}

// DeleteColumn removes a column with its tasks
func (m *Machine) DeleteColumn(columnID uuid.UUID) <-chan Outcome {
	return m.Dispatch(&DeleteColumnCommand{ColumnID: columnID})
}

// MoveColumn reorders a column
func (m *Machine) MoveColumn(columnID uuid.UUID, index int) <-chan Outcome {
	return m.Dispatch(&MoveColumnCommand{ColumnID: columnID, Index: index})
}

// ApplyRemoteMove merges task:moved from another connection
func (m *Machine) ApplyRemoteMove(taskID, columnID uuid.UUID, position int) bool {
	return m.remote(taskID, func(s *State) bool {
		return s.ApplyRemoteMove(taskID, columnID, position)
	})
}

// ApplyRemoteUpsert merges task:created and task:updated from another connection
func (m *Machine) ApplyRemoteUpsert(t dto.TaskResponse) bool {
	return m.remote(t.ID, func(s *State) bool {
		return s.ApplyRemoteUpsert(t)
	})
}

// ApplyRemoteDelete merges task:deleted from another connection
func (m *Machine) ApplyRemoteDelete(taskID uuid.UUID) bool {
	return m.remote(taskID, func(s *State) bool {
		return s.ApplyRemoteDelete(taskID)
	})
}

// Refresh replaces local state with a canonical board, voiding pending rollbacks
func (m *Machine) Refresh(board *dto.BoardResponse) {
	m.queue.mu.Lock()
	m.queue.replace(board)
	m.queue.mu.Unlock()
	m.changed()
}

// Snapshot returns a copy of the current board
func (m *Machine) Snapshot() dto.BoardResponse {
	var snap dto.BoardResponse
	m.queue.WithState(func(s *State) {
		snap = s.Snapshot()
	})
	return snap
}

// BoardID returns the mirrored board id
func (m *Machine) BoardID() uuid.UUID {
	var id uuid.UUID
	m.queue.WithState(func(s *State) {
		id = s.BoardID()
	})
	return id
}

// Pending reports how many entities have unconfirmed commands
func (m *Machine) Pending() int {
	return m.queue.Pending()
}

// Wait blocks until in-flight persists are finished
func (m *Machine) Wait(ctx context.Context) error {
	return m.queue.Wait(ctx)
}

// Close aborts in-flight persists
func (m *Machine) Close() {
	m.queue.Close()
}

func (m *Machine) remote(key uuid.UUID, fn func(s *State) bool) bool {
	changed := m.queue.Rebase(key, fn)
	if changed {
		m.changed()
	} else {
		m.logger.Debug("Remote event ignored", zap.String("entity_id", key.String()))
	}
	return changed
}

func (m *Machine) settled(cmd Command, o Outcome) {
	if m.hooks.Settled != nil {
		m.hooks.Settled(cmd, o)
	}
}

func (m *Machine) changed() {
	if m.hooks.Changed != nil {
		m.hooks.Changed(m.Snapshot())
	}
}
