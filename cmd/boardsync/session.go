package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afnanahmadtariq/collab-pm/internal/board"
	"github.com/afnanahmadtariq/collab-pm/internal/client"
	"github.com/afnanahmadtariq/collab-pm/internal/dto"
	"github.com/afnanahmadtariq/collab-pm/internal/realtime"
)

// socket is the part of client.SocketClient the session emits through
type socket interface {
	Emit(event string, data interface{}) error
	JoinTask(id uuid.UUID) error
}

// session keeps one board in sync: stdin instructions go through the optimistic
// machine, remote socket events are merged into it.
type session struct {
	api     client.BoardAPIClient
	socket  socket
	machine *board.Machine
	boardID uuid.UUID
	logger  *zap.Logger

	outMu  sync.Mutex
	out    io.Writer
	styles boardStyles

	// task rooms joined for comments; touched only by the stdin loop
	joinedTasks map[uuid.UUID]bool
	reports     sync.WaitGroup
}

func newSession(b *dto.BoardResponse, api client.BoardAPIClient, sock socket, timeout time.Duration, out io.Writer, logger *zap.Logger) *session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &session{
		api:         api,
		socket:      sock,
		boardID:     b.ID,
		logger:      logger,
		out:         out,
		styles:      newBoardStyles(out),
		joinedTasks: make(map[uuid.UUID]bool),
	}
	s.machine = board.NewMachine(b, board.Config{
		Persister: api,
		Refetcher: api,
		Timeout:   timeout,
		Logger:    logger,
		Hooks: board.Hooks{
			Settled: s.settled,
			Changed: func(dto.BoardResponse) {
				s.printf("* board changed (%d pending)\n", s.machine.Pending())
			},
		},
	})
	return s
}

// subscribe registers the remote event handlers
func (s *session) subscribe(on func(event string, h client.EventHandler)) {
	on(realtime.EventTaskMoved, s.onTaskMoved)
	on(realtime.EventTaskCreated, s.onTaskUpserted)
	on(realtime.EventTaskUpdated, s.onTaskUpserted)
	on(realtime.EventTaskDeleted, s.onTaskDeleted)
	on(realtime.EventPresenceUpdate, s.onInfo(realtime.EventPresenceUpdate))
	on(realtime.EventCommentCreated, s.onInfo(realtime.EventCommentCreated))
	on(realtime.EventTypingStarted, s.onInfo(realtime.EventTypingStarted))
	on(realtime.EventTypingStopped, s.onInfo(realtime.EventTypingStopped))
	on(realtime.EventError, s.onError)
}

func (s *session) onTaskMoved(data json.RawMessage) {
	var p realtime.TaskMovePayload
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Warn("Dropping malformed task:moved", zap.Error(err))
		return
	}
	if p.BoardID != s.boardID {
		return
	}
	if s.machine.ApplyRemoteMove(p.TaskID, p.ColumnID, p.Position) {
		s.printf("< %s moved to %s:%d\n", shortID(p.TaskID), shortID(p.ColumnID), p.Position)
	}
}

func (s *session) onTaskUpserted(data json.RawMessage) {
	var t dto.TaskResponse
	if err := json.Unmarshal(data, &t); err != nil || t.ID == uuid.Nil {
		s.logger.Warn("Dropping malformed task event", zap.Error(err))
		return
	}
	if s.machine.ApplyRemoteUpsert(t) {
		s.printf("< %s %q\n", shortID(t.ID), t.Title)
	}
}

func (s *session) onTaskDeleted(data json.RawMessage) {
	var id uuid.UUID
	if err := json.Unmarshal(data, &id); err != nil {
		s.logger.Warn("Dropping malformed task:deleted", zap.Error(err))
		return
	}
	if s.machine.ApplyRemoteDelete(id) {
		s.printf("< %s deleted\n", shortID(id))
	}
}

func (s *session) onInfo(event string) client.EventHandler {
	return func(data json.RawMessage) {
		s.printf("< %s %s\n", event, data)
	}
}

func (s *session) onError(data json.RawMessage) {
	var p realtime.ErrorPayload
	_ = json.Unmarshal(data, &p)
	s.printf("! server rejected %s: %s (%s)\n", p.Event, p.Message, p.Code)
}

// settled announces confirmed task mutations. Rolled back or refetched ones never
// reach the board room, so peers only see what the store accepted.
func (s *session) settled(cmd board.Command, o board.Outcome) {
	if o.Status != board.Confirmed {
		return
	}
	s.publish(cmd)
}

// publish tells the board room about a persisted task mutation
func (s *session) publish(cmd board.Command) {
	var (
		event string
		data  interface{}
	)
	switch c := cmd.(type) {
	case *board.MoveTaskCommand:
		event = realtime.EventTaskMove
		data = realtime.TaskMovePayload{BoardID: s.boardID, TaskID: c.TaskID, ColumnID: c.ColumnID, Position: c.Position}
	case *board.CreateTaskCommand:
		raw, err := json.Marshal(c.Task)
		if err != nil {
			return
		}
		event = realtime.EventTaskCreate
		data = realtime.TaskPayload{BoardID: s.boardID, Task: raw}
	case *board.UpdateTaskCommand:
		t, ok := findTask(s.machine.Snapshot(), c.TaskID)
		if !ok {
			return
		}
		raw, err := json.Marshal(t)
		if err != nil {
			return
		}
		event = realtime.EventTaskUpdate
		data = realtime.TaskPayload{BoardID: s.boardID, Task: raw}
	case *board.DeleteTaskCommand:
		event = realtime.EventTaskDelete
		data = realtime.TaskDeletePayload{BoardID: s.boardID, TaskID: c.TaskID}
	default:
		// column changes have no realtime event
		return
	}

	if err := s.socket.Emit(event, data); err != nil {
		if errors.Is(err, client.ErrNotConnected) {
			s.logger.Debug("Not connected, skipping broadcast", zap.String("event", event))
			return
		}
		s.logger.Warn("Failed to broadcast", zap.String("event", event), zap.Error(err))
	}
}

// run reads instructions until quit, EOF or ctx is done
func (s *session) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	s.render(s.machine.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			in, present, err := parseLine(line)
			if err != nil {
				s.printf("! %v\n", err)
				continue
			}
			if !present {
				continue
			}
			if in.verb == verbQuit {
				return nil
			}
			if err := s.exec(ctx, in); err != nil {
				s.printf("! %v\n", err)
			}
		}
	}
}

// exec performs one instruction. Mutations report their outcome asynchronously.
func (s *session) exec(ctx context.Context, in instruction) error {
	snap := s.machine.Snapshot()
	ids := make([]uuid.UUID, len(in.refs))
	for i, ref := range in.refs {
		id, err := resolveID(snap, ref)
		if err != nil {
			return err
		}
		ids[i] = id
	}

	switch in.verb {
	case verbShow:
		s.render(snap)
	case verbHelp:
		s.printf("%s\n", helpText)
	case verbMove:
		s.track("move "+shortID(ids[0]), s.machine.MoveTask(ids[0], ids[1], in.index))
	case verbDrop:
		s.track("drop "+shortID(ids[0]), s.machine.Drop(ids[0], ids[1]))
	case verbCreate:
		col, ok := findColumn(snap, ids[0])
		if !ok {
			return fmt.Errorf("%w %q", errNoMatch, in.refs[0])
		}
		t := dto.TaskResponse{ID: uuid.New(), ColumnID: col.ID, Title: in.text}
		s.track("create "+shortID(t.ID), s.machine.CreateTask(t, len(col.Tasks)))
	case verbEdit:
		title := in.text
		s.track("edit "+shortID(ids[0]), s.machine.UpdateTask(ids[0], dto.UpdateTaskRequest{Title: &title}))
	case verbDelete:
		s.track("delete "+shortID(ids[0]), s.machine.DeleteTask(ids[0]))
	case verbComment:
		return s.comment(ctx, ids[0], in.text)
	}
	return nil
}

// comment persists first, then relays to the task room
func (s *session) comment(ctx context.Context, taskID uuid.UUID, text string) error {
	if _, ok := findTask(s.machine.Snapshot(), taskID); !ok {
		return fmt.Errorf("%w %s", errNoMatch, shortID(taskID))
	}
	c, err := s.api.CreateComment(ctx, taskID, &dto.CreateCommentRequest{Content: text})
	if err != nil {
		return fmt.Errorf("comment failed: %w", err)
	}
	s.printf("comment %s saved\n", shortID(c.ID))

	if !s.joinedTasks[taskID] {
		if err := s.socket.JoinTask(taskID); err != nil {
			s.logger.Debug("Failed to join task room", zap.Error(err))
			return nil
		}
		s.joinedTasks[taskID] = true
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	if err := s.socket.Emit(realtime.EventCommentCreate, realtime.CommentPayload{TaskID: taskID, Comment: raw}); err != nil {
		s.logger.Debug("Failed to broadcast comment", zap.Error(err))
	}
	return nil
}

func (s *session) track(label string, done <-chan board.Outcome) {
	s.reports.Add(1)
	go func() {
		defer s.reports.Done()
		o := <-done
		if o.Err != nil && o.Status != board.Confirmed {
			s.printf("[%s] %s: %v\n", label, o.Status, o.Err)
			return
		}
		s.printf("[%s] %s\n", label, o.Status)
	}()
}

// drain waits for in-flight mutations, then stops the machine
func (s *session) drain(ctx context.Context) error {
	err := s.machine.Wait(ctx)
	s.machine.Close()
	s.reports.Wait()
	return err
}

func (s *session) render(b dto.BoardResponse) {
	s.printf("%s", s.styles.renderBoard(b))
}

func (s *session) printf(format string, args ...interface{}) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func findColumn(b dto.BoardResponse, id uuid.UUID) (dto.ColumnResponse, bool) {
	for _, c := range b.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return dto.ColumnResponse{}, false
}

func findTask(b dto.BoardResponse, id uuid.UUID) (dto.TaskResponse, bool) {
	for _, c := range b.Columns {
		for _, t := range c.Tasks {
			if t.ID == id {
				return t, true
			}
		}
	}
	return dto.TaskResponse{}, false
}
