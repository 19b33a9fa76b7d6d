package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afnanahmadtariq/collab-pm/internal/board"
	"github.com/afnanahmadtariq/collab-pm/internal/client"
	"github.com/afnanahmadtariq/collab-pm/internal/dto"
	"github.com/afnanahmadtariq/collab-pm/internal/realtime"
)

var (
	todoID  = uuid.MustParse("aaaaaaaa-0000-4000-8000-000000000001")
	doingID = uuid.MustParse("bbbbbbbb-0000-4000-8000-000000000002")
	task1ID = uuid.MustParse("cccccccc-0000-4000-8000-000000000003")
	task2ID = uuid.MustParse("ccccdddd-0000-4000-8000-000000000004")
)

func fixtureBoard() *dto.BoardResponse {
	return &dto.BoardResponse{
		ID:   uuid.MustParse("eeeeeeee-0000-4000-8000-000000000005"),
		Name: "Sprint",
		Columns: []dto.ColumnResponse{
			{ID: todoID, Name: "Todo", Position: 0, Tasks: []dto.TaskResponse{
				{ID: task1ID, ColumnID: todoID, Position: 0, Title: "Write docs"},
				{ID: task2ID, ColumnID: todoID, Position: 1, Title: "Fix login"},
			}},
			{ID: doingID, Name: "Doing", Position: 1, Tasks: []dto.TaskResponse{}},
		},
	}
}

// MockAPI is a mock implementation of client.BoardAPIClient
type MockAPI struct {
	MoveTaskFunc   func(ctx context.Context, taskID, columnID uuid.UUID, position int) (*dto.TaskResponse, error)
	UpdateTaskFunc func(ctx context.Context, taskID uuid.UUID, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error)

	mu       sync.Mutex
	comments []string
}

func (m *MockAPI) FetchBoard(ctx context.Context, boardID uuid.UUID) (*dto.BoardResponse, error) {
	return fixtureBoard(), nil
}

func (m *MockAPI) MoveTask(ctx context.Context, taskID, columnID uuid.UUID, position int) (*dto.TaskResponse, error) {
	if m.MoveTaskFunc != nil {
		return m.MoveTaskFunc(ctx, taskID, columnID, position)
	}
	return &dto.TaskResponse{ID: taskID, ColumnID: columnID, Position: position}, nil
}

func (m *MockAPI) CreateTask(ctx context.Context, req *dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	return &dto.TaskResponse{ID: *req.ID, ColumnID: req.ColumnID, Title: req.Title}, nil
}

func (m *MockAPI) UpdateTask(ctx context.Context, taskID uuid.UUID, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	if m.UpdateTaskFunc != nil {
		return m.UpdateTaskFunc(ctx, taskID, req)
	}
	return &dto.TaskResponse{ID: taskID}, nil
}

func (m *MockAPI) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	return nil
}

func (m *MockAPI) CreateColumn(ctx context.Context, boardID uuid.UUID, req *dto.CreateColumnRequest) (*dto.ColumnResponse, error) {
	return &dto.ColumnResponse{BoardID: boardID, Name: req.Name}, nil
}

func (m *MockAPI) UpdateColumn(ctx context.Context, columnID uuid.UUID, req *dto.UpdateColumnRequest) (*dto.ColumnResponse, error) {
	return &dto.ColumnResponse{ID: columnID}, nil
}

func (m *MockAPI) DeleteColumn(ctx context.Context, columnID uuid.UUID) error {
	return nil
}

func (m *MockAPI) MoveColumn(ctx context.Context, columnID uuid.UUID, position int) ([]dto.ColumnResponse, error) {
	return nil, nil
}

func (m *MockAPI) CreateComment(ctx context.Context, taskID uuid.UUID, req *dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	m.mu.Lock()
	m.comments = append(m.comments, req.Content)
	m.mu.Unlock()
	return &dto.CommentResponse{ID: uuid.New(), TaskID: taskID, Content: req.Content}, nil
}

type emitted struct {
	event string
	data  json.RawMessage
}

// MockSocket records every emit
type MockSocket struct {
	mu     sync.Mutex
	events []emitted
	joined []uuid.UUID
}

func (s *MockSocket) Emit(event string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, emitted{event: event, data: raw})
	return nil
}

func (s *MockSocket) JoinTask(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joined = append(s.joined, id)
	return nil
}

func (s *MockSocket) Events() []emitted {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]emitted(nil), s.events...)
}

// syncBuffer guards the output shared with outcome goroutines
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestSession(api *MockAPI) (*session, *MockSocket, *syncBuffer) {
	sock := &MockSocket{}
	out := &syncBuffer{}
	return newSession(fixtureBoard(), api, sock, time.Second, out, nil), sock, out
}

func drain(t *testing.T, s *session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, s.drain(ctx))
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    instruction
		present bool
		wantErr error
	}{
		{"빈 줄", "   ", instruction{}, false, nil},
		{"성공: move", "move cccc bbbb 2", instruction{verb: verbMove, refs: []string{"cccc", "bbbb"}, index: 2}, true, nil},
		{"성공: 대소문자 무시", "DROP cccc aaaa", instruction{verb: verbDrop, refs: []string{"cccc", "aaaa"}}, true, nil},
		{"성공: create 제목 공백 유지", "create aaaa Write the  release notes", instruction{verb: verbCreate, refs: []string{"aaaa"}, text: "Write the release notes"}, true, nil},
		{"성공: exit은 quit", "exit", instruction{verb: verbQuit}, true, nil},
		{"실패: move 인자 부족", "move cccc bbbb", instruction{}, true, errUsage},
		{"실패: 음수 인덱스", "move cccc bbbb -1", instruction{}, true, errUsage},
		{"실패: edit 제목 없음", "edit cccc", instruction{}, true, errUsage},
		{"실패: 알 수 없는 명령", "archive cccc", instruction{}, true, errUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, present, err := parseLine(tt.line)

			assert.Equal(t, tt.present, present)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveID(t *testing.T) {
	b := *fixtureBoard()
	other := uuid.New()

	tests := []struct {
		name    string
		ref     string
		want    uuid.UUID
		wantErr error
	}{
		{"성공: 태스크 접두사", "cccccc", task1ID, nil},
		{"성공: 컬럼 접두사", "BBBB", doingID, nil},
		{"성공: 보드 밖의 전체 uuid", other.String(), other, nil},
		{"실패: 모호한 접두사", "cccc", uuid.Nil, errAmbiguous},
		{"실패: 일치 없음", "ffff", uuid.Nil, errNoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveID(b, tt.ref)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveWebSocketURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8000/api/ws", deriveWebSocketURL("http://localhost:8000/api/"))
	assert.Equal(t, "wss://pm.example.com/api/ws", deriveWebSocketURL("https://pm.example.com/api"))
}

func TestSession_MoveBroadcastsAndConfirms(t *testing.T) {
	s, sock, out := newTestSession(&MockAPI{})

	err := s.exec(context.Background(), instruction{verb: verbMove, refs: []string{"cccccccc", "bbbb"}, index: 5})
	require.NoError(t, err)
	drain(t, s)

	events := sock.Events()
	require.Len(t, events, 1)
	assert.Equal(t, realtime.EventTaskMove, events[0].event)
	assert.NotContains(t, string(events[0].data), "userId", "the server stamps the mover")
	var p realtime.TaskMovePayload
	require.NoError(t, json.Unmarshal(events[0].data, &p))
	assert.Equal(t, task1ID, p.TaskID)
	assert.Equal(t, doingID, p.ColumnID)
	assert.Equal(t, 0, p.Position, "index is clamped to the end of the empty column")

	assert.Contains(t, out.String(), "[move cccccccc] confirmed")
	snap := s.machine.Snapshot()
	require.Len(t, snap.Columns[1].Tasks, 1)
	assert.Equal(t, task1ID, snap.Columns[1].Tasks[0].ID)
}

func TestSession_MoveRollsBack(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "실패: 컬럼 없음", err: &board.PersistError{Kind: board.ErrNotFound, Status: 404, Message: "Column not found"}},
		{name: "실패: 네트워크 오류", err: &board.PersistError{Kind: board.ErrTransport, Message: "connection refused"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &MockAPI{
				MoveTaskFunc: func(ctx context.Context, taskID, columnID uuid.UUID, position int) (*dto.TaskResponse, error) {
					return nil, tt.err
				},
			}
			s, sock, out := newTestSession(api)

			require.NoError(t, s.exec(context.Background(), instruction{verb: verbMove, refs: []string{task1ID.String(), doingID.String()}}))
			drain(t, s)

			assert.Contains(t, out.String(), "[move cccccccc] rolled_back")
			assert.Contains(t, out.String(), "* board changed")
			snap := s.machine.Snapshot()
			require.Len(t, snap.Columns[0].Tasks, 2)
			assert.Equal(t, task1ID, snap.Columns[0].Tasks[0].ID)
			assert.Empty(t, snap.Columns[1].Tasks)

			assert.Empty(t, sock.Events(), "peers never see a move the store rejected")
		})
	}
}

func TestSession_CreateAndComment(t *testing.T) {
	api := &MockAPI{}
	s, sock, _ := newTestSession(api)
	ctx := context.Background()

	require.NoError(t, s.exec(ctx, instruction{verb: verbCreate, refs: []string{"aaaa"}, text: "New task"}))
	require.NoError(t, s.exec(ctx, instruction{verb: verbComment, refs: []string{"ccccdd"}, text: "looks good"}))
	assert.Error(t, s.exec(ctx, instruction{verb: verbCreate, refs: []string{task1ID.String()}, text: "x"}), "a task is not a column")
	drain(t, s)

	snap := s.machine.Snapshot()
	require.Len(t, snap.Columns[0].Tasks, 3)
	created := snap.Columns[0].Tasks[2]
	assert.Equal(t, "New task", created.Title)
	assert.Equal(t, 2, created.Position)

	// the create is announced when confirmed, so it may follow the comment
	events := map[string]json.RawMessage{}
	for _, e := range sock.Events() {
		events[e.event] = e.data
	}
	require.Len(t, events, 2)
	require.Contains(t, events, realtime.EventTaskCreate)
	var tp realtime.TaskPayload
	require.NoError(t, json.Unmarshal(events[realtime.EventTaskCreate], &tp))
	assert.Equal(t, s.boardID, tp.BoardID)
	assert.Contains(t, string(tp.Task), created.ID.String())

	assert.Contains(t, events, realtime.EventCommentCreate)
	assert.Equal(t, []uuid.UUID{task2ID}, sock.joined)
	assert.Equal(t, []string{"looks good"}, api.comments)
}

func TestSession_RemoteEvents(t *testing.T) {
	s, _, out := newTestSession(&MockAPI{})
	handlers := make(map[string]client.EventHandler)
	s.subscribe(func(event string, h client.EventHandler) { handlers[event] = h })

	frame := func(v interface{}) json.RawMessage {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		return raw
	}

	handlers[realtime.EventTaskMoved](frame(realtime.TaskMovePayload{BoardID: uuid.New(), TaskID: task1ID, ColumnID: doingID}))
	assert.Len(t, s.machine.Snapshot().Columns[0].Tasks, 2, "other boards are ignored")

	handlers[realtime.EventTaskMoved](frame(realtime.TaskMovePayload{BoardID: s.boardID, TaskID: task1ID, ColumnID: doingID}))
	snap := s.machine.Snapshot()
	require.Len(t, snap.Columns[1].Tasks, 1)
	assert.Equal(t, task1ID, snap.Columns[1].Tasks[0].ID)

	handlers[realtime.EventTaskUpdated](frame(dto.TaskResponse{ID: task2ID, ColumnID: todoID, Title: "Fix login (urgent)"}))
	handlers[realtime.EventTaskDeleted](frame(task1ID))
	handlers[realtime.EventTaskCreated]([]byte(`{"broken"`))

	snap = s.machine.Snapshot()
	assert.Empty(t, snap.Columns[1].Tasks)
	require.Len(t, snap.Columns[0].Tasks, 1)
	assert.Equal(t, "Fix login (urgent)", snap.Columns[0].Tasks[0].Title)

	handlers[realtime.EventError](frame(realtime.ErrorPayload{Code: "FORBIDDEN", Message: "not a member", Event: "join:board"}))
	assert.Contains(t, out.String(), "server rejected join:board")
	drain(t, s)
}

func TestSession_Run(t *testing.T) {
	var (
		mu    sync.Mutex
		title string
	)
	api := &MockAPI{
		UpdateTaskFunc: func(ctx context.Context, taskID uuid.UUID, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
			mu.Lock()
			defer mu.Unlock()
			title = *req.Title
			return &dto.TaskResponse{ID: taskID, Title: title}, nil
		},
	}
	s, sock, out := newTestSession(api)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := strings.NewReader("show\nbogus\nedit cccccccc Write better docs\nquit\nmove cccccccc bbbb 0\n")
	require.NoError(t, s.run(ctx, in))
	drain(t, s)

	mu.Lock()
	assert.Equal(t, "Write better docs", title)
	mu.Unlock()

	output := out.String()
	assert.Contains(t, output, "== Todo [aaaaaaaa] (2)")
	assert.Contains(t, output, "unknown command")
	assert.Contains(t, output, "[edit cccccccc] confirmed")

	events := sock.Events()
	require.Len(t, events, 1, "nothing after quit runs")
	assert.Equal(t, realtime.EventTaskUpdate, events[0].event)
	assert.Contains(t, string(events[0].data), "Write better docs")
}
