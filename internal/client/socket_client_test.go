package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/afnanahmadtariq/collab-pm/internal/realtime"
)

// newEchoServer accepts "Bearer good", reads one frame and answers with task:moved
// carrying the board id of the join:board it received.
func newEchoServer(t *testing.T, received chan<- realtime.Envelope) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		_, raw, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var env realtime.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return
		}
		received <- env

		var boardID uuid.UUID
		_ = json.Unmarshal(env.Data, &boardID)
		frame, _ := realtime.Encode(realtime.EventTaskMoved, realtime.TaskMovePayload{
			BoardID:  boardID,
			TaskID:   uuid.New(),
			ColumnID: uuid.New(),
			Position: 2,
		})
		_ = ws.WriteMessage(websocket.TextMessage, []byte("not json"))
		_ = ws.WriteMessage(websocket.TextMessage, frame)

		// wait for the client to hang up
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSocketClient_JoinAndReceive(t *testing.T) {
	received := make(chan realtime.Envelope, 1)
	srv := newEchoServer(t, received)

	c := NewSocketClient(wsURL(srv), "good", zap.NewNop())
	moved := make(chan realtime.TaskMovePayload, 1)
	c.On(realtime.EventTaskMoved, func(data json.RawMessage) {
		var p realtime.TaskMovePayload
		if assert.NoError(t, json.Unmarshal(data, &p)) {
			moved <- p
		}
	})

	assert.ErrorIs(t, c.Emit(realtime.EventJoinBoard, uuid.New()), ErrNotConnected)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))

	boardID := uuid.New()
	require.NoError(t, c.JoinBoard(boardID))

	select {
	case env := <-received:
		assert.Equal(t, realtime.EventJoinBoard, env.Event)
		assert.JSONEq(t, `"`+boardID.String()+`"`, string(env.Data))
	case <-time.After(3 * time.Second):
		t.Fatal("server did not receive join:board")
	}

	select {
	case p := <-moved:
		assert.Equal(t, boardID, p.BoardID)
		assert.Equal(t, 2, p.Position)
	case <-time.After(3 * time.Second):
		t.Fatal("task:moved not delivered")
	}

	require.NoError(t, c.Close())
	select {
	case <-c.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("read loop did not stop")
	}
	assert.ErrorIs(t, c.Emit(realtime.EventLeaveBoard, boardID), ErrNotConnected)
	assert.NoError(t, c.Close(), "second close is a no-op")
}

func TestSocketClient_HandshakeRejected(t *testing.T) {
	srv := newEchoServer(t, make(chan realtime.Envelope, 1))

	c := NewSocketClient(wsURL(srv), "bad", nil)
	err := c.Connect(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
