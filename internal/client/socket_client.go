package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/afnanahmadtariq/collab-pm/internal/realtime"
)

// ErrNotConnected is returned by Emit before Connect or after Close
var ErrNotConnected = errors.New("socket is not connected")

// EventHandler receives the data of one server event
type EventHandler func(data json.RawMessage)

// SocketClient is a realtime connection to /ws
type SocketClient struct {
	url       string
	token     string
	dialer    *websocket.Dialer
	writeWait time.Duration
	logger    *zap.Logger

	mu       sync.RWMutex
	handlers map[string][]EventHandler
	conn     *websocket.Conn
	done     chan struct{}

	writeMu sync.Mutex
}

// NewSocketClient creates a client for wsURL (e.g. "ws://localhost:8000/api/ws")
func NewSocketClient(wsURL, token string, logger *zap.Logger) *SocketClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SocketClient{
		url:   wsURL,
		token: token,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		writeWait: 10 * time.Second,
		logger:    logger,
		handlers:  make(map[string][]EventHandler),
	}
}

// On registers h for event. Handlers run on the read goroutine in arrival order.
func (c *SocketClient) On(event string, h EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], h)
}

// Connect performs the authenticated handshake and starts reading
func (c *SocketClient) Connect(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.token)

	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket handshake rejected with status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("failed to dial websocket: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	go c.readLoop(conn, done)
	c.logger.Info("Realtime connection established", zap.String("url", c.url))
	return nil
}

// Done is closed when the read loop stops
func (c *SocketClient) Done() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.done
}

// Emit sends one event. Delivery to other connections is best-effort.
func (c *SocketClient) Emit(event string, data interface{}) error {
	frame, err := realtime.Encode(event, data)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", event, err)
	}

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(c.writeWait))
	return conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *SocketClient) JoinOrganization(id uuid.UUID) error {
	return c.Emit(realtime.EventJoinOrganization, id)
}

func (c *SocketClient) LeaveOrganization(id uuid.UUID) error {
	return c.Emit(realtime.EventLeaveOrganization, id)
}

func (c *SocketClient) JoinBoard(id uuid.UUID) error {
	return c.Emit(realtime.EventJoinBoard, id)
}

func (c *SocketClient) LeaveBoard(id uuid.UUID) error {
	return c.Emit(realtime.EventLeaveBoard, id)
}

func (c *SocketClient) JoinTask(id uuid.UUID) error {
	return c.Emit(realtime.EventJoinTask, id)
}

func (c *SocketClient) LeaveTask(id uuid.UUID) error {
	return c.Emit(realtime.EventLeaveTask, id)
}

// Close sends a close frame and drops the connection
func (c *SocketClient) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return conn.Close()
}

func (c *SocketClient) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("Realtime connection closed unexpectedly", zap.Error(err))
			}
			return
		}

		var env realtime.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.logger.Warn("Dropping malformed frame", zap.Error(err))
			continue
		}

		c.mu.RLock()
		handlers := c.handlers[env.Event]
		c.mu.RUnlock()
		if len(handlers) == 0 {
			c.logger.Debug("Unhandled event", zap.String("event", env.Event))
			continue
		}
		for _, h := range handlers {
			h(env.Data)
		}
	}
}
