package realtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/afnanahmadtariq/collab-pm/internal/auth"
)

// Conn is one authenticated client connection.
// Outbound frames go through a bounded send queue drained by the write pump.
type Conn struct {
	id     uuid.UUID
	claims auth.Claims
	ws     *websocket.Conn

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// guarded by Hub.mu
	rooms map[Room]struct{}
}

func newConn(claims auth.Claims, buffer int) *Conn {
	if buffer <= 0 {
		buffer = 256
	}
	return &Conn{
		id:     uuid.New(),
		claims: claims,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
		rooms:  make(map[Room]struct{}),
	}
}

func (c *Conn) ID() uuid.UUID         { return c.id }
func (c *Conn) UserID() uuid.UUID     { return c.claims.UserID }
func (c *Conn) Claims() auth.Claims   { return c.claims }
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// enqueue never blocks; false means the queue is full
func (c *Conn) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Close stops the write pump and closes the socket. Safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.ws != nil {
			c.ws.Close()
		}
	})
}
