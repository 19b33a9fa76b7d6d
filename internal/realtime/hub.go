package realtime

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afnanahmadtariq/collab-pm/internal/metrics"
)

const presenceStripes = 64

// HubConfig wires the hub's collaborators
type HubConfig struct {
	Presence   PresenceStore
	Fanout     Fanout
	InstanceID string
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
	Now        func() time.Time
}

// Hub is the room registry. It tracks room membership per connection and
// reference-counts organization joins so presence flips once per user.
type Hub struct {
	presence   PresenceStore
	fanout     Fanout
	instanceID string
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time

	mu     sync.RWMutex
	conns  map[uuid.UUID]*Conn
	rooms  map[Room]map[*Conn]struct{}
	online map[uuid.UUID]map[uuid.UUID]int // org -> user -> joined connections

	// serializes presence transitions of one (org, user) pair
	stripes [presenceStripes]sync.Mutex
}

func NewHub(cfg HubConfig) *Hub {
	if cfg.Presence == nil {
		cfg.Presence = NewMemoryPresenceStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	return &Hub{
		presence:   cfg.Presence,
		fanout:     cfg.Fanout,
		instanceID: cfg.InstanceID,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		now:        cfg.Now,
		conns:      make(map[uuid.UUID]*Conn),
		rooms:      make(map[Room]map[*Conn]struct{}),
		online:     make(map[uuid.UUID]map[uuid.UUID]int),
	}
}

// Run relays broadcasts from other instances until ctx is done
func (h *Hub) Run(ctx context.Context) error {
	if h.fanout == nil {
		<-ctx.Done()
		return nil
	}
	return h.fanout.Subscribe(ctx, h.deliverRemote)
}

func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	h.conns[c.id] = c
	count := len(h.conns)
	h.mu.Unlock()

	h.metrics.SetWSConnections(count)
	h.logger.Info("Client registered",
		zap.String("connId", c.id.String()),
		zap.String("userId", c.UserID().String()))
}

// Join adds the connection to the room. Joining an organization room marks
// the user online and tells the other members. Re-joining is a no-op.
func (h *Hub) Join(ctx context.Context, c *Conn, room Room) bool {
	if room.Kind == RoomOrganization {
		lk := h.stripe(room.ID, c.UserID())
		lk.Lock()
		defer lk.Unlock()
	}

	h.mu.Lock()
	if _, ok := c.rooms[room]; ok {
		h.mu.Unlock()
		return false
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Conn]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
	if room.Kind == RoomOrganization {
		users, ok := h.online[room.ID]
		if !ok {
			users = make(map[uuid.UUID]int)
			h.online[room.ID] = users
		}
		users[c.UserID()]++
	}
	roomCount := len(h.rooms)
	h.mu.Unlock()

	h.metrics.SetWSRooms(roomCount)
	h.logger.Debug("Joined room",
		zap.String("room", room.String()),
		zap.String("userId", c.UserID().String()))

	if room.Kind == RoomOrganization {
		h.announce(ctx, room.ID, c.UserID(), StatusOnline, c)
	}
	return true
}

// Leave removes the connection from the room. The user goes offline in an
// organization only when their last connection in it leaves, so closing one of
// several tabs announces nothing instead of an offline per connection.
func (h *Hub) Leave(ctx context.Context, c *Conn, room Room) bool {
	if room.Kind == RoomOrganization {
		lk := h.stripe(room.ID, c.UserID())
		lk.Lock()
		defer lk.Unlock()
	}

	h.mu.Lock()
	if _, ok := c.rooms[room]; !ok {
		h.mu.Unlock()
		return false
	}
	delete(c.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	lastConn := false
	if room.Kind == RoomOrganization {
		users := h.online[room.ID]
		users[c.UserID()]--
		if users[c.UserID()] <= 0 {
			delete(users, c.UserID())
			lastConn = true
		}
		if len(users) == 0 {
			delete(h.online, room.ID)
		}
	}
	roomCount := len(h.rooms)
	h.mu.Unlock()

	h.metrics.SetWSRooms(roomCount)

	if lastConn {
		h.announce(ctx, room.ID, c.UserID(), StatusOffline, nil)
	}
	return true
}

// Disconnect leaves every room the connection joined and closes it.
// Calling it twice has no effect.
func (h *Hub) Disconnect(ctx context.Context, c *Conn) {
	h.mu.Lock()
	if _, ok := h.conns[c.id]; !ok {
		h.mu.Unlock()
		c.Close()
		return
	}
	delete(h.conns, c.id)
	rooms := make([]Room, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	count := len(h.conns)
	h.mu.Unlock()

	for _, room := range rooms {
		h.Leave(ctx, c, room)
	}
	c.Close()

	h.metrics.SetWSConnections(count)
	h.logger.Info("Client unregistered",
		zap.String("connId", c.id.String()),
		zap.String("userId", c.UserID().String()),
		zap.Int("rooms", len(rooms)))
}

// IsMember reports whether the connection has joined the room
func (h *Hub) IsMember(c *Conn, room Room) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := c.rooms[room]
	return ok
}

// Members returns the number of local connections in the room
func (h *Hub) Members(room Room) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Stats returns the number of live connections and non-empty rooms
func (h *Hub) Stats() (conns, rooms int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns), len(h.rooms)
}

// SetStatus changes the caller's status in an organization they joined
func (h *Hub) SetStatus(ctx context.Context, c *Conn, organizationID uuid.UUID, status PresenceStatus) error {
	if status != StatusOnline && status != StatusAway {
		return ErrInvalidStatus
	}
	lk := h.stripe(organizationID, c.UserID())
	lk.Lock()
	defer lk.Unlock()

	if !h.IsMember(c, OrganizationRoom(organizationID)) {
		return ErrNotJoined
	}
	h.announce(ctx, organizationID, c.UserID(), status, c)
	return nil
}

// Presence lists the presence records of an organization
func (h *Hub) Presence(ctx context.Context, organizationID uuid.UUID) ([]Presence, error) {
	return h.presence.List(ctx, organizationID)
}

// Broadcast sends an event to every member of the room except one connection
func (h *Hub) Broadcast(ctx context.Context, room Room, event string, data interface{}, except *Conn) error {
	payload, err := Encode(event, data)
	if err != nil {
		return err
	}
	exceptID := uuid.Nil
	if except != nil {
		exceptID = except.id
	}

	h.deliver(room, payload, exceptID)
	h.metrics.RecordBroadcast(event)

	if h.fanout != nil {
		msg := FanoutMessage{Origin: h.instanceID, Room: room.String(), Except: exceptID, Payload: payload}
		if err := h.fanout.Publish(ctx, msg); err != nil {
			h.logger.Warn("Failed to publish broadcast",
				zap.String("room", room.String()),
				zap.String("event", event),
				zap.Error(err))
		}
	}
	return nil
}

func (h *Hub) deliver(room Room, payload []byte, except uuid.UUID) {
	h.mu.RLock()
	targets := make([]*Conn, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		if c.id != except {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if c.closed() {
			continue
		}
		if !c.enqueue(payload) {
			h.metrics.IncrementBroadcastDrops()
			h.logger.Warn("Send queue full, disconnecting slow client",
				zap.String("connId", c.id.String()),
				zap.String("userId", c.UserID().String()),
				zap.String("room", room.String()))
			c.Close()
		}
	}
}

func (h *Hub) deliverRemote(msg FanoutMessage) {
	if msg.Origin == h.instanceID {
		return
	}
	room, err := ParseRoom(msg.Room)
	if err != nil {
		h.logger.Warn("Ignoring fanout message", zap.String("room", msg.Room), zap.Error(err))
		return
	}
	h.deliver(room, msg.Payload, msg.Except)
}

func (h *Hub) announce(ctx context.Context, organizationID, userID uuid.UUID, status PresenceStatus, except *Conn) {
	p := Presence{UserID: userID, Status: status, LastSeen: h.now().UTC()}
	if err := h.presence.Set(ctx, organizationID, p); err != nil {
		// presence is a cache; the broadcast still goes out
		h.logger.Warn("Failed to store presence",
			zap.String("organizationId", organizationID.String()),
			zap.String("userId", userID.String()),
			zap.Error(err))
	}
	h.metrics.RecordPresenceUpdate(string(status))
	_ = h.Broadcast(ctx, OrganizationRoom(organizationID), EventPresenceUpdate, p, except)
}

func (h *Hub) stripe(organizationID, userID uuid.UUID) *sync.Mutex {
	f := fnv.New32a()
	f.Write(organizationID[:])
	f.Write(userID[:])
	return &h.stripes[f.Sum32()%presenceStripes]
}
