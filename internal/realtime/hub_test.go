package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/afnanahmadtariq/collab-pm/internal/auth"
	"github.com/afnanahmadtariq/collab-pm/internal/metrics"
)

func testConn(t *testing.T, hub *Hub, userID uuid.UUID, buffer int) *Conn {
	t.Helper()
	c := newConn(auth.Claims{UserID: userID}, buffer)
	hub.Register(c)
	return c
}

// drain returns every frame queued for the connection without blocking
func drain(t *testing.T, c *Conn) []Envelope {
	t.Helper()
	var out []Envelope
	for {
		select {
		case msg := <-c.send:
			var env Envelope
			require.NoError(t, json.Unmarshal(msg, &env))
			out = append(out, env)
		default:
			return out
		}
	}
}

func presenceOf(t *testing.T, env Envelope) Presence {
	t.Helper()
	require.Equal(t, EventPresenceUpdate, env.Event)
	var p Presence
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p
}

func TestHub_BroadcastExcludesOriginator(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(HubConfig{})
	board := BoardRoom(uuid.New())

	a := testConn(t, hub, uuid.New(), 8)
	b := testConn(t, hub, uuid.New(), 8)
	outsider := testConn(t, hub, uuid.New(), 8)
	hub.Join(ctx, a, board)
	hub.Join(ctx, b, board)

	require.NoError(t, hub.Broadcast(ctx, board, EventTaskUpdated, map[string]string{"id": "t1"}, a))

	assert.Empty(t, drain(t, a))
	assert.Empty(t, drain(t, outsider))
	got := drain(t, b)
	require.Len(t, got, 1)
	assert.Equal(t, EventTaskUpdated, got[0].Event)
	assert.JSONEq(t, `{"id":"t1"}`, string(got[0].Data))
}

func TestHub_JoinIsIdempotent(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(HubConfig{})
	org := OrganizationRoom(uuid.New())

	observer := testConn(t, hub, uuid.New(), 8)
	hub.Join(ctx, observer, org)

	c := testConn(t, hub, uuid.New(), 8)
	assert.True(t, hub.Join(ctx, c, org))
	assert.False(t, hub.Join(ctx, c, org))

	assert.Equal(t, 2, hub.Members(org))
	assert.Len(t, drain(t, observer), 1)
}

func TestHub_PresenceFollowsLastConnection(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryPresenceStore()
	hub := NewHub(HubConfig{Presence: store})
	orgID := uuid.New()
	org := OrganizationRoom(orgID)

	observer := testConn(t, hub, uuid.New(), 16)
	hub.Join(ctx, observer, org)

	userID := uuid.New()
	first := testConn(t, hub, userID, 16)
	second := testConn(t, hub, userID, 16)

	hub.Join(ctx, first, org)
	hub.Join(ctx, second, org)

	// each new connection re-announces online
	got := drain(t, observer)
	require.Len(t, got, 2)
	for _, env := range got {
		p := presenceOf(t, env)
		assert.Equal(t, userID, p.UserID)
		assert.Equal(t, StatusOnline, p.Status)
	}

	hub.Disconnect(ctx, first)
	assert.Empty(t, drain(t, observer), "user still has a live connection")

	hub.Disconnect(ctx, second)
	got = drain(t, observer)
	require.Len(t, got, 1)
	p := presenceOf(t, got[0])
	assert.Equal(t, StatusOffline, p.Status)
	assert.Equal(t, userID, p.UserID)

	records, err := store.List(ctx, orgID)
	require.NoError(t, err)
	statuses := map[uuid.UUID]PresenceStatus{}
	for _, r := range records {
		statuses[r.UserID] = r.Status
	}
	assert.Equal(t, StatusOffline, statuses[userID])
	assert.Equal(t, StatusOnline, statuses[observer.UserID()])
}

func TestHub_DisconnectOfflineOncePerOrganization(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(HubConfig{})
	orgA, orgB := OrganizationRoom(uuid.New()), OrganizationRoom(uuid.New())

	watchA := testConn(t, hub, uuid.New(), 16)
	watchB := testConn(t, hub, uuid.New(), 16)
	hub.Join(ctx, watchA, orgA)
	hub.Join(ctx, watchB, orgB)

	c := testConn(t, hub, uuid.New(), 16)
	hub.Join(ctx, c, orgA)
	hub.Join(ctx, c, orgB)
	hub.Join(ctx, c, BoardRoom(uuid.New()))
	drain(t, watchA)
	drain(t, watchB)

	hub.Disconnect(ctx, c)
	hub.Disconnect(ctx, c)

	for _, w := range []*Conn{watchA, watchB} {
		got := drain(t, w)
		require.Len(t, got, 1)
		assert.Equal(t, StatusOffline, presenceOf(t, got[0]).Status)
	}

	conns, rooms := hub.Stats()
	assert.Equal(t, 2, conns)
	assert.Equal(t, 2, rooms)
	select {
	case <-c.Done():
	default:
		t.Fatal("disconnected connection should be closed")
	}
}

func TestHub_LeaveUnknownRoomIsNoop(t *testing.T) {
	hub := NewHub(HubConfig{})
	c := testConn(t, hub, uuid.New(), 4)
	assert.False(t, hub.Leave(context.Background(), c, TaskRoom(uuid.New())))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func TestHub_SlowConsumerIsDisconnected(t *testing.T) {
	ctx := context.Background()
	m := metrics.NewWithRegistry(prometheus.NewRegistry(), zap.NewNop())
	hub := NewHub(HubConfig{Metrics: m})
	board := BoardRoom(uuid.New())

	slow := testConn(t, hub, uuid.New(), 1)
	fast := testConn(t, hub, uuid.New(), 8)
	hub.Join(ctx, slow, board)
	hub.Join(ctx, fast, board)

	require.NoError(t, hub.Broadcast(ctx, board, EventTaskUpdated, "a", nil))
	require.NoError(t, hub.Broadcast(ctx, board, EventTaskUpdated, "b", nil))
	require.NoError(t, hub.Broadcast(ctx, board, EventTaskUpdated, "c", nil))

	select {
	case <-slow.Done():
	default:
		t.Fatal("slow consumer should be closed")
	}
	assert.Len(t, drain(t, fast), 3)
	assert.Equal(t, float64(1), counterValue(t, m.WSBroadcastDropsTotal))
}

func TestHub_SetStatus(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(HubConfig{})
	orgID := uuid.New()

	observer := testConn(t, hub, uuid.New(), 8)
	c := testConn(t, hub, uuid.New(), 8)

	assert.ErrorIs(t, hub.SetStatus(ctx, c, orgID, StatusAway), ErrNotJoined)

	hub.Join(ctx, observer, OrganizationRoom(orgID))
	hub.Join(ctx, c, OrganizationRoom(orgID))
	drain(t, observer)

	assert.ErrorIs(t, hub.SetStatus(ctx, c, orgID, StatusOffline), ErrInvalidStatus)
	require.NoError(t, hub.SetStatus(ctx, c, orgID, StatusAway))

	got := drain(t, observer)
	require.Len(t, got, 1)
	assert.Equal(t, StatusAway, presenceOf(t, got[0]).Status)
	assert.Empty(t, drain(t, c))
}

type failingPresenceStore struct{ MemoryPresenceStore }

func (*failingPresenceStore) Set(context.Context, uuid.UUID, Presence) error {
	return errors.New("redis down")
}

func TestHub_PresenceStoreFailureStillBroadcasts(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(HubConfig{Presence: &failingPresenceStore{}})
	org := OrganizationRoom(uuid.New())

	observer := testConn(t, hub, uuid.New(), 8)
	hub.Join(ctx, observer, org)
	c := testConn(t, hub, uuid.New(), 8)
	hub.Join(ctx, c, org)

	got := drain(t, observer)
	require.Len(t, got, 1)
	assert.Equal(t, StatusOnline, presenceOf(t, got[0]).Status)
}

// memoryFanout links hubs in one process
type memoryFanout struct {
	mu   sync.Mutex
	subs []func(FanoutMessage)
}

func (f *memoryFanout) Publish(_ context.Context, msg FanoutMessage) error {
	f.mu.Lock()
	subs := append([]func(FanoutMessage){}, f.subs...)
	f.mu.Unlock()
	for _, deliver := range subs {
		deliver(msg)
	}
	return nil
}

func (f *memoryFanout) Subscribe(ctx context.Context, deliver func(FanoutMessage)) error {
	f.mu.Lock()
	f.subs = append(f.subs, deliver)
	f.mu.Unlock()
	<-ctx.Done()
	return nil
}

func (f *memoryFanout) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func TestHub_FanoutReachesOtherInstances(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fanout := &memoryFanout{}
	hubA := NewHub(HubConfig{Fanout: fanout, InstanceID: "a"})
	hubB := NewHub(HubConfig{Fanout: fanout, InstanceID: "b"})
	go hubA.Run(ctx)
	go hubB.Run(ctx)
	require.Eventually(t, func() bool { return fanout.subscribers() == 2 }, time.Second, 5*time.Millisecond)

	board := BoardRoom(uuid.New())
	sender := testConn(t, hubA, uuid.New(), 8)
	local := testConn(t, hubA, uuid.New(), 8)
	remote := testConn(t, hubB, uuid.New(), 8)
	hubA.Join(ctx, sender, board)
	hubA.Join(ctx, local, board)
	hubB.Join(ctx, remote, board)

	require.NoError(t, hubA.Broadcast(ctx, board, EventTaskDeleted, "t1", sender))

	assert.Empty(t, drain(t, sender))
	assert.Len(t, drain(t, local), 1, "origin instance must not deliver twice")
	got := drain(t, remote)
	require.Len(t, got, 1)
	assert.Equal(t, EventTaskDeleted, got[0].Event)
}

func TestParseRoom(t *testing.T) {
	id := uuid.New()
	room, err := ParseRoom("board:" + id.String())
	require.NoError(t, err)
	assert.Equal(t, BoardRoom(id), room)
	assert.Equal(t, "board:"+id.String(), room.String())

	for _, bad := range []string{"", "board", "channel:" + id.String(), "task:nope"} {
		_, err := ParseRoom(bad)
		assert.Error(t, err, bad)
	}
}

func TestMemoryPresenceStore_SweepOffline(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryPresenceStore()
	orgID := uuid.New()
	now := time.Now()

	stale := Presence{UserID: uuid.New(), Status: StatusOffline, LastSeen: now.Add(-48 * time.Hour)}
	recent := Presence{UserID: uuid.New(), Status: StatusOffline, LastSeen: now.Add(-time.Minute)}
	online := Presence{UserID: uuid.New(), Status: StatusOnline, LastSeen: now.Add(-48 * time.Hour)}
	for _, p := range []Presence{stale, recent, online} {
		require.NoError(t, store.Set(ctx, orgID, p))
	}

	removed, err := store.SweepOffline(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	left, err := store.List(ctx, orgID)
	require.NoError(t, err)
	assert.Len(t, left, 2)
}
