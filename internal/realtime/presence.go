package realtime

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PresenceStatus is a user's status inside one organization
type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusAway    PresenceStatus = "away"
	StatusOffline PresenceStatus = "offline"
)

// Presence is the record kept per (organization, user)
type Presence struct {
	UserID   uuid.UUID      `json:"userId"`
	Status   PresenceStatus `json:"status"`
	LastSeen time.Time      `json:"lastSeen"`
}

// PresenceStore keeps presence records. Each Set is independent per user key.
type PresenceStore interface {
	Set(ctx context.Context, organizationID uuid.UUID, p Presence) error
	List(ctx context.Context, organizationID uuid.UUID) ([]Presence, error)
	// SweepOffline drops offline records last seen before the cutoff
	SweepOffline(ctx context.Context, before time.Time) (int, error)
}

// MemoryPresenceStore is a process-local PresenceStore
type MemoryPresenceStore struct {
	mu   sync.RWMutex
	data map[uuid.UUID]map[uuid.UUID]Presence
}

func NewMemoryPresenceStore() *MemoryPresenceStore {
	return &MemoryPresenceStore{data: make(map[uuid.UUID]map[uuid.UUID]Presence)}
}

func (s *MemoryPresenceStore) Set(_ context.Context, organizationID uuid.UUID, p Presence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.data[organizationID]
	if !ok {
		org = make(map[uuid.UUID]Presence)
		s.data[organizationID] = org
	}
	org[p.UserID] = p
	return nil
}

func (s *MemoryPresenceStore) List(_ context.Context, organizationID uuid.UUID) ([]Presence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Presence, 0, len(s.data[organizationID]))
	for _, p := range s.data[organizationID] {
		out = append(out, p)
	}
	sortPresence(out)
	return out, nil
}

func (s *MemoryPresenceStore) SweepOffline(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for orgID, org := range s.data {
		for userID, p := range org {
			if p.Status == StatusOffline && p.LastSeen.Before(before) {
				delete(org, userID)
				removed++
			}
		}
		if len(org) == 0 {
			delete(s.data, orgID)
		}
	}
	return removed, nil
}

func sortPresence(ps []Presence) {
	sort.Slice(ps, func(i, j int) bool {
		return ps[i].UserID.String() < ps[j].UserID.String()
	})
}
