package realtime

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RoomKind is the scope of a broadcast group
type RoomKind string

const (
	RoomOrganization RoomKind = "organization"
	RoomBoard        RoomKind = "board"
	RoomTask         RoomKind = "task"
)

// Room is a named broadcast group such as "board:<id>"
type Room struct {
	Kind RoomKind
	ID   uuid.UUID
}

func OrganizationRoom(id uuid.UUID) Room { return Room{Kind: RoomOrganization, ID: id} }
func BoardRoom(id uuid.UUID) Room        { return Room{Kind: RoomBoard, ID: id} }
func TaskRoom(id uuid.UUID) Room         { return Room{Kind: RoomTask, ID: id} }

func (r Room) String() string {
	return string(r.Kind) + ":" + r.ID.String()
}

// ParseRoom parses "<kind>:<uuid>"
func ParseRoom(s string) (Room, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok {
		return Room{}, fmt.Errorf("invalid room %q", s)
	}
	switch RoomKind(kind) {
	case RoomOrganization, RoomBoard, RoomTask:
	default:
		return Room{}, fmt.Errorf("invalid room kind %q", kind)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Room{}, fmt.Errorf("invalid room id %q: %w", id, err)
	}
	return Room{Kind: RoomKind(kind), ID: parsed}, nil
}
