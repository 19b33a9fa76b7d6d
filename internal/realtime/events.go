package realtime

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Client -> server events
const (
	EventJoinOrganization  = "join:organization"
	EventLeaveOrganization = "leave:organization"
	EventJoinBoard         = "join:board"
	EventLeaveBoard        = "leave:board"
	EventJoinTask          = "join:task"
	EventLeaveTask         = "leave:task"
	EventTaskUpdate        = "task:update"
	EventTaskMove          = "task:move"
	EventTaskCreate        = "task:create"
	EventTaskDelete        = "task:delete"
	EventTypingStart       = "typing:start"
	EventTypingStop        = "typing:stop"
	EventCommentCreate     = "comment:create"
	EventPresenceSet       = "presence:set"
)

// Server -> client events
const (
	EventTaskUpdated    = "task:updated"
	EventTaskMoved      = "task:moved"
	EventTaskCreated    = "task:created"
	EventTaskDeleted    = "task:deleted"
	EventTypingStarted  = "typing:started"
	EventTypingStopped  = "typing:stopped"
	EventCommentCreated = "comment:created"
	EventPresenceUpdate = "presence:update"
	EventError          = "error"
)

// Envelope is the wire frame in both directions
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode marshals data into an envelope frame
func Encode(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// TaskPayload carries a full task for task:create and task:update
type TaskPayload struct {
	BoardID uuid.UUID       `json:"boardId"`
	Task    json.RawMessage `json:"task"`
}

// TaskMovePayload is sent with task:move and relayed as task:moved.
// Receivers re-derive column and position from it.
type TaskMovePayload struct {
	BoardID  uuid.UUID  `json:"boardId"`
	TaskID   uuid.UUID  `json:"taskId"`
	ColumnID uuid.UUID  `json:"columnId"`
	Position int        `json:"position"`
	UserID   *uuid.UUID `json:"userId,omitempty"` // set on relay
}

// TaskDeletePayload is sent with task:delete
type TaskDeletePayload struct {
	BoardID uuid.UUID `json:"boardId"`
	TaskID  uuid.UUID `json:"taskId"`
}

// TypingPayload is relayed with typing:started and typing:stopped
type TypingPayload struct {
	UserID uuid.UUID `json:"userId"`
	TaskID uuid.UUID `json:"taskId"`
}

// CommentPayload is sent with comment:create
type CommentPayload struct {
	TaskID  uuid.UUID       `json:"taskId"`
	Comment json.RawMessage `json:"comment"`
}

// PresenceSetPayload is sent with presence:set
type PresenceSetPayload struct {
	OrganizationID uuid.UUID      `json:"organizationId"`
	Status         PresenceStatus `json:"status"`
}

// ErrorPayload reports a rejected client event to its sender only
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
}
