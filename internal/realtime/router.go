package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afnanahmadtariq/collab-pm/internal/metrics"
	"github.com/afnanahmadtariq/collab-pm/internal/response"
)

// eventError is reported to the sender as an "error" event
type eventError struct {
	Code    string
	Message string
}

func (e *eventError) Error() string { return e.Message }

func invalid(format string, args ...interface{}) error {
	return &eventError{Code: response.ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

type eventHandler func(ctx context.Context, c *Conn, data json.RawMessage) error

// Router dispatches client events. Events from one connection are handled
// in arrival order by its read pump.
type Router struct {
	hub        *Hub
	authorizer Authorizer
	metrics    *metrics.Metrics
	logger     *zap.Logger
	handlers   map[string]eventHandler
}

func NewRouter(hub *Hub, authorizer Authorizer, m *metrics.Metrics, logger *zap.Logger) *Router {
	if authorizer == nil {
		authorizer = AllowAll
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{hub: hub, authorizer: authorizer, metrics: m, logger: logger}
	r.handlers = map[string]eventHandler{
		EventJoinOrganization:  r.join(RoomOrganization),
		EventLeaveOrganization: r.leave(RoomOrganization),
		EventJoinBoard:         r.join(RoomBoard),
		EventLeaveBoard:        r.leave(RoomBoard),
		EventJoinTask:          r.join(RoomTask),
		EventLeaveTask:         r.leave(RoomTask),
		EventTaskUpdate:        r.relayTask(EventTaskUpdated),
		EventTaskCreate:        r.relayTask(EventTaskCreated),
		EventTaskMove:          r.taskMove,
		EventTaskDelete:        r.taskDelete,
		EventTypingStart:       r.typing(EventTypingStarted),
		EventTypingStop:        r.typing(EventTypingStopped),
		EventCommentCreate:     r.commentCreate,
		EventPresenceSet:       r.presenceSet,
	}
	return r
}

// Handle processes one raw frame from the connection
func (r *Router) Handle(ctx context.Context, c *Conn, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
		r.reject(ctx, c, "", invalid("malformed message"))
		return
	}

	handler, ok := r.handlers[env.Event]
	if !ok {
		r.metrics.RecordWSEvent("unknown")
		r.reject(ctx, c, env.Event, invalid("unknown event %q", env.Event))
		return
	}
	r.metrics.RecordWSEvent(env.Event)

	if err := handler(ctx, c, env.Data); err != nil {
		r.reject(ctx, c, env.Event, err)
	}
}

func (r *Router) reject(ctx context.Context, c *Conn, event string, err error) {
	payload := ErrorPayload{Code: response.ErrCodeInternal, Message: "internal error", Event: event}

	var eventErr *eventError
	switch {
	case errors.As(err, &eventErr):
		payload.Code, payload.Message = eventErr.Code, eventErr.Message
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotJoined):
		payload.Code, payload.Message = response.ErrCodeForbidden, err.Error()
	case errors.Is(err, ErrRoomNotFound):
		payload.Code, payload.Message = response.ErrCodeNotFound, err.Error()
	case errors.Is(err, ErrInvalidStatus):
		payload.Code, payload.Message = response.ErrCodeValidation, err.Error()
	default:
		r.logger.Error("Failed to handle event",
			zap.String("event", event),
			zap.String("userId", c.UserID().String()),
			zap.Error(err))
	}

	frame, encErr := Encode(EventError, payload)
	if encErr != nil {
		return
	}
	if !c.enqueue(frame) {
		r.logger.Warn("Dropped error event for slow client", zap.String("connId", c.ID().String()))
	}
}

// parseID accepts either a bare JSON string or {"id": "..."}
func parseID(data json.RawMessage) (uuid.UUID, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return uuid.Nil, invalid("room id must be a string")
		}
		s = obj.ID
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, invalid("invalid room id %q", s)
	}
	return id, nil
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return invalid("missing data")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return invalid("malformed data: %v", err)
	}
	return nil
}

func (r *Router) join(kind RoomKind) eventHandler {
	return func(ctx context.Context, c *Conn, data json.RawMessage) error {
		id, err := parseID(data)
		if err != nil {
			return err
		}
		room := Room{Kind: kind, ID: id}
		if err := r.authorizer.AuthorizeRoom(ctx, c.UserID(), room); err != nil {
			return err
		}
		r.hub.Join(ctx, c, room)
		return nil
	}
}

func (r *Router) leave(kind RoomKind) eventHandler {
	return func(ctx context.Context, c *Conn, data json.RawMessage) error {
		id, err := parseID(data)
		if err != nil {
			return err
		}
		r.hub.Leave(ctx, c, Room{Kind: kind, ID: id})
		return nil
	}
}

// requireJoined rejects relays into rooms the sender is not part of
func (r *Router) requireJoined(c *Conn, room Room) error {
	if !r.hub.IsMember(c, room) {
		return &eventError{Code: response.ErrCodeForbidden, Message: "join " + room.String() + " first"}
	}
	return nil
}

func (r *Router) relayTask(out string) eventHandler {
	return func(ctx context.Context, c *Conn, data json.RawMessage) error {
		var p TaskPayload
		if err := decode(data, &p); err != nil {
			return err
		}
		if p.BoardID == uuid.Nil || len(p.Task) == 0 || string(p.Task) == "null" {
			return invalid("boardId and task are required")
		}
		room := BoardRoom(p.BoardID)
		if err := r.requireJoined(c, room); err != nil {
			return err
		}
		return r.hub.Broadcast(ctx, room, out, p.Task, c)
	}
}

func (r *Router) taskMove(ctx context.Context, c *Conn, data json.RawMessage) error {
	var p TaskMovePayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if p.BoardID == uuid.Nil || p.TaskID == uuid.Nil || p.ColumnID == uuid.Nil {
		return invalid("boardId, taskId and columnId are required")
	}
	if p.Position < 0 {
		return invalid("position must not be negative")
	}
	room := BoardRoom(p.BoardID)
	if err := r.requireJoined(c, room); err != nil {
		return err
	}
	userID := c.UserID()
	p.UserID = &userID
	return r.hub.Broadcast(ctx, room, EventTaskMoved, p, c)
}

func (r *Router) taskDelete(ctx context.Context, c *Conn, data json.RawMessage) error {
	var p TaskDeletePayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if p.BoardID == uuid.Nil || p.TaskID == uuid.Nil {
		return invalid("boardId and taskId are required")
	}
	room := BoardRoom(p.BoardID)
	if err := r.requireJoined(c, room); err != nil {
		return err
	}
	return r.hub.Broadcast(ctx, room, EventTaskDeleted, p.TaskID, c)
}

func (r *Router) typing(out string) eventHandler {
	return func(ctx context.Context, c *Conn, data json.RawMessage) error {
		var p TypingPayload
		if err := decode(data, &p); err != nil {
			return err
		}
		if p.TaskID == uuid.Nil {
			return invalid("taskId is required")
		}
		room := TaskRoom(p.TaskID)
		if err := r.requireJoined(c, room); err != nil {
			return err
		}
		return r.hub.Broadcast(ctx, room, out, TypingPayload{UserID: c.UserID(), TaskID: p.TaskID}, c)
	}
}

func (r *Router) commentCreate(ctx context.Context, c *Conn, data json.RawMessage) error {
	var p CommentPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if p.TaskID == uuid.Nil || len(p.Comment) == 0 || string(p.Comment) == "null" {
		return invalid("taskId and comment are required")
	}
	room := TaskRoom(p.TaskID)
	if err := r.requireJoined(c, room); err != nil {
		return err
	}
	return r.hub.Broadcast(ctx, room, EventCommentCreated, p.Comment, c)
}

func (r *Router) presenceSet(ctx context.Context, c *Conn, data json.RawMessage) error {
	var p PresenceSetPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if p.OrganizationID == uuid.Nil {
		return invalid("organizationId is required")
	}
	return r.hub.SetStatus(ctx, c, p.OrganizationID, p.Status)
}
