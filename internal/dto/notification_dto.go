package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/afnanahmadtariq/collab-pm/internal/domain"
)

// NotificationResponse represents an inbox entry
type NotificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Read      bool       `json:"read"`
	TaskID    *uuid.UUID `json:"taskId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// UnreadCountResponse represents the unread badge count
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// MarkAllReadResponse reports how many notifications changed
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// PresenceResponse represents one member's presence in an organization
type PresenceResponse struct {
	UserID   uuid.UUID `json:"userId"`
	Status   string    `json:"status"`
	LastSeen time.Time `json:"lastSeen"`
}

func ToNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		TaskID:    n.TaskID,
		CreatedAt: n.CreatedAt,
	}
}
