package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/afnanahmadtariq/collab-pm/internal/domain"
)

// CreateCommentRequest represents the request to create a comment
type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,min=1"`
}

// CommentResponse represents a comment
type CommentResponse struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"taskId"`
	AuthorID  uuid.UUID `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func ToCommentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		TaskID:    c.TaskID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
