package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/afnanahmadtariq/collab-pm/internal/domain"
)

// PresignedURLRequest represents the request for an upload URL
type PresignedURLRequest struct {
	FileName    string `json:"fileName" binding:"required,min=1,max=255"`
	ContentType string `json:"contentType" binding:"required"`
}

// PresignedURLResponse carries a presigned PUT URL and the key to confirm afterwards
type PresignedURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	FileKey   string `json:"fileKey"`
	ExpiresIn int    `json:"expiresIn"`
}

// CreateAttachmentRequest records an uploaded file on a task
type CreateAttachmentRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=255"`
	FileKey  string `json:"fileKey" binding:"required"`
	Size     int64  `json:"size" binding:"min=0"`
	MimeType string `json:"mimeType,omitempty"`
}

// AttachmentResponse represents an attachment
type AttachmentResponse struct {
	ID         uuid.UUID `json:"id"`
	TaskID     uuid.UUID `json:"taskId"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mimeType,omitempty"`
	Version    int       `json:"version"`
	UploadedBy uuid.UUID `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

func ToAttachmentResponse(a *domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:         a.ID,
		TaskID:     a.TaskID,
		Name:       a.Name,
		URL:        a.URL,
		Size:       a.Size,
		MimeType:   a.MimeType,
		Version:    a.Version,
		UploadedBy: a.UploadedBy,
		CreatedAt:  a.CreatedAt,
	}
}
