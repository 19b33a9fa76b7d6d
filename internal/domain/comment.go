package domain

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Comment is a message on a task
type Comment struct {
	BaseModel
	TaskID   uuid.UUID `gorm:"type:uuid;not null;index:idx_comments_task_id" json:"taskId"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;index:idx_comments_author_id" json:"authorId"`
	Content  string    `gorm:"type:text;not null" json:"content"`
	Task     Task      `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Comment) TableName() string {
	return "comments"
}

// Attachment is a file uploaded to object storage for a task
type Attachment struct {
	BaseModel
	TaskID     uuid.UUID `gorm:"type:uuid;not null;index:idx_attachments_task_id" json:"taskId"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	FileKey    string    `gorm:"type:varchar(1024);not null" json:"fileKey"`
	URL        string    `gorm:"type:text;not null" json:"url"`
	Size       int64     `gorm:"not null" json:"size"`
	MimeType   string    `gorm:"type:varchar(255)" json:"mimeType"`
	Version    int       `gorm:"not null;default:1" json:"version"`
	UploadedBy uuid.UUID `gorm:"type:uuid;not null" json:"uploadedBy"`
	Task       Task      `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Attachment) TableName() string {
	return "attachments"
}

// ActivityAction names an audit log entry
type ActivityAction string

const (
	ActivityTaskCreated  ActivityAction = "TASK_CREATED"
	ActivityTaskUpdated  ActivityAction = "TASK_UPDATED"
	ActivityTaskMoved    ActivityAction = "TASK_MOVED"
	ActivityTaskDeleted  ActivityAction = "TASK_DELETED"
	ActivityCommentAdded ActivityAction = "COMMENT_ADDED"
	ActivityColumnMoved  ActivityAction = "COLUMN_MOVED"
)

// Activity is a write-only audit log row
type Activity struct {
	BaseModel
	Action    ActivityAction `gorm:"type:varchar(50);not null" json:"action"`
	Metadata  datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_activities_user_id" json:"userId"`
	ProjectID uuid.UUID      `gorm:"type:uuid;not null;index:idx_activities_project_id" json:"projectId"`
	TaskID    *uuid.UUID     `gorm:"type:uuid;index:idx_activities_task_id" json:"taskId,omitempty"`
}

func (Activity) TableName() string {
	return "activities"
}

// Notification is a per-user inbox entry
type Notification struct {
	BaseModel
	UserID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_notifications_user_read" json:"userId"`
	Title   string     `gorm:"type:varchar(255);not null" json:"title"`
	Message string     `gorm:"type:text;not null" json:"message"`
	Read    bool       `gorm:"column:is_read;not null;default:false;index:idx_notifications_user_read" json:"read"`
	TaskID  *uuid.UUID `gorm:"type:uuid" json:"taskId,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}
