package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/afnanahmadtariq/collab-pm/internal/domain"
)

// BoardResponse is the canonical board snapshot used for refetch
type BoardResponse struct {
	ID        uuid.UUID        `json:"id"`
	ProjectID uuid.UUID        `json:"projectId"`
	Name      string           `json:"name"`
	Position  int              `json:"position"`
	Columns   []ColumnResponse `json:"columns"`
}

// ColumnResponse represents a column with its ordered tasks
type ColumnResponse struct {
	ID       uuid.UUID      `json:"id"`
	BoardID  uuid.UUID      `json:"boardId"`
	Name     string         `json:"name"`
	Color    string         `json:"color,omitempty"`
	Position int            `json:"position"`
	Tasks    []TaskResponse `json:"tasks"`
}

// TagResponse represents a task label
type TagResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color,omitempty"`
}

// TaskResponse represents a task
type TaskResponse struct {
	ID          uuid.UUID       `json:"id"`
	ColumnID    uuid.UUID       `json:"columnId"`
	Position    int             `json:"position"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Priority    domain.Priority `json:"priority"`
	DueDate     *time.Time      `json:"dueDate,omitempty"`
	AssigneeID  *uuid.UUID      `json:"assigneeId,omitempty"`
	CreatorID   uuid.UUID       `json:"creatorId"`
	ParentID    *uuid.UUID      `json:"parentId,omitempty"`
	Tags        []TagResponse   `json:"tags"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CreateColumnRequest represents the request to create a column
// @Description id is optional; clients may supply it so optimistic creates need no remapping
type CreateColumnRequest struct {
	ID       *uuid.UUID `json:"id,omitempty"`
	Name     string     `json:"name" binding:"required,min=1,max=255"`
	Color    string     `json:"color,omitempty" binding:"omitempty,max=20"`
	Position *int       `json:"position,omitempty" binding:"omitempty,min=0"`
}

// UpdateColumnRequest represents the request to rename or recolor a column
type UpdateColumnRequest struct {
	Name  *string `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Color *string `json:"color,omitempty" binding:"omitempty,max=20"`
}

// MoveColumnRequest represents the request to reorder a column
type MoveColumnRequest struct {
	Position *int `json:"position" binding:"required,min=0"`
}

// CreateTaskRequest represents the request to create a task.
// A nil position appends to the end of the column.
type CreateTaskRequest struct {
	ID          *uuid.UUID `json:"id,omitempty"`
	ColumnID    uuid.UUID  `json:"columnId" binding:"required"`
	Title       string     `json:"title" binding:"required,min=1,max=255"`
	Description *string    `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	AssigneeID  *uuid.UUID `json:"assigneeId,omitempty"`
	ParentID    *uuid.UUID `json:"parentId,omitempty"`
	Position    *int       `json:"position,omitempty" binding:"omitempty,min=0"`
}

// UpdateTaskRequest represents a partial task update. Clear* flags null the field.
type UpdateTaskRequest struct {
	Title         *string    `json:"title,omitempty" binding:"omitempty,min=1,max=255"`
	Description   *string    `json:"description,omitempty"`
	Priority      *string    `json:"priority,omitempty"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	AssigneeID    *uuid.UUID `json:"assigneeId,omitempty"`
	ParentID      *uuid.UUID `json:"parentId,omitempty"`
	ClearDueDate  bool       `json:"clearDueDate,omitempty"`
	ClearAssignee bool       `json:"clearAssignee,omitempty"`
	ClearParent   bool       `json:"clearParent,omitempty"`
}

// IsEmpty reports whether the request changes nothing
func (r *UpdateTaskRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.Priority == nil && r.DueDate == nil &&
		r.AssigneeID == nil && r.ParentID == nil && !r.ClearDueDate && !r.ClearAssignee && !r.ClearParent
}

// MoveTaskRequest moves a task to columnId at position. Out-of-range positions are clamped.
type MoveTaskRequest struct {
	ColumnID uuid.UUID `json:"columnId" binding:"required"`
	Position *int      `json:"position" binding:"required"`
}

func ToTaskResponse(t *domain.Task) TaskResponse {
	tags := make([]TagResponse, 0, len(t.Tags))
	for _, tag := range t.Tags {
		tags = append(tags, TagResponse{ID: tag.ID, Name: tag.Name, Color: tag.Color})
	}
	return TaskResponse{
		ID:          t.ID,
		ColumnID:    t.ColumnID,
		Position:    t.Position,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		AssigneeID:  t.AssigneeID,
		CreatorID:   t.CreatorID,
		ParentID:    t.ParentID,
		Tags:        tags,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func ToColumnResponse(c *domain.Column) ColumnResponse {
	tasks := make([]TaskResponse, 0, len(c.Tasks))
	for i := range c.Tasks {
		tasks = append(tasks, ToTaskResponse(&c.Tasks[i]))
	}
	return ColumnResponse{
		ID:       c.ID,
		BoardID:  c.BoardID,
		Name:     c.Name,
		Color:    c.Color,
		Position: c.Position,
		Tasks:    tasks,
	}
}

func ToBoardResponse(b *domain.Board) *BoardResponse {
	columns := make([]ColumnResponse, 0, len(b.Columns))
	for i := range b.Columns {
		columns = append(columns, ToColumnResponse(&b.Columns[i]))
	}
	return &BoardResponse{
		ID:        b.ID,
		ProjectID: b.ProjectID,
		Name:      b.Name,
		Position:  b.Position,
		Columns:   columns,
	}
}
