package domain

import (
	"time"

	"github.com/google/uuid"
)

// Board is a kanban board owned by a project
type Board struct {
	BaseModel
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index:idx_boards_project_id" json:"projectId"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	Project   Project   `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Columns   []Column  `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE" json:"columns,omitempty"`
}

func (Board) TableName() string {
	return "boards"
}

// Column holds an ordered list of tasks. Position is dense and zero-based within the board.
type Column struct {
	BaseModel
	BoardID  uuid.UUID `gorm:"type:uuid;not null;index:idx_columns_board_id" json:"boardId"`
	Name     string    `gorm:"type:varchar(255);not null" json:"name"`
	Color    string    `gorm:"type:varchar(20)" json:"color,omitempty"`
	Position int       `gorm:"not null;default:0" json:"position"`
	Tasks    []Task    `gorm:"foreignKey:ColumnID;constraint:OnDelete:CASCADE" json:"tasks,omitempty"`
}

func (Column) TableName() string {
	return "board_columns"
}

// Task is owned by exactly one column. Position is dense and zero-based within the column.
type Task struct {
	BaseModel
	ColumnID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_tasks_column_position" json:"columnId"`
	Position    int        `gorm:"not null;default:0;index:idx_tasks_column_position" json:"position"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description *string    `gorm:"type:text" json:"description,omitempty"`
	Priority    Priority   `gorm:"type:varchar(10);not null;default:'MEDIUM'" json:"priority"`
	DueDate     *time.Time `gorm:"type:timestamp" json:"dueDate,omitempty"`
	AssigneeID  *uuid.UUID `gorm:"type:uuid;index:idx_tasks_assignee_id" json:"assigneeId,omitempty"`
	CreatorID   uuid.UUID  `gorm:"type:uuid;not null" json:"creatorId"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index:idx_tasks_parent_id" json:"parentId,omitempty"`
	Tags        []Tag      `gorm:"many2many:task_tags;constraint:OnDelete:CASCADE" json:"tags,omitempty"`
}

func (Task) TableName() string {
	return "tasks"
}

// Tag is a project-scoped label
type Tag struct {
	BaseModel
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index:idx_tags_project_id" json:"projectId"`
	Name      string    `gorm:"type:varchar(50);not null" json:"name"`
	Color     string    `gorm:"type:varchar(20)" json:"color,omitempty"`
}

func (Tag) TableName() string {
	return "tags"
}
