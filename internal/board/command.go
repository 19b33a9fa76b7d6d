package board

import (
	"context"

	"github.com/google/uuid"

	"github.com/afnanahmadtariq/collab-pm/internal/domain"
	"github.com/afnanahmadtariq/collab-pm/internal/dto"
)

// Persister is the persistence-confirming mutation interface the queue calls
type Persister interface {
	MoveTask(ctx context.Context, taskID, columnID uuid.UUID, position int) (*dto.TaskResponse, error)
	CreateTask(ctx context.Context, req *dto.CreateTaskRequest) (*dto.TaskResponse, error)
	UpdateTask(ctx context.Context, taskID uuid.UUID, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error)
	DeleteTask(ctx context.Context, taskID uuid.UUID) error
	CreateColumn(ctx context.Context, boardID uuid.UUID, req *dto.CreateColumnRequest) (*dto.ColumnResponse, error)
	UpdateColumn(ctx context.Context, columnID uuid.UUID, req *dto.UpdateColumnRequest) (*dto.ColumnResponse, error)
	DeleteColumn(ctx context.Context, columnID uuid.UUID) error
	MoveColumn(ctx context.Context, columnID uuid.UUID, position int) ([]dto.ColumnResponse, error)
}

// Refetcher loads the canonical board after a conflict
type Refetcher interface {
	FetchBoard(ctx context.Context, boardID uuid.UUID) (*dto.BoardResponse, error)
}

// Command is one optimistic mutation.
// Do applies it locally and records what Undo needs; Persist confirms it remotely.
type Command interface {
	// Key is the entity whose lane serializes this command
	Key() uuid.UUID
	Do(s *State) error
	Undo(s *State)
	Persist(ctx context.Context, p Persister) error
}

// coalescer is implemented by commands a newer command of the same kind may replace.
// absorb folds the older command into the receiver and reports whether it could.
type coalescer interface {
	Command
	absorb(older Command) bool
}

// columnDependent is implemented by task commands that need their target column to exist remotely
type columnDependent interface {
	targetColumn() uuid.UUID
}

// MoveTaskCommand moves a task to Index of ColumnID
type MoveTaskCommand struct {
	TaskID   uuid.UUID
	ColumnID uuid.UUID
	Index    int

	// Position is the dense position the task got locally
	Position int
	prev     Location
}

func (c *MoveTaskCommand) Key() uuid.UUID { return c.TaskID }

func (c *MoveTaskCommand) targetColumn() uuid.UUID { return c.ColumnID }

func (c *MoveTaskCommand) Do(s *State) error {
	from, ok := s.Locate(c.TaskID)
	if !ok || !s.Move(c.TaskID, from.ColumnID, c.ColumnID, c.Index) {
		return ErrNotApplied
	}
	to, _ := s.Locate(c.TaskID)
	if to == from {
		return ErrNotApplied
	}
	c.prev = from
	c.Position = to.Index
	return nil
}

func (c *MoveTaskCommand) Undo(s *State) {
	if cur, ok := s.Locate(c.TaskID); ok {
		s.Move(c.TaskID, cur.ColumnID, c.prev.ColumnID, c.prev.Index)
	}
}

func (c *MoveTaskCommand) Persist(ctx context.Context, p Persister) error {
	_, err := p.MoveTask(ctx, c.TaskID, c.ColumnID, c.Position)
	return err
}

func (c *MoveTaskCommand) absorb(older Command) bool {
	o, ok := older.(*MoveTaskCommand)
	return ok && o.TaskID == c.TaskID
}

// CreateTaskCommand inserts Task at Index of Task.ColumnID.
// A nil Task.ID is replaced by a generated one so the server keeps the client id.
type CreateTaskCommand struct {
	Task  dto.TaskResponse
	Index int
}

func (c *CreateTaskCommand) Key() uuid.UUID { return c.Task.ID }

func (c *CreateTaskCommand) targetColumn() uuid.UUID { return c.Task.ColumnID }

func (c *CreateTaskCommand) Do(s *State) error {
	if c.Task.ID == uuid.Nil {
		c.Task.ID = uuid.New()
	}
	if c.Task.Priority == "" {
		c.Task.Priority = domain.PriorityMedium
	}
	if !s.InsertTask(c.Task, c.Index) {
		return ErrNotApplied
	}
	loc, _ := s.Locate(c.Task.ID)
	c.Task.Position = loc.Index
	return nil
}

func (c *CreateTaskCommand) Undo(s *State) {
	s.RemoveTask(c.Task.ID)
}

func (c *CreateTaskCommand) Persist(ctx context.Context, p Persister) error {
	id := c.Task.ID
	position := c.Task.Position
	_, err := p.CreateTask(ctx, &dto.CreateTaskRequest{
		ID:          &id,
		ColumnID:    c.Task.ColumnID,
		Title:       c.Task.Title,
		Description: c.Task.Description,
		Priority:    string(c.Task.Priority),
		DueDate:     c.Task.DueDate,
		AssigneeID:  c.Task.AssigneeID,
		ParentID:    c.Task.ParentID,
		Position:    &position,
	})
	return err
}

// UpdateTaskCommand edits task content. Column and position are untouched.
type UpdateTaskCommand struct {
	TaskID uuid.UUID
	Req    dto.UpdateTaskRequest
	prev   dto.TaskResponse
}

func (c *UpdateTaskCommand) Key() uuid.UUID { return c.TaskID }

func (c *UpdateTaskCommand) Do(s *State) error {
	if c.Req.IsEmpty() {
		return ErrNotApplied
	}
	t, ok := s.Task(c.TaskID)
	if !ok {
		return ErrNotApplied
	}
	if c.Req.Priority != nil {
		p, ok := domain.ParsePriority(*c.Req.Priority)
		if !ok {
			return &PersistError{Kind: ErrValidation, Message: "unknown priority " + *c.Req.Priority}
		}
		t.Priority = p
	}
	applyUpdate(&t, &c.Req)
	c.prev, _ = s.PatchTask(t)
	return nil
}

func (c *UpdateTaskCommand) Undo(s *State) {
	s.PatchTask(c.prev)
}

func (c *UpdateTaskCommand) Persist(ctx context.Context, p Persister) error {
	_, err := p.UpdateTask(ctx, c.TaskID, &c.Req)
	return err
}

// absorb keeps the newer value of every field and the older value where the newer one is unset
func (c *UpdateTaskCommand) absorb(older Command) bool {
	o, ok := older.(*UpdateTaskCommand)
	if !ok || o.TaskID != c.TaskID {
		return false
	}
	r, old := &c.Req, &o.Req
	if r.Title == nil {
		r.Title = old.Title
	}
	if r.Description == nil {
		r.Description = old.Description
	}
	if r.Priority == nil {
		r.Priority = old.Priority
	}
	if r.DueDate == nil && !r.ClearDueDate {
		r.DueDate, r.ClearDueDate = old.DueDate, old.ClearDueDate
	}
	if r.AssigneeID == nil && !r.ClearAssignee {
		r.AssigneeID, r.ClearAssignee = old.AssigneeID, old.ClearAssignee
	}
	if r.ParentID == nil && !r.ClearParent {
		r.ParentID, r.ClearParent = old.ParentID, old.ClearParent
	}
	return true
}

func applyUpdate(t *dto.TaskResponse, r *dto.UpdateTaskRequest) {
	if r.Title != nil {
		t.Title = *r.Title
	}
	if r.Description != nil {
		t.Description = r.Description
	}
	switch {
	case r.ClearDueDate:
		t.DueDate = nil
	case r.DueDate != nil:
		t.DueDate = r.DueDate
	}
	switch {
	case r.ClearAssignee:
		t.AssigneeID = nil
	case r.AssigneeID != nil:
		t.AssigneeID = r.AssigneeID
	}
	switch {
	case r.ClearParent:
		t.ParentID = nil
	case r.ParentID != nil:
		t.ParentID = r.ParentID
	}
}

// DeleteTaskCommand removes a task
type DeleteTaskCommand struct {
	TaskID  uuid.UUID
	removed dto.TaskResponse
	at      Location
}

func (c *DeleteTaskCommand) Key() uuid.UUID { return c.TaskID }

func (c *DeleteTaskCommand) Do(s *State) error {
	t, at, ok := s.RemoveTask(c.TaskID)
	if !ok {
		return ErrNotApplied
	}
	c.removed, c.at = t, at
	return nil
}

func (c *DeleteTaskCommand) Undo(s *State) {
	t := c.removed
	t.ColumnID = c.at.ColumnID
	s.InsertTask(t, c.at.Index)
}

func (c *DeleteTaskCommand) Persist(ctx context.Context, p Persister) error {
	return p.DeleteTask(ctx, c.TaskID)
}

// CreateColumnCommand inserts Column at Index
type CreateColumnCommand struct {
	Column  dto.ColumnResponse
	Index   int
	boardID uuid.UUID
}

func (c *CreateColumnCommand) Key() uuid.UUID { return c.Column.ID }

func (c *CreateColumnCommand) Do(s *State) error {
	if c.Column.ID == uuid.Nil {
		c.Column.ID = uuid.New()
	}
	c.Column.Tasks = nil
	if !s.InsertColumn(c.Column, c.Index) {
		return ErrNotApplied
	}
	col, _ := s.Column(c.Column.ID)
	c.Column.Position = col.Position
	c.Column.BoardID = col.BoardID
	c.boardID = s.BoardID()
	return nil
}

func (c *CreateColumnCommand) Undo(s *State) {
	s.RemoveColumn(c.Column.ID)
}

func (c *CreateColumnCommand) Persist(ctx context.Context, p Persister) error {
	id := c.Column.ID
	position := c.Column.Position
	_, err := p.CreateColumn(ctx, c.boardID, &dto.CreateColumnRequest{
		ID:       &id,
		Name:     c.Column.Name,
		Color:    c.Column.Color,
		Position: &position,
	})
	return err
}

// UpdateColumnCommand renames or recolors a column; nil fields stay as they are
type UpdateColumnCommand struct {
	ColumnID uuid.UUID
	Name     *string
	Color    *string
	prev     dto.ColumnResponse
}

func (c *UpdateColumnCommand) Key() uuid.UUID { return c.ColumnID }

func (c *UpdateColumnCommand) Do(s *State) error {
	col, ok := s.Column(c.ColumnID)
	if !ok || (c.Name == nil && c.Color == nil) {
		return ErrNotApplied
	}
	name, color := col.Name, col.Color
	if c.Name != nil {
		name = *c.Name
	}
	if c.Color != nil {
		color = *c.Color
	}
	c.prev, _ = s.PatchColumn(c.ColumnID, name, color)
	return nil
}

func (c *UpdateColumnCommand) Undo(s *State) {
	s.PatchColumn(c.ColumnID, c.prev.Name, c.prev.Color)
}

func (c *UpdateColumnCommand) Persist(ctx context.Context, p Persister) error {
	_, err := p.UpdateColumn(ctx, c.ColumnID, &dto.UpdateColumnRequest{Name: c.Name, Color: c.Color})
	return err
}

func (c *UpdateColumnCommand) absorb(older Command) bool {
	o, ok := older.(*UpdateColumnCommand)
	if !ok || o.ColumnID != c.ColumnID {
		return false
	}
	if c.Name == nil {
		c.Name = o.Name
	}
	if c.Color == nil {
		c.Color = o.Color
	}
	return true
}

// DeleteColumnCommand removes a column and the tasks it holds
type DeleteColumnCommand struct {
	ColumnID uuid.UUID
	removed  dto.ColumnResponse
	index    int
}

func (c *DeleteColumnCommand) Key() uuid.UUID { return c.ColumnID }

func (c *DeleteColumnCommand) Do(s *State) error {
	col, index, ok := s.RemoveColumn(c.ColumnID)
	if !ok {
		return ErrNotApplied
	}
	c.removed, c.index = col, index
	return nil
}

func (c *DeleteColumnCommand) Undo(s *State) {
	s.InsertColumn(c.removed, c.index)
}

func (c *DeleteColumnCommand) Persist(ctx context.Context, p Persister) error {
	return p.DeleteColumn(ctx, c.ColumnID)
}

// MoveColumnCommand reorders a column to Index
type MoveColumnCommand struct {
	ColumnID uuid.UUID
	Index    int

	Position int
	prev     int
}

func (c *MoveColumnCommand) Key() uuid.UUID { return c.ColumnID }

func (c *MoveColumnCommand) Do(s *State) error {
	col, ok := s.Column(c.ColumnID)
	if !ok {
		return ErrNotApplied
	}
	s.ReorderColumns(c.ColumnID, c.Index)
	moved, _ := s.Column(c.ColumnID)
	if moved.Position == col.Position {
		return ErrNotApplied
	}
	c.prev = col.Position
	c.Position = moved.Position
	return nil
}

func (c *MoveColumnCommand) Undo(s *State) {
	s.ReorderColumns(c.ColumnID, c.prev)
}

func (c *MoveColumnCommand) Persist(ctx context.Context, p Persister) error {
	_, err := p.MoveColumn(ctx, c.ColumnID, c.Position)
	return err
}

func (c *MoveColumnCommand) absorb(older Command) bool {
	o, ok := older.(*MoveColumnCommand)
	return ok && o.ColumnID == c.ColumnID
}
