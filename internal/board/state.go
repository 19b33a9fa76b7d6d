package board

import (
	"sort"

	"github.com/google/uuid"

	"github.com/afnanahmadtariq/collab-pm/internal/dto"
)

// Location is where a task sits inside the board
type Location struct {
	ColumnID uuid.UUID
	Index    int
}

// State is the client-side mirror of one board.
// Columns and tasks are kept in display order and every position equals its index.
// Pointer fields of tasks are never mutated in place, so snapshots may share them.
// State is not safe for concurrent use; Queue serializes access to it.
type State struct {
	id        uuid.UUID
	projectID uuid.UUID
	name      string
	position  int
	columns   []dto.ColumnResponse
}

// NewState builds a mirror from a board snapshot, ordering by the persisted positions
func NewState(b *dto.BoardResponse) *State {
	s := &State{}
	s.Replace(b)
	return s
}

// BoardID returns the mirrored board id
func (s *State) BoardID() uuid.UUID {
	return s.id
}

// Replace discards local state for a canonical snapshot
func (s *State) Replace(b *dto.BoardResponse) {
	s.id = b.ID
	s.projectID = b.ProjectID
	s.name = b.Name
	s.position = b.Position
	s.columns = make([]dto.ColumnResponse, len(b.Columns))
	for i, c := range b.Columns {
		s.columns[i] = copyColumn(c)
		sort.SliceStable(s.columns[i].Tasks, func(a, b int) bool {
			return s.columns[i].Tasks[a].Position < s.columns[i].Tasks[b].Position
		})
	}
	sort.SliceStable(s.columns, func(a, b int) bool {
		return s.columns[a].Position < s.columns[b].Position
	})
	s.renumberColumns()
	for i := range s.columns {
		s.renumberTasks(i)
	}
}

// Snapshot returns a copy that later mutations do not affect
func (s *State) Snapshot() dto.BoardResponse {
	columns := make([]dto.ColumnResponse, len(s.columns))
	for i, c := range s.columns {
		columns[i] = copyColumn(c)
	}
	return dto.BoardResponse{
		ID:        s.id,
		ProjectID: s.projectID,
		Name:      s.name,
		Position:  s.position,
		Columns:   columns,
	}
}

// Column returns a copy of one column
func (s *State) Column(id uuid.UUID) (dto.ColumnResponse, bool) {
	i := s.columnIndex(id)
	if i < 0 {
		return dto.ColumnResponse{}, false
	}
	return copyColumn(s.columns[i]), true
}

// Task returns a copy of one task
func (s *State) Task(id uuid.UUID) (dto.TaskResponse, bool) {
	ci, ti := s.find(id)
	if ci < 0 {
		return dto.TaskResponse{}, false
	}
	return s.columns[ci].Tasks[ti], true
}

// Locate reports the column and index of a task
func (s *State) Locate(id uuid.UUID) (Location, bool) {
	ci, ti := s.find(id)
	if ci < 0 {
		return Location{}, false
	}
	return Location{ColumnID: s.columns[ci].ID, Index: ti}, true
}

// Move removes a task from src and inserts it into dst at index (clamped).
// A task missing from src or an unknown dst is a no-op.
func (s *State) Move(taskID, srcColumnID, dstColumnID uuid.UUID, index int) bool {
	si := s.columnIndex(srcColumnID)
	di := s.columnIndex(dstColumnID)
	if si < 0 || di < 0 {
		return false
	}
	ti := taskIndex(s.columns[si].Tasks, taskID)
	if ti < 0 {
		return false
	}

	task := s.columns[si].Tasks[ti]
	s.columns[si].Tasks = removeTask(s.columns[si].Tasks, ti)
	task.ColumnID = dstColumnID
	s.columns[di].Tasks = insertTask(s.columns[di].Tasks, task, index)

	s.renumberTasks(si)
	if di != si {
		s.renumberTasks(di)
	}
	return true
}

// InsertTask adds a task to its ColumnID at index (clamped). Duplicate ids are rejected.
func (s *State) InsertTask(t dto.TaskResponse, index int) bool {
	ci := s.columnIndex(t.ColumnID)
	if ci < 0 {
		return false
	}
	if c, _ := s.find(t.ID); c >= 0 {
		return false
	}
	s.columns[ci].Tasks = insertTask(s.columns[ci].Tasks, t, index)
	s.renumberTasks(ci)
	return true
}

// RemoveTask deletes a task and closes the gap it leaves
func (s *State) RemoveTask(id uuid.UUID) (dto.TaskResponse, Location, bool) {
	ci, ti := s.find(id)
	if ci < 0 {
		return dto.TaskResponse{}, Location{}, false
	}
	task := s.columns[ci].Tasks[ti]
	s.columns[ci].Tasks = removeTask(s.columns[ci].Tasks, ti)
	s.renumberTasks(ci)
	return task, Location{ColumnID: s.columns[ci].ID, Index: ti}, true
}

// PatchTask replaces the content of a task, keeping its column and position.
// It returns the content that was replaced.
func (s *State) PatchTask(t dto.TaskResponse) (dto.TaskResponse, bool) {
	ci, ti := s.find(t.ID)
	if ci < 0 {
		return dto.TaskResponse{}, false
	}
	prev := s.columns[ci].Tasks[ti]
	t.ColumnID = prev.ColumnID
	t.Position = prev.Position
	s.columns[ci].Tasks[ti] = t
	return prev, true
}

// InsertColumn adds a column at index (clamped). Tasks it carries keep their order.
func (s *State) InsertColumn(c dto.ColumnResponse, index int) bool {
	if s.columnIndex(c.ID) >= 0 {
		return false
	}
	c = copyColumn(c)
	c.BoardID = s.id
	for i := range c.Tasks {
		if ci, _ := s.find(c.Tasks[i].ID); ci >= 0 {
			return false
		}
		c.Tasks[i].ColumnID = c.ID
	}

	index = clamp(index, len(s.columns))
	s.columns = append(s.columns, dto.ColumnResponse{})
	copy(s.columns[index+1:], s.columns[index:])
	s.columns[index] = c

	s.renumberColumns()
	s.renumberTasks(index)
	return true
}

// RemoveColumn deletes a column together with its tasks
func (s *State) RemoveColumn(id uuid.UUID) (dto.ColumnResponse, int, bool) {
	i := s.columnIndex(id)
	if i < 0 {
		return dto.ColumnResponse{}, 0, false
	}
	removed := s.columns[i]
	s.columns = append(s.columns[:i:i], s.columns[i+1:]...)
	s.renumberColumns()
	return removed, i, true
}

// PatchColumn replaces name and color, returning the previous column header
func (s *State) PatchColumn(id uuid.UUID, name, color string) (dto.ColumnResponse, bool) {
	i := s.columnIndex(id)
	if i < 0 {
		return dto.ColumnResponse{}, false
	}
	prev := s.columns[i]
	s.columns[i].Name = name
	s.columns[i].Color = color
	return dto.ColumnResponse{ID: prev.ID, BoardID: prev.BoardID, Name: prev.Name, Color: prev.Color, Position: prev.Position}, true
}

// ReorderColumns moves one column to index (clamped) and renumbers the board
func (s *State) ReorderColumns(columnID uuid.UUID, index int) bool {
	i := s.columnIndex(columnID)
	if i < 0 {
		return false
	}
	c := s.columns[i]
	s.columns = append(s.columns[:i:i], s.columns[i+1:]...)
	index = clamp(index, len(s.columns))
	s.columns = append(s.columns, dto.ColumnResponse{})
	copy(s.columns[index+1:], s.columns[index:])
	s.columns[index] = c
	s.renumberColumns()
	return true
}

// ApplyRemoteMove merges a task:moved event. The receiver re-derives the source column.
func (s *State) ApplyRemoteMove(taskID, columnID uuid.UUID, position int) bool {
	loc, ok := s.Locate(taskID)
	if !ok {
		return false
	}
	return s.Move(taskID, loc.ColumnID, columnID, position)
}

// ApplyRemoteUpsert merges a task:created or task:updated event
func (s *State) ApplyRemoteUpsert(t dto.TaskResponse) bool {
	loc, ok := s.Locate(t.ID)
	if !ok {
		return s.InsertTask(t, t.Position)
	}
	if loc.ColumnID != t.ColumnID && s.columnIndex(t.ColumnID) >= 0 {
		s.Move(t.ID, loc.ColumnID, t.ColumnID, t.Position)
	}
	_, ok = s.PatchTask(t)
	return ok
}

// ApplyRemoteDelete merges a task:deleted event
func (s *State) ApplyRemoteDelete(taskID uuid.UUID) bool {
	_, _, ok := s.RemoveTask(taskID)
	return ok
}

func (s *State) columnIndex(id uuid.UUID) int {
	for i := range s.columns {
		if s.columns[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) find(taskID uuid.UUID) (int, int) {
	for ci := range s.columns {
		if ti := taskIndex(s.columns[ci].Tasks, taskID); ti >= 0 {
			return ci, ti
		}
	}
	return -1, -1
}

func (s *State) renumberTasks(ci int) {
	for i := range s.columns[ci].Tasks {
		s.columns[ci].Tasks[i].Position = i
	}
}

func (s *State) renumberColumns() {
	for i := range s.columns {
		s.columns[i].Position = i
	}
}

func taskIndex(tasks []dto.TaskResponse, id uuid.UUID) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func removeTask(tasks []dto.TaskResponse, i int) []dto.TaskResponse {
	return append(tasks[:i:i], tasks[i+1:]...)
}

func insertTask(tasks []dto.TaskResponse, t dto.TaskResponse, index int) []dto.TaskResponse {
	index = clamp(index, len(tasks))
	out := make([]dto.TaskResponse, 0, len(tasks)+1)
	out = append(out, tasks[:index]...)
	out = append(out, t)
	return append(out, tasks[index:]...)
}

func clamp(index, n int) int {
	if index < 0 {
		return 0
	}
	if index > n {
		return n
	}
	return index
}

func copyColumn(c dto.ColumnResponse) dto.ColumnResponse {
	tasks := make([]dto.TaskResponse, len(c.Tasks))
	copy(tasks, c.Tasks)
	c.Tasks = tasks
	return c
}
