package board

import "github.com/google/uuid"

// ResolveDrop turns a pointer release into a move target.
// Over a task the dragged task lands immediately before it; over a column it is appended.
// The index is computed as if the dragged task had already been removed.
func (s *State) ResolveDrop(activeTaskID, overID uuid.UUID) (Location, bool) {
	from, ok := s.Locate(activeTaskID)
	if !ok {
		return Location{}, false
	}
	if overID == activeTaskID {
		return from, true
	}

	if over, ok := s.Locate(overID); ok {
		index := over.Index
		if over.ColumnID == from.ColumnID && from.Index < over.Index {
			index--
		}
		return Location{ColumnID: over.ColumnID, Index: index}, true
	}

	ci := s.columnIndex(overID)
	if ci < 0 {
		return Location{}, false
	}
	n := len(s.columns[ci].Tasks)
	if overID == from.ColumnID {
		n--
	}
	return Location{ColumnID: overID, Index: n}, true
}
