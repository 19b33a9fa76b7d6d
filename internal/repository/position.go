package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type positioned struct {
	ID       uuid.UUID
	Position int
}

// orderedIDs returns the rows of table under parent in display order, skipping exclude
func orderedIDs(tx *gorm.DB, table, parentColumn string, parentID, exclude uuid.UUID) ([]positioned, error) {
	var rows []positioned
	q := tx.Table(table).Select("id, position").Where(parentColumn+" = ?", parentID)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	if err := q.Order("position ASC").Order("created_at ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// insertAt places id at index (clamped to [0, len(rows)])
func insertAt(rows []positioned, id uuid.UUID, index int) []positioned {
	if index < 0 {
		index = 0
	}
	if index > len(rows) {
		index = len(rows)
	}
	out := make([]positioned, 0, len(rows)+1)
	out = append(out, rows[:index]...)
	out = append(out, positioned{ID: id, Position: -1})
	return append(out, rows[index:]...)
}

// renumber writes position = index for every row whose stored value differs.
// extra is applied to the listed rows (e.g. the new column_id of a moved task).
// The unsaved placeholder from insertAt is skipped unless it has extra updates.
func renumber(tx *gorm.DB, table string, rows []positioned, extra map[uuid.UUID]map[string]interface{}) error {
	for i, row := range rows {
		updates, hasExtra := extra[row.ID]
		if !hasExtra && (row.Position == i || row.Position < 0) {
			continue
		}
		if updates == nil {
			updates = map[string]interface{}{}
		}
		updates["position"] = i
		if err := tx.Table(table).Where("id = ?", row.ID).UpdateColumns(updates).Error; err != nil {
			return err
		}
	}
	return nil
}
