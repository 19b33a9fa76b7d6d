package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/afnanahmadtariq/collab-pm/internal/domain"
)

// ColumnRepository defines the interface for board column data access
type ColumnRepository interface {
	Create(ctx context.Context, column *domain.Column, position *int) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Column, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*domain.Column, error)
	// Delete removes the column with its tasks and closes the gap in the board
	Delete(ctx context.Context, id uuid.UUID) error
	// Move re-sequences the board's columns with id at index
	Move(ctx context.Context, id uuid.UUID, index int) ([]domain.Column, error)
	FindByBoardID(ctx context.Context, boardID uuid.UUID) ([]domain.Column, error)
}

type columnRepositoryImpl struct {
	db *gorm.DB
}

// NewColumnRepository creates a new instance of ColumnRepository
func NewColumnRepository(db *gorm.DB) ColumnRepository {
	return &columnRepositoryImpl{db: db}
}

func (r *columnRepositoryImpl) Create(ctx context.Context, column *domain.Column, position *int) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		siblings, err := orderedIDs(tx, "board_columns", "board_id", column.BoardID, uuid.Nil)
		if err != nil {
			return err
		}
		index := len(siblings)
		if position != nil {
			index = *position
		}
		if column.ID == uuid.Nil {
			column.ID = uuid.New()
		}
		rows := insertAt(siblings, column.ID, index)
		for i, row := range rows {
			if row.ID == column.ID {
				column.Position = i
			}
		}
		if err := renumber(tx, "board_columns", rows, nil); err != nil {
			return err
		}
		return tx.Create(column).Error
	})
	return translateError(err)
}

func (r *columnRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Column, error) {
	var column domain.Column
	if err := r.db.WithContext(ctx).First(&column, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &column, nil
}

func (r *columnRepositoryImpl) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*domain.Column, error) {
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&domain.Column{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, translateError(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.FindByID(ctx, id)
}

func (r *columnRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var column domain.Column
		if err := tx.Select("id, board_id").First(&column, "id = ?", id).Error; err != nil {
			return err
		}
		var taskIDs []uuid.UUID
		if err := tx.Model(&domain.Task{}).Where("column_id = ?", id).Pluck("id", &taskIDs).Error; err != nil {
			return err
		}
		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&domain.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&domain.Attachment{}).Error; err != nil {
				return err
			}
			if err := tx.Exec("DELETE FROM task_tags WHERE task_id IN ?", taskIDs).Error; err != nil {
				return err
			}
			if err := tx.Model(&domain.Task{}).Where("parent_id IN ?", taskIDs).Update("parent_id", nil).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("column_id = ?", id).Delete(&domain.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.Column{}, "id = ?", id).Error; err != nil {
			return err
		}
		rest, err := orderedIDs(tx, "board_columns", "board_id", column.BoardID, uuid.Nil)
		if err != nil {
			return err
		}
		return renumber(tx, "board_columns", rest, nil)
	})
	return translateError(err)
}

func (r *columnRepositoryImpl) Move(ctx context.Context, id uuid.UUID, index int) ([]domain.Column, error) {
	var boardID uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var column domain.Column
		if err := tx.Select("id, board_id").First(&column, "id = ?", id).Error; err != nil {
			return err
		}
		boardID = column.BoardID
		rows, err := orderedIDs(tx, "board_columns", "board_id", column.BoardID, id)
		if err != nil {
			return err
		}
		rows = insertAt(rows, id, index)
		return renumber(tx, "board_columns", rows, map[uuid.UUID]map[string]interface{}{id: {}})
	})
	if err != nil {
		return nil, translateError(err)
	}
	return r.FindByBoardID(ctx, boardID)
}

func (r *columnRepositoryImpl) FindByBoardID(ctx context.Context, boardID uuid.UUID) ([]domain.Column, error) {
	var columns []domain.Column
	if err := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("position ASC").
		Find(&columns).Error; err != nil {
		return nil, err
	}
	return columns, nil
}
