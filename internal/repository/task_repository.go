package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/afnanahmadtariq/collab-pm/internal/domain"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create inserts the task at position (nil appends) and shifts later siblings
	Create(ctx context.Context, task *domain.Task, position *int) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*domain.Task, error)
	// Delete removes the task and closes the gap in its column
	Delete(ctx context.Context, id uuid.UUID) error
	// Move removes the task from its column and inserts it into target at index, renumbering both columns
	Move(ctx context.Context, id, targetColumnID uuid.UUID, index int) (*domain.Task, error)
	ParentID(ctx context.Context, id uuid.UUID) (*uuid.UUID, error)
	Count(ctx context.Context) (int64, error)
}

type taskRepositoryImpl struct {
	db *gorm.DB
}

// NewTaskRepository creates a new instance of TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepositoryImpl{db: db}
}

func (r *taskRepositoryImpl) Create(ctx context.Context, task *domain.Task, position *int) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		siblings, err := orderedIDs(tx, "tasks", "column_id", task.ColumnID, uuid.Nil)
		if err != nil {
			return err
		}
		index := len(siblings)
		if position != nil {
			index = *position
		}
		if task.ID == uuid.Nil {
			task.ID = uuid.New()
		}
		rows := insertAt(siblings, task.ID, index)
		for i, row := range rows {
			if row.ID == task.ID {
				task.Position = i
			}
		}
		if err := renumber(tx, "tasks", rows, nil); err != nil {
			return err
		}
		return tx.Create(task).Error
	})
	return translateError(err)
}

func (r *taskRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).Preload("Tags").First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepositoryImpl) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*domain.Task, error) {
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&domain.Task{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, translateError(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.FindByID(ctx, id)
}

func (r *taskRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task domain.Task
		if err := tx.Select("id, column_id").First(&task, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Task{}).Where("parent_id = ?", id).Update("parent_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&domain.Attachment{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM task_tags WHERE task_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.Task{}, "id = ?", id).Error; err != nil {
			return err
		}
		rest, err := orderedIDs(tx, "tasks", "column_id", task.ColumnID, uuid.Nil)
		if err != nil {
			return err
		}
		return renumber(tx, "tasks", rest, nil)
	})
	return translateError(err)
}

func (r *taskRepositoryImpl) Move(ctx context.Context, id, targetColumnID uuid.UUID, index int) (*domain.Task, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task domain.Task
		if err := tx.Select("id, column_id").First(&task, "id = ?", id).Error; err != nil {
			return err
		}

		target, err := orderedIDs(tx, "tasks", "column_id", targetColumnID, id)
		if err != nil {
			return err
		}
		target = insertAt(target, id, index)
		extra := map[uuid.UUID]map[string]interface{}{
			id: {"column_id": targetColumnID, "updated_at": time.Now().UTC()},
		}
		if err := renumber(tx, "tasks", target, extra); err != nil {
			return err
		}

		if task.ColumnID != targetColumnID {
			source, err := orderedIDs(tx, "tasks", "column_id", task.ColumnID, id)
			if err != nil {
				return err
			}
			if err := renumber(tx, "tasks", source, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}
	return r.FindByID(ctx, id)
}

func (r *taskRepositoryImpl) ParentID(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).Select("id, parent_id").First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return task.ParentID, nil
}

func (r *taskRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Task{}).Count(&count).Error
	return count, err
}
