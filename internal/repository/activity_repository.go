package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/afnanahmadtariq/collab-pm/internal/domain"
)

// ActivityRepository appends audit log rows
type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) error
	FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]*domain.Activity, error)
}

type activityRepositoryImpl struct {
	db *gorm.DB
}

// NewActivityRepository creates a new instance of ActivityRepository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepositoryImpl{db: db}
}

func (r *activityRepositoryImpl) Create(ctx context.Context, activity *domain.Activity) error {
	return translateError(r.db.WithContext(ctx).Create(activity).Error)
}

func (r *activityRepositoryImpl) FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]*domain.Activity, error) {
	var activities []*domain.Activity
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}
