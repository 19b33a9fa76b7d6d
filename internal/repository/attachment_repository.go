package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/afnanahmadtariq/collab-pm/internal/domain"
)

// AttachmentRepository defines the interface for attachment data access
type AttachmentRepository interface {
	// Create stores the attachment as the next version of any same-named file on the task
	Create(ctx context.Context, attachment *domain.Attachment) error
	FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]*domain.Attachment, error)
}

type attachmentRepositoryImpl struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new instance of AttachmentRepository
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepositoryImpl{db: db}
}

func (r *attachmentRepositoryImpl) Create(ctx context.Context, attachment *domain.Attachment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest int
		if err := tx.Model(&domain.Attachment{}).
			Select("COALESCE(MAX(version), 0)").
			Where("task_id = ? AND name = ?", attachment.TaskID, attachment.Name).
			Scan(&latest).Error; err != nil {
			return err
		}
		attachment.Version = latest + 1
		return tx.Omit("Task").Create(attachment).Error
	})
	return translateError(err)
}

func (r *attachmentRepositoryImpl) FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]*domain.Attachment, error) {
	var attachments []*domain.Attachment
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at DESC").
		Find(&attachments).Error; err != nil {
		return nil, err
	}
	return attachments, nil
}
