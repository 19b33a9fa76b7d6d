package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/afnanahmadtariq/collab-pm/internal/dto"
	"github.com/afnanahmadtariq/collab-pm/internal/repository"
	"github.com/afnanahmadtariq/collab-pm/internal/response"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

// NotificationService serves the caller's inbox
type NotificationService interface {
	GetNotifications(ctx context.Context, unreadOnly bool, limit int) ([]dto.NotificationResponse, error)
	GetUnreadCount(ctx context.Context) (*dto.UnreadCountResponse, error)
	MarkRead(ctx context.Context, id uuid.UUID) (*dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context) (*dto.MarkAllReadResponse, error)
}

type notificationServiceImpl struct {
	notificationRepo repository.NotificationRepository
	logger           *zap.Logger
}

// NewNotificationService creates a new instance of NotificationService
func NewNotificationService(notificationRepo repository.NotificationRepository, logger *zap.Logger) NotificationService {
	return &notificationServiceImpl{notificationRepo: notificationRepo, logger: logger}
}

func (s *notificationServiceImpl) GetNotifications(ctx context.Context, unreadOnly bool, limit int) ([]dto.NotificationResponse, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}

	notifications, err := s.notificationRepo.FindByUserID(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to load notifications", err.Error())
	}
	out := make([]dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, dto.ToNotificationResponse(n))
	}
	return out, nil
}

func (s *notificationServiceImpl) GetUnreadCount(ctx context.Context) (*dto.UnreadCountResponse, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to count notifications", err.Error())
	}
	return &dto.UnreadCountResponse{Count: count}, nil
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, id uuid.UUID) (*dto.NotificationResponse, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.notificationRepo.MarkRead(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewAppError(response.ErrCodeNotFound, "Notification not found", "")
		}
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to update notification", err.Error())
	}
	resp := dto.ToNotificationResponse(n)
	return &resp, nil
}

func (s *notificationServiceImpl) MarkAllRead(ctx context.Context) (*dto.MarkAllReadResponse, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	updated, err := s.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to update notifications", err.Error())
	}
	return &dto.MarkAllReadResponse{Updated: updated}, nil
}
