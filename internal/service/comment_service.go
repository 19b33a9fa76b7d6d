package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afnanahmadtariq/collab-pm/internal/domain"
	"github.com/afnanahmadtariq/collab-pm/internal/dto"
	"github.com/afnanahmadtariq/collab-pm/internal/metrics"
	"github.com/afnanahmadtariq/collab-pm/internal/repository"
	"github.com/afnanahmadtariq/collab-pm/internal/response"
)

// CommentService defines comment operations on a task
type CommentService interface {
	CreateComment(ctx context.Context, taskID uuid.UUID, req *dto.CreateCommentRequest) (*dto.CommentResponse, error)
	GetComments(ctx context.Context, taskID uuid.UUID) ([]dto.CommentResponse, error)
}

type commentServiceImpl struct {
	commentRepo repository.CommentRepository
	taskRepo    repository.TaskRepository
	scopes      repository.ScopeRepository
	audit       *auditLog
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewCommentService creates a new instance of CommentService
func NewCommentService(
	commentRepo repository.CommentRepository,
	taskRepo repository.TaskRepository,
	scopes repository.ScopeRepository,
	activityRepo repository.ActivityRepository,
	notificationRepo repository.NotificationRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) CommentService {
	return &commentServiceImpl{
		commentRepo: commentRepo,
		taskRepo:    taskRepo,
		scopes:      scopes,
		audit:       &auditLog{activities: activityRepo, notifications: notificationRepo, logger: logger},
		metrics:     m,
		logger:      logger,
	}
}

func (s *commentServiceImpl) CreateComment(ctx context.Context, taskID uuid.UUID, req *dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	scope, err := s.scopes.TaskScope(ctx, taskID)
	if err != nil {
		return nil, scopeError("Task", err)
	}
	userID, err := authorize(ctx, s.scopes, scope, true)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, response.NewAppError(response.ErrCodeValidation, "Comment content is required", "")
	}

	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, persistError("load task", err)
	}

	comment := &domain.Comment{TaskID: taskID, AuthorID: userID, Content: content}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, persistError("create comment", err)
	}

	s.metrics.IncrementCommentCreated()
	s.audit.record(ctx, domain.ActivityCommentAdded, userID, scope.ProjectID, &taskID, map[string]interface{}{
		"commentId": comment.ID,
	})

	// 작성자 본인을 제외한 담당자/생성자에게 알림
	recipients := []uuid.UUID{task.CreatorID}
	if task.AssigneeID != nil && *task.AssigneeID != task.CreatorID {
		recipients = append(recipients, *task.AssigneeID)
	}
	for _, recipient := range recipients {
		s.audit.notify(ctx, recipient, userID, "New comment", "New comment on \""+task.Title+"\"", &taskID)
	}

	resp := dto.ToCommentResponse(comment)
	return &resp, nil
}

func (s *commentServiceImpl) GetComments(ctx context.Context, taskID uuid.UUID) ([]dto.CommentResponse, error) {
	scope, err := s.scopes.TaskScope(ctx, taskID)
	if err != nil {
		return nil, scopeError("Task", err)
	}
	if _, err := authorize(ctx, s.scopes, scope, false); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.FindByTaskID(ctx, taskID)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to load comments", err.Error())
	}
	out := make([]dto.CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, dto.ToCommentResponse(c))
	}
	return out, nil
}
