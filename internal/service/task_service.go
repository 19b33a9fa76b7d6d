package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/afnanahmadtariq/collab-pm/internal/domain"
	"github.com/afnanahmadtariq/collab-pm/internal/dto"
	"github.com/afnanahmadtariq/collab-pm/internal/metrics"
	"github.com/afnanahmadtariq/collab-pm/internal/repository"
	"github.com/afnanahmadtariq/collab-pm/internal/response"
)

// MaxSubtaskDepth bounds the parent chain walked when validating a parent reference
const MaxSubtaskDepth = 32

// TaskService defines the persistence-confirming task mutations
type TaskService interface {
	CreateTask(ctx context.Context, req *dto.CreateTaskRequest) (*dto.TaskResponse, error)
	GetTask(ctx context.Context, taskID uuid.UUID) (*dto.TaskResponse, error)
	UpdateTask(ctx context.Context, taskID uuid.UUID, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error)
	DeleteTask(ctx context.Context, taskID uuid.UUID) error
	MoveTask(ctx context.Context, taskID uuid.UUID, req *dto.MoveTaskRequest) (*dto.TaskResponse, error)
}

type taskServiceImpl struct {
	taskRepo repository.TaskRepository
	scopes   repository.ScopeRepository
	audit    *auditLog
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewTaskService creates a new instance of TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	scopes repository.ScopeRepository,
	activityRepo repository.ActivityRepository,
	notificationRepo repository.NotificationRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) TaskService {
	return &taskServiceImpl{
		taskRepo: taskRepo,
		scopes:   scopes,
		audit:    &auditLog{activities: activityRepo, notifications: notificationRepo, logger: logger},
		metrics:  m,
		logger:   logger,
	}
}

// CreateTask inserts the task into its column, appending unless a position is given
func (s *taskServiceImpl) CreateTask(ctx context.Context, req *dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	scope, err := s.scopes.ColumnScope(ctx, req.ColumnID)
	if err != nil {
		return nil, scopeError("Column", err)
	}
	userID, err := authorize(ctx, s.scopes, scope, true)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, response.NewAppError(response.ErrCodeValidation, "Task title is required", "")
	}
	priority := domain.PriorityMedium
	if req.Priority != "" {
		p, ok := domain.ParsePriority(req.Priority)
		if !ok {
			return nil, response.NewAppError(response.ErrCodeValidation, "Invalid priority", req.Priority)
		}
		priority = p
	}

	task := &domain.Task{
		ColumnID:    req.ColumnID,
		Title:       title,
		Description: req.Description,
		Priority:    priority,
		DueDate:     req.DueDate,
		AssigneeID:  req.AssigneeID,
		CreatorID:   userID,
		ParentID:    req.ParentID,
	}
	if req.ID != nil {
		task.ID = *req.ID
	}
	if req.ParentID != nil {
		if err := s.validateParent(ctx, task.ID, *req.ParentID, scope.BoardID); err != nil {
			return nil, err
		}
	}

	if err := s.taskRepo.Create(ctx, task, req.Position); err != nil {
		return nil, persistError("create task", err)
	}

	s.metrics.IncrementTaskCreated()
	s.audit.record(ctx, domain.ActivityTaskCreated, userID, scope.ProjectID, &task.ID, map[string]interface{}{
		"title":    task.Title,
		"columnId": task.ColumnID,
		"position": task.Position,
	})
	if task.AssigneeID != nil {
		s.audit.notify(ctx, *task.AssigneeID, userID, "Task assigned", "You were assigned to \""+task.Title+"\"", &task.ID)
	}

	s.logger.Info("Task created",
		zap.String("task_id", task.ID.String()),
		zap.String("column_id", task.ColumnID.String()),
		zap.Int("position", task.Position))

	resp := dto.ToTaskResponse(task)
	return &resp, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, taskID uuid.UUID) (*dto.TaskResponse, error) {
	scope, err := s.scopes.TaskScope(ctx, taskID)
	if err != nil {
		return nil, scopeError("Task", err)
	}
	if _, err := authorize(ctx, s.scopes, scope, false); err != nil {
		return nil, err
	}
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, persistError("load task", err)
	}
	resp := dto.ToTaskResponse(task)
	return &resp, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, taskID uuid.UUID, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	scope, err := s.scopes.TaskScope(ctx, taskID)
	if err != nil {
		return nil, scopeError("Task", err)
	}
	userID, err := authorize(ctx, s.scopes, scope, true)
	if err != nil {
		return nil, err
	}

	before, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, persistError("load task", err)
	}

	updates, err := s.buildUpdates(ctx, taskID, scope.BoardID, req)
	if err != nil {
		return nil, err
	}

	task, err := s.taskRepo.Update(ctx, taskID, updates)
	if err != nil {
		return nil, persistError("update task", err)
	}

	fields := make([]string, 0, len(updates))
	for k := range updates {
		fields = append(fields, k)
	}
	s.audit.record(ctx, domain.ActivityTaskUpdated, userID, scope.ProjectID, &task.ID, map[string]interface{}{
		"fields": fields,
	})
	if task.AssigneeID != nil && (before.AssigneeID == nil || *before.AssigneeID != *task.AssigneeID) {
		s.audit.notify(ctx, *task.AssigneeID, userID, "Task assigned", "You were assigned to \""+task.Title+"\"", &task.ID)
	}

	resp := dto.ToTaskResponse(task)
	return &resp, nil
}

func (s *taskServiceImpl) buildUpdates(ctx context.Context, taskID, boardID uuid.UUID, req *dto.UpdateTaskRequest) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, response.NewAppError(response.ErrCodeValidation, "Task title cannot be empty", "")
		}
		updates["title"] = title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Priority != nil {
		p, ok := domain.ParsePriority(*req.Priority)
		if !ok {
			return nil, response.NewAppError(response.ErrCodeValidation, "Invalid priority", *req.Priority)
		}
		updates["priority"] = p
	}

	switch {
	case req.ClearDueDate:
		updates["due_date"] = nil
	case req.DueDate != nil:
		updates["due_date"] = *req.DueDate
	}
	switch {
	case req.ClearAssignee:
		updates["assignee_id"] = nil
	case req.AssigneeID != nil:
		updates["assignee_id"] = *req.AssigneeID
	}
	switch {
	case req.ClearParent:
		updates["parent_id"] = nil
	case req.ParentID != nil:
		if err := s.validateParent(ctx, taskID, *req.ParentID, boardID); err != nil {
			return nil, err
		}
		updates["parent_id"] = *req.ParentID
	}
	return updates, nil
}

// validateParent rejects self references, cycles, cross-board parents and chains deeper than MaxSubtaskDepth
func (s *taskServiceImpl) validateParent(ctx context.Context, taskID, parentID, boardID uuid.UUID) error {
	if parentID == taskID {
		return response.NewAppError(response.ErrCodeValidation, "A task cannot be its own parent", "")
	}
	parentScope, err := s.scopes.TaskScope(ctx, parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewAppError(response.ErrCodeValidation, "Parent task not found", "")
		}
		return response.NewAppError(response.ErrCodeInternal, "Failed to resolve parent task", err.Error())
	}
	if parentScope.BoardID != boardID {
		return response.NewAppError(response.ErrCodeValidation, "Parent task must be on the same board", "")
	}

	current := parentID
	for depth := 1; ; depth++ {
		if depth > MaxSubtaskDepth {
			return response.NewAppError(response.ErrCodeValidation, "Subtask nesting is too deep", "")
		}
		next, err := s.taskRepo.ParentID(ctx, current)
		if err != nil {
			return response.NewAppError(response.ErrCodeInternal, "Failed to walk parent chain", err.Error())
		}
		if next == nil {
			return nil
		}
		if *next == taskID {
			return response.NewAppError(response.ErrCodeValidation, "Parent reference would create a cycle", "")
		}
		current = *next
	}
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	scope, err := s.scopes.TaskScope(ctx, taskID)
	if err != nil {
		return scopeError("Task", err)
	}
	userID, err := authorize(ctx, s.scopes, scope, true)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return persistError("delete task", err)
	}

	s.audit.record(ctx, domain.ActivityTaskDeleted, userID, scope.ProjectID, &taskID, map[string]interface{}{
		"boardId": scope.BoardID,
	})
	s.logger.Info("Task deleted", zap.String("task_id", taskID.String()))
	return nil
}

// MoveTask removes the task from its column and inserts it at the clamped position in the target column
func (s *taskServiceImpl) MoveTask(ctx context.Context, taskID uuid.UUID, req *dto.MoveTaskRequest) (*dto.TaskResponse, error) {
	if req.Position == nil || *req.Position < 0 {
		return nil, response.NewAppError(response.ErrCodeValidation, "Position must be zero or greater", "")
	}

	scope, err := s.scopes.TaskScope(ctx, taskID)
	if err != nil {
		return nil, scopeError("Task", err)
	}
	userID, err := authorize(ctx, s.scopes, scope, true)
	if err != nil {
		return nil, err
	}

	target, err := s.scopes.ColumnScope(ctx, req.ColumnID)
	if err != nil {
		return nil, scopeError("Column", err)
	}
	if target.BoardID != scope.BoardID {
		return nil, response.NewAppError(response.ErrCodeValidation, "Target column belongs to another board", "")
	}

	before, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, persistError("load task", err)
	}

	task, err := s.taskRepo.Move(ctx, taskID, req.ColumnID, *req.Position)
	if err != nil {
		return nil, persistError("move task", err)
	}

	s.metrics.IncrementTaskMoved()
	s.audit.record(ctx, domain.ActivityTaskMoved, userID, scope.ProjectID, &task.ID, map[string]interface{}{
		"fromColumnId": before.ColumnID,
		"fromPosition": before.Position,
		"toColumnId":   task.ColumnID,
		"toPosition":   task.Position,
	})

	s.logger.Debug("Task moved",
		zap.String("task_id", taskID.String()),
		zap.String("column_id", task.ColumnID.String()),
		zap.Int("position", task.Position))

	resp := dto.ToTaskResponse(task)
	return &resp, nil
}
