package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/afnanahmadtariq/collab-pm/internal/auth"
	"github.com/afnanahmadtariq/collab-pm/internal/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withUser stands in for the auth middleware
func withUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Request = c.Request.WithContext(auth.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

// MockBoardService is a mock implementation of BoardService
type MockBoardService struct {
	GetBoardFunc func(ctx context.Context, boardID uuid.UUID) (*dto.BoardResponse, error)
}

func (m *MockBoardService) GetBoard(ctx context.Context, boardID uuid.UUID) (*dto.BoardResponse, error) {
	if m.GetBoardFunc != nil {
		return m.GetBoardFunc(ctx, boardID)
	}
	return &dto.BoardResponse{ID: boardID}, nil
}

// MockColumnService is a mock implementation of ColumnService
type MockColumnService struct {
	CreateColumnFunc func(ctx context.Context, boardID uuid.UUID, req *dto.CreateColumnRequest) (*dto.ColumnResponse, error)
	UpdateColumnFunc func(ctx context.Context, columnID uuid.UUID, req *dto.UpdateColumnRequest) (*dto.ColumnResponse, error)
	DeleteColumnFunc func(ctx context.Context, columnID uuid.UUID) error
	MoveColumnFunc   func(ctx context.Context, columnID uuid.UUID, req *dto.MoveColumnRequest) ([]dto.ColumnResponse, error)
}

func (m *MockColumnService) CreateColumn(ctx context.Context, boardID uuid.UUID, req *dto.CreateColumnRequest) (*dto.ColumnResponse, error) {
	if m.CreateColumnFunc != nil {
		return m.CreateColumnFunc(ctx, boardID, req)
	}
	return &dto.ColumnResponse{ID: uuid.New(), BoardID: boardID, Name: req.Name}, nil
}

func (m *MockColumnService) UpdateColumn(ctx context.Context, columnID uuid.UUID, req *dto.UpdateColumnRequest) (*dto.ColumnResponse, error) {
	if m.UpdateColumnFunc != nil {
		return m.UpdateColumnFunc(ctx, columnID, req)
	}
	return &dto.ColumnResponse{ID: columnID}, nil
}

func (m *MockColumnService) DeleteColumn(ctx context.Context, columnID uuid.UUID) error {
	if m.DeleteColumnFunc != nil {
		return m.DeleteColumnFunc(ctx, columnID)
	}
	return nil
}

func (m *MockColumnService) MoveColumn(ctx context.Context, columnID uuid.UUID, req *dto.MoveColumnRequest) ([]dto.ColumnResponse, error) {
	if m.MoveColumnFunc != nil {
		return m.MoveColumnFunc(ctx, columnID, req)
	}
	return []dto.ColumnResponse{}, nil
}

// MockTaskService is a mock implementation of TaskService
type MockTaskService struct {
	CreateTaskFunc func(ctx context.Context, req *dto.CreateTaskRequest) (*dto.TaskResponse, error)
	GetTaskFunc    func(ctx context.Context, taskID uuid.UUID) (*dto.TaskResponse, error)
	UpdateTaskFunc func(ctx context.Context, taskID uuid.UUID, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error)
	DeleteTaskFunc func(ctx context.Context, taskID uuid.UUID) error
	MoveTaskFunc   func(ctx context.Context, taskID uuid.UUID, req *dto.MoveTaskRequest) (*dto.TaskResponse, error)
}

func (m *MockTaskService) CreateTask(ctx context.Context, req *dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	if m.CreateTaskFunc != nil {
		return m.CreateTaskFunc(ctx, req)
	}
	return &dto.TaskResponse{ID: uuid.New(), ColumnID: req.ColumnID, Title: req.Title}, nil
}

func (m *MockTaskService) GetTask(ctx context.Context, taskID uuid.UUID) (*dto.TaskResponse, error) {
	if m.GetTaskFunc != nil {
		return m.GetTaskFunc(ctx, taskID)
	}
	return &dto.TaskResponse{ID: taskID}, nil
}

func (m *MockTaskService) UpdateTask(ctx context.Context, taskID uuid.UUID, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	if m.UpdateTaskFunc != nil {
		return m.UpdateTaskFunc(ctx, taskID, req)
	}
	return &dto.TaskResponse{ID: taskID}, nil
}

func (m *MockTaskService) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	if m.DeleteTaskFunc != nil {
		return m.DeleteTaskFunc(ctx, taskID)
	}
	return nil
}

func (m *MockTaskService) MoveTask(ctx context.Context, taskID uuid.UUID, req *dto.MoveTaskRequest) (*dto.TaskResponse, error) {
	if m.MoveTaskFunc != nil {
		return m.MoveTaskFunc(ctx, taskID, req)
	}
	return &dto.TaskResponse{ID: taskID, ColumnID: req.ColumnID, Position: *req.Position}, nil
}

// MockCommentService is a mock implementation of CommentService
type MockCommentService struct {
	CreateCommentFunc func(ctx context.Context, taskID uuid.UUID, req *dto.CreateCommentRequest) (*dto.CommentResponse, error)
	GetCommentsFunc   func(ctx context.Context, taskID uuid.UUID) ([]dto.CommentResponse, error)
}

func (m *MockCommentService) CreateComment(ctx context.Context, taskID uuid.UUID, req *dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	if m.CreateCommentFunc != nil {
		return m.CreateCommentFunc(ctx, taskID, req)
	}
	return &dto.CommentResponse{ID: uuid.New(), TaskID: taskID, Content: req.Content}, nil
}

func (m *MockCommentService) GetComments(ctx context.Context, taskID uuid.UUID) ([]dto.CommentResponse, error) {
	if m.GetCommentsFunc != nil {
		return m.GetCommentsFunc(ctx, taskID)
	}
	return []dto.CommentResponse{}, nil
}

// MockAttachmentService is a mock implementation of AttachmentService
type MockAttachmentService struct {
	CreatePresignedURLFunc func(ctx context.Context, taskID uuid.UUID, req *dto.PresignedURLRequest) (*dto.PresignedURLResponse, error)
	CreateAttachmentFunc   func(ctx context.Context, taskID uuid.UUID, req *dto.CreateAttachmentRequest) (*dto.AttachmentResponse, error)
	GetAttachmentsFunc     func(ctx context.Context, taskID uuid.UUID) ([]dto.AttachmentResponse, error)
}

func (m *MockAttachmentService) CreatePresignedURL(ctx context.Context, taskID uuid.UUID, req *dto.PresignedURLRequest) (*dto.PresignedURLResponse, error) {
	if m.CreatePresignedURLFunc != nil {
		return m.CreatePresignedURLFunc(ctx, taskID, req)
	}
	return &dto.PresignedURLResponse{}, nil
}

func (m *MockAttachmentService) CreateAttachment(ctx context.Context, taskID uuid.UUID, req *dto.CreateAttachmentRequest) (*dto.AttachmentResponse, error) {
	if m.CreateAttachmentFunc != nil {
		return m.CreateAttachmentFunc(ctx, taskID, req)
	}
	return &dto.AttachmentResponse{ID: uuid.New(), TaskID: taskID, Name: req.Name, Version: 1}, nil
}

func (m *MockAttachmentService) GetAttachments(ctx context.Context, taskID uuid.UUID) ([]dto.AttachmentResponse, error) {
	if m.GetAttachmentsFunc != nil {
		return m.GetAttachmentsFunc(ctx, taskID)
	}
	return []dto.AttachmentResponse{}, nil
}

// MockNotificationService is a mock implementation of NotificationService
type MockNotificationService struct {
	GetNotificationsFunc func(ctx context.Context, unreadOnly bool, limit int) ([]dto.NotificationResponse, error)
	GetUnreadCountFunc   func(ctx context.Context) (*dto.UnreadCountResponse, error)
	MarkReadFunc         func(ctx context.Context, id uuid.UUID) (*dto.NotificationResponse, error)
	MarkAllReadFunc      func(ctx context.Context) (*dto.MarkAllReadResponse, error)
}

func (m *MockNotificationService) GetNotifications(ctx context.Context, unreadOnly bool, limit int) ([]dto.NotificationResponse, error) {
	if m.GetNotificationsFunc != nil {
		return m.GetNotificationsFunc(ctx, unreadOnly, limit)
	}
	return []dto.NotificationResponse{}, nil
}

func (m *MockNotificationService) GetUnreadCount(ctx context.Context) (*dto.UnreadCountResponse, error) {
	if m.GetUnreadCountFunc != nil {
		return m.GetUnreadCountFunc(ctx)
	}
	return &dto.UnreadCountResponse{}, nil
}

func (m *MockNotificationService) MarkRead(ctx context.Context, id uuid.UUID) (*dto.NotificationResponse, error) {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, id)
	}
	return &dto.NotificationResponse{ID: id, Read: true}, nil
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context) (*dto.MarkAllReadResponse, error) {
	if m.MarkAllReadFunc != nil {
		return m.MarkAllReadFunc(ctx)
	}
	return &dto.MarkAllReadResponse{}, nil
}

// MockPresenceService is a mock implementation of PresenceService
type MockPresenceService struct {
	GetPresenceFunc func(ctx context.Context, organizationID uuid.UUID) ([]dto.PresenceResponse, error)
}

func (m *MockPresenceService) GetPresence(ctx context.Context, organizationID uuid.UUID) ([]dto.PresenceResponse, error) {
	if m.GetPresenceFunc != nil {
		return m.GetPresenceFunc(ctx, organizationID)
	}
	return []dto.PresenceResponse{}, nil
}
