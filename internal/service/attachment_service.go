package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afnanahmadtariq/collab-pm/internal/domain"
	"github.com/afnanahmadtariq/collab-pm/internal/dto"
	"github.com/afnanahmadtariq/collab-pm/internal/repository"
	"github.com/afnanahmadtariq/collab-pm/internal/response"
)

// S3Client is the object storage used for attachment uploads
type S3Client interface {
	GeneratePresignedURL(ctx context.Context, taskID, fileName, contentType string) (string, string, error)
	GetFileURL(key string) string
	PresignTTL() time.Duration
}

// AttachmentService defines attachment operations on a task
type AttachmentService interface {
	CreatePresignedURL(ctx context.Context, taskID uuid.UUID, req *dto.PresignedURLRequest) (*dto.PresignedURLResponse, error)
	CreateAttachment(ctx context.Context, taskID uuid.UUID, req *dto.CreateAttachmentRequest) (*dto.AttachmentResponse, error)
	GetAttachments(ctx context.Context, taskID uuid.UUID) ([]dto.AttachmentResponse, error)
}

type attachmentServiceImpl struct {
	attachmentRepo repository.AttachmentRepository
	scopes         repository.ScopeRepository
	s3Client       S3Client
	logger         *zap.Logger
}

// NewAttachmentService creates a new instance of AttachmentService. s3Client may be nil when storage is not configured.
func NewAttachmentService(
	attachmentRepo repository.AttachmentRepository,
	scopes repository.ScopeRepository,
	s3Client S3Client,
	logger *zap.Logger,
) AttachmentService {
	return &attachmentServiceImpl{
		attachmentRepo: attachmentRepo,
		scopes:         scopes,
		s3Client:       s3Client,
		logger:         logger,
	}
}

func (s *attachmentServiceImpl) writableTask(ctx context.Context, taskID uuid.UUID) (uuid.UUID, error) {
	scope, err := s.scopes.TaskScope(ctx, taskID)
	if err != nil {
		return uuid.Nil, scopeError("Task", err)
	}
	return authorize(ctx, s.scopes, scope, true)
}

func (s *attachmentServiceImpl) CreatePresignedURL(ctx context.Context, taskID uuid.UUID, req *dto.PresignedURLRequest) (*dto.PresignedURLResponse, error) {
	if _, err := s.writableTask(ctx, taskID); err != nil {
		return nil, err
	}
	if s.s3Client == nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "File storage is not configured", "")
	}

	url, key, err := s.s3Client.GeneratePresignedURL(ctx, taskID.String(), req.FileName, req.ContentType)
	if err != nil {
		s.logger.Error("Failed to generate presigned URL",
			zap.String("task_id", taskID.String()),
			zap.Error(err))
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to generate upload URL", err.Error())
	}

	return &dto.PresignedURLResponse{
		UploadURL: url,
		FileKey:   key,
		ExpiresIn: int(s.s3Client.PresignTTL().Seconds()),
	}, nil
}

// CreateAttachment records an uploaded file. Re-uploading a name bumps its version.
func (s *attachmentServiceImpl) CreateAttachment(ctx context.Context, taskID uuid.UUID, req *dto.CreateAttachmentRequest) (*dto.AttachmentResponse, error) {
	userID, err := s.writableTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if s.s3Client == nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "File storage is not configured", "")
	}
	if !strings.HasPrefix(req.FileKey, "attachments/"+taskID.String()+"/") {
		return nil, response.NewAppError(response.ErrCodeValidation, "File key does not belong to this task", "")
	}

	attachment := &domain.Attachment{
		TaskID:     taskID,
		Name:       strings.TrimSpace(req.Name),
		FileKey:    req.FileKey,
		URL:        s.s3Client.GetFileURL(req.FileKey),
		Size:       req.Size,
		MimeType:   req.MimeType,
		UploadedBy: userID,
	}
	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		return nil, persistError("create attachment", err)
	}

	resp := dto.ToAttachmentResponse(attachment)
	return &resp, nil
}

func (s *attachmentServiceImpl) GetAttachments(ctx context.Context, taskID uuid.UUID) ([]dto.AttachmentResponse, error) {
	scope, err := s.scopes.TaskScope(ctx, taskID)
	if err != nil {
		return nil, scopeError("Task", err)
	}
	if _, err := authorize(ctx, s.scopes, scope, false); err != nil {
		return nil, err
	}

	attachments, err := s.attachmentRepo.FindByTaskID(ctx, taskID)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to load attachments", err.Error())
	}
	out := make([]dto.AttachmentResponse, 0, len(attachments))
	for _, a := range attachments {
		out = append(out, dto.ToAttachmentResponse(a))
	}
	return out, nil
}
