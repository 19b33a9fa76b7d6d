package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afnanahmadtariq/collab-pm/internal/domain"
	"github.com/afnanahmadtariq/collab-pm/internal/dto"
	"github.com/afnanahmadtariq/collab-pm/internal/repository"
	"github.com/afnanahmadtariq/collab-pm/internal/response"
)

// ColumnService defines the column mutations of a board
type ColumnService interface {
	CreateColumn(ctx context.Context, boardID uuid.UUID, req *dto.CreateColumnRequest) (*dto.ColumnResponse, error)
	UpdateColumn(ctx context.Context, columnID uuid.UUID, req *dto.UpdateColumnRequest) (*dto.ColumnResponse, error)
	DeleteColumn(ctx context.Context, columnID uuid.UUID) error
	// MoveColumn re-sequences the board's columns and returns them in order
	MoveColumn(ctx context.Context, columnID uuid.UUID, req *dto.MoveColumnRequest) ([]dto.ColumnResponse, error)
}

type columnServiceImpl struct {
	columnRepo repository.ColumnRepository
	scopes     repository.ScopeRepository
	audit      *auditLog
	logger     *zap.Logger
}

// NewColumnService creates a new instance of ColumnService
func NewColumnService(
	columnRepo repository.ColumnRepository,
	scopes repository.ScopeRepository,
	activityRepo repository.ActivityRepository,
	logger *zap.Logger,
) ColumnService {
	return &columnServiceImpl{
		columnRepo: columnRepo,
		scopes:     scopes,
		audit:      &auditLog{activities: activityRepo, logger: logger},
		logger:     logger,
	}
}

func (s *columnServiceImpl) CreateColumn(ctx context.Context, boardID uuid.UUID, req *dto.CreateColumnRequest) (*dto.ColumnResponse, error) {
	scope, err := s.scopes.BoardScope(ctx, boardID)
	if err != nil {
		return nil, scopeError("Board", err)
	}
	if _, err := authorize(ctx, s.scopes, scope, true); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, response.NewAppError(response.ErrCodeValidation, "Column name is required", "")
	}

	column := &domain.Column{BoardID: boardID, Name: name, Color: req.Color}
	if req.ID != nil {
		column.ID = *req.ID
	}
	if err := s.columnRepo.Create(ctx, column, req.Position); err != nil {
		return nil, persistError("create column", err)
	}

	s.logger.Info("Column created",
		zap.String("column_id", column.ID.String()),
		zap.String("board_id", boardID.String()))

	resp := dto.ToColumnResponse(column)
	return &resp, nil
}

func (s *columnServiceImpl) UpdateColumn(ctx context.Context, columnID uuid.UUID, req *dto.UpdateColumnRequest) (*dto.ColumnResponse, error) {
	scope, err := s.scopes.ColumnScope(ctx, columnID)
	if err != nil {
		return nil, scopeError("Column", err)
	}
	if _, err := authorize(ctx, s.scopes, scope, true); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, response.NewAppError(response.ErrCodeValidation, "Column name cannot be empty", "")
		}
		updates["name"] = name
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}

	column, err := s.columnRepo.Update(ctx, columnID, updates)
	if err != nil {
		return nil, persistError("update column", err)
	}
	resp := dto.ToColumnResponse(column)
	return &resp, nil
}

func (s *columnServiceImpl) DeleteColumn(ctx context.Context, columnID uuid.UUID) error {
	scope, err := s.scopes.ColumnScope(ctx, columnID)
	if err != nil {
		return scopeError("Column", err)
	}
	if _, err := authorize(ctx, s.scopes, scope, true); err != nil {
		return err
	}
	if err := s.columnRepo.Delete(ctx, columnID); err != nil {
		return persistError("delete column", err)
	}

	s.logger.Info("Column deleted",
		zap.String("column_id", columnID.String()),
		zap.String("board_id", scope.BoardID.String()))
	return nil
}

func (s *columnServiceImpl) MoveColumn(ctx context.Context, columnID uuid.UUID, req *dto.MoveColumnRequest) ([]dto.ColumnResponse, error) {
	if req.Position == nil || *req.Position < 0 {
		return nil, response.NewAppError(response.ErrCodeValidation, "Position must be zero or greater", "")
	}
	scope, err := s.scopes.ColumnScope(ctx, columnID)
	if err != nil {
		return nil, scopeError("Column", err)
	}
	userID, err := authorize(ctx, s.scopes, scope, true)
	if err != nil {
		return nil, err
	}

	columns, err := s.columnRepo.Move(ctx, columnID, *req.Position)
	if err != nil {
		return nil, persistError("move column", err)
	}

	s.audit.record(ctx, domain.ActivityColumnMoved, userID, scope.ProjectID, nil, map[string]interface{}{
		"columnId": columnID,
		"boardId":  scope.BoardID,
		"position": *req.Position,
	})

	out := make([]dto.ColumnResponse, 0, len(columns))
	for i := range columns {
		out = append(out, dto.ToColumnResponse(&columns[i]))
	}
	return out, nil
}
