package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afnanahmadtariq/collab-pm/internal/dto"
	"github.com/afnanahmadtariq/collab-pm/internal/repository"
	"github.com/afnanahmadtariq/collab-pm/internal/response"
)

// BoardService serves canonical board snapshots
type BoardService interface {
	GetBoard(ctx context.Context, boardID uuid.UUID) (*dto.BoardResponse, error)
}

type boardServiceImpl struct {
	boardRepo repository.BoardRepository
	scopes    repository.ScopeRepository
	logger    *zap.Logger
}

// NewBoardService creates a new instance of BoardService
func NewBoardService(boardRepo repository.BoardRepository, scopes repository.ScopeRepository, logger *zap.Logger) BoardService {
	return &boardServiceImpl{boardRepo: boardRepo, scopes: scopes, logger: logger}
}

// GetBoard returns the board with ordered columns and tasks
func (s *boardServiceImpl) GetBoard(ctx context.Context, boardID uuid.UUID) (*dto.BoardResponse, error) {
	scope, err := s.scopes.BoardScope(ctx, boardID)
	if err != nil {
		return nil, scopeError("Board", err)
	}
	if _, err := authorize(ctx, s.scopes, scope, false); err != nil {
		return nil, err
	}

	board, err := s.boardRepo.FindByIDWithColumns(ctx, boardID)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to load board", err.Error())
	}
	return dto.ToBoardResponse(board), nil
}
