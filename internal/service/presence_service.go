package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/afnanahmadtariq/collab-pm/internal/dto"
	"github.com/afnanahmadtariq/collab-pm/internal/realtime"
	"github.com/afnanahmadtariq/collab-pm/internal/repository"
	"github.com/afnanahmadtariq/collab-pm/internal/response"
)

// PresenceReader lists presence records of an organization
type PresenceReader interface {
	Presence(ctx context.Context, organizationID uuid.UUID) ([]realtime.Presence, error)
}

// PresenceService exposes the presence store to organization members
type PresenceService interface {
	GetPresence(ctx context.Context, organizationID uuid.UUID) ([]dto.PresenceResponse, error)
}

type presenceServiceImpl struct {
	reader PresenceReader
	scopes repository.ScopeRepository
	logger *zap.Logger
}

// NewPresenceService creates a new instance of PresenceService
func NewPresenceService(reader PresenceReader, scopes repository.ScopeRepository, logger *zap.Logger) PresenceService {
	return &presenceServiceImpl{reader: reader, scopes: scopes, logger: logger}
}

func (s *presenceServiceImpl) GetPresence(ctx context.Context, organizationID uuid.UUID) ([]dto.PresenceResponse, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.scopes.FindMember(ctx, organizationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewAppError(response.ErrCodeForbidden, "Not a member of this organization", "")
		}
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to verify membership", err.Error())
	}

	records, err := s.reader.Presence(ctx, organizationID)
	if err != nil {
		s.logger.Warn("Failed to read presence",
			zap.String("organization_id", organizationID.String()),
			zap.Error(err))
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to read presence", err.Error())
	}
	out := make([]dto.PresenceResponse, 0, len(records))
	for _, p := range records {
		out = append(out, dto.PresenceResponse{UserID: p.UserID, Status: string(p.Status), LastSeen: p.LastSeen})
	}
	return out, nil
}
