package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/afnanahmadtariq/collab-pm/internal/auth"
	"github.com/afnanahmadtariq/collab-pm/internal/domain"
	"github.com/afnanahmadtariq/collab-pm/internal/realtime"
	"github.com/afnanahmadtariq/collab-pm/internal/repository"
	"github.com/afnanahmadtariq/collab-pm/internal/response"
)

// currentUser extracts the user id set by the auth middleware
func currentUser(ctx context.Context) (uuid.UUID, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, response.NewAppError(response.ErrCodeUnauthorized, "User ID not found in context", "")
	}
	return userID, nil
}

// scopeError maps a scope lookup failure to an AppError naming the entity
func scopeError(entity string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NewAppError(response.ErrCodeNotFound, entity+" not found", "")
	}
	return response.NewAppError(response.ErrCodeInternal, "Failed to resolve "+entity, err.Error())
}

// authorize checks that the caller belongs to the scope's organization.
// write additionally rejects VIEWER members.
func authorize(ctx context.Context, scopes repository.ScopeRepository, scope *repository.Scope, write bool) (uuid.UUID, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	member, err := scopes.FindMember(ctx, scope.OrganizationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, response.NewAppError(response.ErrCodeForbidden, "Not a member of this organization", "")
		}
		return uuid.Nil, response.NewAppError(response.ErrCodeInternal, "Failed to verify membership", err.Error())
	}
	if write && !member.Role.CanWrite() {
		return uuid.Nil, response.NewAppError(response.ErrCodeForbidden, "Viewers cannot modify the board", "")
	}
	return userID, nil
}

// persistError maps repository write errors
func persistError(action string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return response.NewAppError(response.ErrCodeNotFound, "Resource not found", "")
	case errors.Is(err, repository.ErrDuplicate):
		return response.NewAppError(response.ErrCodeAlreadyExists, "Resource already exists", err.Error())
	case errors.Is(err, repository.ErrConflict):
		return response.NewAppError(response.ErrCodeConflict, "Concurrent modification, refetch and retry", err.Error())
	default:
		return response.NewAppError(response.ErrCodeInternal, "Failed to "+action, err.Error())
	}
}

// auditLog appends activity rows and notifications. Failures are logged and never fail the mutation.
type auditLog struct {
	activities    repository.ActivityRepository
	notifications repository.NotificationRepository
	logger        *zap.Logger
}

func (a *auditLog) record(ctx context.Context, action domain.ActivityAction, userID, projectID uuid.UUID, taskID *uuid.UUID, metadata map[string]interface{}) {
	if a == nil || a.activities == nil {
		return
	}
	activity := &domain.Activity{
		Action:    action,
		UserID:    userID,
		ProjectID: projectID,
		TaskID:    taskID,
	}
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err == nil {
			activity.Metadata = datatypes.JSON(raw)
		}
	}
	if err := a.activities.Create(ctx, activity); err != nil {
		a.logger.Warn("Failed to record activity",
			zap.String("action", string(action)),
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}

func (a *auditLog) notify(ctx context.Context, recipient, actor uuid.UUID, title, message string, taskID *uuid.UUID) {
	if a == nil || a.notifications == nil || recipient == uuid.Nil || recipient == actor {
		return
	}
	n := &domain.Notification{UserID: recipient, Title: title, Message: message, TaskID: taskID}
	if err := a.notifications.Create(ctx, n); err != nil {
		a.logger.Warn("Failed to create notification",
			zap.String("recipient", recipient.String()),
			zap.Error(err))
	}
}

// roomAuthorizer admits a user to a realtime room when they belong to its organization
type roomAuthorizer struct {
	scopes repository.ScopeRepository
}

// NewRoomAuthorizer creates the realtime join authorizer backed by organization membership
func NewRoomAuthorizer(scopes repository.ScopeRepository) realtime.Authorizer {
	return &roomAuthorizer{scopes: scopes}
}

func (a *roomAuthorizer) AuthorizeRoom(ctx context.Context, userID uuid.UUID, room realtime.Room) error {
	orgID := room.ID
	if room.Kind != realtime.RoomOrganization {
		var (
			scope *repository.Scope
			err   error
		)
		if room.Kind == realtime.RoomBoard {
			scope, err = a.scopes.BoardScope(ctx, room.ID)
		} else {
			scope, err = a.scopes.TaskScope(ctx, room.ID)
		}
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return realtime.ErrRoomNotFound
			}
			return err
		}
		orgID = scope.OrganizationID
	}

	if _, err := a.scopes.FindMember(ctx, orgID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return realtime.ErrForbidden
		}
		return err
	}
	return nil
}
