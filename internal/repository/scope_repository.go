package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/afnanahmadtariq/collab-pm/internal/domain"
)

// Scope locates a board-level entity inside its organization
type Scope struct {
	OrganizationID uuid.UUID
	ProjectID      uuid.UUID
	BoardID        uuid.UUID
}

// ScopeRepository resolves boards, columns and tasks to their organization and checks membership
type ScopeRepository interface {
	BoardScope(ctx context.Context, boardID uuid.UUID) (*Scope, error)
	ColumnScope(ctx context.Context, columnID uuid.UUID) (*Scope, error)
	TaskScope(ctx context.Context, taskID uuid.UUID) (*Scope, error)
	FindMember(ctx context.Context, organizationID, userID uuid.UUID) (*domain.OrganizationMember, error)
}

type scopeRepositoryImpl struct {
	db *gorm.DB
}

// NewScopeRepository creates a new instance of ScopeRepository
func NewScopeRepository(db *gorm.DB) ScopeRepository {
	return &scopeRepositoryImpl{db: db}
}

const scopeSelect = "projects.organization_id AS organization_id, boards.project_id AS project_id, boards.id AS board_id"

func (r *scopeRepositoryImpl) BoardScope(ctx context.Context, boardID uuid.UUID) (*Scope, error) {
	return r.scan(r.db.WithContext(ctx).Table("boards").
		Select(scopeSelect).
		Joins("JOIN projects ON projects.id = boards.project_id").
		Where("boards.id = ?", boardID))
}

func (r *scopeRepositoryImpl) ColumnScope(ctx context.Context, columnID uuid.UUID) (*Scope, error) {
	return r.scan(r.db.WithContext(ctx).Table("board_columns").
		Select(scopeSelect).
		Joins("JOIN boards ON boards.id = board_columns.board_id").
		Joins("JOIN projects ON projects.id = boards.project_id").
		Where("board_columns.id = ?", columnID))
}

func (r *scopeRepositoryImpl) TaskScope(ctx context.Context, taskID uuid.UUID) (*Scope, error) {
	return r.scan(r.db.WithContext(ctx).Table("tasks").
		Select(scopeSelect).
		Joins("JOIN board_columns ON board_columns.id = tasks.column_id").
		Joins("JOIN boards ON boards.id = board_columns.board_id").
		Joins("JOIN projects ON projects.id = boards.project_id").
		Where("tasks.id = ?", taskID))
}

func (r *scopeRepositoryImpl) scan(q *gorm.DB) (*Scope, error) {
	var scope Scope
	if err := q.Limit(1).Scan(&scope).Error; err != nil {
		return nil, err
	}
	if scope.BoardID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &scope, nil
}

func (r *scopeRepositoryImpl) FindMember(ctx context.Context, organizationID, userID uuid.UUID) (*domain.OrganizationMember, error) {
	var member domain.OrganizationMember
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}
