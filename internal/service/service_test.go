package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promdto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/afnanahmadtariq/collab-pm/internal/auth"
	"github.com/afnanahmadtariq/collab-pm/internal/database"
	"github.com/afnanahmadtariq/collab-pm/internal/domain"
	"github.com/afnanahmadtariq/collab-pm/internal/dto"
	"github.com/afnanahmadtariq/collab-pm/internal/metrics"
	"github.com/afnanahmadtariq/collab-pm/internal/repository"
	"github.com/afnanahmadtariq/collab-pm/internal/response"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}

// env wires every service over one sqlite database
type env struct {
	db      *gorm.DB
	metrics *metrics.Metrics

	org     *domain.Organization
	project *domain.Project
	board   *domain.Board
	todo    *domain.Column
	doing   *domain.Column

	editor uuid.UUID
	other  uuid.UUID
	viewer uuid.UUID

	scopes        repository.ScopeRepository
	tasks         TaskService
	columns       ColumnService
	boards        BoardService
	comments      CommentService
	notifications NotificationService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := setupTestDB(t)
	e := &env{
		db:      db,
		metrics: metrics.NewWithRegistry(prometheus.NewRegistry(), zap.NewNop()),
		editor:  uuid.New(),
		other:   uuid.New(),
		viewer:  uuid.New(),
	}

	e.org = &domain.Organization{Name: "Acme"}
	require.NoError(t, db.Create(e.org).Error)
	for userID, role := range map[uuid.UUID]domain.Role{
		e.editor: domain.RoleEditor,
		e.other:  domain.RoleAdmin,
		e.viewer: domain.RoleViewer,
	} {
		require.NoError(t, db.Create(&domain.OrganizationMember{OrganizationID: e.org.ID, UserID: userID, Role: role}).Error)
	}
	e.project = &domain.Project{OrganizationID: e.org.ID, Name: "Launch"}
	require.NoError(t, db.Create(e.project).Error)
	e.board = &domain.Board{ProjectID: e.project.ID, Name: "Sprint"}
	require.NoError(t, db.Create(e.board).Error)
	e.todo = &domain.Column{BoardID: e.board.ID, Name: "Todo", Position: 0}
	e.doing = &domain.Column{BoardID: e.board.ID, Name: "Doing", Position: 1}
	require.NoError(t, db.Create(e.todo).Error)
	require.NoError(t, db.Create(e.doing).Error)

	logger := zap.NewNop()
	taskRepo := repository.NewTaskRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	e.scopes = repository.NewScopeRepository(db)

	e.tasks = NewTaskService(taskRepo, e.scopes, activityRepo, notificationRepo, e.metrics, logger)
	e.columns = NewColumnService(repository.NewColumnRepository(db), e.scopes, activityRepo, logger)
	e.boards = NewBoardService(repository.NewBoardRepository(db), e.scopes, logger)
	e.comments = NewCommentService(repository.NewCommentRepository(db), taskRepo, e.scopes, activityRepo, notificationRepo, e.metrics, logger)
	e.notifications = NewNotificationService(notificationRepo, logger)
	return e
}

func as(userID uuid.UUID) context.Context {
	return auth.WithUserID(context.Background(), userID)
}

func intPtr(i int) *int { return &i }

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *response.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &promdto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func (e *env) createTask(t *testing.T, columnID uuid.UUID, title string) uuid.UUID {
	t.Helper()
	resp, err := e.tasks.CreateTask(as(e.editor), &dto.CreateTaskRequest{ColumnID: columnID, Title: title})
	require.NoError(t, err)
	return resp.ID
}

func (e *env) titles(t *testing.T, columnID uuid.UUID) []string {
	t.Helper()
	board, err := e.boards.GetBoard(as(e.editor), e.board.ID)
	require.NoError(t, err)
	for _, col := range board.Columns {
		if col.ID != columnID {
			continue
		}
		out := []string{}
		for i, task := range col.Tasks {
			assert.Equal(t, i, task.Position, "positions must be dense")
			out = append(out, task.Title)
		}
		return out
	}
	t.Fatalf("column %s not on board", columnID)
	return nil
}

func (e *env) activityCount(t *testing.T, action domain.ActivityAction) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&domain.Activity{}).Where("action = ?", action).Count(&n).Error)
	return n
}
