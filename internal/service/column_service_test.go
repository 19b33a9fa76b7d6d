package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afnanahmadtariq/collab-pm/internal/domain"
	"github.com/afnanahmadtariq/collab-pm/internal/dto"
	"github.com/afnanahmadtariq/collab-pm/internal/response"
)

func columnNames(t *testing.T, e *env) []string {
	t.Helper()
	board, err := e.boards.GetBoard(as(e.viewer), e.board.ID)
	require.NoError(t, err)
	names := make([]string, 0, len(board.Columns))
	for i, col := range board.Columns {
		assert.Equal(t, i, col.Position)
		names = append(names, col.Name)
	}
	return names
}

func TestColumnService_CreateAndMove(t *testing.T) {
	e := newEnv(t)

	done, err := e.columns.CreateColumn(as(e.editor), e.board.ID, &dto.CreateColumnRequest{Name: "Done"})
	require.NoError(t, err)
	assert.Equal(t, 2, done.Position)

	clientID := uuid.New()
	backlog, err := e.columns.CreateColumn(as(e.editor), e.board.ID, &dto.CreateColumnRequest{ID: &clientID, Name: "Backlog", Position: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, clientID, backlog.ID)
	assert.Equal(t, []string{"Backlog", "Todo", "Doing", "Done"}, columnNames(t, e))

	cols, err := e.columns.MoveColumn(as(e.editor), done.ID, &dto.MoveColumnRequest{Position: intPtr(1)})
	require.NoError(t, err)
	require.Len(t, cols, 4)
	assert.Equal(t, []string{"Backlog", "Done", "Todo", "Doing"}, columnNames(t, e))
	assert.Equal(t, int64(1), e.activityCount(t, domain.ActivityColumnMoved))

	name := "Ready"
	updated, err := e.columns.UpdateColumn(as(e.editor), e.todo.ID, &dto.UpdateColumnRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ready", updated.Name)

	require.NoError(t, e.columns.DeleteColumn(as(e.editor), backlog.ID))
	assert.Equal(t, []string{"Done", "Ready", "Doing"}, columnNames(t, e))
}

func TestColumnService_Failures(t *testing.T) {
	e := newEnv(t)

	_, err := e.columns.CreateColumn(as(e.editor), e.board.ID, &dto.CreateColumnRequest{Name: " "})
	assertAppError(t, err, response.ErrCodeValidation)

	_, err = e.columns.CreateColumn(as(e.viewer), e.board.ID, &dto.CreateColumnRequest{Name: "x"})
	assertAppError(t, err, response.ErrCodeForbidden)

	_, err = e.columns.CreateColumn(as(e.editor), uuid.New(), &dto.CreateColumnRequest{Name: "x"})
	assertAppError(t, err, response.ErrCodeNotFound)

	_, err = e.columns.MoveColumn(as(e.editor), e.todo.ID, &dto.MoveColumnRequest{Position: intPtr(-3)})
	assertAppError(t, err, response.ErrCodeValidation)

	assertAppError(t, e.columns.DeleteColumn(as(e.viewer), e.todo.ID), response.ErrCodeForbidden)
}
