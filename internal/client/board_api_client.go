package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afnanahmadtariq/collab-pm/internal/board"
	"github.com/afnanahmadtariq/collab-pm/internal/dto"
	"github.com/afnanahmadtariq/collab-pm/internal/metrics"
	"github.com/afnanahmadtariq/collab-pm/internal/response"
)

// BoardAPIClient persists board mutations over the REST API
type BoardAPIClient interface {
	board.Persister
	board.Refetcher
	CreateComment(ctx context.Context, taskID uuid.UUID, req *dto.CreateCommentRequest) (*dto.CommentResponse, error)
}

type boardAPIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewBoardAPIClient creates a client for baseURL (e.g. "http://localhost:8000/api").
// timeout <= 0 leaves deadlines to the caller's context.
func NewBoardAPIClient(baseURL, token string, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) BoardAPIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &boardAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: m,
	}
}

// FetchBoard loads the canonical board with ordered columns and tasks
func (c *boardAPIClient) FetchBoard(ctx context.Context, boardID uuid.UUID) (*dto.BoardResponse, error) {
	var out dto.BoardResponse
	if err := c.do(ctx, http.MethodGet, "/boards/"+boardID.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *boardAPIClient) MoveTask(ctx context.Context, taskID, columnID uuid.UUID, position int) (*dto.TaskResponse, error) {
	var out dto.TaskResponse
	body := dto.MoveTaskRequest{ColumnID: columnID, Position: &position}
	if err := c.do(ctx, http.MethodPut, "/tasks/"+taskID.String()+"/move", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *boardAPIClient) CreateTask(ctx context.Context, req *dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	var out dto.TaskResponse
	if err := c.do(ctx, http.MethodPost, "/tasks", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *boardAPIClient) UpdateTask(ctx context.Context, taskID uuid.UUID, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	var out dto.TaskResponse
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+taskID.String(), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *boardAPIClient) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+taskID.String(), nil, nil)
}

func (c *boardAPIClient) CreateColumn(ctx context.Context, boardID uuid.UUID, req *dto.CreateColumnRequest) (*dto.ColumnResponse, error) {
	var out dto.ColumnResponse
	if err := c.do(ctx, http.MethodPost, "/boards/"+boardID.String()+"/columns", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *boardAPIClient) UpdateColumn(ctx context.Context, columnID uuid.UUID, req *dto.UpdateColumnRequest) (*dto.ColumnResponse, error) {
	var out dto.ColumnResponse
	if err := c.do(ctx, http.MethodPatch, "/columns/"+columnID.String(), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *boardAPIClient) DeleteColumn(ctx context.Context, columnID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/columns/"+columnID.String(), nil, nil)
}

func (c *boardAPIClient) MoveColumn(ctx context.Context, columnID uuid.UUID, position int) ([]dto.ColumnResponse, error) {
	var out []dto.ColumnResponse
	body := dto.MoveColumnRequest{Position: &position}
	if err := c.do(ctx, http.MethodPut, "/columns/"+columnID.String()+"/position", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *boardAPIClient) CreateComment(ctx context.Context, taskID uuid.UUID, req *dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	var out dto.CommentResponse
	if err := c.do(ctx, http.MethodPost, "/tasks/"+taskID.String()+"/comments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends one request and decodes the {"data": ...} envelope into out
func (c *boardAPIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	url := c.baseURL + path

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	if c.metrics != nil {
		c.metrics.RecordExternalAPICall(url, method, statusCode, duration, err)
	}

	if err != nil {
		c.logger.Warn("Board API request failed",
			zap.String("method", method),
			zap.String("url", url),
			zap.Duration("duration", duration),
			zap.Error(err))
		kind := board.ErrTransport
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			kind = board.ErrTimeout
		}
		return &board.PersistError{Kind: kind, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		perr := decodeError(resp)
		c.logger.Debug("Board API returned non-success status",
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("status_code", resp.StatusCode),
			zap.String("code", perr.Code))
		return perr
	}

	if out == nil {
		return nil
	}
	envelope := struct {
		Data interface{} `json:"data"`
	}{Data: out}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &board.PersistError{Kind: board.ErrTransport, Status: resp.StatusCode, Message: "invalid response body: " + err.Error()}
	}
	return nil
}

// decodeError maps an error response onto the board error taxonomy
func decodeError(resp *http.Response) *board.PersistError {
	var body response.ErrorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)

	perr := &board.PersistError{
		Kind:    kindForStatus(resp.StatusCode),
		Status:  resp.StatusCode,
		Code:    body.Error.Code,
		Message: body.Error.Message,
	}
	if perr.Message == "" {
		perr.Message = http.StatusText(resp.StatusCode)
	}
	return perr
}

func kindForStatus(status int) error {
	switch status {
	case http.StatusNotFound:
		return board.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return board.ErrValidation
	case http.StatusForbidden:
		return board.ErrForbidden
	case http.StatusConflict:
		return board.ErrConflict
	case http.StatusUnauthorized:
		return board.ErrUnauthenticated
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return board.ErrTimeout
	default:
		return board.ErrTransport
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
