package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afnanahmadtariq/collab-pm/internal/dto"
	"github.com/afnanahmadtariq/collab-pm/internal/response"
)

func TestNotificationHandler_QueryParsing(t *testing.T) {
	var gotUnread bool
	var gotLimit int
	svc := &MockNotificationService{
		GetNotificationsFunc: func(_ context.Context, unreadOnly bool, limit int) ([]dto.NotificationResponse, error) {
			gotUnread, gotLimit = unreadOnly, limit
			return []dto.NotificationResponse{{ID: uuid.New(), Title: "New comment"}}, nil
		},
		GetUnreadCountFunc: func(context.Context) (*dto.UnreadCountResponse, error) {
			return &dto.UnreadCountResponse{Count: 4}, nil
		},
	}
	h := NewNotificationHandler(svc)
	r := gin.New()
	r.Use(withUser(uuid.New()))
	r.GET("/notifications", h.GetNotifications)
	r.GET("/notifications/unread-count", h.GetUnreadCount)
	r.PATCH("/notifications/:id/read", h.MarkRead)
	r.POST("/notifications/read-all", h.MarkAllRead)

	w := doJSON(r, http.MethodGet, "/notifications?unread=true&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gotUnread)
	assert.Equal(t, 10, gotLimit)

	w = doJSON(r, http.MethodGet, "/notifications?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(r, http.MethodGet, "/notifications?unread=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/notifications/unread-count", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var count struct {
		Data dto.UnreadCountResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &count))
	assert.Equal(t, int64(4), count.Data.Count)

	w = doJSON(r, http.MethodPatch, "/notifications/"+uuid.NewString()+"/read", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodPost, "/notifications/read-all", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCommentAndAttachmentHandlers(t *testing.T) {
	taskID := uuid.New()
	comments := NewCommentHandler(&MockCommentService{})
	attachments := NewAttachmentHandler(&MockAttachmentService{
		CreatePresignedURLFunc: func(_ context.Context, id uuid.UUID, req *dto.PresignedURLRequest) (*dto.PresignedURLResponse, error) {
			if req.ContentType == "application/x-msdownload" {
				return nil, response.NewAppError(response.ErrCodeValidation, "Unsupported file type", "")
			}
			return &dto.PresignedURLResponse{UploadURL: "https://s3/upload", FileKey: "attachments/" + id.String() + "/k", ExpiresIn: 300}, nil
		},
	})
	r := gin.New()
	r.Use(withUser(uuid.New()))
	r.POST("/tasks/:taskId/comments", comments.CreateComment)
	r.GET("/tasks/:taskId/comments", comments.GetComments)
	r.POST("/tasks/:taskId/attachments/presigned-url", attachments.GeneratePresignedURL)
	r.POST("/tasks/:taskId/attachments", attachments.CreateAttachment)
	r.GET("/tasks/:taskId/attachments", attachments.GetAttachments)

	base := "/tasks/" + taskID.String()
	tests := []struct {
		name           string
		method         string
		path           string
		body           interface{}
		expectedStatus int
	}{
		{"성공: 댓글 작성", http.MethodPost, base + "/comments", map[string]string{"content": "hi"}, http.StatusCreated},
		{"실패: 빈 댓글", http.MethodPost, base + "/comments", map[string]string{}, http.StatusBadRequest},
		{"성공: 댓글 목록", http.MethodGet, base + "/comments", nil, http.StatusOK},
		{"성공: presigned url", http.MethodPost, base + "/attachments/presigned-url", map[string]string{"fileName": "a.png", "contentType": "image/png"}, http.StatusOK},
		{"실패: 지원하지 않는 형식", http.MethodPost, base + "/attachments/presigned-url", map[string]string{"fileName": "a.exe", "contentType": "application/x-msdownload"}, http.StatusBadRequest},
		{"성공: 첨부 등록", http.MethodPost, base + "/attachments", map[string]interface{}{"name": "a.png", "fileKey": "attachments/" + taskID.String() + "/k", "size": 10}, http.StatusCreated},
		{"실패: fileKey 누락", http.MethodPost, base + "/attachments", map[string]interface{}{"name": "a.png"}, http.StatusBadRequest},
		{"성공: 첨부 목록", http.MethodGet, base + "/attachments", nil, http.StatusOK},
		{"실패: 잘못된 Task ID", http.MethodGet, "/tasks/bad/attachments", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestPresenceHandler(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()
	h := NewPresenceHandler(&MockPresenceService{
		GetPresenceFunc: func(_ context.Context, id uuid.UUID) ([]dto.PresenceResponse, error) {
			if id != orgID {
				return nil, response.NewAppError(response.ErrCodeForbidden, "Not a member of this organization", "")
			}
			return []dto.PresenceResponse{{UserID: userID, Status: "online"}}, nil
		},
	})
	r := gin.New()
	r.Use(withUser(userID))
	r.GET("/organizations/:orgId/presence", h.GetPresence)

	w := doJSON(r, http.MethodGet, "/organizations/"+orgID.String()+"/presence", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"online"`)

	w = doJSON(r, http.MethodGet, "/organizations/"+uuid.NewString()+"/presence", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
