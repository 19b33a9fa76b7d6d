package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/afnanahmadtariq/collab-pm/internal/response"
	"github.com/afnanahmadtariq/collab-pm/internal/service"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GetNotifications godoc
// @Summary      알림 목록 조회
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        unread query bool false "읽지 않은 알림만"
// @Param        limit query int false "최대 개수 (기본 50, 최대 200)"
// @Success      200 {object} response.SuccessResponse{data=[]dto.NotificationResponse} "알림 목록"
// @Failure      400 {object} response.ErrorResponse "잘못된 쿼리"
// @Router       /notifications [get]
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	unreadOnly := false
	if v := c.Query("unread"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid unread flag")
			return
		}
		unreadOnly = parsed
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid limit")
			return
		}
		limit = parsed
	}

	notifications, err := h.notificationService.GetNotifications(c.Request.Context(), unreadOnly, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, notifications)
}

// GetUnreadCount godoc
// @Summary      읽지 않은 알림 수
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.SuccessResponse{data=dto.UnreadCountResponse} "읽지 않은 알림 수"
// @Router       /notifications/unread-count [get]
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	count, err := h.notificationService.GetUnreadCount(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, count)
}

// MarkRead godoc
// @Summary      알림 읽음 처리
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Notification ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.NotificationResponse} "읽음 처리 성공"
// @Failure      404 {object} response.ErrorResponse "알림을 찾을 수 없음"
// @Router       /notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := pathUUID(c, "id", "notification")
	if !ok {
		return
	}

	n, err := h.notificationService.MarkRead(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, n)
}

// MarkAllRead godoc
// @Summary      모든 알림 읽음 처리
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.SuccessResponse{data=dto.MarkAllReadResponse} "읽음 처리된 개수"
// @Router       /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	result, err := h.notificationService.MarkAllRead(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, result)
}
