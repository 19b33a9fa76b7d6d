package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afnanahmadtariq/collab-pm/internal/dto"
	"github.com/afnanahmadtariq/collab-pm/internal/response"
	"github.com/afnanahmadtariq/collab-pm/internal/service"
)

type CommentHandler struct {
	commentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// CreateComment godoc
// @Summary      Comment 작성
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        taskId path string true "Task ID (UUID)"
// @Param        request body dto.CreateCommentRequest true "Comment 작성 요청"
// @Success      201 {object} response.SuccessResponse{data=dto.CommentResponse} "Comment 작성 성공"
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      403 {object} response.ErrorResponse "권한 없음"
// @Failure      404 {object} response.ErrorResponse "Task를 찾을 수 없음"
// @Router       /tasks/{taskId}/comments [post]
func (h *CommentHandler) CreateComment(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	comment, err := h.commentService.CreateComment(c.Request.Context(), taskID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, comment)
}

// GetComments godoc
// @Summary      Comment 목록 조회
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        taskId path string true "Task ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=[]dto.CommentResponse} "Comment 목록"
// @Failure      404 {object} response.ErrorResponse "Task를 찾을 수 없음"
// @Router       /tasks/{taskId}/comments [get]
func (h *CommentHandler) GetComments(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}

	comments, err := h.commentService.GetComments(c.Request.Context(), taskID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, comments)
}
