package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afnanahmadtariq/collab-pm/internal/dto"
	"github.com/afnanahmadtariq/collab-pm/internal/response"
	"github.com/afnanahmadtariq/collab-pm/internal/service"
)

type AttachmentHandler struct {
	attachmentService service.AttachmentService
}

func NewAttachmentHandler(attachmentService service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

// GeneratePresignedURL godoc
// @Summary      업로드용 Presigned URL 발급
// @Description  S3에 직접 업로드할 수 있는 PUT URL과 파일 키를 발급합니다
// @Tags         attachments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        taskId path string true "Task ID (UUID)"
// @Param        request body dto.PresignedURLRequest true "파일 정보"
// @Success      200 {object} response.SuccessResponse{data=dto.PresignedURLResponse} "발급 성공"
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      403 {object} response.ErrorResponse "권한 없음"
// @Failure      500 {object} response.ErrorResponse "스토리지 오류"
// @Router       /tasks/{taskId}/attachments/presigned-url [post]
func (h *AttachmentHandler) GeneratePresignedURL(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}

	var req dto.PresignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	resp, err := h.attachmentService.CreatePresignedURL(c.Request.Context(), taskID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, resp)
}

// CreateAttachment godoc
// @Summary      첨부파일 등록
// @Description  업로드가 끝난 파일을 태스크에 등록합니다. 같은 이름은 버전이 증가합니다
// @Tags         attachments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        taskId path string true "Task ID (UUID)"
// @Param        request body dto.CreateAttachmentRequest true "첨부파일 메타데이터"
// @Success      201 {object} response.SuccessResponse{data=dto.AttachmentResponse} "등록 성공"
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      404 {object} response.ErrorResponse "Task를 찾을 수 없음"
// @Router       /tasks/{taskId}/attachments [post]
func (h *AttachmentHandler) CreateAttachment(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}

	var req dto.CreateAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	attachment, err := h.attachmentService.CreateAttachment(c.Request.Context(), taskID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, attachment)
}

// GetAttachments godoc
// @Summary      첨부파일 목록 조회
// @Tags         attachments
// @Produce      json
// @Security     BearerAuth
// @Param        taskId path string true "Task ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=[]dto.AttachmentResponse} "첨부파일 목록"
// @Failure      404 {object} response.ErrorResponse "Task를 찾을 수 없음"
// @Router       /tasks/{taskId}/attachments [get]
func (h *AttachmentHandler) GetAttachments(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}

	attachments, err := h.attachmentService.GetAttachments(c.Request.Context(), taskID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, attachments)
}
