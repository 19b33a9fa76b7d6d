package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afnanahmadtariq/collab-pm/internal/dto"
	"github.com/afnanahmadtariq/collab-pm/internal/response"
	"github.com/afnanahmadtariq/collab-pm/internal/service"
)

type BoardHandler struct {
	boardService  service.BoardService
	columnService service.ColumnService
}

func NewBoardHandler(boardService service.BoardService, columnService service.ColumnService) *BoardHandler {
	return &BoardHandler{
		boardService:  boardService,
		columnService: columnService,
	}
}

// GetBoard godoc
// @Summary      Board 조회
// @Description  정렬된 컬럼과 태스크를 포함한 Board 전체를 조회합니다 (canonical refetch)
// @Tags         boards
// @Produce      json
// @Security     BearerAuth
// @Param        boardId path string true "Board ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.BoardResponse} "Board 조회 성공"
// @Failure      400 {object} response.ErrorResponse "잘못된 Board ID"
// @Failure      403 {object} response.ErrorResponse "조직 멤버가 아님"
// @Failure      404 {object} response.ErrorResponse "Board를 찾을 수 없음"
// @Router       /boards/{boardId} [get]
func (h *BoardHandler) GetBoard(c *gin.Context) {
	boardID, ok := pathUUID(c, "boardId", "board")
	if !ok {
		return
	}

	board, err := h.boardService.GetBoard(c.Request.Context(), boardID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, board)
}

// CreateColumn godoc
// @Summary      Column 생성
// @Description  Board에 컬럼을 추가합니다. position이 없으면 마지막에 추가됩니다
// @Tags         columns
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        boardId path string true "Board ID (UUID)"
// @Param        request body dto.CreateColumnRequest true "Column 생성 요청"
// @Success      201 {object} response.SuccessResponse{data=dto.ColumnResponse} "Column 생성 성공"
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      403 {object} response.ErrorResponse "권한 없음"
// @Failure      404 {object} response.ErrorResponse "Board를 찾을 수 없음"
// @Router       /boards/{boardId}/columns [post]
func (h *BoardHandler) CreateColumn(c *gin.Context) {
	boardID, ok := pathUUID(c, "boardId", "board")
	if !ok {
		return
	}

	var req dto.CreateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	column, err := h.columnService.CreateColumn(c.Request.Context(), boardID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, column)
}

// UpdateColumn godoc
// @Summary      Column 수정
// @Tags         columns
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        columnId path string true "Column ID (UUID)"
// @Param        request body dto.UpdateColumnRequest true "Column 수정 요청"
// @Success      200 {object} response.SuccessResponse{data=dto.ColumnResponse} "Column 수정 성공"
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      404 {object} response.ErrorResponse "Column을 찾을 수 없음"
// @Router       /columns/{columnId} [patch]
func (h *BoardHandler) UpdateColumn(c *gin.Context) {
	columnID, ok := pathUUID(c, "columnId", "column")
	if !ok {
		return
	}

	var req dto.UpdateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	column, err := h.columnService.UpdateColumn(c.Request.Context(), columnID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, column)
}

// DeleteColumn godoc
// @Summary      Column 삭제
// @Description  컬럼과 그 안의 태스크를 삭제하고 나머지 컬럼 순서를 다시 매깁니다
// @Tags         columns
// @Produce      json
// @Security     BearerAuth
// @Param        columnId path string true "Column ID (UUID)"
// @Success      200 {object} response.SuccessResponse "Column 삭제 성공"
// @Failure      404 {object} response.ErrorResponse "Column을 찾을 수 없음"
// @Router       /columns/{columnId} [delete]
func (h *BoardHandler) DeleteColumn(c *gin.Context) {
	columnID, ok := pathUUID(c, "columnId", "column")
	if !ok {
		return
	}

	if err := h.columnService.DeleteColumn(c.Request.Context(), columnID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, nil)
}

// MoveColumn godoc
// @Summary      Column 순서 변경
// @Tags         columns
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        columnId path string true "Column ID (UUID)"
// @Param        request body dto.MoveColumnRequest true "목표 위치"
// @Success      200 {object} response.SuccessResponse{data=[]dto.ColumnResponse} "변경 후 컬럼 목록"
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      404 {object} response.ErrorResponse "Column을 찾을 수 없음"
// @Router       /columns/{columnId}/position [put]
func (h *BoardHandler) MoveColumn(c *gin.Context) {
	columnID, ok := pathUUID(c, "columnId", "column")
	if !ok {
		return
	}

	var req dto.MoveColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	columns, err := h.columnService.MoveColumn(c.Request.Context(), columnID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, columns)
}
