package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afnanahmadtariq/collab-pm/internal/dto"
	"github.com/afnanahmadtariq/collab-pm/internal/response"
	"github.com/afnanahmadtariq/collab-pm/internal/service"
)

type TaskHandler struct {
	taskService service.TaskService
}

func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// CreateTask godoc
// @Summary      Task 생성
// @Description  컬럼에 태스크를 생성합니다. position이 없으면 마지막에 추가되며, 클라이언트가 지정한 id를 그대로 사용합니다
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateTaskRequest true "Task 생성 요청"
// @Success      201 {object} response.SuccessResponse{data=dto.TaskResponse} "Task 생성 성공"
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      403 {object} response.ErrorResponse "권한 없음"
// @Failure      404 {object} response.ErrorResponse "Column을 찾을 수 없음"
// @Failure      409 {object} response.ErrorResponse "이미 존재하는 ID"
// @Router       /tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, task)
}

// GetTask godoc
// @Summary      Task 조회
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        taskId path string true "Task ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.TaskResponse} "Task 조회 성공"
// @Failure      400 {object} response.ErrorResponse "잘못된 Task ID"
// @Failure      404 {object} response.ErrorResponse "Task를 찾을 수 없음"
// @Router       /tasks/{taskId} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), taskID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, task)
}

// UpdateTask godoc
// @Summary      Task 수정
// @Description  전달된 필드만 수정합니다. clear* 플래그는 해당 필드를 비웁니다
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        taskId path string true "Task ID (UUID)"
// @Param        request body dto.UpdateTaskRequest true "Task 수정 요청"
// @Success      200 {object} response.SuccessResponse{data=dto.TaskResponse} "Task 수정 성공"
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      404 {object} response.ErrorResponse "Task를 찾을 수 없음"
// @Router       /tasks/{taskId} [patch]
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}
	if req.IsEmpty() {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "No fields to update")
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), taskID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, task)
}

// DeleteTask godoc
// @Summary      Task 삭제
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        taskId path string true "Task ID (UUID)"
// @Success      200 {object} response.SuccessResponse "Task 삭제 성공"
// @Failure      404 {object} response.ErrorResponse "Task를 찾을 수 없음"
// @Router       /tasks/{taskId} [delete]
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), taskID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, nil)
}

// MoveTask godoc
// @Summary      Task 이동
// @Description  태스크를 대상 컬럼의 지정 위치로 이동합니다. 위치는 컬럼 길이로 제한됩니다
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        taskId path string true "Task ID (UUID)"
// @Param        request body dto.MoveTaskRequest true "대상 컬럼과 위치"
// @Success      200 {object} response.SuccessResponse{data=dto.TaskResponse} "Task 이동 성공"
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      404 {object} response.ErrorResponse "Task 또는 Column을 찾을 수 없음"
// @Failure      409 {object} response.ErrorResponse "동시 수정 충돌"
// @Router       /tasks/{taskId}/move [put]
func (h *TaskHandler) MoveTask(c *gin.Context) {
	taskID, ok := pathUUID(c, "taskId", "task")
	if !ok {
		return
	}

	var req dto.MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	task, err := h.taskService.MoveTask(c.Request.Context(), taskID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, task)
}
