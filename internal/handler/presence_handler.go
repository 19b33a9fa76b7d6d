package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/afnanahmadtariq/collab-pm/internal/response"
	"github.com/afnanahmadtariq/collab-pm/internal/service"
)

type PresenceHandler struct {
	presenceService service.PresenceService
}

func NewPresenceHandler(presenceService service.PresenceService) *PresenceHandler {
	return &PresenceHandler{presenceService: presenceService}
}

// GetPresence godoc
// @Summary      조직 접속 현황 조회
// @Tags         presence
// @Produce      json
// @Security     BearerAuth
// @Param        orgId path string true "Organization ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=[]dto.PresenceResponse} "접속 현황"
// @Failure      403 {object} response.ErrorResponse "조직 멤버가 아님"
// @Router       /organizations/{orgId}/presence [get]
func (h *PresenceHandler) GetPresence(c *gin.Context) {
	orgID, ok := pathUUID(c, "orgId", "organization")
	if !ok {
		return
	}

	presence, err := h.presenceService.GetPresence(c.Request.Context(), orgID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, presence)
}
