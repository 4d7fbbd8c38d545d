package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edubloom/study-planner-api/internal/service"
	"github.com/edubloom/study-planner-api/pkg/response"
)

// ProgressHandler exposes measured progress statistics and history.
type ProgressHandler struct {
	service *service.ProgressService
}

// NewProgressHandler constructs handler.
func NewProgressHandler(svc *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{service: svc}
}

// Stats returns aggregate completion and confidence numbers.
func (h *ProgressHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// History returns the confidence history, newest first.
func (h *ProgressHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := h.service.History(c.Request.Context(), UserID(c), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries)
}
