package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edubloom/study-planner-api/internal/dto"
	"github.com/edubloom/study-planner-api/internal/service"
	appErrors "github.com/edubloom/study-planner-api/pkg/errors"
	"github.com/edubloom/study-planner-api/pkg/response"
)

// ProfileHandler manages availability-profile endpoints.
type ProfileHandler struct {
	service *service.ProfileService
}

// NewProfileHandler constructs handler.
func NewProfileHandler(svc *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// Get returns the caller's availability profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.service.Get(c.Request.Context(), UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile)
}

// Upsert stores the caller's availability profile.
func (h *ProfileHandler) Upsert(c *gin.Context) {
	var req dto.UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile request"))
		return
	}

	profile, err := h.service.Upsert(c.Request.Context(), UserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile)
}
