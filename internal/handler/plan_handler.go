package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edubloom/study-planner-api/internal/dto"
	"github.com/edubloom/study-planner-api/internal/service"
	appErrors "github.com/edubloom/study-planner-api/pkg/errors"
	"github.com/edubloom/study-planner-api/pkg/response"
)

// PlanHandler manages study-plan endpoints.
type PlanHandler struct {
	service *service.PlanService
}

// NewPlanHandler constructs handler.
func NewPlanHandler(svc *service.PlanService) *PlanHandler {
	return &PlanHandler{service: svc}
}

// Get returns the caller's active plan.
func (h *PlanHandler) Get(c *gin.Context) {
	plan, err := h.service.GetPlan(c.Request.Context(), UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan)
}

// Generate creates the caller's plan, or regenerates it when requested.
func (h *PlanHandler) Generate(c *gin.Context) {
	var req dto.GeneratePlanRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate request"))
			return
		}
	}

	plan, err := h.service.Generate(c.Request.Context(), UserID(c), req.Regenerate)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan)
}

// Rebalance applies a confidence change and reshapes the remaining plan.
func (h *PlanHandler) Rebalance(c *gin.Context) {
	var req dto.RebalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rebalance request"))
		return
	}

	plan, err := h.service.Rebalance(c.Request.Context(), UserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan)
}

// CompleteSession marks one session done.
func (h *PlanHandler) CompleteSession(c *gin.Context) {
	session, err := h.service.CompleteSession(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session)
}
