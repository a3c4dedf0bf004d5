package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/phol232/Financiera/internal/core/domain"
	"github.com/phol232/Financiera/internal/core/services"
	"github.com/phol232/Financiera/internal/pkg/response"
)

// ScoringHandler proxies the backend's scoring configuration and metrics
type ScoringHandler struct {
	appService *services.ApplicationService
}

// NewScoringHandler creates a new scoring handler
func NewScoringHandler(appService *services.ApplicationService) *ScoringHandler {
	return &ScoringHandler{appService: appService}
}

// Config returns the scoring engine configuration
// @Summary Scoring configuration
// @Description Get the backend's scoring engine configuration
// @Tags Scoring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /scoring/config [get]
func (h *ScoringHandler) Config(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	cfg, err := h.appService.ScoringConfig(c.Context(), op)
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			return response.Forbidden(c, "You don't have permission to view scoring settings")
		}
		return backendError(c, err, "Failed to load scoring configuration")
	}

	return response.Success(c, "Scoring configuration retrieved successfully", cfg)
}

// Metrics returns the scoring metrics for a date range
// @Summary Scoring metrics
// @Description Get the backend's scoring metrics for a date range
// @Tags Scoring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param startDate query string false "Start date (YYYY-MM-DD)"
// @Param endDate query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /scoring/metrics [get]
func (h *ScoringHandler) Metrics(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	metrics, err := h.appService.ScoringMetrics(c.Context(), op, c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			return response.Forbidden(c, "You don't have permission to view scoring metrics")
		}
		return backendError(c, err, "Failed to load scoring metrics")
	}

	return response.Success(c, "Scoring metrics retrieved successfully", metrics)
}
