package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/phol232/Financiera/internal/adapters/backend"
	"github.com/phol232/Financiera/internal/core/services"
	"github.com/phol232/Financiera/internal/pkg/response"
)

// CardHandler handles card moderation endpoints
type CardHandler struct {
	moderation *services.ModerationService
}

// NewCardHandler creates a new card handler
func NewCardHandler(moderation *services.ModerationService) *CardHandler {
	return &CardHandler{moderation: moderation}
}

// CardModerationRequest represents a card moderation request body
type CardModerationRequest struct {
	Reason   string `json:"reason"`
	Evidence string `json:"evidence"`
}

// List lists customer cards
// @Summary List cards
// @Description List customer cards with optional status and type filters
// @Tags Cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param cardType query string false "Card type filter"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /cards [get]
func (h *CardHandler) List(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	filters := backend.CardFilters{
		Status:   c.Query("status"),
		CardType: c.Query("cardType"),
	}

	cards, err := h.moderation.ListCards(c.Context(), op, filters)
	if err != nil {
		return moderationError(c, err, "Failed to list cards")
	}
	return response.Success(c, "Cards retrieved successfully", fiber.Map{
		"cards": cards,
	})
}

// Get fetches one customer card
// @Summary Get card
// @Description Get one customer card by id
// @Tags Cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Card ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /cards/{id} [get]
func (h *CardHandler) Get(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	card, err := h.moderation.GetCard(c.Context(), op, c.Params("id"))
	if err != nil {
		if backend.IsNotFound(err) {
			return response.NotFound(c, "Card not found")
		}
		return moderationError(c, err, "Failed to load card")
	}
	return response.Success(c, "Card retrieved successfully", fiber.Map{
		"card": card,
	})
}

// Approve approves a pending card
// @Summary Approve card
// @Description Approve a pending card
// @Tags Cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Card ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /cards/{id}/approve [post]
func (h *CardHandler) Approve(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.moderation.ApproveCard(c.Context(), op, c.Params("id")); err != nil {
		return moderationError(c, err, "Failed to approve card")
	}
	return response.Success(c, "Card approved successfully", nil)
}

// Reject rejects a pending card
// @Summary Reject card
// @Description Reject a pending card with a reason
// @Tags Cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Card ID"
// @Param body body CardModerationRequest true "Rejection reason"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /cards/{id}/reject [post]
func (h *CardHandler) Reject(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req CardModerationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.moderation.RejectCard(c.Context(), op, c.Params("id"), req.Reason, req.Evidence); err != nil {
		return moderationError(c, err, "Failed to reject card")
	}
	return response.Success(c, "Card rejected successfully", nil)
}

// Suspend suspends an active card
// @Summary Suspend card
// @Description Suspend an active card with a reason
// @Tags Cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Card ID"
// @Param body body CardModerationRequest true "Suspension reason"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /cards/{id}/suspend [post]
func (h *CardHandler) Suspend(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req CardModerationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.moderation.SuspendCard(c.Context(), op, c.Params("id"), req.Reason, req.Evidence); err != nil {
		return moderationError(c, err, "Failed to suspend card")
	}
	return response.Success(c, "Card suspended successfully", nil)
}

// Reactivate reactivates a suspended card
// @Summary Reactivate card
// @Description Reactivate a suspended card
// @Tags Cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Card ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /cards/{id}/reactivate [post]
func (h *CardHandler) Reactivate(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.moderation.ReactivateCard(c.Context(), op, c.Params("id")); err != nil {
		return moderationError(c, err, "Failed to reactivate card")
	}
	return response.Success(c, "Card reactivated successfully", nil)
}

// Close permanently closes a card
// @Summary Close card
// @Description Permanently close a card with a reason
// @Tags Cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Card ID"
// @Param body body CardModerationRequest true "Closure reason"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /cards/{id}/close [post]
func (h *CardHandler) Close(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req CardModerationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.moderation.CloseCard(c.Context(), op, c.Params("id"), req.Reason, req.Evidence); err != nil {
		return moderationError(c, err, "Failed to close card")
	}
	return response.Success(c, "Card closed successfully", nil)
}
