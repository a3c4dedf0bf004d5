package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/phol232/Financiera/internal/adapters/backend"
	"github.com/phol232/Financiera/internal/core/domain"
	"github.com/phol232/Financiera/internal/core/services"
	"github.com/phol232/Financiera/internal/pkg/response"
)

// AccountHandler handles customer account moderation endpoints
type AccountHandler struct {
	moderation *services.ModerationService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(moderation *services.ModerationService) *AccountHandler {
	return &AccountHandler{moderation: moderation}
}

// ModerationRequest represents a reject/status-change request body
type ModerationRequest struct {
	Reason string `json:"reason"`
	Status string `json:"status"`
}

func moderationError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		return response.Forbidden(c, "You don't have permission for this action")
	case errors.Is(err, domain.ErrReasonRequired):
		return response.BadRequest(c, "A reason is required for this action")
	case errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, "Invalid request")
	default:
		return backendError(c, err, fallback)
	}
}

// List lists customer accounts
// @Summary List accounts
// @Description List customer accounts with optional status, zone and type filters
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param zone query string false "Zone filter"
// @Param accountType query string false "Account type filter"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /accounts [get]
func (h *AccountHandler) List(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	filters := backend.AccountFilters{
		Status:      c.Query("status"),
		Zone:        c.Query("zone"),
		AccountType: c.Query("accountType"),
	}

	accounts, err := h.moderation.ListAccounts(c.Context(), op, filters)
	if err != nil {
		return moderationError(c, err, "Failed to list accounts")
	}
	return response.Success(c, "Accounts retrieved successfully", fiber.Map{
		"accounts": accounts,
	})
}

// Get fetches one customer account
// @Summary Get account
// @Description Get one customer account by id
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /accounts/{id} [get]
func (h *AccountHandler) Get(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	account, err := h.moderation.GetAccount(c.Context(), op, c.Params("id"))
	if err != nil {
		if backend.IsNotFound(err) {
			return response.NotFound(c, "Account not found")
		}
		return moderationError(c, err, "Failed to load account")
	}
	return response.Success(c, "Account retrieved successfully", fiber.Map{
		"account": account,
	})
}

// Approve approves a pending customer account
// @Summary Approve account
// @Description Approve a pending customer account
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /accounts/{id}/approve [post]
func (h *AccountHandler) Approve(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.moderation.ApproveAccount(c.Context(), op, c.Params("id")); err != nil {
		return moderationError(c, err, "Failed to approve account")
	}
	return response.Success(c, "Account approved successfully", nil)
}

// Reject rejects a pending customer account
// @Summary Reject account
// @Description Reject a pending customer account with a reason
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Param body body ModerationRequest true "Rejection reason"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /accounts/{id}/reject [post]
func (h *AccountHandler) Reject(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req ModerationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.moderation.RejectAccount(c.Context(), op, c.Params("id"), req.Reason); err != nil {
		return moderationError(c, err, "Failed to reject account")
	}
	return response.Success(c, "Account rejected successfully", nil)
}

// ChangeStatus changes the status of a customer account
// @Summary Change account status
// @Description Change a customer account's status to active, blocked or closed
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Param body body ModerationRequest true "Target status and reason"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /accounts/{id}/status [put]
func (h *AccountHandler) ChangeStatus(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req ModerationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Status == "" {
		return response.BadRequest(c, "Status is required")
	}

	if err := h.moderation.ChangeAccountStatus(c.Context(), op, c.Params("id"), req.Status, req.Reason); err != nil {
		return moderationError(c, err, "Failed to change account status")
	}
	return response.Success(c, "Account status changed successfully", nil)
}
