package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/phol232/Financiera/internal/adapters/persistence/models"
	"github.com/phol232/Financiera/internal/core/domain"
	"github.com/phol232/Financiera/internal/core/services"
	"github.com/phol232/Financiera/internal/pkg/response"
)

// OperatorHandler handles admin management of console operator accounts
type OperatorHandler struct {
	operatorService *services.OperatorService
	auditService    *services.AuditService
}

// NewOperatorHandler creates a new operator handler
func NewOperatorHandler(operatorService *services.OperatorService, auditService *services.AuditService) *OperatorHandler {
	return &OperatorHandler{
		operatorService: operatorService,
		auditService:    auditService,
	}
}

// List lists console operators
// @Summary List operators
// @Description List console operators, optionally filtered by approval status
// @Tags Operators
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter (pending, approved, rejected)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Response
// @Router /admin/operators [get]
func (h *OperatorHandler) List(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	result, err := h.operatorService.List(c.Context(), c.Query("status"), page, limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list operators")
	}

	return response.Success(c, "Operators retrieved successfully", result)
}

// Get returns one console operator
// @Summary Get operator
// @Description Get a console operator by id
// @Tags Operators
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Operator ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/operators/{id} [get]
func (h *OperatorHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid operator id")
	}

	operator, err := h.operatorService.Get(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrOperatorNotFound) {
			return response.NotFound(c, "Operator not found")
		}
		return response.InternalServerError(c, "Failed to get operator")
	}

	return response.Success(c, "Operator retrieved successfully", fiber.Map{
		"operator": operator,
	})
}

// Approve approves a pending operator
// @Summary Approve operator
// @Description Approve a pending operator account
// @Tags Operators
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Operator ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/operators/{id}/approve [post]
func (h *OperatorHandler) Approve(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid operator id")
	}

	operator, err := h.operatorService.Approve(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrOperatorNotFound) {
			return response.NotFound(c, "Operator not found")
		}
		return response.InternalServerError(c, "Failed to approve operator")
	}

	h.recordModeration(c, "approve", operator.UID)

	return response.Success(c, "Operator approved successfully", fiber.Map{
		"operator": operator,
	})
}

// Reject rejects an operator
// @Summary Reject operator
// @Description Reject an operator account and revoke its sessions
// @Tags Operators
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Operator ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/operators/{id}/reject [post]
func (h *OperatorHandler) Reject(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid operator id")
	}

	operator, err := h.operatorService.Reject(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrOperatorNotFound) {
			return response.NotFound(c, "Operator not found")
		}
		return response.InternalServerError(c, "Failed to reject operator")
	}

	h.recordModeration(c, "reject", operator.UID)

	return response.Success(c, "Operator rejected successfully", fiber.Map{
		"operator": operator,
	})
}

// AuditHistory lists the audit trail of one backend resource
// @Summary Audit history
// @Description List the audit trail of one backend resource (application, account or card)
// @Tags Operators
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param resourceId path string true "Resource ID"
// @Param limit query int false "Maximum records"
// @Success 200 {object} response.Response
// @Router /admin/audit/{resourceId} [get]
func (h *OperatorHandler) AuditHistory(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	records, err := h.auditService.History(c.Context(), c.Params("resourceId"), limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to load audit history")
	}

	return response.Success(c, "Audit history retrieved successfully", fiber.Map{
		"records": records,
	})
}

// OperatorAudit lists the actions one operator performed
// @Summary Operator audit history
// @Description List the audit trail of one console operator
// @Tags Operators
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Operator ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Response
// @Router /admin/operators/{id}/audit [get]
func (h *OperatorHandler) OperatorAudit(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid operator id")
	}
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	records, total, err := h.auditService.OperatorHistory(c.Context(), uint(id), page, limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to load audit history")
	}

	return response.Success(c, "Audit history retrieved successfully", fiber.Map{
		"records": records,
		"total":   total,
	})
}

func (h *OperatorHandler) recordModeration(c *fiber.Ctx, action, targetUID string) {
	op, ok := currentOperator(c)
	if !ok {
		return
	}
	auditAction := models.AuditActionOperatorApprove
	if action == "reject" {
		auditAction = models.AuditActionOperatorReject
	}
	h.auditService.Record(c.Context(), op.ID, auditAction, targetUID, action, op.IP)
}
