package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/phol232/Financiera/internal/adapters/backend"
	"github.com/phol232/Financiera/internal/core/domain"
	"github.com/phol232/Financiera/internal/core/services"
	"github.com/phol232/Financiera/internal/pkg/response"
)

// ApplicationHandler handles the credit-application workflow endpoints
type ApplicationHandler struct {
	appService *services.ApplicationService
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(appService *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{appService: appService}
}

// AssignRequest represents an analyst assignment request body
type AssignRequest struct {
	ApplicationID string `json:"applicationId"`
	AnalystID     string `json:"analystId"`
}

// DecisionRequest represents a manual decision request body
type DecisionRequest struct {
	DecisionType string `json:"decisionType"`
	Comments     string `json:"comments"`
}

// DisburseRequest represents a disbursement request body
type DisburseRequest struct {
	AccountID string `json:"accountId"`
}

// List lists credit applications
// @Summary List applications
// @Description List credit applications with optional status, zone, product and analyst filters
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param zone query string false "Zone filter"
// @Param productId query string false "Product filter"
// @Param assignedTo query string false "Assigned analyst filter"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /applications [get]
func (h *ApplicationHandler) List(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	filters := backend.ApplicationFilters{
		Status:         c.Query("status"),
		Zone:           c.Query("zone"),
		ProductID:      c.Query("productId"),
		AssignedUserID: c.Query("assignedTo"),
	}

	applications, err := h.appService.List(c.Context(), op, filters)
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			return response.Forbidden(c, "You don't have permission to view applications")
		}
		return backendError(c, err, "Failed to list applications")
	}

	return response.Success(c, "Applications retrieved successfully", fiber.Map{
		"applications": applications,
	})
}

// Open opens the detail view of one application
// @Summary Open application detail
// @Description Fetch an application into the operator's workflow session and return the merged view with action gating
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Open(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	view, err := h.appService.Open(c.Context(), op, c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			return response.Forbidden(c, "You don't have permission to view applications")
		}
		if backend.IsNotFound(err) {
			return response.NotFound(c, "Application not found")
		}
		return backendError(c, err, "Failed to load application")
	}

	return response.Success(c, "Application retrieved successfully", view)
}

// Detail returns the operator's open detail view
// @Summary Current application detail
// @Description Return the merged view of the application open in the operator's session
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /applications/detail [get]
func (h *ApplicationHandler) Detail(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	view := h.appService.Current(op)
	if view == nil {
		return response.NotFound(c, "No application is open")
	}

	return response.Success(c, "Application retrieved successfully", view)
}

// CloseDetail closes the operator's open detail view
// @Summary Close application detail
// @Description Close the detail view, discarding the session's local overrides
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /applications/detail [delete]
func (h *ApplicationHandler) CloseDetail(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	h.appService.CloseDetail(op)
	return response.Success(c, "Detail view closed", nil)
}

// Assign assigns an analyst to an application
// @Summary Assign analyst
// @Description Assign a credit analyst to an application
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body AssignRequest true "Assignment"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /applications/assign [post]
func (h *ApplicationHandler) Assign(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.ApplicationID == "" || req.AnalystID == "" {
		return response.BadRequest(c, "Application id and analyst id are required")
	}

	if err := h.appService.Assign(c.Context(), op, req.ApplicationID, req.AnalystID); err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			return response.Forbidden(c, "You don't have permission to assign applications")
		}
		return backendError(c, err, "Failed to assign analyst")
	}

	return response.Success(c, "Analyst assigned successfully", nil)
}

// CalculateScore runs scoring for the open application
// @Summary Calculate score
// @Description Trigger score calculation for the application open in the operator's session
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /applications/detail/calculate-score [post]
func (h *ApplicationHandler) CalculateScore(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	scoring, view, err := h.appService.CalculateScore(c.Context(), op)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoApplicationSelected):
			return response.BadRequest(c, "No application is open")
		case errors.Is(err, domain.ErrPermissionDenied):
			return response.Forbidden(c, "You don't have permission to calculate scores")
		default:
			return backendError(c, err, "Failed to calculate score")
		}
	}

	return response.Success(c, "Score calculated successfully", fiber.Map{
		"scoring":     scoring,
		"application": view,
	})
}

// Decide submits a manual decision for the open application
// @Summary Submit decision
// @Description Approve or reject the application open in the operator's session
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body DecisionRequest true "Decision"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /applications/detail/decision [post]
func (h *ApplicationHandler) Decide(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	view, err := h.appService.Decide(c.Context(), op, req.DecisionType, req.Comments)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoApplicationSelected):
			return response.BadRequest(c, "No application is open")
		case errors.Is(err, domain.ErrInvalidDecisionType):
			return response.BadRequest(c, "Decision type must be approve or reject")
		case errors.Is(err, domain.ErrDecisionReasonRequired):
			return response.BadRequest(c, "A reason is required to reject")
		case errors.Is(err, domain.ErrScoringRequired):
			return response.BadRequest(c, "Score must be calculated first")
		case errors.Is(err, domain.ErrAlreadyApproved), errors.Is(err, domain.ErrAlreadyDisbursed):
			return response.Conflict(c, "Application already has a final decision")
		case errors.Is(err, domain.ErrPermissionDenied):
			return response.Forbidden(c, "You don't have permission to evaluate this application")
		default:
			return backendError(c, err, "Failed to submit decision")
		}
	}

	return response.Success(c, "Decision submitted successfully", view)
}

// DisbursementAccounts lists the eligible destination accounts
// @Summary List disbursement accounts
// @Description List the customer's active accounts eligible as disbursement destination
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /applications/detail/disbursement-accounts [get]
func (h *ApplicationHandler) DisbursementAccounts(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	accounts, err := h.appService.DisbursementAccounts(c.Context(), op)
	if err != nil {
		if errors.Is(err, domain.ErrNoApplicationSelected) {
			return response.BadRequest(c, "No application is open")
		}
		return backendError(c, err, "Failed to load accounts")
	}

	return response.Success(c, "Accounts retrieved successfully", fiber.Map{
		"accounts": accounts,
	})
}

// Disburse releases the approved funds of the open application
// @Summary Disburse funds
// @Description Disburse the approved loan amount to the selected customer account
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body DisburseRequest true "Destination account"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /applications/detail/disburse [post]
func (h *ApplicationHandler) Disburse(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req DisburseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	view, err := h.appService.Disburse(c.Context(), op, req.AccountID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoApplicationSelected):
			return response.BadRequest(c, "No application is open")
		case errors.Is(err, domain.ErrNotApproved):
			return response.Conflict(c, "Application is not approved")
		case errors.Is(err, domain.ErrInvalidLoanAmount):
			return response.BadRequest(c, "Loan amount must be greater than 0")
		case errors.Is(err, domain.ErrNoEligibleAccounts):
			return response.BadRequest(c, "Customer has no eligible accounts")
		case errors.Is(err, domain.ErrNoAccountSelected):
			return response.BadRequest(c, "A destination account must be selected")
		case errors.Is(err, domain.ErrAccountNotEligible):
			return response.BadRequest(c, "Selected account is not eligible")
		case errors.Is(err, domain.ErrPermissionDenied):
			return response.Forbidden(c, "You don't have permission to disburse this application")
		default:
			return backendError(c, err, "Failed to disburse")
		}
	}

	return response.Success(c, "Funds disbursed successfully", view)
}

// Analysts searches credit analysts for the assign dialog
// @Summary Search analysts
// @Description Search the backend's credit analysts by name or document
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search term"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /workers/analysts [get]
func (h *ApplicationHandler) Analysts(c *fiber.Ctx) error {
	op, ok := currentOperator(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	analysts, err := h.appService.Analysts(c.Context(), op, c.Query("search"))
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			return response.Forbidden(c, "You don't have permission to search analysts")
		}
		return backendError(c, err, "Failed to search analysts")
	}

	return response.Success(c, "Analysts retrieved successfully", fiber.Map{
		"analysts": analysts,
	})
}
