package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/phol232/Financiera/internal/adapters/backend"
	"github.com/phol232/Financiera/internal/core/domain"
	"github.com/phol232/Financiera/internal/core/services"
	"github.com/phol232/Financiera/internal/pkg/response"
)

// currentOperator builds the operator identity from the values the auth
// middleware stored in the request context.
func currentOperator(c *fiber.Ctx) (services.Operator, bool) {
	operatorID, ok := c.Locals("operatorID").(uint)
	if !ok {
		return services.Operator{}, false
	}
	uid, _ := c.Locals("uid").(string)
	role, _ := c.Locals("role").(string)
	return services.Operator{
		ID:   operatorID,
		UID:  uid,
		Role: domain.Role(role),
		IP:   c.IP(),
	}, true
}

// backendError maps an upstream backend error onto the console's response
// envelope, preserving the upstream status code where one exists.
func backendError(c *fiber.Ctx, err error, fallback string) error {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return response.Error(c, apiErr.StatusCode, apiErr.Message)
	}
	return response.BadGateway(c, fallback)
}
