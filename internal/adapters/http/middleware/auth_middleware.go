package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/phol232/Financiera/internal/adapters/persistence/repositories"
	"github.com/phol232/Financiera/internal/config"
	"github.com/phol232/Financiera/internal/core/domain"
	"github.com/phol232/Financiera/internal/pkg/jwt"
	"github.com/phol232/Financiera/internal/pkg/response"
	"github.com/phol232/Financiera/internal/pkg/statuscache"
)

// AuthMiddleware creates authentication middleware
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var accessToken string

		// 1. Try to get token from cookie first
		accessToken = c.Cookies("access_token")

		// 2. If not in cookie, try Authorization header
		if accessToken == "" {
			authHeader := c.Get("Authorization")
			if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
				accessToken = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		// 3. No token found
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 4. Validate token
		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		// 5. Set operator info in context
		c.Locals("operatorID", claims.UserID)
		c.Locals("uid", claims.UID)
		c.Locals("email", claims.Email)
		c.Locals("role", claims.Role)

		return c.Next()
	}
}

// StatusGuard re-checks the operator's approval status on every request, so a
// rejection takes effect without waiting for the access token to expire. The
// status is served from the cache when present; a cache error falls through to
// the database, and a database error lets the request pass rather than locking
// every operator out.
func StatusGuard(cache statuscache.Cache, operators repositories.OperatorRepository, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, ok := c.Locals("uid").(string)
		if !ok || uid == "" {
			return response.Unauthorized(c, "Unauthorized")
		}

		status, found, err := cache.Get(c.Context(), uid)
		if err != nil {
			log.Warn("status cache lookup failed", zap.String("uid", uid), zap.Error(err))
			found = false
		}

		if !found {
			operator, err := operators.GetByUID(c.Context(), uid)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return response.Unauthorized(c, "Unknown operator")
				}
				log.Warn("operator status lookup failed", zap.String("uid", uid), zap.Error(err))
				return c.Next()
			}
			status = operator.Status
			if err := cache.Set(c.Context(), uid, status); err != nil {
				log.Warn("status cache set failed", zap.String("uid", uid), zap.Error(err))
			}
		}

		if status != domain.OperatorApproved {
			return response.Forbidden(c, "Operator account is not approved")
		}

		return c.Next()
	}
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowedRole := range allowedRoles {
			if role == allowedRole {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// AdminOnly middleware allows only the admin role
func AdminOnly() fiber.Handler {
	return RoleMiddleware(string(domain.RoleAdmin))
}
