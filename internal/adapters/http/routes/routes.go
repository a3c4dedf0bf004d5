package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/phol232/Financiera/internal/adapters/backend"
	"github.com/phol232/Financiera/internal/adapters/http/handlers"
	"github.com/phol232/Financiera/internal/adapters/http/middleware"
	"github.com/phol232/Financiera/internal/adapters/persistence/repositories"
	"github.com/phol232/Financiera/internal/config"
	"github.com/phol232/Financiera/internal/core/permissions"
	"github.com/phol232/Financiera/internal/core/services"
	"github.com/phol232/Financiera/internal/pkg/statuscache"
)

// Setup configures all routes for the application
func Setup(
	app *fiber.App,
	db *gorm.DB,
	cfg *config.Config,
	client *backend.Client,
	statusCache statuscache.Cache,
	log *zap.Logger,
) {
	// Initialize repositories
	operatorRepo := repositories.NewOperatorRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	// Initialize services
	perms := permissions.NewEvaluator()
	auditService := services.NewAuditService(auditRepo, log)
	authService := services.NewAuthService(operatorRepo, refreshTokenRepo, statusCache, cfg, log)
	operatorService := services.NewOperatorService(operatorRepo, refreshTokenRepo, statusCache, log)
	appService := services.NewApplicationService(client, perms, auditService, cfg.Backend.MicrofinancieraID, log)
	moderationService := services.NewModerationService(client, perms, auditService, cfg.Backend.MicrofinancieraID, log)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, appService, cfg)
	applicationHandler := handlers.NewApplicationHandler(appService)
	scoringHandler := handlers.NewScoringHandler(appService)
	accountHandler := handlers.NewAccountHandler(moderationService)
	cardHandler := handlers.NewCardHandler(moderationService)
	operatorHandler := handlers.NewOperatorHandler(operatorService, auditService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")

	// Auth routes
	authRoutes := apiV1.Group("/auth")
	authRoutes.Post("/register", middleware.AuthRateLimiter(), authHandler.Register)
	authRoutes.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	authRoutes.Post("/refresh", authHandler.RefreshToken)
	authRoutes.Post("/logout", middleware.AuthMiddleware(cfg), authHandler.Logout)
	authRoutes.Post("/logout-all", middleware.AuthMiddleware(cfg), authHandler.LogoutAll)
	authRoutes.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)

	// Everything below requires a valid token and an approved account
	protected := apiV1.Group("")
	protected.Use(middleware.AuthMiddleware(cfg))
	protected.Use(middleware.StatusGuard(statusCache, operatorRepo, log))

	// Application workflow routes. Fixed paths are registered before the
	// :id parameter route.
	applicationRoutes := protected.Group("/applications")
	applicationRoutes.Get("/", applicationHandler.List)
	applicationRoutes.Post("/assign", applicationHandler.Assign)
	applicationRoutes.Get("/detail", applicationHandler.Detail)
	applicationRoutes.Delete("/detail", applicationHandler.CloseDetail)
	applicationRoutes.Post("/detail/calculate-score", applicationHandler.CalculateScore)
	applicationRoutes.Post("/detail/decision", applicationHandler.Decide)
	applicationRoutes.Get("/detail/disbursement-accounts", applicationHandler.DisbursementAccounts)
	applicationRoutes.Post("/detail/disburse", applicationHandler.Disburse)
	applicationRoutes.Get("/:id", applicationHandler.Open)

	// Analyst search for the assign dialog
	protected.Get("/workers/analysts", applicationHandler.Analysts)

	// Scoring configuration & metrics (admin)
	scoringRoutes := protected.Group("/scoring")
	scoringRoutes.Get("/config", scoringHandler.Config)
	scoringRoutes.Get("/metrics", scoringHandler.Metrics)

	// Account moderation routes
	accountRoutes := protected.Group("/accounts")
	accountRoutes.Get("/", accountHandler.List)
	accountRoutes.Get("/:id", accountHandler.Get)
	accountRoutes.Post("/:id/approve", accountHandler.Approve)
	accountRoutes.Post("/:id/reject", accountHandler.Reject)
	accountRoutes.Put("/:id/status", accountHandler.ChangeStatus)

	// Card moderation routes
	cardRoutes := protected.Group("/cards")
	cardRoutes.Get("/", cardHandler.List)
	cardRoutes.Get("/:id", cardHandler.Get)
	cardRoutes.Post("/:id/approve", cardHandler.Approve)
	cardRoutes.Post("/:id/reject", cardHandler.Reject)
	cardRoutes.Post("/:id/suspend", cardHandler.Suspend)
	cardRoutes.Post("/:id/reactivate", cardHandler.Reactivate)
	cardRoutes.Post("/:id/close", cardHandler.Close)

	// Admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(middleware.AdminOnly())
	adminRoutes.Get("/operators", operatorHandler.List)
	adminRoutes.Get("/operators/:id", operatorHandler.Get)
	adminRoutes.Post("/operators/:id/approve", operatorHandler.Approve)
	adminRoutes.Post("/operators/:id/reject", operatorHandler.Reject)
	adminRoutes.Get("/operators/:id/audit", operatorHandler.OperatorAudit)
	adminRoutes.Get("/audit/:resourceId", operatorHandler.AuditHistory)
}
