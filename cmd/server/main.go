package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"

	"github.com/phol232/Financiera/internal/adapters/backend"
	"github.com/phol232/Financiera/internal/adapters/http/middleware"
	"github.com/phol232/Financiera/internal/adapters/http/routes"
	"github.com/phol232/Financiera/internal/adapters/persistence/models"
	"github.com/phol232/Financiera/internal/adapters/persistence/repositories"
	"github.com/phol232/Financiera/internal/config"
	"github.com/phol232/Financiera/internal/core/services"
	"github.com/phol232/Financiera/internal/pkg/logger"
	"github.com/phol232/Financiera/internal/pkg/statuscache"

	_ "github.com/phol232/Financiera/docs" // Swagger docs
)

// @title Financiera Console API
// @version 1.0
// @description Consola de administración para microfinancieras: solicitudes de crédito, scoring, desembolsos y moderación de cuentas.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email soporte@financiera.pe

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host api.financiera.pe
// @BasePath /api/v1
// @schemes https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	env := "development"
	if cfg.IsProd() {
		env = "production"
	}
	zlog, err := logger.New(env)
	if err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed default admin operator
	if err := config.NewSeeder(db).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to seed database: %v", err)
	}

	// Operator status cache: Redis when configured, in-process otherwise
	redisClient, err := config.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to redis: %v", err)
	}
	var statusCache statuscache.Cache
	var memoryCache *statuscache.MemoryCache
	if redisClient != nil {
		statusCache = statuscache.NewRedisCache(redisClient, cfg.Redis.TTL)
		defer redisClient.Close()
	} else {
		memoryCache = statuscache.NewMemoryCache(cfg.Redis.TTL)
		statusCache = memoryCache
	}

	// Core-banking backend client
	client := backend.NewClient(
		cfg.Backend.BaseURL,
		backend.NewStaticTokenProvider(cfg.Backend.Token),
		cfg.Backend.Timeout,
		zlog,
	)

	// Start cron jobs (token purge, memory cache sweep)
	cronService := services.NewCronService(
		repositories.NewRefreshTokenRepository(db),
		memoryCache,
		zlog,
	)
	if err := cronService.Start(); err != nil {
		log.Fatalf("❌ Failed to start background jobs: %v", err)
	}
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Financiera Console API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, db, cfg, client, statusCache, zlog)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
