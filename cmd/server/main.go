package main

import (
	"log"

	"github.com/freakyfit/freakyfit-api/internal/config"
	"github.com/freakyfit/freakyfit-api/internal/database"
	"github.com/freakyfit/freakyfit-api/internal/logging"
	"github.com/freakyfit/freakyfit-api/internal/routes"
	"github.com/freakyfit/freakyfit-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() {
		_ = appLogger.Sync()
	}()

	// Missing video credentials only disable meeting tokens.
	cfg.Validate(appLogger)

	// 2. Connect to Database and Redis
	if cfg.DBUrl == "" {
		appLogger.Fatal("DB_URL is required")
	}
	if err := database.ConnectDB(cfg.DBUrl, cfg.DBPool, appLogger); err != nil {
		appLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB()

	if err := database.ConnectRedis(cfg.RedisURL, appLogger); err != nil {
		appLogger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer database.CloseRedis()

	var events services.EventPublisher = services.NoopEventPublisher{}
	if cfg.KafkaEnabled() {
		publisher := services.NewKafkaEventPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic, appLogger.Named("events"))
		defer func() {
			if err := publisher.Close(); err != nil {
				appLogger.Warn("close kafka publisher", zap.Error(err))
			}
		}()
		events = publisher
		appLogger.Info("publishing order events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaOrderTopic))
	}

	// 3. Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowCredentials: true,
	}))
	app.Use(logger.New())
	app.Use(recover.New())

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	if err := routes.RegisterRoutes(app, cfg, routes.Dependencies{
		DB:     database.DB,
		Redis:  database.Redis,
		Events: events,
		Logger: appLogger,
	}); err != nil {
		appLogger.Fatal("failed to register routes", zap.Error(err))
	}

	// 4. Start Server
	appLogger.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
	if err := app.Listen(":" + cfg.Port); err != nil {
		appLogger.Fatal("server failed to start", zap.Error(err))
	}
}
