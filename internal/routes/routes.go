package routes

import (
	"github.com/freakyfit/freakyfit-api/internal/config"
	"github.com/freakyfit/freakyfit-api/internal/handlers"
	"github.com/freakyfit/freakyfit-api/internal/meeting"
	"github.com/freakyfit/freakyfit-api/internal/middleware"
	"github.com/freakyfit/freakyfit-api/internal/repository"
	"github.com/freakyfit/freakyfit-api/internal/services"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Dependencies struct {
	DB     repository.DBTX
	Redis  redis.Cmdable
	Events services.EventPublisher
	Logger *zap.Logger
}

func RegisterRoutes(app *fiber.App, cfg *config.Config, deps Dependencies) error {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	userRepo := repository.NewUserRepository(deps.DB)
	mealPlanRepo := repository.NewMealPlanRepository(deps.DB)
	workoutPlanRepo := repository.NewWorkoutPlanRepository(deps.DB)
	orderRepo := repository.NewPaymentOrderRepository(deps.DB)

	cartService := services.NewCartService(deps.Redis)
	paymentService := services.NewPaymentService(
		orderRepo,
		services.NewRazorpayService(cfg.Razorpay.BaseURL, cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret),
		cartService,
		services.NewRedisIdempotencyStore(deps.Redis),
		deps.Events,
		services.PaymentSettings{
			Currency:     cfg.Razorpay.Currency,
			MerchantName: cfg.Razorpay.Merchant,
			ThemeColor:   cfg.Razorpay.Theme,
		},
		logger.Named("payments"),
	)
	planService := services.NewPlanService(mealPlanRepo, workoutPlanRepo)
	meetingService := services.NewMeetingService(
		cfg.PublicURL,
		meeting.NewRegistry(),
		services.NewZegoTokenService(cfg.Zego.AppID, cfg.Zego.ServerSecret, cfg.Zego.TokenTTL),
		logger.Named("meetings"),
	)
	oauthService := services.NewOAuthService(
		cfg.Google.ClientID,
		cfg.Google.ClientSecret,
		cfg.Google.RedirectURL,
		cfg.JWTSecret,
		userRepo,
		logger.Named("auth"),
	)

	authHandler := handlers.NewAuthHandler(oauthService, cfg.FrontendURL, cfg.AppEnv == "production")
	planHandler := handlers.NewPlanHandler(planService)
	cartHandler := handlers.NewCartHandler(cartService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	meetingHandler := handlers.NewMeetingHandler(meetingService, cfg.JWTSecret, logger.Named("meetings"))

	if err := registerDocsRoutes(app, cfg); err != nil {
		return err
	}

	app.Get("/auth/google", authHandler.GoogleLogin)
	app.Get("/auth/google/callback", authHandler.GoogleCallback)

	api := app.Group("/api")

	// The websocket handshake authenticates itself from the query string.
	api.Use("/meeting/ws", meetingHandler.WebSocketAuth)
	api.Get("/meeting/ws", websocket.New(meetingHandler.HandleWebSocket))

	authProtected := api.Group("", middleware.AuthRequired(cfg.JWTSecret))

	authProtected.Get("/auth/me", authHandler.Me)

	user := authProtected.Group("/user")
	user.Get("/saved-meal-plans", planHandler.ListMealPlans)
	user.Get("/saved-meal-plans/:id", planHandler.GetMealPlan)
	user.Get("/saved-workout-plans", planHandler.ListWorkoutPlans)
	user.Get("/saved-workout-plans/:id", planHandler.GetWorkoutPlan)
	user.Get("/cart", cartHandler.List)
	user.Post("/cart", cartHandler.Add)
	user.Delete("/cart", cartHandler.Clear)
	user.Delete("/cart/:itemId", cartHandler.Remove)

	authProtected.Post("/createOrder", paymentHandler.CreateOrder)
	authProtected.Post("/verifyOrder", paymentHandler.VerifyOrder)
	authProtected.Get("/orders/:orderId", paymentHandler.GetOrder)
	authProtected.Post("/orders/:orderId/checkout", paymentHandler.OpenCheckout)

	authProtected.Post("/meetings", meetingHandler.CreateLink)
	authProtected.Get("/meeting/session", meetingHandler.OpenSession)
	authProtected.Post("/meeting/sessions/:sessionId/video", meetingHandler.ToggleVideo)
	authProtected.Post("/meeting/sessions/:sessionId/audio", meetingHandler.ToggleAudio)

	return nil
}
