package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/projeval-api/internal/config"
	"github.com/noah-isme/projeval-api/internal/database"
	"github.com/noah-isme/projeval-api/internal/handler"
	"github.com/noah-isme/projeval-api/internal/middleware"
	"github.com/noah-isme/projeval-api/internal/repository"
	"github.com/noah-isme/projeval-api/internal/router"
	"github.com/noah-isme/projeval-api/internal/service"
	"github.com/noah-isme/projeval-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not set; caching disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	grader := newGrader(cfg, logger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	cache := service.NewCache(redisClient, logger)
	identity := service.NewIdentityService(userRepo, logger)
	events := service.NewEventService(natsConn, redisClient, logger)
	activity := service.NewActivityService(activityRepo, identity, validate, logger)

	authService := service.NewAuthService(userRepo, validate, cfg.JWTSecret, cfg.JWTTTL, logger)
	projectService := service.NewProjectService(projectRepo, assignmentRepo, identity, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, projectRepo, submissionRepo, identity, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, identity, events, cache, validate, logger)
	gradingService := service.NewGradingService(submissionRepo, identity, grader, activity, events, cache, validate, logger)
	badgeService := service.NewBadgeService(badgeRepo, userRepo, identity, activity, events, cache, validate, logger)
	analyticsService := service.NewAnalyticsService(analyticsRepo, projectRepo, assignmentRepo, identity, cache, cfg.LeaderboardCacheTTL, logger)
	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		Projects:    projectRepo,
		Assignments: assignmentRepo,
		Submissions: submissionRepo,
		Badges:      badgeRepo,
		Users:       userRepo,
	}, identity, cache, cfg.DashboardCacheTTL, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, logger),
		ProjectHandler:    handler.NewProjectHandler(projectService, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, gradingService, analyticsService,
			middleware.RateLimit("ai-grading", cfg.RateLimitAI, time.Minute), logger),
		AnalyticsHandler: handler.NewAnalyticsHandler(analyticsService, logger),
		BadgeHandler:     handler.NewBadgeHandler(badgeService, logger),
		DashboardHandler: handler.NewDashboardHandler(dashboardService, logger),
		ActivityHandler:  handler.NewActivityHandler(activity, logger),
		EventHandler:     handler.NewEventHandler(events, logger),
		JWTMiddleware:    middleware.JWTProtected(cfg.JWTSecret),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events.Start(ctx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

// newGrader returns nil when no provider key is configured; AI grading then
// reports itself unavailable.
func newGrader(cfg config.Config, logger zerolog.Logger) ai.Grader {
	apiKey := cfg.AIAPIKey()
	if apiKey == "" {
		logger.Warn().Str("provider", cfg.AIProvider).Msg("ai api key not set; ai grading disabled")
		return nil
	}

	baseURL := cfg.AIBaseURL
	model := cfg.AIModel
	if cfg.AIProvider == config.AIProviderGemini {
		if baseURL == "" {
			baseURL = ai.GeminiBaseURL
		}
		if model == "" {
			model = "gemini-1.5-flash"
		}
	}

	grader, err := ai.NewOpenAIGrader(ai.OpenAIConfig{
		APIKey:   apiKey,
		Model:    model,
		BaseURL:  baseURL,
		Timeout:  cfg.AITimeout,
		JSONMode: cfg.AIProvider == config.AIProviderOpenAI,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("failed to create ai grader: %v", err)
	}
	return grader
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
