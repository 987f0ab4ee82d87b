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

	"github.com/sahayak-labs/sahayak-api/internal/config"
	"github.com/sahayak-labs/sahayak-api/internal/database"
	"github.com/sahayak-labs/sahayak-api/internal/handler"
	"github.com/sahayak-labs/sahayak-api/internal/identity"
	"github.com/sahayak-labs/sahayak-api/internal/middleware"
	"github.com/sahayak-labs/sahayak-api/internal/models"
	"github.com/sahayak-labs/sahayak-api/internal/observability"
	"github.com/sahayak-labs/sahayak-api/internal/repository"
	"github.com/sahayak-labs/sahayak-api/internal/router"
	"github.com/sahayak-labs/sahayak-api/internal/service"
	"github.com/sahayak-labs/sahayak-api/pkg/ai"
	cloud "github.com/sahayak-labs/sahayak-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Teacher{},
		&models.Classroom{},
		&models.Material{},
		&models.GenerationRecord{},
		&models.Notification{},
	); err != nil {
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
		logger.Warn().Msg("redis url not configured, caching and cross-node fan-out disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	identityProvider, err := identity.New(identity.Config{
		BaseURL: cfg.IdentityBaseURL,
		APIKey:  cfg.IdentityAPIKey,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("failed to create identity client: %v", err)
	}

	generator, err := buildGenerator(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create ai generator: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	batchRepo := repository.NewProfileBatchRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	generationRepo := repository.NewGenerationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	allocator := service.NewSequenceAllocator(studentRepo, teacherRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, "sahayak", natsConn, validate, logger)
	historyService := service.NewHistoryService(generationRepo, redisClient, cfg.HistoryCacheTTL, logger)
	authService := service.NewAuthService(identityProvider, studentRepo, teacherRepo, allocator, validate, cfg.JWTSecret, cfg.TokenTTL, logger)
	contentService := service.NewContentService(generator, historyService, uploader, validate, logger)
	classroomService := service.NewClassroomService(classroomRepo, teacherRepo, validate, logger)
	uploadService := service.NewUploadService(materialRepo, uploader, int64(cfg.UploadMaxSizeMB)<<20, logger)
	batchService := service.NewBatchService(identityProvider, studentRepo, teacherRepo, batchRepo, allocator, notificationService, validate, cfg.DevEmailDomain, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	contentHandler := handler.NewContentHandler(contentService, teacherRepo, logger)
	classroomHandler := handler.NewClassroomHandler(classroomService, uploadService, logger)
	uploadHandler := handler.NewUploadHandler(uploadService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger, 30*time.Second)
	adminBatchHandler := handler.NewAdminBatchHandler(batchService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         authHandler,
		ContentHandler:      contentHandler,
		ClassroomHandler:    classroomHandler,
		UploadHandler:       uploadHandler,
		NotificationHandler: notificationHandler,
		AdminBatchHandler:   adminBatchHandler,
		MetricsHandler:      observability.MetricsHandler(),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		AdminConsoleEnabled: func() bool { return cfg.AdminConsoleEnabled },
	})

	runCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()
	notificationService.Start(runCtx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildGenerator(cfg config.Config, logger zerolog.Logger) (ai.Generator, error) {
	switch cfg.AIProvider {
	case "anthropic":
		generator, err := ai.NewAnthropicGenerator(ai.AnthropicConfig{APIKey: cfg.AnthropicAPIKey})
		if err != nil {
			return nil, err
		}
		return generator, nil
	default:
		generator, err := ai.NewOpenAIGenerator(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		return generator, nil
	}
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
