package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/careersfromhere/testimonial-service/internal/config"
	"github.com/careersfromhere/testimonial-service/internal/events"
	"github.com/careersfromhere/testimonial-service/internal/handlers"
	"github.com/careersfromhere/testimonial-service/internal/mail"
	"github.com/careersfromhere/testimonial-service/internal/media"
	"github.com/careersfromhere/testimonial-service/internal/repositories/postgres"
	"github.com/careersfromhere/testimonial-service/internal/services"
	"github.com/careersfromhere/testimonial-service/internal/utils"
	"github.com/careersfromhere/testimonial-service/internal/validator"
	"github.com/careersfromhere/testimonial-service/internal/worker"
	"github.com/careersfromhere/testimonial-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis: %v", err)
		}
	}

	// Initialize repositories
	repoConfig := postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	}
	repoManager := postgres.NewRepositoryManager(repoConfig)
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	// Initialize validator
	validator := validator.New()

	// Initialize event transport. With Kafka brokers configured the approval
	// events flow through Kafka; otherwise an in-process pubsub carries them
	// to the enrichment worker in the same process.
	var (
		eventPublisher events.EventPublisher
		subscriber     message.Subscriber
	)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := events.NewKafkaEventPublisher(cfg.KafkaBrokers, slogLogger)
		if err != nil {
			log.Fatalf("Failed to initialize Kafka publisher: %v", err)
		}
		eventPublisher = kafkaPublisher

		subscriber, err = kafka.NewSubscriber(
			kafka.SubscriberConfig{
				Brokers:       cfg.KafkaBrokers,
				Unmarshaler:   kafka.DefaultMarshaler{},
				ConsumerGroup: "testimonial-enrichment",
			},
			watermill.NewSlogLogger(slogLogger),
		)
		if err != nil {
			log.Fatalf("Failed to initialize Kafka subscriber: %v", err)
		}
	} else {
		channelPublisher := events.NewChannelEventPublisher(slogLogger)
		eventPublisher = channelPublisher
		subscriber = channelPublisher.Subscriber()
	}

	// Initialize email delivery
	var emailService mail.EmailService
	if cfg.SendGrid.APIKey != "" {
		emailService = mail.NewSendgridService(cfg.SendGrid.APIKey, cfg.SendGrid.FromName, cfg.SendGrid.FromAddress, slogLogger)
	} else {
		emailService = mail.NewConsoleService(slogLogger)
	}

	// Initialize services
	serviceManager := services.NewDefaultServiceManager(db, repo, slogLogger, validator, eventPublisher, emailService)
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Initialize enrichment worker
	merger := media.NewFFmpegMerger(cfg.Media.FFmpegBinary, cfg.Media.OutputDir, slogLogger)
	publisher := media.NewHostPublisher(cfg.Media.PublishEndpoint, cfg.Media.PublishAPIKey, slogLogger)
	enrichmentWorker := worker.NewEnrichmentWorker(repo, subscriber, merger, publisher, eventPublisher, emailService, slogLogger)
	if err := enrichmentWorker.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start enrichment worker: %v", err)
	}

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, validator, logger, cfg.JWTSecret, cfg.UploadDir, repo.User())

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	handlers.SetupMiddleware(router, logger)

	// Setup routes
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Stop the enrichment worker before the event transport closes
	enrichmentWorker.Stop()

	// Shutdown services
	if err := serviceManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	// Close database connection
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}
