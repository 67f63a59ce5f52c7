package main

import (
	"context"
	"log"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	api "rolodex-backend/cmd/api"
	authdelivery "rolodex-backend/internal/auth/delivery"
	authdomain "rolodex-backend/internal/auth/domain"
	authrepo "rolodex-backend/internal/auth/repository"
	authusecase "rolodex-backend/internal/auth/usecase"
	contactdelivery "rolodex-backend/internal/contact/delivery"
	contactdomain "rolodex-backend/internal/contact/domain"
	contactrepo "rolodex-backend/internal/contact/repository"
	contactusecase "rolodex-backend/internal/contact/usecase"
	integrationdelivery "rolodex-backend/internal/integration/delivery"
	integrationdomain "rolodex-backend/internal/integration/domain"
	integrationrepo "rolodex-backend/internal/integration/repository"
	"rolodex-backend/internal/notification"
	"rolodex-backend/internal/sync/scheduler"
	syncusecase "rolodex-backend/internal/sync/usecase"
	"rolodex-backend/pkg/classify"
	"rolodex-backend/pkg/config"
	"rolodex-backend/pkg/database"
	"rolodex-backend/pkg/fcm"
	"rolodex-backend/pkg/gcal"
	"rolodex-backend/pkg/gmail"
	"rolodex-backend/pkg/imapmail"
	"rolodex-backend/pkg/logging"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&authdomain.User{},
		&authdomain.RefreshToken{},
		&authdomain.FCMToken{},
		&contactdomain.Person{},
		&contactdomain.Interaction{},
		&integrationdomain.Integration{},
	); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// Initialize repositories (dependency injection)
	userRepo := authrepo.NewUserRepository(db)
	fcmTokenRepo := authrepo.NewFCMTokenRepository(db)
	personRepo := contactrepo.NewPersonRepository(db)
	interactionRepo := contactrepo.NewInteractionRepository(db)
	integrationRepo := integrationrepo.NewIntegrationRepository(db)

	// Provider services
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)
	gcalService := gcal.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)
	imapService := imapmail.NewService()

	// Automated-sender classifier
	classifier := classify.NewClassifier(classify.Config{
		Provider:      classify.ProviderType(cfg.ClassifierProvider),
		GeminiAPIKey:  cfg.GeminiAPIKey,
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	}, logger)

	// Contact pipeline
	resolver := contactusecase.NewResolver(classifier, logger)
	recorder := contactusecase.NewRecorder(personRepo, interactionRepo, logger)
	strength := contactusecase.NewStrengthRecomputer(personRepo, interactionRepo)
	timeline := contactusecase.NewTimelineUpdater(personRepo, strength, cfg.TimelineWorkers, logger)

	sourceFactory := syncusecase.NewSourceFactory(gmailService, gcalService, imapService, integrationRepo, cfg.EncryptionKey, logger)
	orchestrator := syncusecase.NewOrchestrator(integrationRepo, sourceFactory, resolver, recorder, timeline, cfg.SyncMessageCap, cfg.SyncPageSize, logger)

	// Initialize FCM client (optional, sync works without it)
	var fcmClient *fcm.Client
	if cfg.FirebaseCredentials != "" {
		fcmClient, err = fcm.NewClient(cfg.FirebaseCredentials, logger)
		if err != nil {
			logger.Warn("push notifications disabled", zap.Error(err))
		}
	}
	notifier := notification.NewService(fcmTokenRepo, fcmClient, logger)

	// Sync job queue
	if cfg.GoogleProjectID == "" {
		logger.Fatal("GOOGLE_PROJECT_ID is required for the sync queue")
	}
	var opts []option.ClientOption
	if cfg.GoogleCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentials))
	}
	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GoogleProjectID, opts...)
	if err != nil {
		logger.Fatal("failed to create pubsub client", zap.Error(err))
	}

	publisher := scheduler.NewPublisher(pubsubClient, cfg.SyncTopic, cfg.SyncMaxDelay, logger)
	consumer := scheduler.NewConsumer(pubsubClient, orchestrator, publisher, notifier, scheduler.Config{
		TopicName:      cfg.SyncTopic,
		MaxRetries:     cfg.SyncMaxRetries,
		HandlerTimeout: cfg.HandlerTimeout,
		DeadlineMargin: cfg.DeadlineMargin,
	}, logger)
	go consumer.Start(context.Background())

	// Auth + HTTP layer
	authUc := authusecase.NewAuthUsecase(userRepo, cfg)
	authHandler := authdelivery.NewAuthHandler(authUc, fcmTokenRepo)
	personHandler := contactdelivery.NewPersonHandler(personRepo, interactionRepo)
	integrationHandler := integrationdelivery.NewIntegrationHandler(integrationRepo, publisher, cfg.EncryptionKey, cfg.MockMode, logger)

	handler := api.NewHandler(authUc, authHandler, personHandler, integrationHandler, cfg)

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := handler.Start(":" + cfg.Port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
