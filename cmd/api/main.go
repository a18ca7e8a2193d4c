package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopify-oauth-layer/internal/application"
	"shopify-oauth-layer/internal/application/webhook_handlers"
	"shopify-oauth-layer/internal/config"
	"shopify-oauth-layer/internal/infrastructure/api"
	"shopify-oauth-layer/internal/infrastructure/encryption"
	"shopify-oauth-layer/internal/infrastructure/messaging"
	"shopify-oauth-layer/internal/infrastructure/metrics"
	"shopify-oauth-layer/internal/infrastructure/repository"
	shopifyinfra "shopify-oauth-layer/internal/infrastructure/shopify"
	"shopify-oauth-layer/internal/ports"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const shutdownTimeout = 20 * time.Second

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, dotenv, err := config.Load()
	if !dotenv {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn().Str("level", cfg.LogLevel).Msg("Unknown LOG_LEVEL, using info")
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	ctx := context.Background()

	// OAuth state store
	var sessions ports.SessionStore
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Invalid REDIS_URL")
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		sessions = repository.NewRedisSessionStore(redisClient, cfg.OAuthStateTTL)
		logger.Info().Msg("Using Redis OAuth state store")
	} else {
		sessions = repository.NewMemorySessionStore()
		logger.Info().Msg("Using in-memory OAuth state store")
	}

	// Shop and webhook event storage
	var shops ports.ShopRepository
	var eventLog ports.WebhookEventLog
	if cfg.MongoURI != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer client.Disconnect(context.Background())

		repo := repository.NewMongoRepository(client.Database(cfg.MongoDatabase))
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to create MongoDB indexes")
		}
		shops, eventLog = repo, repo
		logger.Info().Str("database", cfg.MongoDatabase).Msg("Using MongoDB storage")
	} else {
		repo := repository.NewMemoryRepository()
		shops, eventLog = repo, repo
		logger.Info().Msg("Using in-memory storage")
	}

	// Encryption for stored access tokens
	encryptionKey := cfg.EncryptionKey
	if encryptionKey == "" {
		encryptionKey, err = encryption.GenerateKey()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to generate encryption key")
		}
		logger.Warn().Msg("ENCRYPTION_KEY not set, stored tokens will not survive a restart")
	}
	encryptionService, err := encryption.NewService(encryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	tokenManager := shopifyinfra.NewTokenManager(encryptionService, logger)

	// Order event publishing
	var publisher ports.OrderPublisher
	if cfg.AMQPURL != "" {
		amqpPublisher, err := messaging.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize RabbitMQ publisher")
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		logger.Info().Str("exchange", cfg.AMQPExchange).Msg("Publishing orders to RabbitMQ")
	} else {
		publisher = messaging.NewLogPublisher(logger)
	}

	m := metrics.New()

	shopifyClient := shopifyinfra.NewClientWithOptions(
		cfg.APIKey,
		cfg.APISecret,
		cfg.APIVersion,
		shopifyinfra.NewHTTPClient(cfg.HTTPClientTimeout),
		logger,
	)

	// Initialize application services
	registrar := application.NewWebhookRegistrar(shopifyClient, shops, tokenManager, cfg.WebhookRegistrationTimeout, logger, func(r application.RegistrationResult) {
		m.ObserveRegistration(r.Subscription.Topic, r.Err)
	})

	shopifyService := application.NewShopifyService(
		shopifyClient,
		sessions,
		shops,
		eventLog,
		tokenManager,
		registrar,
		application.InstallSettings{
			Scopes:         cfg.Scopes,
			RedirectURI:    cfg.RedirectURI(),
			DefaultShop:    cfg.DefaultShop,
			StateTTL:       cfg.OAuthStateTTL,
			WebhookAddress: cfg.WebhookAddress(),
		},
		logger,
	)

	// Initialize webhook dispatcher and register handlers
	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewOrderHandler(publisher, logger))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(shops, logger))

	router := api.NewRouter(api.RouterConfig{
		Service:    shopifyService,
		Dispatcher: webhookDispatcher,
		Verifier:   shopifyClient,
		Metrics:    m,
		Webhook: api.WebhookOptions{
			MaxBodyBytes: cfg.WebhookMaxBodyBytes,
			VerifyHMAC:   cfg.WebhookVerifyHMAC,
		},
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger,
	})

	if !cfg.WebhookVerifyHMAC {
		logger.Warn().Msg("Webhook HMAC verification is disabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Str("appUrl", cfg.AppURL).Msg("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatal().Err(err).Msg("Failed to start server")
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := registrar.Wait(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Pending webhook registrations abandoned")
	}
	logger.Info().Msg("Server stopped")
}
