package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlwahlen/ai-navigation-api/internal/adapters/cache"
	"github.com/carlwahlen/ai-navigation-api/internal/adapters/database"
	"github.com/carlwahlen/ai-navigation-api/internal/adapters/events"
	"github.com/carlwahlen/ai-navigation-api/internal/adapters/intent"
	"github.com/carlwahlen/ai-navigation-api/internal/api/handlers"
	"github.com/carlwahlen/ai-navigation-api/internal/api/routes"
	"github.com/carlwahlen/ai-navigation-api/internal/application/services"
	"github.com/carlwahlen/ai-navigation-api/internal/domain/providers"
	"github.com/carlwahlen/ai-navigation-api/internal/infrastructure/clients/postgres"
	"github.com/carlwahlen/ai-navigation-api/internal/infrastructure/clients/redis"
	"github.com/carlwahlen/ai-navigation-api/internal/infrastructure/observability"
	"github.com/carlwahlen/ai-navigation-api/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - caching and the live stream are optional
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	// Initialize adapters
	queryAdapter := database.NewQueryAdapter(pgClient)
	sessionAdapter := database.NewSessionAdapter(pgClient)
	flowAdapter := database.NewFlowAdapter(pgClient)
	contentAdapter := database.NewContentAdapter(pgClient)
	feedbackAdapter := database.NewFeedbackAdapter(pgClient)

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient, metrics)
	}

	// Initialize event bus for the live query stream
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available)")
	}

	// Intent detection: external service when configured, keyword rules
	// otherwise
	var intentProvider providers.IntentProvider
	if cfg.IntentService.URL != "" {
		intentProvider = intent.NewAIServiceClient(
			cfg.IntentService.URL,
			time.Duration(cfg.IntentService.TimeoutSeconds)*time.Second,
		)
		log.Println("Intent service client initialized")
	} else {
		intentProvider = intent.NewKeywordDetector()
		log.Println("Using built-in keyword intent detector")
	}

	// Initialize services
	queryService := services.NewQueryService(queryAdapter, cacheProvider)

	tracker := services.NewQueryTracker(queryService, eventBus, metrics, cfg.Tracker)
	tracker.Start()
	defer tracker.Stop()

	navigationService := services.NewNavigationService(
		sessionAdapter,
		flowAdapter,
		contentAdapter,
		queryService,
		intentProvider,
		tracker,
	)
	feedbackService := services.NewFeedbackService(feedbackAdapter, sessionAdapter, queryAdapter)
	contentService := services.NewContentService(contentAdapter)

	// Initialize handlers
	navigationHandler := handlers.NewNavigationHandler(navigationService)
	queryHandler := handlers.NewQueryHandler(queryService, tracker)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService)
	contentHandler := handlers.NewContentHandler(contentService)

	var streamHandler *handlers.StreamHandler
	if eventBus != nil {
		streamHandler = handlers.NewStreamHandler(eventBus)
	}

	// Set up router
	router := routes.NewRouter(
		navigationHandler,
		queryHandler,
		feedbackHandler,
		contentHandler,
		streamHandler,
		metrics,
	)
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Server stopped")
}
