package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/budgelabs/budge-backend/internal/app"
	redisclient "github.com/budgelabs/budge-backend/internal/clients/redis"
	"github.com/budgelabs/budge-backend/internal/db"
	"github.com/budgelabs/budge-backend/internal/handlers"
	"github.com/budgelabs/budge-backend/internal/knowledge"
	"github.com/budgelabs/budge-backend/internal/middleware"
	"github.com/budgelabs/budge-backend/internal/observability"
	"github.com/budgelabs/budge-backend/internal/pkg/logger"
	"github.com/budgelabs/budge-backend/internal/repos"
	"github.com/budgelabs/budge-backend/internal/server"
	"github.com/budgelabs/budge-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	cfg := app.LoadConfig(log)

	// Tracing
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "budge-backend",
		Environment: logMode,
	})
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelShutdown(ctx)
	}()

	// Knowledge base
	catalogue, err := knowledge.Load()
	if err != nil {
		log.Fatal("Could not load concept catalogue", "error", err)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(thePG, log)
	transactionRepo := repos.NewTransactionRepo(thePG, log)
	patternRepo := repos.NewPatternRepo(thePG, log)
	questionRepo := repos.NewQuestionRepo(thePG, log)
	reflectionRepo := repos.NewReflectionRepo(thePG, log)
	conceptEmbeddingRepo := repos.NewConceptEmbeddingRepo(thePG, log)

	// Clients
	var generativeClient services.GenerativeClient
	if cfg.GeminiAPIKey != "" {
		generativeClient, err = services.NewGeminiClient(log, cfg)
		if err != nil {
			log.Fatal("Could not init Gemini client", "error", err)
		}
	} else {
		log.Warn("GEMINI_API_KEY not set, running with template fallbacks only")
	}

	var scanLock services.ScanLock
	if cfg.RedisAddr != "" {
		redisLock, err := redisclient.NewScanLock(log, cfg.RedisAddr)
		if err != nil {
			log.Warn("Redis scan lock unavailable, using in-process lock", "error", err)
		} else {
			scanLock = redisLock
		}
	}
	if scanLock == nil {
		scanLock = services.NewLocalScanLock()
	}

	// Services
	log.Info("Setting up services...")
	patternEngine := services.NewPatternEngine(thePG, log, transactionRepo, patternRepo, scanLock, cfg.Thresholds)
	conceptRetriever := services.NewConceptRetriever(log, catalogue, conceptEmbeddingRepo, generativeClient, cfg.EmbedTimeout, cfg.GenerateTimeout)
	questionGenerator := services.NewQuestionGenerator(log, generativeClient, cfg.GenerateTimeout)
	learningService := services.NewLearningService(thePG, log, patternRepo, questionRepo, reflectionRepo, conceptRetriever, questionGenerator)
	transactionService := services.NewTransactionService(thePG, log, transactionRepo, userRepo)
	ingestService := services.NewIngestService(thePG, log, generativeClient, cfg.GenerateTimeout)

	// Handlers
	patternHandler := handlers.NewPatternHandler(patternEngine)
	learningHandler := handlers.NewLearningHandler(learningService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	ingestHandler := handlers.NewIngestHandler(ingestService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		ServiceName:        "budge-backend",
		RequestLog:         middleware.NewRequestLogMiddleware(log),
		PatternHandler:     patternHandler,
		LearningHandler:    learningHandler,
		TransactionHandler: transactionHandler,
		IngestHandler:      ingestHandler,
	})

	addr := ":" + cfg.Port
	log.Info("Starting server", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
