package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/hmtran/audiolesson/adapters/assemblyai"
	"github.com/hmtran/audiolesson/adapters/googlespeech"
	"github.com/hmtran/audiolesson/adapters/memory"
	mongoadapter "github.com/hmtran/audiolesson/adapters/mongo"
	"github.com/hmtran/audiolesson/domain"
	"github.com/hmtran/audiolesson/domain/repositories"
	"github.com/hmtran/audiolesson/internal/api"
	"github.com/hmtran/audiolesson/internal/broker"
	"github.com/hmtran/audiolesson/internal/config"
	"github.com/hmtran/audiolesson/internal/websocket"
	"github.com/hmtran/audiolesson/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load(logger)

	// Persistence: Mongo when configured, in-memory otherwise
	var (
		jobs          repositories.JobRepository
		challengeRepo repositories.ChallengeRepository
	)
	if cfg.MongoURI != "" {
		client, err := mongoadapter.NewClient(cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		defer client.Close(context.Background())
		jobs = mongoadapter.NewJobRepository(client.Database)
		challengeRepo = mongoadapter.NewChallengeRepository(client.Database)
	} else {
		logger.Info("MONGODB_URI not set, using in-memory repositories")
		jobs = memory.NewJobRepository()
		challengeRepo = memory.NewChallengeRepository()
	}

	// Transcription backend
	var transcriber repositories.Transcriber
	switch cfg.TranscriberBackend {
	case "googlespeech":
		transcriber = googlespeech.NewRecognizer(cfg.LanguageCode, logger)
	default:
		client, err := assemblyai.NewClient(assemblyai.NewConfigFromEnv(), logger)
		if err != nil {
			logger.Fatal("Failed to create transcription client", zap.Error(err))
		}
		transcriber = client
	}

	// Broker and pipeline workers
	bus := broker.New(logger, cfg.BrokerPartitions)
	defer bus.Close()

	feed := websocket.NewFeed(logger)

	transcriptionService := usecase.NewTranscriptionService(jobs, transcriber, bus, feed, logger)
	alignmentService := usecase.NewAlignmentService(jobs, challengeRepo, feed, logger)
	challengeService := usecase.NewChallengeService(challengeRepo, logger)
	gradingService := usecase.NewGradingService(challengeRepo, bus, logger)

	bus.Subscribe(domain.TopicTranscriptionRequests, transcriptionService.HandleRequest)
	bus.Subscribe(domain.TopicTranscriptionCompleted, alignmentService.HandleTranscriptionCompleted)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize API routes
	api.InitRoutes(e, transcriptionService, challengeService, gradingService, feed, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
