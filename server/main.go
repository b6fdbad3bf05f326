package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/phambaophuc/image-cropper/internal/config"
	"github.com/phambaophuc/image-cropper/internal/http/handlers"
	"github.com/phambaophuc/image-cropper/internal/http/routes"
	"github.com/phambaophuc/image-cropper/internal/services/queue"
	"github.com/phambaophuc/image-cropper/internal/services/session"
	"github.com/phambaophuc/image-cropper/internal/services/storage"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize services
	processor, err := cfg.NewImageProcessor()
	if err != nil {
		logger.Fatal("Failed to initialize crop engine", zap.Error(err))
	}

	sessions := session.NewRegistry(processor, logger, session.Options{
		TTL:         cfg.Session.TTL,
		MaxSessions: cfg.Session.MaxSessions,
	})
	go sessions.Run(ctx)

	store, err := storage.NewStorageService(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage service", zap.Error(err))
	}
	defer store.Close()
	if !store.Configured() {
		logger.Warn("Supabase bucket not configured, saves return the image directly")
	}

	var jobs handlers.JobQueue
	queueService, err := queue.NewQueueService(cfg.RabbitMQ, store, logger)
	if err != nil {
		logger.Warn("Failed to initialize queue service", zap.Error(err))
		// Continue without async uploads
	} else {
		defer queueService.Close()
		for i := 0; i < cfg.RabbitMQ.Workers; i++ {
			if err := queueService.StartWorker(ctx, i); err != nil {
				logger.Error("Failed to start worker", zap.Int("worker_id", i), zap.Error(err))
			}
		}
		jobs = queueService
	}

	// Initialize handlers
	cropHandler := handlers.NewCropHandler(sessions, store, jobs, logger, cfg)

	router := routes.NewRouter(cropHandler, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	<-ctx.Done()

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	sessions.Close()

	logger.Info("Server exited")
}
