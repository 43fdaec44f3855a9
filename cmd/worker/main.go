package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tessera/cmd/worker/jobs"
	"tessera/internal/config"
	"tessera/internal/consumers"
	"tessera/internal/database"
	"tessera/internal/logger"
	"tessera/internal/messaging"
	"tessera/internal/repository"
)

func main() {
	cfg := config.Load()
	cfg.NATS.ClientID = "tessera-worker"
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	slog.Info("Starting worker service...")

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "error", err)
	}

	repos := repository.NewRepositories(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	expirationJob := jobs.NewOrderExpirationJob(repos.Orders, natsClient, cfg.HoldSweepInterval)
	expirationJob.Start(ctx)

	consumerService, err := consumers.NewConsumerService(cfg, natsClient)
	if err != nil {
		logger.Fatal("Failed to create consumer service", "error", err)
	}
	if err := consumerService.Start(); err != nil {
		logger.Fatal("Failed to start consumers", "error", err)
	}

	slog.Info("Worker service started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down worker service...")

	expirationJob.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := consumerService.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error during consumer shutdown", "error", err)
	}

	if err := natsClient.Close(); err != nil {
		slog.Error("Error closing NATS connection", "error", err)
	}
	if err := db.Close(); err != nil {
		slog.Error("Error closing database connection", "error", err)
	}

	slog.Info("Worker service stopped")
}
