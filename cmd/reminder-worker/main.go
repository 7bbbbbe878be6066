package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bluemoon/internal/amqp"
	"bluemoon/internal/config"
	"bluemoon/internal/services"
	"bluemoon/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting reminder-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	resolver := services.NewObligationResolver(cfg.BillingPolicy())
	classifier := services.NewCompletionClassifier(resolver)
	scheduler := services.NewReminderScheduler(repo, repo, amqpClient, classifier, cfg.ReminderLookaheadDays)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Reminder scheduler configured",
		"interval", cfg.ReminderCheckInterval,
		"lookahead_days", cfg.ReminderLookaheadDays)

	runOnce := func() {
		sent, err := scheduler.Run(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("Reminder run failed", "error", err)
			return
		}
		if sent > 0 {
			logger.Info("Reminder run completed", "events_published", sent)
		}
	}

	// One pass at startup so a restart never skips today's due reminders.
	runOnce()

	ticker := time.NewTicker(cfg.ReminderCheckInterval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			runOnce()
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
			logger.Info("Worker stopped gracefully")
			return
		case <-ctx.Done():
			return
		}
	}
}
