package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/illegalcall/esgtracker/internal/config"
	"github.com/illegalcall/esgtracker/internal/jobs"
	"github.com/illegalcall/esgtracker/internal/notify"
	"github.com/illegalcall/esgtracker/internal/storage"
	"github.com/illegalcall/esgtracker/internal/worker"
	"github.com/illegalcall/esgtracker/pkg/database"
	"github.com/illegalcall/esgtracker/pkg/kafka"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize database clients
	db, err := database.NewClients(cfg.Database, cfg.Redis)
	if err != nil {
		slog.Error("Failed to initialize database clients", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("✅ Connected to databases")

	var mailer notify.Mailer
	smtpMailer, err := notify.NewSMTPMailer(cfg.Email)
	switch {
	case err == nil:
		mailer = smtpMailer
	case errors.Is(err, notify.ErrNotConfigured):
		slog.Warn("Email is not configured; notifications will be skipped")
	default:
		slog.Error("Failed to initialize mailer", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka consumer
	consumer, err := kafka.NewConsumer(cfg.Kafka)
	if err != nil {
		slog.Error("Failed to create Kafka consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()
	slog.Info("✅ Connected to Kafka")

	handlers := jobs.NewHandlers(storage.NewPostgres(db.DB), mailer, cfg.App.URL, slog.Default())

	// Create and start worker
	w := worker.NewWorker(cfg, handlers.Registry(), consumer)

	if err := w.Start(context.Background()); err != nil {
		slog.Error("Worker error", "error", err)
		os.Exit(1)
	}
}
