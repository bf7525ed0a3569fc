package main

import (
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/illegalcall/esgtracker/internal/api"
	"github.com/illegalcall/esgtracker/internal/billing"
	"github.com/illegalcall/esgtracker/internal/cache"
	"github.com/illegalcall/esgtracker/internal/config"
	"github.com/illegalcall/esgtracker/internal/events"
	"github.com/illegalcall/esgtracker/internal/llm"
	"github.com/illegalcall/esgtracker/internal/pkg/supabase"
	"github.com/illegalcall/esgtracker/internal/plans"
	"github.com/illegalcall/esgtracker/internal/report"
	"github.com/illegalcall/esgtracker/internal/storage"
	"github.com/illegalcall/esgtracker/pkg/database"
	"github.com/illegalcall/esgtracker/pkg/kafka"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	// Load configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := slog.Default()

	// Initialize database clients
	db, err := database.NewClients(cfg.Database, cfg.Redis)
	if err != nil {
		slog.Error("Failed to initialize database clients", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("✅ Connected to databases")

	if err := db.CreateSchema(); err != nil {
		slog.Error("Failed to create schema", "error", err)
		os.Exit(1)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			slog.Error("Failed to create Kafka producer", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		publisher = events.NewKafkaPublisher(producer, cfg.Kafka.Topic)
		slog.Info("✅ Connected to Kafka")
	}

	backend, err := llm.New(cfg.LLM, cfg.App.URL)
	if err != nil {
		if !errors.Is(err, llm.ErrNotConfigured) {
			slog.Error("Failed to configure text-generation backend", "error", err)
			os.Exit(1)
		}
		slog.Warn("No text-generation backend configured; report generation is disabled")
	}

	store := storage.NewPostgres(db.DB)
	catalog := plans.NewCatalog(cfg.Stripe)

	deps := api.Deps{
		Store:       store,
		Generator:   report.NewGenerator(backend, logger),
		Catalog:     catalog,
		ReportCache: cache.NewReportCache(db.Redis, cfg.Redis.ReportCacheTTL),
		Publisher:   publisher,
		Registry:    prometheus.NewRegistry(),
		Logger:      logger,
	}
	deps.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.Stripe.SecretKey != "" {
		provider := billing.NewStripeProvider(cfg.Stripe.SecretKey, nil)
		deps.Checkout = billing.NewCheckout(store, provider, catalog, cfg.App.URL, logger)
	} else {
		slog.Warn("STRIPE_SECRET_KEY not set; checkout is disabled")
	}
	if cfg.Stripe.WebhookSecret != "" {
		ledger := cache.NewEventLedger(db.Redis, cfg.Redis.WebhookTTL)
		deps.Webhooks = billing.NewWebhookHandler(store, cfg.Stripe.WebhookSecret, ledger, publisher, logger)
	} else {
		slog.Warn("STRIPE_WEBHOOK_SECRET not set; payment webhooks are disabled")
	}

	if auth, err := supabase.NewClient(cfg.Supabase); err != nil {
		slog.Warn("Supabase auth client unavailable; sign up and login are disabled", "error", err)
	} else {
		deps.Auth = auth
	}

	server := api.NewServer(cfg, deps)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		slog.Info("Received shutdown signal", "signal", sig)
		if err := server.Shutdown(); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}
