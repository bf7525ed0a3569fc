// Command usage-reset zeroes every profile's monthly report counter. It is
// meant to run once at the start of each month from an external scheduler.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/illegalcall/esgtracker/internal/config"
	"github.com/illegalcall/esgtracker/internal/storage"
	"github.com/illegalcall/esgtracker/pkg/database"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg := config.LoadConfig()

	db, err := database.NewClients(cfg.Database, cfg.Redis)
	if err != nil {
		slog.Error("Failed to initialize database clients", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := storage.NewPostgres(db.DB).ResetMonthlyUsage(ctx)
	if err != nil {
		slog.Error("Failed to reset monthly usage", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Monthly usage reset", "profiles", n)
}
