// Package main is the entry point for the BookWorm server. It loads
// configuration, establishes database connections, runs migrations, wires
// together the plugins, and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keyxmakerx/bookworm/internal/app"
	"github.com/keyxmakerx/bookworm/internal/config"
	"github.com/keyxmakerx/bookworm/internal/database"
)

func main() {
	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	// Configure structured logging based on environment.
	setupLogging(cfg)

	slog.Info("starting BookWorm",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
	)

	// --- Connect to MariaDB ---
	db, err := database.NewMariaDB(cfg.Database)
	if err != nil {
		slog.Error("failed to connect to MariaDB", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to MariaDB")

	// --- Apply Schema Migrations ---
	if err := database.RunMigrations(db, cfg.Database.MigrationsPath); err != nil {
		slog.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Connect to Redis ---
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to Redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer rdb.Close()
	slog.Info("connected to Redis")

	// --- Create Application ---
	application := app.New(cfg, db, rdb)

	// Register all routes (public, auth, library, API).
	application.RegisterRoutes()

	// --- Graceful Shutdown ---
	// Listen for interrupt/term signals to drain connections cleanly.
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		// Give in-flight requests 10 seconds to complete.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := application.Echo.Shutdown(ctx); err != nil {
			slog.Error("server forced shutdown", slog.Any("error", err))
		}

		// Let in-flight profile upserts and activity writes finish before
		// the pools close.
		application.Login.Wait()
		application.Auth.WaitActivity()
	}()

	// --- Start Server ---
	if err := application.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
	<-shutdownDone
	slog.Info("server stopped")
}

// setupLogging configures the global slog logger based on the environment.
// Development uses text format for readability. Production uses JSON for
// structured log aggregation. LOG_LEVEL sets the level in both.
func setupLogging(cfg *config.Config) {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
