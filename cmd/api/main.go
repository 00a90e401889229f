package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "precinct/docs" // This is for Swagger
	"precinct/internal/authz"
	"precinct/internal/config"
	"precinct/internal/database"
	"precinct/internal/logger"
	"precinct/internal/metrics"
	"precinct/internal/service"
)

// @title Precinct API
// @version 1.0
// @description Backend API for police case management: complaints, cases, evidence, suspects, trials and rewards
// @termsOfService http://swagger.io/terms/

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", cfg.Log.Level,
	)

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func(db *database.Database) {
		err := db.Close()
		if err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}(db)

	slog.Info("Database connection established")

	ctx := context.Background()

	// Run database migrations
	applied, err := database.NewMigrationExecutor(db.DB, cfg.Database.MigrationsDir).Up(ctx)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed", "applied", applied)

	m := metrics.New()

	// Seed roles and permissions
	seed, err := authz.LoadSeed(cfg.Workflow.SeedRolesFile)
	if err != nil {
		slog.Error("Failed to load role seed", "error", err)
		os.Exit(1)
	}
	if err := service.SeedRoles(ctx, service.NewEnv(db.DB, rulesFrom(&cfg.Workflow), m), seed); err != nil {
		slog.Error("Failed to seed roles", "error", err)
		os.Exit(1)
	}

	srv := newServer(cfg, db.DB, m)
	defer srv.Close()

	// Create server
	addr := cfg.Server.Address()
	server := &http.Server{
		Addr:         addr,
		Handler:      srv.handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
