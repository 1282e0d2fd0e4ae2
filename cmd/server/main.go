package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rackmind/rackmind/internal/api"
	"github.com/rackmind/rackmind/internal/config"
	"github.com/rackmind/rackmind/internal/db"
	"github.com/rackmind/rackmind/internal/logger"
	"github.com/rackmind/rackmind/internal/rbac"
)

// Version is set via ldflags at build time
var Version = "dev"

func main() {
	port := flag.Int("port", 0, "Port to run the server on (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger.Init(cfg.Log.Format, cfg.Log.Level)
	slog.Info("Starting rackmind server", "version", Version, "mode", cfg.Server.Mode)

	database, err := db.New(cfg.Database)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	slog.Info("Database initialized", "driver", cfg.Database.Driver)

	if err := db.Migrate(database); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed")

	if err := rbac.InitEnforcer(database, slog.Default()); err != nil {
		slog.Error("Failed to initialize RBAC", "error", err)
		os.Exit(1)
	}

	if err := db.CreateDefaultAdmin(database, cfg.Auth); err != nil {
		slog.Error("Failed to create default admin user", "error", err)
		os.Exit(1)
	}

	router := api.NewRouter(cfg, database)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}
