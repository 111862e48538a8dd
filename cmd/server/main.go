package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seatrack/cargo-backend/internal/cache"
	"github.com/seatrack/cargo-backend/internal/config"
	"github.com/seatrack/cargo-backend/internal/database"
	"github.com/seatrack/cargo-backend/internal/handlers"
	"github.com/seatrack/cargo-backend/internal/importer"
	"github.com/seatrack/cargo-backend/internal/metrics"
	"github.com/seatrack/cargo-backend/internal/service"
)

const (
	serviceName = "cargo-backend"
	version     = "1.0.0"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Setup logging
	logger := setupLogging(cfg)
	logger.Info("Starting Cargo Back-Office Service",
		"service", serviceName,
		"version", version,
		"environment", cfg.Environment)

	// Setup database connection
	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", "error", err)
		}
	}()

	// Run database migrations
	if err := database.RunMigrations(cfg.Database); err != nil {
		logger.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// Setup repositories
	customerRepo := database.NewCustomerRepository(db, logger)
	ruleRepo := database.NewRuleRepository(db, logger)
	containerRepo := database.NewContainerRepository(db, logger)
	itemRepo := database.NewItemRepository(db, logger)

	// Setup redis cache for dashboard aggregates
	redisClient := cache.NewClient(cfg.Redis)
	defer redisClient.Close()
	statsCache := cache.New(redisClient, cfg.Redis.StatsTTL, logger)

	// Setup mark assignment and supporting components
	assigner := service.NewMarkAssigner(customerRepo, ruleRepo, logger, cfg.Resolver.MaxAttempts)
	itemImporter := importer.NewItemImporter(logger)
	collector := metrics.NewCollector()

	// Setup HTTP handler and routes
	handler := handlers.NewHTTPHandler(
		&cfg,
		logger,
		customerRepo,
		assigner,
		ruleRepo,
		containerRepo,
		itemRepo,
		itemImporter,
		statsCache,
		collector,
	)

	router := mux.NewRouter()
	router.Use(collector.Middleware)
	handler.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start HTTP server
	go func() {
		logger.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	logger.Info("Shutdown complete")
}

// setupLogging configures the structured logger
func setupLogging(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Logging.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With("service", serviceName)
	slog.SetDefault(logger)
	return logger
}
