package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jsonapiq/internal/config"
	"jsonapiq/internal/domain/content"
	"jsonapiq/internal/domain/query"
	v1 "jsonapiq/internal/infrastructure/http/v1"
	"jsonapiq/internal/infrastructure/storage/postgres"
	"jsonapiq/internal/infrastructure/storage/postgres/entity_repo"
	"jsonapiq/internal/metadata"
	"jsonapiq/pkg/logger"
	"jsonapiq/pkg/telemetry"
)

const version = "0.1.0"

// serve runs the HTTP server until SIGINT or SIGTERM.
func serve(ctx context.Context, cfg *config.Config) error {
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.Development(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting jsonapiq server")

	// --- Tracing ---
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		ServiceName: "jsonapiq",
		Version:     version,
	})
	if err != nil {
		log.Fatalw("failed to configure tracing", "error", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warnw("failed to flush traces", "error", err)
		}
	}()
	log.Infow("tracing configured", "exporter", cfg.Tracing.Exporter)

	// --- Metadata ---
	registry := content.NewRegistry()
	resolver := metadata.NewFieldResolver(registry)
	parser := query.NewParser(query.Config{
		Paths:    resolver,
		Includes: resolver,
		MaxLimit: cfg.Page.MaxLimit,
	})
	log.Infow("metadata registry initialized", "entity_types", len(registry.List()))

	routerCfg := v1.RouterConfig{
		Logger:      log,
		Registry:    registry,
		Parser:      parser,
		Compiler:    entity_repo.NewCompiler(registry),
		Development: cfg.App.Development(),
	}

	// --- Database (optional) ---
	if cfg.Database.Enabled() {
		pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.URL, cfg.Database.MaxConns))
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pool.Close()
		log.Infow("database connection established", "max_conns", cfg.Database.MaxConns)

		repo := entity_repo.NewRepo(registry, postgres.NewTxManager(pool))
		routerCfg.Finder = repo
		routerCfg.DB = pool
	} else {
		log.Warn("no database configured, collection routes answer 503")
	}

	// --- Router ---
	handler, err := v1.NewHandler(routerCfg)
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", cfg.App.Port, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
	return nil
}
