package main

import (
	"context"
	"errors"
	"fmt"

	"jsonapiq/internal/config"
	"jsonapiq/internal/domain/content"
	"jsonapiq/internal/infrastructure/storage/postgres"
	"jsonapiq/pkg/logger"
)

// seed creates the schema and, when demo is set, loads the demo rows.
func seed(ctx context.Context, cfg *config.Config, demo bool) error {
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	if !cfg.Database.Enabled() {
		return errors.New("a database URL is required: set --database-url or JSONAPIQ_DATABASE_URL")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.URL, cfg.Database.MaxConns))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txm := postgres.NewTxManager(pool)
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		q := txm.GetQuerier(ctx)
		if _, err := q.Exec(ctx, content.Schema); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		log.Info("schema ready")

		if !demo {
			return nil
		}
		tag, err := q.Exec(ctx, content.DemoData)
		if err != nil {
			return fmt.Errorf("load demo data: %w", err)
		}
		log.Infow("demo data loaded", "rows", tag.RowsAffected())
		return nil
	})
	if err != nil {
		log.Errorw("seeding failed", "error", err)
		return err
	}

	postgres.LogPoolStats(logger.WithLogger(ctx, log), pool.Pool)
	log.Info("seeding completed successfully")
	return nil
}
