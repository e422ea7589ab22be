package pg

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/settlex/settlex/pkg/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// Migrate applies every pending migration.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg Config, log *slog.Logger) error {
	return run(ctx, pool, cfg, log, func(ctx context.Context, db *sql.DB) error {
		return goose.UpContext(ctx, db, migrationsDir)
	})
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, pool *pgxpool.Pool, cfg Config, log *slog.Logger) error {
	return run(ctx, pool, cfg, log, func(ctx context.Context, db *sql.DB) error {
		return goose.DownContext(ctx, db, migrationsDir)
	})
}

// Status logs the state of every migration.
func Status(ctx context.Context, pool *pgxpool.Pool, cfg Config, log *slog.Logger) error {
	return run(ctx, pool, cfg, log, func(ctx context.Context, db *sql.DB) error {
		return goose.StatusContext(ctx, db, migrationsDir)
	})
}

func run(ctx context.Context, pool *pgxpool.Pool, cfg Config, log *slog.Logger, fn func(context.Context, *sql.DB) error) error {
	if log == nil {
		log = logger.Discard()
	}

	db := stdlib.OpenDBFromPool(pool)
	defer func() {
		if err := db.Close(); err != nil {
			log.ErrorContext(ctx, "failed to close migration connection", logger.Error(err))
		}
	}()

	goose.SetBaseFS(migrations)
	goose.SetLogger(&gooseLogger{log: log.With(logger.Component("migrate"))})
	if cfg.MigrationsTable != "" {
		goose.SetTableName(cfg.MigrationsTable)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	if err := fn(ctx, db); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	return nil
}
