package main

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/settlex/settlex/pkg/pg"
)

type migrateFunc func(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error

func newMigrateCmd(envFiles *[]string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigration(cmd.Context(), *envFiles, pg.Migrate)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigration(cmd.Context(), *envFiles, pg.Rollback)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the state of every migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigration(cmd.Context(), *envFiles, pg.Status)
			},
		},
	)
	return cmd
}

func runMigration(ctx context.Context, envFiles []string, fn migrateFunc) error {
	var cfg appConfig
	if err := loadConfig(&cfg, envFiles); err != nil {
		return err
	}
	log := newLogger(cfg)
	if cfg.PG.ConnectionString == "" {
		return errNoDatabase
	}

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, pool, cfg.PG, log)
}
