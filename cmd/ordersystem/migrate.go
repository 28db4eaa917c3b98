package main

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ordersystem/internal/config"
	"ordersystem/internal/logger"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("error loading configuration: %w", err)
			}
			appLogger, err := logger.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer appLogger.Sync() //nolint:errcheck

			if args[0] == "down" {
				return migrateDown(cfg, appLogger)
			}
			return migrateUp(cfg, appLogger)
		},
	}
}

func newMigrator(cfg *config.Config) (*migrate.Migrate, error) {
	m, err := migrate.New(cfg.MigrationsPath, cfg.GetDBMigrationConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

func migrateUp(cfg *config.Config, l *zap.Logger) error {
	l.Info("Running database migrations...", zap.String("path", cfg.MigrationsPath))
	m, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	l.Info("Database migrations completed successfully (or no new migrations).")
	return nil
}

func migrateDown(cfg *config.Config, l *zap.Logger) error {
	l.Info("Rolling back database migrations...", zap.String("path", cfg.MigrationsPath))
	m, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back database migrations: %w", err)
	}
	l.Info("Database migrations rolled back.")
	return nil
}
