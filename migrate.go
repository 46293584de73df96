package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/isdelr/splinter-be/internal/database"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Apply all pending migrations to the configured database.
SQLite databases are migrated in place; PostgreSQL uses the embedded migration files.`,
		RunE: runMigrate,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent PostgreSQL migration",
		RunE:  runMigrateDown,
	})
	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.DatabaseDriver() == "postgres" {
		cmd.Println("Running PostgreSQL migrations...")
		if err := database.MigratePostgres(cfg.DatabaseURL); err != nil {
			return err
		}
		cmd.Println("Migrations completed successfully")
		return nil
	}

	cmd.Println("Running SQLite migrations...")
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	cmd.Println("Migrations completed successfully")
	return nil
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.DatabaseDriver() != "postgres" {
		return errors.New("migrate down requires a postgres:// DATABASE_URL")
	}

	m, err := database.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNoChange) || errors.Is(err, os.ErrNotExist) {
			cmd.Println("No migrations to roll back")
			return nil
		}
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		cmd.Println("Rolled back to an empty schema")
	case err != nil:
		return fmt.Errorf("failed to read migration version: %w", err)
	default:
		cmd.Printf("Rolled back to version %d (dirty: %t)\n", version, dirty)
	}
	return nil
}
