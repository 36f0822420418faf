package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/migrations"
	"github.com/vadimbarashkov/shortlink/pkg/postgres"
)

var downSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema.",
	Long: `Applies or rolls back the embedded SQL migrations against the configured
postgres database.

Example:
  shortlink migrate up
  shortlink migrate down --steps=1`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dsn, err := postgresDSN()
		if err != nil {
			return err
		}

		if err := postgres.RunMigrations(migrations.FS, dsn); err != nil {
			return err
		}

		cmd.Println("migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the latest migrations.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if downSteps <= 0 {
			return fmt.Errorf("--steps must be positive, got %d", downSteps)
		}

		dsn, err := postgresDSN()
		if err != nil {
			return err
		}

		if err := postgres.RollbackMigrations(migrations.FS, dsn, downSteps); err != nil {
			return err
		}

		cmd.Printf("rolled back %d migration(s)\n", downSteps)
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dsn, err := postgresDSN()
		if err != nil {
			return err
		}

		version, dirty, err := postgres.MigrationVersion(migrations.FS, dsn)
		if err != nil {
			return err
		}

		cmd.Printf("version: %d, dirty: %t\n", version, dirty)
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
}

func postgresDSN() (string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}

	if cfg.Storage.Driver != config.StoragePostgres {
		return "", fmt.Errorf("migrations require the %s storage driver", config.StoragePostgres)
	}

	return cfg.Postgres.DSN(), nil
}
