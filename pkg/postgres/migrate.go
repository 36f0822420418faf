package postgres

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
)

// RunMigrations applies every pending migration found at the root of src to the database at dsn.
func RunMigrations(src fs.FS, dsn string) error {
	const op = "postgres.RunMigrations"

	m, err := newMigrate(src, dsn)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	return nil
}

// RollbackMigrations reverts the last steps migrations.
func RollbackMigrations(src fs.FS, dsn string, steps int) error {
	const op = "postgres.RollbackMigrations"

	m, err := newMigrate(src, dsn)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: failed to roll back migrations: %w", op, err)
	}

	return nil
}

// MigrationVersion reports the applied version and whether the last migration failed halfway.
func MigrationVersion(src fs.FS, dsn string) (uint, bool, error) {
	const op = "postgres.MigrationVersion"

	m, err := newMigrate(src, dsn)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("%s: failed to get version: %w", op, err)
	}

	return version, dirty, nil
}

func newMigrate(src fs.FS, dsn string) (*migrate.Migrate, error) {
	source, err := iofs.New(src, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}

	return m, nil
}
