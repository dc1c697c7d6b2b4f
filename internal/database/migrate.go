package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type MigrationResult struct {
	FromVersion uint
	ToVersion   uint
	Dirty       bool
}

// Migrate применяет встроенные миграции схемы к базе по DSN.
func Migrate(dsn string) (MigrationResult, error) {
	return run(dsn, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("apply migrations: %w", err)
		}
		return nil
	})
}

// Rollback откатывает заданное число миграций.
func Rollback(dsn string, steps int) (MigrationResult, error) {
	if steps <= 0 {
		return MigrationResult{}, fmt.Errorf("rollback steps must be greater than 0")
	}

	return run(dsn, func(m *migrate.Migrate) error {
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("rollback migrations: %w", err)
		}
		return nil
	})
}

func run(dsn string, apply func(m *migrate.Migrate) error) (MigrationResult, error) {
	var result MigrationResult

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return result, fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return result, fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return result, fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return result, fmt.Errorf("create migrator: %w", err)
	}

	result.FromVersion, err = currentVersion(m)
	if err != nil {
		return result, err
	}

	if err := apply(m); err != nil {
		return result, err
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return result, nil
	case err != nil:
		return result, fmt.Errorf("read migration version: %w", err)
	}
	result.ToVersion = version
	result.Dirty = dirty

	return result, nil
}

func currentVersion(m *migrate.Migrate) (uint, error) {
	version, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	return version, nil
}
