package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alaris-labs/papergraph/pkg/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MigrateParams configures Migrate.
type MigrateParams struct {
	DatabaseURL string
	// Dir reads migrations from disk instead of the embedded set.
	Dir string
	// Down rolls every migration back instead of applying them.
	Down bool
}

// Migrate applies the schema migrations to the database. A database that is
// already up to date is not an error.
func Migrate(params MigrateParams) error {
	conn, err := sql.Open("postgres", params.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer conn.Close()

	driver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := newMigrator(params.Dir, driver)
	if err != nil {
		return err
	}

	if params.Down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", verr)
	}
	logger.Info("[DB] Schema migrated", "version", version, "dirty", dirty, "down", params.Down)
	return nil
}

func newMigrator(dir string, driver *postgres.Postgres) (*migrate.Migrate, error) {
	if dir != "" {
		m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
		if err != nil {
			return nil, fmt.Errorf("failed to read migrations from %s: %w", dir, err)
		}
		return m, nil
	}

	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}
