package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsTable = "everwake_schema_migrations"

// Migrator applies the embedded run/alert schema.
type Migrator struct {
	m *migrate.Migrate
}

// NewMigrator creates a migrator on db. A nil logger keeps golang-migrate quiet.
func NewMigrator(db *sql.DB, logger *slog.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: migrationsTable,
	})
	if err != nil {
		return nil, fmt.Errorf("create postgres driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	if logger != nil {
		m.Log = migrateLogger{logger: logger.With(slog.String("component", "migrate"))}
	}

	return &Migrator{m: m}, nil
}

func (m *Migrator) Up() error {
	err := m.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Down rolls back steps migrations. Rolling back past the first one drops
// run history.
func (m *Migrator) Down(steps int) error {
	if steps < 1 {
		return fmt.Errorf("rollback steps must be at least 1, got %d", steps)
	}
	if err := m.m.Steps(-steps); err != nil {
		return fmt.Errorf("rollback %d migration(s): %w", steps, err)
	}
	return nil
}

// Version reports 0 when nothing has been applied yet.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get version: %w", err)
	}
	return version, dirty, nil
}

// Force marks version as applied and clears the dirty flag without running SQL.
func (m *Migrator) Force(version int) error {
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

// MigrateUp opens dsn, applies pending migrations and returns the resulting
// version. The API runs it on startup when history is enabled.
func MigrateUp(ctx context.Context, dsn string, logger *slog.Logger) (uint, error) {
	db, err := OpenSQL(ctx, dsn)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()

	migrator, err := NewMigrator(db, logger)
	if err != nil {
		return 0, err
	}
	defer func() { _ = migrator.Close() }()

	if err := migrator.Up(); err != nil {
		return 0, err
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty, run migrate -action force", version)
	}
	return version, nil
}

// migrateLogger adapts slog to migrate.Logger.
type migrateLogger struct {
	logger *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return false
}
