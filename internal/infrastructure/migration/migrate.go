// Package migration applies the versioned SQL schema with golang-migrate.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/installments/backend/migrations"
	"go.uber.org/zap"
)

// Migrator runs schema migrations against postgres
type Migrator struct {
	migrate *migrate.Migrate
	logger  *zap.Logger
}

// Source selects where migration files are read from
type Source struct {
	dir string
	fs  fs.FS
}

// Embedded reads the migrations compiled into the binary
func Embedded() Source {
	return Source{fs: migrations.FS}
}

// Dir reads migrations from a directory on disk
func Dir(path string) Source {
	return Source{dir: path}
}

// New creates a Migrator over an open postgres connection
func New(db *sql.DB, src Source, logger *zap.Logger) (*Migrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("create postgres driver: %w", err)
	}

	var m *migrate.Migrate
	if src.fs != nil {
		source, err := iofs.New(src.fs, ".")
		if err != nil {
			return nil, fmt.Errorf("open embedded migrations: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", source, "postgres", driver)
		if err != nil {
			return nil, fmt.Errorf("create migrator: %w", err)
		}
	} else {
		m, err = migrate.NewWithDatabaseInstance("file://"+src.dir, "postgres", driver)
		if err != nil {
			return nil, fmt.Errorf("create migrator: %w", err)
		}
	}

	return &Migrator{migrate: m, logger: logger}, nil
}

// Up applies every pending migration
func (m *Migrator) Up() error {
	if err := m.migrate.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("schema is up to date")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}
	return m.logVersion("migrations applied")
}

// Down rolls back every migration
func (m *Migrator) Down() error {
	if err := m.migrate.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	m.logger.Info("migrations rolled back")
	return nil
}

// Steps applies n migrations; negative n rolls back
func (m *Migrator) Steps(n int) error {
	if err := m.migrate.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %d steps: %w", n, err)
	}
	return m.logVersion("migration steps applied")
}

// GoTo migrates up or down to version
func (m *Migrator) GoTo(version uint) error {
	if err := m.migrate.Migrate(version); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate to %d: %w", version, err)
	}
	return m.logVersion("migrated to version")
}

// Version returns the applied version; zero means none
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}

// Force records version as applied without running it. Used to clear a dirty state.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Close releases the source and database handles
func (m *Migrator) Close() error {
	srcErr, dbErr := m.migrate.Close()
	return errors.Join(srcErr, dbErr)
}

func (m *Migrator) logVersion(msg string) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info(msg, zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
