// Package sqlite implements the domain store contract on SQLite.
// The database file lives under the configured root; migrations are
// embedded and applied on open.
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/cask/internal/domain"
	"github.com/zjrosen/cask/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps the SQLite connection and exposes the domain repositories.
type DB struct {
	conn       *sql.DB
	registries *registryRepository
	known      *knownPackageRepository
	workspaces *workspaceRepository
	installed  *installedRepository
}

// Ensure DB satisfies the store contract.
var _ domain.Store = (*DB)(nil)

// NewDB opens (creating if necessary) the database at the given path and
// applies pending migrations. An existing database file is copied to a
// .bak sibling before migrations run.
func NewDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := backupFile(path, path+".bak"); err != nil {
			return nil, fmt.Errorf("pre-migration backup: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)&_pragma=foreign_keys(on)", path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	log.Debug(log.CatDB, "Database opened", "path", path)

	return &DB{
		conn:       conn,
		registries: newRegistryRepository(conn),
		known:      newKnownPackageRepository(conn),
		workspaces: newWorkspaceRepository(conn),
		installed:  newInstalledRepository(conn),
	}, nil
}

func runMigrations(conn *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func backupFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // G304: database path from config
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600) //nolint:gosec // G304: sibling of database path
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	_, err = io.Copy(out, in)
	return err
}

// Registries returns the registry repository.
func (db *DB) Registries() domain.RegistryRepository { return db.registries }

// KnownPackages returns the known-package repository.
func (db *DB) KnownPackages() domain.KnownPackageRepository { return db.known }

// Workspaces returns the workspace repository.
func (db *DB) Workspaces() domain.WorkspaceRepository { return db.workspaces }

// Installed returns the installed-package repository.
func (db *DB) Installed() domain.InstalledPackageRepository { return db.installed }

// Close releases the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
