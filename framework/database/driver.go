// Package database opens the application database through gorm and offers a
// small generic record mapper on top of it.
package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Driver holds the database-specific parts of opening a connection.
type Driver interface {
	// Name returns the driver name ("sqlite", "postgres").
	Name() string

	// Open returns the gorm dialector for dsn.
	Open(dsn string) gorm.Dialector

	// AfterConnect runs driver setup on a fresh connection.
	AfterConnect(db *gorm.DB, log *slog.Logger) error
}

// DriverFor returns the driver registered under name.
func DriverFor(name string) (Driver, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return SQLiteDriver{BusyTimeout: 5000}, nil
	case "postgres", "pgsql", "postgresql":
		return PostgresDriver{}, nil
	}
	return nil, fmt.Errorf("database: unsupported driver %q", name)
}

// SQLiteDriver opens SQLite files and in-memory databases.
type SQLiteDriver struct {
	// BusyTimeout in milliseconds.
	BusyTimeout int
}

func (SQLiteDriver) Name() string { return "sqlite" }

func (SQLiteDriver) Open(dsn string) gorm.Dialector { return sqlite.Open(dsn) }

// ensureDir creates the directory of a file database.
func (SQLiteDriver) ensureDir(dsn string) error {
	if inMemory(dsn) {
		return nil
	}
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if dir := filepath.Dir(path); dir != "." {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}

// AfterConnect applies pragmas. WAL is skipped for in-memory databases.
func (d SQLiteDriver) AfterConnect(db *gorm.DB, log *slog.Logger) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", d.BusyTimeout),
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	if dia, ok := db.Dialector.(*sqlite.Dialector); ok && !inMemory(dia.DSN) {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			log.Error("failed to apply pragma", slog.String("pragma", pragma), slog.Any("error", err))
			return fmt.Errorf("sqlite: apply pragma %s: %w", pragma, err)
		}
	}
	return nil
}

// PostgresDriver opens PostgreSQL through pgx.
type PostgresDriver struct {
	SearchPath string
}

func (PostgresDriver) Name() string { return "postgres" }

func (PostgresDriver) Open(dsn string) gorm.Dialector { return postgres.Open(dsn) }

func (d PostgresDriver) AfterConnect(db *gorm.DB, log *slog.Logger) error {
	if d.SearchPath == "" {
		return nil
	}
	if err := db.Exec("SET search_path TO " + d.SearchPath).Error; err != nil {
		log.Error("failed to set search_path", slog.String("search_path", d.SearchPath), slog.Any("error", err))
		return fmt.Errorf("postgres: set search_path: %w", err)
	}
	return nil
}

func inMemory(dsn string) bool {
	return dsn == "" || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
