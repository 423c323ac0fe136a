package database

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/km-arc/gomvc/framework/config"
)

// Manager owns the application connection and opens it on first use.
type Manager struct {
	driver Driver
	cfg    config.DBConfig
	log    *slog.Logger

	mu sync.Mutex
	db *gorm.DB
}

// NewManager picks the driver named by cfg.Driver.
func NewManager(cfg config.DBConfig, log *slog.Logger) (*Manager, error) {
	driver, err := DriverFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	return NewManagerWithDriver(driver, cfg, log), nil
}

// NewManagerWithDriver uses driver as given.
func NewManagerWithDriver(driver Driver, cfg config.DBConfig, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{driver: driver, cfg: cfg, log: log}
}

// Driver returns the underlying driver.
func (m *Manager) Driver() Driver { return m.driver }

// Connect returns a session on the shared connection, opening it first if
// needed.
func (m *Manager) Connect(ctx context.Context) (*gorm.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		if err := m.open(); err != nil {
			return nil, err
		}
	}
	return m.db.WithContext(ctx), nil
}

func (m *Manager) open() error {
	dsn := m.cfg.ConnectionString()
	if d, ok := m.driver.(SQLiteDriver); ok {
		if err := d.ensureDir(dsn); err != nil {
			return fmt.Errorf("database: create directory: %w", err)
		}
	}
	db, err := gorm.Open(m.driver.Open(dsn), &gorm.Config{
		Logger:                 NewGormLogger(m.log.With(slog.String("component", "gorm"))).LogMode(m.gormLevel()),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return fmt.Errorf("database: open: %w", err)
	}
	if err := m.driver.AfterConnect(db, m.log); err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database: access sql.DB: %w", err)
	}
	maxOpen := m.cfg.MaxOpenConns
	if m.driver.Name() == "sqlite" && inMemory(dsn) {
		// every connection to :memory: is a separate database
		maxOpen = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(min(m.cfg.MaxIdleConns, maxOpen))
	sqlDB.SetConnMaxLifetime(m.cfg.ConnMaxLifetime)

	m.log.Info("database connection established",
		slog.String("driver", m.driver.Name()),
		slog.Int("max_open", maxOpen),
	)
	m.db = db
	return nil
}

func (m *Manager) gormLevel() logger.LogLevel {
	if m.log.Enabled(context.Background(), slog.LevelDebug) {
		return logger.Info
	}
	return logger.Warn
}

// Migrate creates or updates the tables of models.
func (m *Manager) Migrate(ctx context.Context, models ...any) error {
	db, err := m.Connect(ctx)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	return nil
}

// Transaction runs fn in a transaction; an error from fn rolls back.
func (m *Manager) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db, err := m.Connect(ctx)
	if err != nil {
		return err
	}
	return db.Transaction(fn)
}

// Close closes the connection. The next Connect reopens it.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("database: access sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("database: close: %w", err)
	}
	m.db = nil
	m.log.Info("database connection closed", slog.String("driver", m.driver.Name()))
	return nil
}
