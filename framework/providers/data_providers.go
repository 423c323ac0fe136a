package providers

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/km-arc/gomvc/framework/cache"
	"github.com/km-arc/gomvc/framework/container"
	"github.com/km-arc/gomvc/framework/database"
)

// ── DatabaseServiceProvider ───────────────────────────────────────────────────

// DatabaseServiceProvider owns the connection manager. The connection itself
// opens on first use; Boot opens it early only when there are models to
// migrate.
//
// Bound abstracts:
//   - "db"   → *database.Manager
//   - "gorm" → *gorm.DB
//
// Laravel equivalent:
//
//	// Illuminate\Database\DatabaseServiceProvider
//	$app->singleton('db', fn($app) => new DatabaseManager($app, $app['db.factory']));
type DatabaseServiceProvider struct {
	container.BaseProvider

	// Models are auto-migrated in Boot.
	Models []any
}

func (p *DatabaseServiceProvider) Register(app *container.Container) {
	singleton(app, "db", func(c *container.Container) *database.Manager {
		m, err := database.NewManager(configOf(c).DB, loggerOf(c))
		if err != nil {
			loggerOf(c).Error("database manager unavailable", slog.Any("error", err))
			return nil
		}
		return m
	})
	singleton(app, "gorm", func(c *container.Container) *gorm.DB {
		m := container.MustGet[*database.Manager](c, "db")
		if m == nil {
			return nil
		}
		db, err := m.Connect(context.Background())
		if err != nil {
			loggerOf(c).Error("database connection failed", slog.Any("error", err))
			return nil
		}
		return db
	})
}

func (p *DatabaseServiceProvider) Boot(app *container.Container) error {
	m := container.MustGet[*database.Manager](app, "db")
	if m == nil {
		return fmt.Errorf("providers: unsupported database driver %q", configOf(app).DB.Driver)
	}
	if len(p.Models) == 0 {
		return nil
	}
	return m.Migrate(context.Background(), p.Models...)
}

// ── CacheServiceProvider ──────────────────────────────────────────────────────

// CacheServiceProvider registers the store named by config Cache.Store:
// "memory" (default) or "database".
//
// Bound abstracts:
//   - "cache" → cache.Store
type CacheServiceProvider struct {
	container.BaseProvider
}

func (p *CacheServiceProvider) Register(app *container.Container) {
	singleton(app, "cache", func(c *container.Container) cache.Store {
		cfg := configOf(c).Cache
		opts := []cache.Option{
			cache.WithTTL(cfg.TTL),
			cache.WithMaxEntries(cfg.MaxEntries),
			cache.WithCleanupInterval(cfg.CleanupInterval),
		}
		if cfg.Store == "database" {
			if db, err := container.Get[*gorm.DB](c, "gorm"); err == nil && db != nil {
				store, err := cache.NewDatabaseStore(db, opts...)
				if err == nil {
					return store
				}
				loggerOf(c).Error("database cache unavailable, using memory", slog.Any("error", err))
			}
		}
		return cache.NewMemoryStore(opts...)
	})
}
