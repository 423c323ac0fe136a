package providers_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/km-arc/gomvc/framework/cache"
	"github.com/km-arc/gomvc/framework/config"
	"github.com/km-arc/gomvc/framework/console"
	"github.com/km-arc/gomvc/framework/container"
	"github.com/km-arc/gomvc/framework/database"
	gohttp "github.com/km-arc/gomvc/framework/http"
	"github.com/km-arc/gomvc/framework/providers"
	"github.com/km-arc/gomvc/framework/resolver"
	"github.com/km-arc/gomvc/framework/routing"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	views := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(views, "link.html"), []byte(`{{ route "widgets.show" "id" .ID }}`), 0o644))
	return &config.Config{
		App:    config.AppConfig{Name: "Test", Env: "testing"},
		DB:     config.DBConfig{Driver: "sqlite", Database: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1},
		Log:    config.LogConfig{Level: "error"},
		Cache:  config.CacheConfig{Store: "database", TTL: time.Minute},
		View:   config.ViewConfig{Dir: views, Ext: ".html"},
		Routes: config.RoutesConfig{File: filepath.Join(views, "missing.yaml")},
	}
}

func boot(t *testing.T, cfg *config.Config, extra ...container.ServiceProvider) (*container.Container, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	c := container.New()
	reg := container.NewProviderRegistry(c)
	core := []container.ServiceProvider{
		&providers.ConfigServiceProvider{Config: cfg},
		&providers.LogServiceProvider{Output: io.Discard},
		&providers.DatabaseServiceProvider{Models: []any{&widget{}}},
		&providers.CacheServiceProvider{},
		&providers.ResolverServiceProvider{},
		&providers.ViewServiceProvider{},
		&providers.RoutingServiceProvider{Routes: []func(r *routing.Router){
			func(r *routing.Router) {
				r.Get("/widgets/{id:i}", func(id int) string { return "widget" }).Name("widgets.show")
			},
		}},
		&providers.ConsoleServiceProvider{Output: &out},
	}
	for _, p := range append(core, extra...) {
		require.NoError(t, reg.Register(p))
	}
	require.NoError(t, reg.Boot())
	t.Cleanup(func() {
		if m, err := container.GetType[*database.Manager](c); err == nil {
			_ = m.Close()
		}
	})
	return c, &out
}

func TestProviders_BindByNameAndType(t *testing.T) {
	c, _ := boot(t, testConfig(t))

	cfg, err := container.GetType[*config.Config](c)
	require.NoError(t, err)
	assert.Equal(t, "Test", cfg.App.Name)

	for name, check := range map[string]func() error{
		"log":       func() error { _, err := container.GetType[*slog.Logger](c); return err },
		"db":        func() error { _, err := container.GetType[*database.Manager](c); return err },
		"gorm":      func() error { _, err := container.GetType[*gorm.DB](c); return err },
		"resolver":  func() error { _, err := container.GetType[*resolver.Resolver](c); return err },
		"routes":    func() error { _, err := container.GetType[*routing.RouteCollection](c); return err },
		"matcher":   func() error { _, err := container.GetType[*routing.Matcher](c); return err },
		"view":      func() error { _, err := container.GetType[*gohttp.View](c); return err },
		"commands":  func() error { _, err := container.GetType[*console.Factory](c); return err },
		"scheduler": func() error { _, err := container.GetType[*console.Scheduler](c); return err },
	} {
		assert.NoError(t, check(), name)
		assert.True(t, c.IsRegistered(name), name)
	}
}

func TestProviders_DatabaseCacheAndMigrations(t *testing.T) {
	c, _ := boot(t, testConfig(t))
	ctx := context.Background()

	store := container.MustGet[cache.Store](c, "cache")
	assert.Equal(t, "database", store.Name())
	require.NoError(t, store.Put(ctx, "k", []byte("v")))
	got, ok := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	db := container.MustGet[*gorm.DB](c, "gorm")
	assert.True(t, db.Migrator().HasTable(&widget{}))
}

func TestProviders_MemoryCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Store = "memory"
	c, _ := boot(t, cfg)
	store := container.MustGet[cache.Store](c, "cache")
	assert.Equal(t, "memory", store.Name())
	t.Cleanup(func() { _ = store.(*cache.MemoryStore).Close() })
}

func TestProviders_ViewRouteFunc(t *testing.T) {
	c, _ := boot(t, testConfig(t))
	view := container.MustGet[*gohttp.View](c, "view")

	res, err := view.Render("link", map[string]any{"ID": 42})
	require.NoError(t, err)
	assert.Equal(t, "/widgets/42", string(res.Body))
}

func TestProviders_RouteFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Routes.File = filepath.Join(t.TempDir(), "web.yaml")
	require.NoError(t, os.WriteFile(cfg.Routes.File, []byte("routes:\n  - name: home\n    method: GET\n    path: /\n    handler: Home@Index\n"), 0o644))

	c, _ := boot(t, cfg)
	routes := container.MustGet[*routing.RouteCollection](c, "routes")
	assert.True(t, routes.Has("home"))
	assert.True(t, routes.Has("widgets.show"))
}

func TestProviders_RouteFileExplicitMissing(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&providers.ConfigServiceProvider{Config: testConfig(t)}))
	require.NoError(t, reg.Register(&providers.ResolverServiceProvider{}))
	require.NoError(t, reg.Register(&providers.RoutingServiceProvider{File: "does/not/exist.yaml"}))
	assert.Error(t, reg.Boot())
}

func TestProviders_ListCommand(t *testing.T) {
	c, out := boot(t, testConfig(t))
	f := container.MustGet[*console.Factory](c, "commands")

	code, err := f.Run(context.Background(), []string{"list"}, c.Child())
	require.NoError(t, err)
	assert.Zero(t, code)
	assert.Contains(t, out.String(), "list  List the available commands")
}

func TestProviders_UnsupportedDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.DB.Driver = "oracle"

	c := container.New()
	reg := container.NewProviderRegistry(c)
	require.NoError(t, reg.Register(&providers.ConfigServiceProvider{Config: cfg}))
	require.NoError(t, reg.Register(&providers.LogServiceProvider{Output: io.Discard}))
	require.NoError(t, reg.Register(&providers.DatabaseServiceProvider{}))
	assert.ErrorContains(t, reg.Boot(), "oracle")
}
