// Package providers holds the framework's core service providers. Each one
// registers its services under a short name and under the type key the
// class resolver looks up.
package providers

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/km-arc/gomvc/framework/cache"
	"github.com/km-arc/gomvc/framework/config"
	"github.com/km-arc/gomvc/framework/container"
	gohttp "github.com/km-arc/gomvc/framework/http"
	"github.com/km-arc/gomvc/framework/logging"
	"github.com/km-arc/gomvc/framework/resolver"
	"github.com/km-arc/gomvc/framework/routing"
)

// singleton registers f under name and aliases KeyOf[T] to it.
func singleton[T any](c *container.Container, name string, f func(c *container.Container) T) {
	c.Singleton(name, func(c *container.Container) any { return f(c) })
	_ = c.Alias(name, container.KeyOf[T]())
}

func instance[T any](c *container.Container, name string, v T) {
	c.Instance(name, v)
	_ = c.Alias(name, container.KeyOf[T]())
}

func configOf(c *container.Container) *config.Config {
	return container.MustGet[*config.Config](c, "config")
}

func loggerOf(c *container.Container) *slog.Logger {
	if log, err := container.Get[*slog.Logger](c, "log"); err == nil {
		return log
	}
	return slog.Default()
}

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider loads the application configuration from .env.
//
// Bound abstracts:
//   - "config" → *config.Config
//
// Laravel equivalent:
//
//	// Illuminate\Foundation\Bootstrap\LoadConfiguration
//	$app->singleton('config', fn() => new Repository($items));
type ConfigServiceProvider struct {
	container.BaseProvider
	EnvFiles []string

	// Config is used as-is when set.
	Config *config.Config
}

func (p *ConfigServiceProvider) Register(app *container.Container) {
	envFiles, preset := p.EnvFiles, p.Config
	singleton(app, "config", func(*container.Container) *config.Config {
		if preset != nil {
			return preset
		}
		return config.Load(envFiles...)
	})
}

// ── LogServiceProvider ────────────────────────────────────────────────────────

// LogServiceProvider builds the application logger from config.
//
// Bound abstracts:
//   - "log" → *slog.Logger
type LogServiceProvider struct {
	container.BaseProvider

	// Output replaces stdout.
	Output io.Writer
}

func (p *LogServiceProvider) Register(app *container.Container) {
	out := p.Output
	singleton(app, "log", func(c *container.Container) *slog.Logger {
		opts := logging.FromConfig(configOf(c))
		opts.Output = out
		return logging.New(opts).With(slog.String("app", configOf(c).App.Name))
	})
}

// ── ResolverServiceProvider ───────────────────────────────────────────────────

// ResolverServiceProvider exposes the class table and the resolver. When a
// cache store is bound, constructor descriptors are kept there.
//
// Bound abstracts:
//   - "classes"  → *resolver.Registry
//   - "resolver" → *resolver.Resolver
type ResolverServiceProvider struct {
	container.BaseProvider
	Classes *resolver.Registry
	Policy  resolver.Policy
}

func (p *ResolverServiceProvider) Register(app *container.Container) {
	if p.Classes == nil {
		p.Classes = resolver.NewRegistry()
	}
	instance(app, "classes", p.Classes)

	classes, policy := p.Classes, p.Policy
	singleton(app, "resolver", func(c *container.Container) *resolver.Resolver {
		opts := []resolver.Option{
			resolver.WithPolicy(policy),
			resolver.WithLogger(loggerOf(c).With(slog.String("component", "resolver"))),
		}
		if store, err := container.Get[cache.Store](c, "cache"); err == nil && store != nil {
			opts = append(opts, resolver.WithCache(resolver.NewStoreCache(store)))
		}
		return resolver.New(classes, opts...)
	})
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider collects routes from code and from the YAML route
// file, then compiles them into the route collection in Boot.
//
// Bound abstracts:
//   - "router"  → *routing.Router
//   - "routes"  → *routing.RouteCollection (after Boot)
//   - "matcher" → *routing.Matcher (after Boot)
//
// Laravel equivalent:
//
//	// Illuminate\Routing\RoutingServiceProvider
//	$app->singleton('router', fn($app) => new Router($app['events'], $app));
type RoutingServiceProvider struct {
	container.BaseProvider

	// Routes run against the router before the file is loaded.
	Routes []func(r *routing.Router)

	// File overrides config Routes.File. A missing default file is skipped;
	// a missing explicit file is an error.
	File string
}

func (p *RoutingServiceProvider) Register(app *container.Container) {
	singleton(app, "router", func(*container.Container) *routing.Router {
		return routing.NewRouter()
	})
}

func (p *RoutingServiceProvider) Boot(app *container.Container) error {
	router := container.MustGet[*routing.Router](app, "router")
	for _, fn := range p.Routes {
		fn(router)
	}

	file := p.File
	if file == "" {
		file = configOf(app).Routes.File
		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			file = ""
		}
	}
	if file != "" {
		if err := routing.LoadFile(file, router); err != nil {
			return err
		}
	}

	routes, err := router.Collection()
	if err != nil {
		return err
	}
	instance(app, "routes", routes)

	res, err := container.Get[*resolver.Resolver](app, "resolver")
	if err != nil {
		return fmt.Errorf("providers: routing needs the resolver: %w", err)
	}
	log := loggerOf(app)
	instance(app, "matcher", routing.NewMatcher(routes, res, log.With(slog.String("component", "router"))))
	log.Debug("routes compiled", slog.Int("count", routes.Len()), slog.String("file", file))
	return nil
}

// ── ViewServiceProvider ───────────────────────────────────────────────────────

// ViewServiceProvider registers the template engine. Templates get a "route"
// function that builds URLs from route names:
//
//	<a href="{{ route "posts.show" "id" .ID }}">
//
// Bound abstracts:
//   - "view" → *gohttp.View
type ViewServiceProvider struct {
	container.BaseProvider
	Funcs template.FuncMap
}

func (p *ViewServiceProvider) Register(app *container.Container) {
	funcs := p.Funcs
	singleton(app, "view", func(c *container.Container) *gohttp.View {
		cfg := configOf(c).View
		return gohttp.NewView(cfg.Dir, cfg.Ext,
			gohttp.WithTemplateCache(cfg.Cache),
			gohttp.WithFuncs(template.FuncMap{"route": routeFunc(c)}),
			gohttp.WithFuncs(funcs),
		)
	})
}

func routeFunc(c *container.Container) func(name string, pairs ...any) (string, error) {
	return func(name string, pairs ...any) (string, error) {
		routes, err := container.Get[*routing.RouteCollection](c, "routes")
		if err != nil {
			return "", err
		}
		if len(pairs)%2 != 0 {
			return "", fmt.Errorf("route %s: odd number of parameters", name)
		}
		params := make(map[string]string, len(pairs)/2)
		for i := 0; i < len(pairs); i += 2 {
			params[fmt.Sprint(pairs[i])] = fmt.Sprint(pairs[i+1])
		}
		return routes.URL(name, params)
	}
}
