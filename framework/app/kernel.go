// Package app is the front controller. An Application assembles the core
// providers, then serves HTTP requests or runs console commands, building a
// child container for each one.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"

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

// Application is the top-level application container.
// It embeds the Container and ProviderRegistry so user code can call
// app.Instance(), app.Singleton() and app.Register() directly, like $app in
// Laravel's bootstrap/app.php.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry

	classes  *resolver.Registry
	routing  *providers.RoutingServiceProvider
	database *providers.DatabaseServiceProvider
	console  *providers.ConsoleServiceProvider
}

// Option configures New.
type Option func(*options)

type options struct {
	envFiles  []string
	cfg       *config.Config
	logOut    io.Writer
	cmdOut    io.Writer
	policy    resolver.Policy
	routeFile string
}

// WithEnvFiles loads these files instead of .env.
func WithEnvFiles(files ...string) Option { return func(o *options) { o.envFiles = files } }

// WithConfig skips the environment and uses cfg.
func WithConfig(cfg *config.Config) Option { return func(o *options) { o.cfg = cfg } }

// WithLogOutput sends log output to w instead of stdout.
func WithLogOutput(w io.Writer) Option { return func(o *options) { o.logOut = w } }

// WithCommandOutput sends command output to w instead of stdout.
func WithCommandOutput(w io.Writer) Option { return func(o *options) { o.cmdOut = w } }

// WithPolicy sets the resolver policy for unbound constructor parameters.
func WithPolicy(p resolver.Policy) Option { return func(o *options) { o.policy = p } }

// WithRouteFile loads routes from path; a missing file is then an error.
func WithRouteFile(path string) Option { return func(o *options) { o.routeFile = path } }

// New creates the application and registers the framework providers in
// dependency order. Call Boot once application routes, classes and commands
// are added.
func New(opts ...Option) *Application {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := container.New()
	a := &Application{
		Container: c,
		Providers: container.NewProviderRegistry(c),
		classes:   resolver.NewRegistry(),
		routing:   &providers.RoutingServiceProvider{File: o.routeFile},
		database:  &providers.DatabaseServiceProvider{},
		console:   &providers.ConsoleServiceProvider{Output: o.cmdOut},
	}
	c.Instance("app", a)

	for _, p := range []container.ServiceProvider{
		&providers.ConfigServiceProvider{EnvFiles: o.envFiles, Config: o.cfg},
		&providers.LogServiceProvider{Output: o.logOut},
		a.database,
		&providers.CacheServiceProvider{},
		&providers.ResolverServiceProvider{Classes: a.classes, Policy: o.policy},
		&providers.ViewServiceProvider{},
		a.routing,
		a.console,
	} {
		// eager core providers only fail from Boot
		_ = a.Providers.Register(p)
	}
	return a
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot phase of every provider. It compiles the routes,
// registers commands and migrates models.
func (a *Application) Boot() error {
	if err := a.Providers.Boot(); err != nil {
		a.Logger().Error("application boot failed", slog.Any("error", err))
		return err
	}
	return nil
}

// Classes is the class table handlers and commands are resolved from.
func (a *Application) Classes() *resolver.Registry { return a.classes }

// Routes queues fn to run against the router at Boot.
func (a *Application) Routes(fn func(r *routing.Router)) {
	a.routing.Routes = append(a.routing.Routes, fn)
}

// Command maps a console identifier to a registered class.
func (a *Application) Command(name, class, description string) {
	a.console.Commands = append(a.console.Commands, console.Entry{Name: name, Class: class, Description: description})
}

// Schedule runs command on the cron spec while Serve is running.
func (a *Application) Schedule(spec, command string, args ...string) {
	a.console.Schedules = append(a.console.Schedules, providers.Schedule{Spec: spec, Command: command, Args: args})
}

// Migrate adds models to auto-migrate at Boot.
func (a *Application) Migrate(models ...any) {
	a.database.Models = append(a.database.Models, models...)
}

// Config resolves *config.Config from the container.
func (a *Application) Config() *config.Config {
	return container.MustGet[*config.Config](a.Container, "config")
}

// Logger resolves the application logger.
func (a *Application) Logger() *slog.Logger {
	return container.MustGet[*slog.Logger](a.Container, "log")
}

// RouteCollection is available after Boot.
func (a *Application) RouteCollection() *routing.RouteCollection {
	return container.MustGet[*routing.RouteCollection](a.Container, "routes")
}

func (a *Application) Matcher() *routing.Matcher {
	return container.MustGet[*routing.Matcher](a.Container, "matcher")
}

func (a *Application) View() *gohttp.View {
	return container.MustGet[*gohttp.View](a.Container, "view")
}

func (a *Application) Commands() *console.Factory {
	return container.MustGet[*console.Factory](a.Container, "commands")
}

func (a *Application) Scheduler() *console.Scheduler {
	return container.MustGet[*console.Scheduler](a.Container, "scheduler")
}

func (a *Application) DB() *database.Manager {
	return container.MustGet[*database.Manager](a.Container, "db")
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.Config().App.Env }
func (a *Application) IsLocal() bool       { return a.Config().IsLocal() }
func (a *Application) IsProduction() bool  { return a.Config().IsProduction() }
func (a *Application) IsTesting() bool     { return a.Config().IsTesting() }
func (a *Application) IsDebug() bool       { return a.Config().App.Debug }
func (a *Application) Version() string     { return "0.2.0" }

// Close releases the cache store and the database connection.
func (a *Application) Close() error {
	var errs []error
	if def, ok := a.Definition("cache"); ok && def.Resolved() {
		if closer, ok := a.Resolve("cache").(io.Closer); ok {
			errs = append(errs, closer.Close())
		}
	}
	if def, ok := a.Definition("db"); ok && def.Resolved() {
		if m := a.DB(); m != nil {
			errs = append(errs, m.Close())
		}
	}
	return errors.Join(errs...)
}

func (a *Application) Cache() cache.Store {
	return container.MustGet[cache.Store](a.Container, "cache")
}

// shutdownContext bounds graceful shutdown.
func shutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), shutdownTimeout)
}
