// Package container provides the dependency-injection container and the
// service provider system.
//
// # Definitions
//
// Every entry is a Definition with one of three kinds:
//
//	// Raw: the stored value, every time
//	c.Instance("config", cfg)
//
//	// Singleton: factory runs once, result cached for the container's lifetime
//	c.Singleton("cache", func(c *container.Container) any {
//	    return cache.NewMemoryStore()
//	})
//
//	// Factory: factory runs on every resolution
//	c.Bind("clock", func(c *container.Container) any { return time.Now() })
//
// Registering a name twice replaces the first definition. Resolve returns nil
// for names that were never registered; check IsRegistered first when the
// dependency is optional.
//
// # Typed lookups
//
//	store, err := container.Get[cache.Store](c, "cache")
//	c.Instance(container.KeyOf[*gorm.DB](), db)
//	db, err := container.GetType[*gorm.DB](c)
//
// # Request scope
//
// Child returns a container layered on the application container. The front
// controller builds one per request or command and registers the request,
// route and other per-call values on it:
//
//	scope := app.Child()
//	scope.Instance(container.KeyOf[*http.Request](), req)
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(c *container.Container) {
//	    c.Singleton("mailer", func(c *container.Container) any { return newMailer() })
//	}
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&AppServiceProvider{})
//	registry.Boot()
//
// Deferred providers (IsDeferred true) only register when one of their
// Provides() names is first resolved.
package container
