package container

import (
	"errors"
	"fmt"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups related registrations.
//
// Register is called while the container is being assembled and must not
// resolve other entries. Boot runs after every eager provider is registered,
// so it may resolve anything.
//
//	type CacheProvider struct{ container.BaseProvider }
//
//	func (p *CacheProvider) Register(c *container.Container) {
//	    c.Singleton("cache", func(c *container.Container) any {
//	        return cache.NewMemoryStore()
//	    })
//	}
type ServiceProvider interface {
	Register(c *Container)

	Boot(c *Container) error

	// Provides lists the names a deferred provider registers.
	Provides() []string

	// IsDeferred delays Register until one of Provides() is first resolved.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable no-op implementation of everything but Register.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry registers and boots providers, including deferred ones.
type ProviderRegistry struct {
	c          *Container
	eager      []ServiceProvider
	booted     bool
	registered map[ServiceProvider]bool
	loaded     map[ServiceProvider]bool

	// name → placeholder installed for a deferred provider
	placeholders map[string]*Definition
}

// NewProviderRegistry creates a registry bound to c.
func NewProviderRegistry(c *Container) *ProviderRegistry {
	return &ProviderRegistry{
		c:          c,
		registered:   make(map[ServiceProvider]bool),
		loaded:       make(map[ServiceProvider]bool),
		placeholders: make(map[string]*Definition),
	}
}

// Register adds a provider. Eager providers register immediately and are
// booted straight away when the registry already booted.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	if r.registered[provider] {
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		r.deferProvider(provider)
		return nil
	}

	provider.Register(r.c)
	r.loaded[provider] = true
	r.eager = append(r.eager, provider)

	if r.booted {
		return provider.Boot(r.c)
	}
	return nil
}

// deferProvider installs placeholder factories; the first resolution
// registers the provider for real, which replaces the placeholders.
func (r *ProviderRegistry) deferProvider(provider ServiceProvider) {
	for _, name := range provider.Provides() {
		placeholder := NewFactory(name, func(c *Container) any {
			if err := r.load(provider); err != nil {
				return nil
			}
			return r.c.Resolve(name)
		})
		r.placeholders[name] = placeholder
		r.c.MustRegister(placeholder)
	}
}

func (r *ProviderRegistry) load(provider ServiceProvider) error {
	if r.loaded[provider] {
		return nil
	}
	r.loaded[provider] = true
	provider.Register(r.c)
	for _, name := range provider.Provides() {
		if def, ok := r.c.Definition(name); ok && def == r.placeholders[name] {
			r.c.Unregister(name)
			return fmt.Errorf("container: deferred provider did not register [%s]", name)
		}
	}
	if r.booted {
		return provider.Boot(r.c)
	}
	return nil
}

// Boot calls Boot on every eager provider once.
func (r *ProviderRegistry) Boot() error {
	if r.booted {
		return nil
	}
	r.booted = true
	var errs []error
	for _, provider := range r.eager {
		if err := provider.Boot(r.c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Booted reports whether Boot has run.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns the eager providers in registration order.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.eager }
