// Package resolver builds instances of registered classes by satisfying
// their constructor parameters from a container.
//
//	classes := resolver.NewRegistry()
//	classes.MustRegister("Foo", NewFoo, resolver.Params("bar"))
//
//	r := resolver.New(classes)
//	foo, err := r.Resolve(ctx, "Foo", c)
//
// Each parameter is looked up, in order, as a contextual binding for the
// class (by parameter name, then by type key), then as a container entry
// under its type key. Optional parameters fall back to their zero value.
// Anything else is a CannotResolveClassError.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/km-arc/gomvc/framework/container"
)

// Policy controls what happens to a parameter that has no binding.
type Policy uint8

const (
	// RegisteredOnly fails on any unbound required parameter.
	RegisteredOnly Policy = iota
	// Autowire builds unbound parameters whose type is itself a registered class.
	Autowire
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache replaces the default in-memory descriptor cache.
func WithCache(c DescriptorCache) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithPolicy sets the unbound-parameter policy.
func WithPolicy(p Policy) Option {
	return func(r *Resolver) { r.policy = p }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

// Resolver instantiates classes from a class table.
type Resolver struct {
	classes Classes
	cache   DescriptorCache
	policy  Policy
	log     *slog.Logger
}

// New returns a resolver over classes.
func New(classes Classes, opts ...Option) *Resolver {
	r := &Resolver{
		classes: classes,
		cache:   NewMemoryCache(),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Classes returns the class table.
func (r *Resolver) Classes() Classes { return r.classes }

// Resolve builds class with dependencies drawn from c.
func (r *Resolver) Resolve(ctx context.Context, class string, c *container.Container) (any, error) {
	return r.resolve(ctx, class, c, nil)
}

// Descriptors returns the cached parameter list of class, inspecting it on
// first use.
func (r *Resolver) Descriptors(ctx context.Context, class string) ([]Parameter, error) {
	if params, ok := r.cache.Load(ctx, class); ok {
		return params, nil
	}
	params, err := r.classes.Parameters(class)
	if err != nil {
		return nil, wrapInvalid(class, err)
	}
	r.log.Debug("resolver: inspected class", "class", class, "params", len(params))
	r.cache.Store(ctx, class, params)
	return params, nil
}

func (r *Resolver) resolve(ctx context.Context, class string, c *container.Container, stack []string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params, err := r.Descriptors(ctx, class)
	if err != nil {
		return nil, err
	}
	stack = append(stack, class)

	args := make([]any, len(params))
	for i, p := range params {
		v, err := r.argument(ctx, class, p, c, stack)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	instance, err := r.classes.Instantiate(class, args)
	if err != nil {
		return nil, wrapInvalid(class, err)
	}
	return instance, nil
}

func (r *Resolver) argument(ctx context.Context, class string, p Parameter, c *container.Container, stack []string) (any, error) {
	if v, ok := c.Contextual(class, p.Name); ok {
		return v, nil
	}
	if p.Type != "" {
		if v, ok := c.Contextual(class, p.Type); ok {
			return v, nil
		}
		if c.IsRegistered(p.Type) {
			return c.Resolve(p.Type), nil
		}
	}
	if p.Optional {
		return nil, nil
	}
	if r.policy == Autowire && p.Type != "" && r.classes.Has(p.Type) {
		if slices.Contains(stack, p.Type) {
			return nil, &CannotResolveClassError{Class: class, Parameter: p.Name, Type: p.Type, Cause: ErrCircular}
		}
		return r.resolve(ctx, p.Type, c, stack)
	}
	return nil, &CannotResolveClassError{Class: class, Parameter: p.Name, Type: p.Type, Cause: ErrUnregisteredBinding}
}

// wrapInvalid leaves resolver errors alone and wraps anything else.
func wrapInvalid(class string, err error) error {
	var cannot *CannotResolveClassError
	var invalid *InvalidClassError
	if errors.As(err, &cannot) || errors.As(err, &invalid) {
		return err
	}
	return &InvalidClassError{Class: class, Cause: err}
}
