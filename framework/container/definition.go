package container

import (
	"fmt"
	"sync"
)

// Kind is the resolution strategy of a Definition.
type Kind uint8

const (
	// Raw returns the stored value on every resolution.
	Raw Kind = iota
	// Singleton runs the factory once and caches the result.
	Singleton
	// Factory runs the factory on every resolution.
	Factory
)

func (k Kind) String() string {
	switch k {
	case Raw:
		return "raw"
	case Singleton:
		return "singleton"
	case Factory:
		return "factory"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a service-list kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "raw", "instance", "value":
		return Raw, nil
	case "singleton", "shared":
		return Singleton, nil
	case "factory", "bind", "transient":
		return Factory, nil
	}
	return 0, fmt.Errorf("container: unknown definition kind %q", s)
}

// FactoryFunc builds a value from the container.
type FactoryFunc func(c *Container) any

// Definition is a named recipe for producing a value.
type Definition struct {
	Name    string
	Kind    Kind
	Value   any
	Factory FactoryFunc

	// mu serialises singleton construction across the children sharing d.
	mu       sync.Mutex
	resolved bool
	instance any
}

// NewRaw returns a definition that always yields value.
func NewRaw(name string, value any) *Definition {
	return &Definition{Name: name, Kind: Raw, Value: value}
}

// NewSingleton returns a definition whose factory runs at most once.
func NewSingleton(name string, f FactoryFunc) *Definition {
	return &Definition{Name: name, Kind: Singleton, Factory: f}
}

// NewFactory returns a definition whose factory runs on every resolution.
func NewFactory(name string, f FactoryFunc) *Definition {
	return &Definition{Name: name, Kind: Factory, Factory: f}
}

// Resolve produces the definition's value against c.
func (d *Definition) Resolve(c *Container) any {
	switch d.Kind {
	case Raw:
		return d.Value
	case Singleton:
		return d.singleton(func() any { return d.Factory(c) })
	default:
		return d.Factory(c)
	}
}

// singleton returns the cached instance, running build on first use only.
// Concurrent callers wait for the first build.
func (d *Definition) singleton(build func() any) any {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.resolved {
		d.instance = build()
		d.resolved = true
	}
	return d.instance
}

// Resolved reports whether a singleton has already been built.
func (d *Definition) Resolved() bool {
	if d.Kind == Raw {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resolved
}

func (d *Definition) validate() error {
	if d.Name == "" {
		return fmt.Errorf("container: definition name is empty")
	}
	if d.Kind != Raw && d.Factory == nil {
		return fmt.Errorf("container: %s definition [%s] has no factory", d.Kind, d.Name)
	}
	return nil
}
