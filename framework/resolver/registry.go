package resolver

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/km-arc/gomvc/framework/container"
)

var errType = reflect.TypeFor[error]()

// Parameter describes one constructor parameter.
type Parameter struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // container key, empty when untyped
	Optional bool   `json:"optional"`
}

// MetadataSource enumerates the constructor parameters of a class.
type MetadataSource interface {
	Parameters(class string) ([]Parameter, error)
}

// Classes is what the resolver needs from a class table: metadata plus the
// ability to call the constructor.
type Classes interface {
	MetadataSource
	Has(class string) bool
	Instantiate(class string, args []any) (any, error)
}

// ClassOption configures a registered class.
type ClassOption func(*class)

// Params names the constructor parameters in order. Unnamed parameters are
// reported as arg0, arg1, ...
func Params(names ...string) ClassOption {
	return func(c *class) { c.params = names }
}

// Optional marks named parameters as optional: when nothing is bound they
// receive their zero value.
func Optional(names ...string) ClassOption {
	return func(c *class) { c.optional = append(c.optional, names...) }
}

type class struct {
	name     string
	fn       reflect.Value
	typ      reflect.Type
	params   []string
	optional []string
}

// Registry is the class table backing the resolver. Go cannot look a type up
// by name, so every constructible class is registered with its constructor:
//
//	classes.Register("PostController", controllers.NewPostController,
//	    resolver.Params("repo", "view"))
//
// A class is reachable both by its name and by the container key of the
// type its constructor returns.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*class
	byType  map[string]*class
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[string]*class),
		byType:  make(map[string]*class),
	}
}

// Register adds a class. The constructor must be a non-variadic function
// returning T or (T, error).
func (r *Registry) Register(name string, constructor any, opts ...ClassOption) error {
	fn := reflect.ValueOf(constructor)
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return &InvalidClassError{Class: name, Cause: fmt.Errorf("%w: %T is not a function", ErrInvalidConstructor, constructor)}
	}
	typ := fn.Type()
	switch {
	case typ.IsVariadic():
		return &InvalidClassError{Class: name, Cause: fmt.Errorf("%w: variadic constructors are not supported", ErrInvalidConstructor)}
	case typ.NumOut() == 0 || typ.NumOut() > 2:
		return &InvalidClassError{Class: name, Cause: fmt.Errorf("%w: must return T or (T, error)", ErrInvalidConstructor)}
	case typ.NumOut() == 2 && typ.Out(1) != errType:
		return &InvalidClassError{Class: name, Cause: fmt.Errorf("%w: second result must be error", ErrInvalidConstructor)}
	}

	c := &class{name: name, fn: fn, typ: typ}
	for _, opt := range opts {
		opt(c)
	}
	if len(c.params) > typ.NumIn() {
		return &InvalidClassError{Class: name, Cause: fmt.Errorf("%w: %d parameter names for %d parameters", ErrInvalidConstructor, len(c.params), typ.NumIn())}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[name] = c
	r.byType[container.TypeKeyOf(typ.Out(0))] = c
	return nil
}

// MustRegister is Register for boot code.
func (r *Registry) MustRegister(name string, constructor any, opts ...ClassOption) {
	if err := r.Register(name, constructor, opts...); err != nil {
		panic(err)
	}
}

// Has reports whether class is known by name or type key.
func (r *Registry) Has(name string) bool {
	return r.get(name) != nil
}

// Names returns the registered class names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.classes))
	for name := range r.classes {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func (r *Registry) get(name string) *class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.classes[name]; ok {
		return c
	}
	return r.byType[name]
}

// Parameters inspects the constructor of class. An untyped required
// parameter makes the class unconstructable.
func (r *Registry) Parameters(name string) ([]Parameter, error) {
	c := r.get(name)
	if c == nil {
		return nil, &InvalidClassError{Class: name, Cause: ErrUnknownClass}
	}
	out := make([]Parameter, c.typ.NumIn())
	for i := range out {
		p := Parameter{Name: fmt.Sprintf("arg%d", i)}
		if i < len(c.params) && c.params[i] != "" {
			p.Name = c.params[i]
		}
		p.Optional = slices.Contains(c.optional, p.Name)
		in := c.typ.In(i)
		if !untyped(in) {
			p.Type = container.TypeKeyOf(in)
		} else if !p.Optional {
			return nil, &CannotResolveClassError{Class: c.name, Parameter: p.Name, Cause: ErrUntypedParameter}
		}
		out[i] = p
	}
	return out, nil
}

// Instantiate calls the constructor of class with args in order. A nil
// argument becomes the parameter's zero value.
func (r *Registry) Instantiate(name string, args []any) (any, error) {
	c := r.get(name)
	if c == nil {
		return nil, &InvalidClassError{Class: name, Cause: ErrUnknownClass}
	}
	if len(args) != c.typ.NumIn() {
		return nil, &InvalidClassError{Class: name, Cause: fmt.Errorf("%w: got %d arguments, want %d", ErrArgumentType, len(args), c.typ.NumIn())}
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		want := c.typ.In(i)
		if arg == nil {
			in[i] = reflect.Zero(want)
			continue
		}
		v := reflect.ValueOf(arg)
		if !v.Type().AssignableTo(want) {
			return nil, &InvalidClassError{Class: name, Cause: fmt.Errorf("%w: argument %d is %s, want %s", ErrArgumentType, i, v.Type(), want)}
		}
		in[i] = v
	}

	out := c.fn.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, fmt.Errorf("resolver: construct %s: %w", c.name, out[1].Interface().(error))
	}
	return out[0].Interface(), nil
}

func untyped(t reflect.Type) bool {
	return t.Kind() == reflect.Interface && t.NumMethod() == 0 && t.Name() == ""
}

var _ Classes = (*Registry)(nil)
