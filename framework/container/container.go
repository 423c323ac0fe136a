package container

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

var (
	ErrNotRegistered = errors.New("not registered")
	ErrTypeMismatch  = errors.New("type mismatch")
)

// Error is returned by the typed lookups.
type Error struct {
	Name  string
	Want  string
	Got   string
	Cause error
}

func (e *Error) Error() string {
	if errors.Is(e.Cause, ErrTypeMismatch) {
		return fmt.Sprintf("container: [%s] resolved to %s, want %s", e.Name, e.Got, e.Want)
	}
	return fmt.Sprintf("container: [%s] %v", e.Name, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// extender wraps an already-resolved instance with decorator logic.
type extender func(instance any, c *Container) any

// ── Container ─────────────────────────────────────────────────────────────────

// Container is a name-keyed registry of definitions.
//
// It supports:
//   - Register / Unregister / IsRegistered / Resolve
//   - Instance / Singleton / Bind shorthands for the three definition kinds
//   - Alias, Tags, Extend (decoration) and contextual needs
//   - Child containers scoped to one request or command
//
// The tables are guarded by mu. Each singleton definition carries its own
// lock, so children resolving a parent singleton concurrently build it once.
type Container struct {
	mu     sync.RWMutex
	parent *Container

	// name → definition
	definitions map[string]*Definition

	// alias → name (canonical key)
	aliases map[string]string

	// name → extender funcs
	extenders map[string][]extender

	// tag → []name
	tags map[string][]string

	// contextual: when[class][need] = definition
	contextual map[string]map[string]*Definition

	// resolved callbacks: []func(name, instance)
	afterResolving []func(string, any)
}

// New creates an empty container that knows itself as "container" and
// under KeyOf[*Container]().
func New() *Container {
	c := newContainer(nil)
	c.registerSelf()
	return c
}

func (c *Container) registerSelf() {
	c.Instance("container", c)
	c.Instance(TypeKeyOf(reflect.TypeFor[*Container]()), c)
}

func newContainer(parent *Container) *Container {
	return &Container{
		parent:      parent,
		definitions: make(map[string]*Definition),
		aliases:     make(map[string]string),
		extenders:   make(map[string][]extender),
		tags:        make(map[string][]string),
		contextual:  make(map[string]map[string]*Definition),
	}
}

// Child creates a container layered on top of c. Lookups fall back to c;
// registrations on the child never leak into c. Singletons defined on c are
// built once, against c and its extenders, and shared by every child.
// Extenders registered on the child decorate what the child resolves without
// touching the shared instance.
func (c *Container) Child() *Container {
	child := newContainer(c)
	child.registerSelf()
	return child
}

// Parent returns the container c was derived from, or nil.
func (c *Container) Parent() *Container { return c.parent }

// ── Registration ──────────────────────────────────────────────────────────────

// Register stores def, replacing any definition with the same name.
func (c *Container) Register(def *Definition) error {
	if def == nil {
		return fmt.Errorf("container: nil definition")
	}
	if err := def.validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.definitions[c.canonical(def.Name)] = def
	return nil
}

// MustRegister is Register for boot code where a bad definition is a bug.
func (c *Container) MustRegister(def *Definition) {
	if err := c.Register(def); err != nil {
		panic(err)
	}
}

// Instance registers a pre-built value.
//
//	c.Instance("config", cfg)
func (c *Container) Instance(name string, value any) {
	c.MustRegister(NewRaw(name, value))
}

// Singleton registers a factory whose result is cached after first resolution.
//
//	c.Singleton("cache", func(c *container.Container) any {
//	    return cache.NewMemoryStore()
//	})
func (c *Container) Singleton(name string, f FactoryFunc) {
	c.MustRegister(NewSingleton(name, f))
}

// Bind registers a factory that runs on every resolution.
func (c *Container) Bind(name string, f FactoryFunc) {
	c.MustRegister(NewFactory(name, f))
}

// Unregister removes the definition stored under name on this container.
func (c *Container) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.definitions, c.canonical(name))
}

// Alias registers an alternative name for an entry.
func (c *Container) Alias(name, alias string) error {
	if name == alias {
		return fmt.Errorf("container: [%s] is aliased to itself", name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[alias] = c.canonical(name)
	return nil
}

// Extend decorates every future resolution of name. A singleton owned by c
// that is already built is decorated in place, once.
//
//	c.Extend("logger", func(instance any, c *container.Container) any {
//	    return instance.(*slog.Logger).With("component", "http")
//	})
func (c *Container) Extend(name string, fn func(instance any, c *Container) any) {
	def, owner := c.lookup(name)
	if def == nil || def.Kind != Singleton || owner != c {
		c.addExtender(name, fn)
		return
	}
	def.mu.Lock()
	defer def.mu.Unlock()
	c.addExtender(name, fn)
	if def.resolved {
		def.instance = fn(def.instance, c)
	}
}

func (c *Container) addExtender(name string, fn extender) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(name)
	c.extenders[key] = append(c.extenders[key], fn)
}

// Tag associates names under a group.
func (c *Container) Tag(names []string, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[tag] = append(c.tags[tag], names...)
}

// Tagged resolves every name registered under tag, parents first.
func (c *Container) Tagged(tag string) []any {
	names := c.taggedNames(tag)
	out := make([]any, 0, len(names))
	for _, name := range names {
		out = append(out, c.Resolve(name))
	}
	return out
}

func (c *Container) taggedNames(tag string) []string {
	var names []string
	if c.parent != nil {
		names = c.parent.taggedNames(tag)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append(names, c.tags[tag]...)
}

// AfterResolving registers a callback fired after any entry is resolved.
func (c *Container) AfterResolving(cb func(name string, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

// ── Resolution ────────────────────────────────────────────────────────────────

// IsRegistered reports whether name resolves on c or one of its parents.
func (c *Container) IsRegistered(name string) bool {
	def, _ := c.lookup(name)
	return def != nil
}

// Resolve returns the value for name, or nil when nothing is registered.
func (c *Container) Resolve(name string) any {
	def, owner := c.lookup(name)
	if def == nil {
		return nil
	}
	return c.resolveDefinition(def, owner)
}

// Definition returns the definition visible under name.
func (c *Container) Definition(name string) (*Definition, bool) {
	def, _ := c.lookup(name)
	return def, def != nil
}

func (c *Container) resolveDefinition(def *Definition, owner *Container) any {
	key := def.Name
	var instance any
	if def.Kind == Singleton {
		instance = def.singleton(func() any {
			return owner.decorate(key, def.Factory(owner), nil)
		})
		instance = c.decorate(key, instance, owner)
	} else {
		instance = c.decorate(key, def.Resolve(c), nil)
	}
	c.fireAfterResolving(key, instance)
	return instance
}

// decorate applies the extenders for name registered from the root down to
// c, skipping stop and everything above it.
func (c *Container) decorate(name string, instance any, stop *Container) any {
	for _, ext := range c.extendersFor(name, stop) {
		instance = ext(instance, c)
	}
	return instance
}

func (c *Container) lookup(name string) (*Definition, *Container) {
	for cur := c; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		def := cur.definitions[cur.canonical(name)]
		cur.mu.RUnlock()
		if def != nil {
			return def, cur
		}
	}
	return nil, nil
}

func (c *Container) extendersFor(name string, stop *Container) []extender {
	if c == stop {
		return nil
	}
	var exts []extender
	if c.parent != nil {
		exts = c.parent.extendersFor(name, stop)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append(exts, c.extenders[c.canonical(name)]...)
}

// Names returns the registered names visible from c.
func (c *Container) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for cur := c; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		for k := range cur.definitions {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
		cur.mu.RUnlock()
	}
	return out
}

// Flush resets this container's own tables.
func (c *Container) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.definitions = make(map[string]*Definition)
	c.aliases = make(map[string]string)
	c.extenders = make(map[string][]extender)
	c.tags = make(map[string][]string)
	c.contextual = make(map[string]map[string]*Definition)
}

// canonical resolves an alias to its canonical key (caller holds mu).
func (c *Container) canonical(name string) string {
	if target, ok := c.aliases[name]; ok {
		return target
	}
	if c.parent != nil {
		c.parent.mu.RLock()
		defer c.parent.mu.RUnlock()
		return c.parent.canonical(name)
	}
	return name
}

func (c *Container) fireAfterResolving(name string, instance any) {
	for cur := c; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		cbs := cur.afterResolving
		cur.mu.RUnlock()
		for _, cb := range cbs {
			cb(name, instance)
		}
	}
}

// ── Typed keys ────────────────────────────────────────────────────────────────

// TypeKeyOf returns the package-qualified name of t, dereferencing one
// pointer level. It is the key the class resolver uses for parameters.
func TypeKeyOf(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// KeyOf returns TypeKeyOf for T.
//
//	c.Instance(container.KeyOf[*sql.DB](), db)
func KeyOf[T any]() string {
	return TypeKeyOf(reflect.TypeFor[T]())
}

// Get resolves name and asserts the result to T.
func Get[T any](c *Container, name string) (T, error) {
	var zero T
	if !c.IsRegistered(name) {
		return zero, &Error{Name: name, Cause: ErrNotRegistered}
	}
	instance := c.Resolve(name)
	typed, ok := instance.(T)
	if !ok {
		return zero, &Error{
			Name:  name,
			Want:  reflect.TypeFor[T]().String(),
			Got:   fmt.Sprintf("%T", instance),
			Cause: ErrTypeMismatch,
		}
	}
	return typed, nil
}

// MustGet is Get for boot code; it panics on a missing or mistyped entry.
func MustGet[T any](c *Container, name string) T {
	v, err := Get[T](c, name)
	if err != nil {
		panic(err)
	}
	return v
}

// GetType resolves the entry registered under KeyOf[T].
func GetType[T any](c *Container) (T, error) {
	return Get[T](c, KeyOf[T]())
}
