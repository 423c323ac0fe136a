package container

// ContextualBuilder implements the fluent contextual binding API.
//
//	c.When("PhotoController").Needs(container.KeyOf[Filesystem]()).Give(func(c *container.Container) any {
//	    return storage.NewLocal("/var/photos")
//	})
type ContextualBuilder struct {
	container *Container
	class     string
	needs     string
}

// When starts a contextual binding for the named class.
func (c *Container) When(class string) *ContextualBuilder {
	return &ContextualBuilder{container: c, class: class}
}

// Needs names the dependency the class asks for.
func (b *ContextualBuilder) Needs(name string) *ContextualBuilder {
	b.needs = name
	return b
}

// Give supplies the factory used when the class resolves the dependency.
func (b *ContextualBuilder) Give(f FactoryFunc) {
	b.give(NewFactory(b.needs, f))
}

// GiveValue is Give for a pre-built value.
func (b *ContextualBuilder) GiveValue(value any) {
	b.give(NewRaw(b.needs, value))
}

func (b *ContextualBuilder) give(def *Definition) {
	c := b.container
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.contextual[b.class]; !ok {
		c.contextual[b.class] = make(map[string]*Definition)
	}
	c.contextual[b.class][b.needs] = def
}

// Contextual resolves the value given to class for need, if any was declared.
func (c *Container) Contextual(class, need string) (any, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		def := cur.contextual[class][need]
		cur.mu.RUnlock()
		if def != nil {
			return def.Resolve(c), true
		}
	}
	return nil, false
}
