package container_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/gomvc/framework/container"
)

type widget struct{ id int }

func counter() (container.FactoryFunc, *int) {
	calls := 0
	return func(*container.Container) any {
		calls++
		return &widget{id: calls}
	}, &calls
}

// ── Definition kinds ──────────────────────────────────────────────────────────

func TestResolve_Raw(t *testing.T) {
	c := container.New()
	w := &widget{id: 7}
	c.Instance("w", w)

	assert.Same(t, w, c.Resolve("w"))
	assert.Same(t, w, c.Resolve("w"))
}

func TestResolve_SingletonIsBuiltOnce(t *testing.T) {
	c := container.New()
	f, calls := counter()
	c.Singleton("w", f)

	first := c.Resolve("w")
	second := c.Resolve("w")

	assert.Same(t, first, second)
	assert.Equal(t, 1, *calls)
}

func TestResolve_FactoryRunsEveryTime(t *testing.T) {
	c := container.New()
	f, calls := counter()
	c.Bind("w", f)

	first := c.Resolve("w").(*widget)
	second := c.Resolve("w").(*widget)

	assert.NotSame(t, first, second)
	assert.Equal(t, 2, *calls)
}

func TestResolve_DeterministicFactoryGivesEqualValues(t *testing.T) {
	c := container.New()
	c.Bind("w", func(*container.Container) any { return widget{id: 1} })

	assert.Equal(t, c.Resolve("w"), c.Resolve("w"))
}

func TestResolve_UnregisteredIsNil(t *testing.T) {
	c := container.New()

	assert.False(t, c.IsRegistered("missing"))
	assert.Nil(t, c.Resolve("missing"))
}

func TestResolve_FactoryReceivesContainer(t *testing.T) {
	c := container.New()
	c.Instance("n", 2)
	c.Bind("double", func(c *container.Container) any { return c.Resolve("n").(int) * 2 })

	assert.Equal(t, 4, c.Resolve("double"))
}

// ── Registration ──────────────────────────────────────────────────────────────

func TestRegister_ReplacesExisting(t *testing.T) {
	c := container.New()
	c.Instance("v", 1)
	require.NoError(t, c.Register(container.NewRaw("v", 2)))

	assert.Equal(t, 2, c.Resolve("v"))
}

func TestRegister_Validation(t *testing.T) {
	c := container.New()

	assert.Error(t, c.Register(nil))
	assert.Error(t, c.Register(&container.Definition{Kind: container.Raw}))
	assert.Error(t, c.Register(&container.Definition{Name: "x", Kind: container.Singleton}))
}

func TestUnregister(t *testing.T) {
	c := container.New()
	c.Instance("v", 1)
	c.Unregister("v")

	assert.False(t, c.IsRegistered("v"))
}

func TestContainerKnowsItself(t *testing.T) {
	c := container.New()
	assert.Same(t, c, c.Resolve("container"))
}

// ── Alias / Tags / Extend ─────────────────────────────────────────────────────

func TestAlias(t *testing.T) {
	c := container.New()
	c.Instance("cache", "memory")
	require.NoError(t, c.Alias("cache", "store"))

	assert.Equal(t, "memory", c.Resolve("store"))
	assert.Error(t, c.Alias("x", "x"))
}

func TestTagged(t *testing.T) {
	c := container.New()
	c.Instance("cpu", "cpu-report")
	c.Instance("mem", "mem-report")
	c.Tag([]string{"cpu", "mem"}, "reports")

	assert.Equal(t, []any{"cpu-report", "mem-report"}, c.Tagged("reports"))
}

func TestExtend_DecoratesSingletonOnce(t *testing.T) {
	c := container.New()
	f, calls := counter()
	c.Singleton("w", f)
	c.Extend("w", func(instance any, _ *container.Container) any {
		w := instance.(*widget)
		return &widget{id: w.id + 100}
	})

	first := c.Resolve("w").(*widget)
	second := c.Resolve("w").(*widget)

	assert.Equal(t, 101, first.id)
	assert.Same(t, first, second)
	assert.Equal(t, 1, *calls)
}

func TestExtend_AfterResolutionDecoratesCachedSingleton(t *testing.T) {
	c := container.New()
	f, calls := counter()
	c.Singleton("w", f)
	before := c.Resolve("w").(*widget)
	require.Equal(t, 1, before.id)

	c.Extend("w", func(instance any, _ *container.Container) any {
		return &widget{id: instance.(*widget).id + 100}
	})

	first := c.Resolve("w").(*widget)
	second := c.Resolve("w").(*widget)
	assert.Equal(t, 101, first.id)
	assert.Same(t, first, second)
	assert.Equal(t, 1, *calls)
}

func TestAfterResolving(t *testing.T) {
	c := container.New()
	c.Instance("v", 1)
	var seen []string
	c.AfterResolving(func(name string, _ any) { seen = append(seen, name) })

	c.Resolve("v")
	assert.Equal(t, []string{"v"}, seen)
}

// ── Child containers ──────────────────────────────────────────────────────────

func TestChild_FallsBackToParent(t *testing.T) {
	parent := container.New()
	parent.Instance("config", "cfg")
	child := parent.Child()
	child.Instance("request", "req")

	assert.Equal(t, "cfg", child.Resolve("config"))
	assert.Equal(t, "req", child.Resolve("request"))
	assert.False(t, parent.IsRegistered("request"))
	assert.Same(t, child, child.Resolve("container"))
	assert.Same(t, parent, child.Parent())
}

func TestChild_SharesParentSingletons(t *testing.T) {
	parent := container.New()
	f, calls := counter()
	parent.Singleton("db", f)

	a := parent.Child().Resolve("db")
	b := parent.Child().Resolve("db")

	assert.Same(t, a, b)
	assert.Equal(t, 1, *calls)
}

func TestChild_ConcurrentSingletonBuiltOnce(t *testing.T) {
	parent := container.New()
	var calls atomic.Int32
	parent.Singleton("repo", func(*container.Container) any {
		return &widget{id: int(calls.Add(1))}
	})

	const workers = 16
	got := make([]any, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = parent.Child().Resolve("repo")
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for _, v := range got {
		assert.Same(t, got[0], v)
	}
}

func TestChild_SingletonOnChildIsPerChild(t *testing.T) {
	parent := container.New()
	f, calls := counter()
	a, b := parent.Child(), parent.Child()
	a.Singleton("session", f)
	b.Singleton("session", f)

	assert.NotSame(t, a.Resolve("session"), b.Resolve("session"))
	assert.Same(t, a.Resolve("session"), a.Resolve("session"))
	assert.Equal(t, 2, *calls)
	assert.False(t, parent.IsRegistered("session"))
}

func TestChild_ExtendDoesNotLeakIntoParentSingleton(t *testing.T) {
	parent := container.New()
	f, calls := counter()
	parent.Singleton("db", f)

	child := parent.Child()
	child.Extend("db", func(instance any, _ *container.Container) any {
		return &widget{id: instance.(*widget).id + 100}
	})

	assert.Equal(t, 101, child.Resolve("db").(*widget).id)
	assert.Equal(t, 1, parent.Resolve("db").(*widget).id)
	assert.Equal(t, 1, parent.Child().Resolve("db").(*widget).id)
	assert.Equal(t, 1, *calls)
}

func TestChild_FactoriesSeeChildEntries(t *testing.T) {
	parent := container.New()
	parent.Bind("greeting", func(c *container.Container) any {
		return "hello " + c.Resolve("user").(string)
	})
	child := parent.Child()
	child.Instance("user", "ada")

	assert.Equal(t, "hello ada", child.Resolve("greeting"))
}

// ── Contextual ────────────────────────────────────────────────────────────────

func TestContextual(t *testing.T) {
	c := container.New()
	c.When("PhotoController").Needs("disk").GiveValue("s3")

	v, ok := c.Contextual("PhotoController", "disk")
	assert.True(t, ok)
	assert.Equal(t, "s3", v)

	_, ok = c.Contextual("VideoController", "disk")
	assert.False(t, ok)
}

// ── Typed lookups ─────────────────────────────────────────────────────────────

func TestGet(t *testing.T) {
	c := container.New()
	c.Instance("w", &widget{id: 3})

	w, err := container.Get[*widget](c, "w")
	require.NoError(t, err)
	assert.Equal(t, 3, w.id)

	_, err = container.Get[string](c, "w")
	assert.ErrorIs(t, err, container.ErrTypeMismatch)

	_, err = container.Get[string](c, "nope")
	assert.ErrorIs(t, err, container.ErrNotRegistered)

	assert.Panics(t, func() { container.MustGet[string](c, "nope") })
}

func TestKeyOf(t *testing.T) {
	assert.Equal(t, "github.com/km-arc/gomvc/framework/container_test.widget", container.KeyOf[*widget]())
	assert.Equal(t, container.KeyOf[widget](), container.KeyOf[*widget]())
	assert.Equal(t, "string", container.KeyOf[string]())

	c := container.New()
	c.Instance(container.KeyOf[*widget](), &widget{id: 9})
	w, err := container.GetType[*widget](c)
	require.NoError(t, err)
	assert.Equal(t, 9, w.id)
}

// ── Service list ──────────────────────────────────────────────────────────────

func TestLoad(t *testing.T) {
	c := container.New()
	err := c.Load(
		container.Service{Name: "name", Kind: container.Raw, Payload: "app"},
		container.Service{Name: "w", Kind: container.Singleton, Payload: func() any { return &widget{} }},
		container.Service{Name: "f", Kind: container.Factory, Payload: func(*container.Container) any { return 1 }},
	)
	require.NoError(t, err)

	assert.Equal(t, "app", c.Resolve("name"))
	assert.Same(t, c.Resolve("w"), c.Resolve("w"))
	assert.Equal(t, 1, c.Resolve("f"))

	err = c.Load(container.Service{Name: "bad", Kind: container.Factory, Payload: 42})
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	k, err := container.ParseKind("shared")
	require.NoError(t, err)
	assert.Equal(t, container.Singleton, k)

	_, err = container.ParseKind("weird")
	assert.Error(t, err)
}
