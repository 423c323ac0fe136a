package resolver

import (
	"context"
	"sync"

	"github.com/km-arc/gomvc/framework/cache"
)

// DescriptorCache memoises constructor parameter lists per class. Only
// successful inspections are stored.
type DescriptorCache interface {
	Load(ctx context.Context, class string) ([]Parameter, bool)
	Store(ctx context.Context, class string, params []Parameter)
}

// MemoryCache is the default process-local descriptor cache.
type MemoryCache struct {
	m sync.Map // class -> []Parameter
}

func NewMemoryCache() *MemoryCache { return &MemoryCache{} }

func (c *MemoryCache) Load(_ context.Context, class string) ([]Parameter, bool) {
	v, ok := c.m.Load(class)
	if !ok {
		return nil, false
	}
	return v.([]Parameter), true
}

func (c *MemoryCache) Store(_ context.Context, class string, params []Parameter) {
	c.m.Store(class, params)
}

// StoreCache keeps descriptors in a cache.Store so they survive restarts
// when the store is database backed.
type StoreCache struct {
	store  cache.Store
	prefix string
}

// NewStoreCache wraps store. Keys are prefixed with "resolver:".
func NewStoreCache(store cache.Store) *StoreCache {
	return &StoreCache{store: store, prefix: "resolver:"}
}

func (c *StoreCache) Load(ctx context.Context, class string) ([]Parameter, bool) {
	return cache.GetJSON[[]Parameter](ctx, c.store, c.prefix+class)
}

// Store writes params without expiry. Write failures only cost a re-inspection.
func (c *StoreCache) Store(ctx context.Context, class string, params []Parameter) {
	_ = cache.PutJSON(ctx, c.store, c.prefix+class, params, 0)
}
