// Package cache provides the framework cache: a Laravel-style Store with an
// in-memory and a database-backed implementation.
package cache

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrMiss is returned by Remember when nothing is cached and there is no loader.
var ErrMiss = errors.New("cache: miss")

// Store is the cache contract shared by every backend.
type Store interface {
	// Get returns the cached bytes; false when missing or expired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Put stores value with the store's default TTL.
	Put(ctx context.Context, key string, value []byte) error

	// PutFor stores value for ttl. A ttl <= 0 stores forever.
	PutFor(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Has(ctx context.Context, key string) bool
	Forget(ctx context.Context, key string) error
	Flush(ctx context.Context) error

	// Name identifies the backend in logs.
	Name() string
}

// Options configures a store.
type Options struct {
	// TTL is the default time-to-live. Default: 1 hour.
	TTL time.Duration

	// MaxEntries caps the store; the oldest entries go first. 0 is unlimited.
	MaxEntries int

	// CleanupInterval is how often expired entries are purged. 0 disables it.
	CleanupInterval time.Duration
}

// Option mutates Options.
type Option func(*Options)

func WithTTL(ttl time.Duration) Option          { return func(o *Options) { o.TTL = ttl } }
func WithMaxEntries(n int) Option               { return func(o *Options) { o.MaxEntries = n } }
func WithCleanupInterval(d time.Duration) Option { return func(o *Options) { o.CleanupInterval = d } }

func applyOptions(opts ...Option) Options {
	o := Options{TTL: time.Hour}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

// GetJSON decodes the cached value at key into T.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool) {
	var v T
	raw, ok := s.Get(ctx, key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false
	}
	return v, true
}

// PutJSON encodes v and stores it for ttl.
func PutJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.PutFor(ctx, key, raw, ttl)
}

// Remember returns the cached value at key or stores the loader's result.
//
//	posts, err := cache.Remember(ctx, store, "posts:recent", time.Minute, repo.Recent)
func Remember[T any](ctx context.Context, s Store, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if v, ok := GetJSON[T](ctx, s, key); ok {
		return v, nil
	}
	if load == nil {
		var zero T
		return zero, ErrMiss
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	return v, PutJSON(ctx, s, key, v, ttl)
}
