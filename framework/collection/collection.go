// Package collection provides insertion-ordered containers that enforce a
// declared element type at runtime.
//
// Three kinds share one implementation:
//
//	list := collection.NewList[string](collection.String)   // int keys, append semantics
//	m    := collection.NewMap[any](collection.Int)          // string|int keys
//	set  := collection.NewSet[string](collection.String)    // map that ignores duplicate values
//
// Every write is checked immediately; a rejected write leaves the collection
// unchanged. Merge, Filter and Map never mutate the receiver.
package collection

import (
	"iter"
)

// Kind selects the key rules of a collection.
type Kind uint8

const (
	KindList Kind = iota
	KindMap
	KindSet
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindSet:
		return "set"
	}
	return "unknown"
}

// Collection is an ordered key/value container. The zero value is not usable;
// use NewList, NewMap or NewSet.
type Collection[V any] struct {
	kind  Kind
	typ   Type
	keys  []any
	items map[any]V
	next  int
}

// NewList creates a list. An omitted type accepts any value.
func NewList[V any](typ ...Type) *Collection[V] {
	return newCollection[V](KindList, typ...)
}

// NewMap creates a map keyed by string or int.
func NewMap[V any](typ ...Type) *Collection[V] {
	return newCollection[V](KindMap, typ...)
}

// NewSet creates a map that silently ignores values it already contains.
func NewSet[V any](typ ...Type) *Collection[V] {
	return newCollection[V](KindSet, typ...)
}

// ListOf builds a list from values, failing on the first rejected one.
func ListOf[V any](typ Type, values ...V) (*Collection[V], error) {
	c := NewList[V](typ)
	for _, v := range values {
		if err := c.Set(v); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func newCollection[V any](kind Kind, typ ...Type) *Collection[V] {
	c := &Collection[V]{
		kind:  kind,
		items: make(map[any]V),
	}
	if len(typ) > 0 {
		c.typ = typ[0]
	}
	return c
}

// Kind returns the collection kind.
func (c *Collection[V]) Kind() Kind { return c.kind }

// Type returns the declared element type.
func (c *Collection[V]) Type() Type { return c.typ }

// Len returns the number of entries.
func (c *Collection[V]) Len() int { return len(c.keys) }

// Set appends value when no key is given, otherwise inserts or replaces the
// entry at key. Only the first key is used.
func (c *Collection[V]) Set(value V, key ...any) error {
	if err := c.checkValue(value); err != nil {
		return err
	}
	if len(key) == 0 {
		if c.kind == KindSet && c.Contains(value) {
			return nil
		}
		c.put(c.next, value)
		return nil
	}
	k := key[0]
	if err := c.checkKey(k, true); err != nil {
		return err
	}
	if c.kind == KindSet {
		if existing, ok := c.items[k]; !ok || !strictEqual(existing, value) {
			if c.Contains(value) {
				return nil
			}
		}
	}
	c.put(k, value)
	return nil
}

// Get returns the value stored at key or def.
func (c *Collection[V]) Get(key any, def V) V {
	if v, ok := c.Lookup(key); ok {
		return v
	}
	return def
}

// Lookup returns the value at key and whether it was present. Keys that are
// neither int nor string are never present.
func (c *Collection[V]) Lookup(key any) (V, bool) {
	if !storable(key) {
		var zero V
		return zero, false
	}
	v, ok := c.items[key]
	return v, ok
}

// Has reports whether key is present.
func (c *Collection[V]) Has(key any) bool {
	_, ok := c.Lookup(key)
	return ok
}

// Unset removes keys. All keys are validated before anything is removed.
// Lists are re-indexed afterwards so keys stay contiguous.
func (c *Collection[V]) Unset(keys ...any) error {
	for _, k := range keys {
		if err := c.checkKey(k, false); err != nil {
			return err
		}
	}
	drop := make(map[any]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := c.items[k]; ok {
			drop[k] = struct{}{}
			delete(c.items, k)
		}
	}
	if len(drop) == 0 {
		return nil
	}
	kept := c.keys[:0]
	for _, k := range c.keys {
		if _, gone := drop[k]; !gone {
			kept = append(kept, k)
		}
	}
	c.keys = kept
	if c.kind == KindList {
		c.reindex()
	}
	return nil
}

// Contains reports whether value is stored, using strict equality.
func (c *Collection[V]) Contains(value V) bool {
	for _, k := range c.keys {
		if strictEqual(c.items[k], value) {
			return true
		}
	}
	return false
}

// Keys returns the keys in insertion order.
func (c *Collection[V]) Keys() []any {
	out := make([]any, len(c.keys))
	copy(out, c.keys)
	return out
}

// Values returns the values in insertion order.
func (c *Collection[V]) Values() []V {
	out := make([]V, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.items[k])
	}
	return out
}

// Each calls fn for every entry in order until fn returns false.
func (c *Collection[V]) Each(fn func(key any, value V) bool) {
	for _, k := range c.keys {
		if !fn(k, c.items[k]) {
			return
		}
	}
}

// All returns an iterator over the entries in insertion order.
func (c *Collection[V]) All() iter.Seq2[any, V] {
	return func(yield func(any, V) bool) {
		c.Each(yield)
	}
}

// Merge returns a new collection holding c's entries overwritten and
// extended by other's. Lists append other's values.
func (c *Collection[V]) Merge(other *Collection[V]) (*Collection[V], error) {
	out := c.clone()
	if other == nil {
		return out, nil
	}
	for _, k := range other.keys {
		v := other.items[k]
		var err error
		if c.kind == KindList {
			err = out.Set(v)
		} else {
			err = out.Set(v, k)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Filter returns a new collection with the entries for which keep is true.
func (c *Collection[V]) Filter(keep func(key any, value V) bool) *Collection[V] {
	out := newCollection[V](c.kind, c.typ)
	for _, k := range c.keys {
		v := c.items[k]
		if !keep(k, v) {
			continue
		}
		if c.kind == KindList {
			out.put(out.next, v)
		} else {
			out.put(k, v)
		}
	}
	return out
}

// Map returns a new collection with every value transformed by fn. The
// results must still satisfy the declared type.
func (c *Collection[V]) Map(fn func(key any, value V) V) (*Collection[V], error) {
	out := newCollection[V](c.kind, c.typ)
	for _, k := range c.keys {
		v := fn(k, c.items[k])
		if err := out.checkValue(v); err != nil {
			return nil, err
		}
		if c.kind == KindSet && out.Contains(v) {
			continue
		}
		out.put(k, v)
	}
	return out, nil
}

func (c *Collection[V]) clone() *Collection[V] {
	out := newCollection[V](c.kind, c.typ)
	out.keys = make([]any, len(c.keys))
	copy(out.keys, c.keys)
	for k, v := range c.items {
		out.items[k] = v
	}
	out.next = c.next
	return out
}

func (c *Collection[V]) put(key any, value V) {
	if _, exists := c.items[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.items[key] = value
	if i, ok := key.(int); ok && i >= c.next {
		c.next = i + 1
	}
}

func (c *Collection[V]) reindex() {
	items := make(map[any]V, len(c.keys))
	for i, k := range c.keys {
		items[i] = c.items[k]
		c.keys[i] = i
	}
	c.items = items
	c.next = len(c.keys)
}

func (c *Collection[V]) checkValue(value any) error {
	if !c.typ.Check(value) {
		return &InvalidElementTypeError{Expected: c.typ.Name(), Value: value}
	}
	return nil
}

// checkKey validates a key. Writes to a list must address an existing index
// or the next free one.
// storable reports whether key can index items at all.
func storable(key any) bool {
	switch key.(type) {
	case int, string:
		return true
	}
	return false
}

func (c *Collection[V]) checkKey(key any, write bool) error {
	switch k := key.(type) {
	case int:
		if c.kind == KindList && write && (k < 0 || k > len(c.keys)) {
			return &InvalidKeyTypeError{Kind: c.kind, Key: key, Reason: "index out of range"}
		}
		return nil
	case string:
		if c.kind == KindList {
			return &InvalidKeyTypeError{Kind: c.kind, Key: key}
		}
		return nil
	}
	return &InvalidKeyTypeError{Kind: c.kind, Key: key}
}
