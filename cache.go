package scopecache

import (
	"runtime"

	"github.com/reusee/e5"
)

// Producer computes the value to cache for a type handle on a miss.
// It is invoked at most once per live (scope, handle) pair. It must
// not look up the same handle in the same Cache recursively.
type Producer[T any] func(handle *TypeHandle) (T, error)

// Cache caches one value per type handle without keeping the handle's
// scope alive. With an ordinary concurrent map, both the keys and the
// values would hold strong references to the scope, leaking it
// forever once unloading is wanted; with a map of weak references,
// any value could be collected while its scope is still in use. Cache
// instead anchors each foreign scope's values inside that scope's own
// unit table, so the values live exactly as long as the scope does
// and the scope stays collectible.
type Cache[T any] struct {
	produce Producer[T]
	// ownUnits caches values for handles defined in ownScopes. Those
	// scopes stay alive at least as long as this instance, so plain
	// strong references suffice and cannot leak.
	ownUnits *_UnitCache[T]
	// ownScopes is the ancestry chain of the cache's owning scope,
	// computed once at construction.
	ownScopes map[*Scope]struct{}
	registry  *_ScopeRegistry[T]
}

// New creates a cache owned by scope own, with produce as the miss
// callback. A nil own means Universe. A nil produce panics with
// ErrBadArgument.
func New[T any](own *Scope, produce Producer[T]) *Cache[T] {
	if produce == nil {
		_ = throw(we.With(
			e5.Info("producer cannot be nil"),
		)(ErrBadArgument))
	}
	if own == nil {
		own = Universe
	}

	cache := &Cache[T]{
		produce:   produce,
		ownUnits:  newUnitCache[T](),
		ownScopes: make(map[*Scope]struct{}),
		registry:  newScopeRegistry[T](),
	}
	for scope := own; scope != nil; scope = scope.parent {
		cache.ownScopes[scope] = struct{}{}
	}
	cache.ownScopes[Universe] = struct{}{}

	// Best effort: once the cache itself is collected, empty the
	// anchored containers it left in foreign scopes. The runtime may
	// run this late or not at all, so it is a courtesy, not part of
	// the correctness contract.
	runtime.AddCleanup(cache, func(registry *_ScopeRegistry[T]) {
		registry.clearEach()
	}, cache.registry)

	return cache
}

// Get returns the cached value for handle, invoking the producer on
// first use of the (scope, handle) pair. A producer failure is
// returned as is and leaves no cache entry behind.
func (c *Cache[T]) Get(handle *TypeHandle) (value T, err error) {
	if handle == nil {
		return value, we.With(
			e5.Info("handle cannot be nil"),
		)(ErrBadArgument)
	}

	cache, err := c.resolveCache(handle.scope)
	if err != nil {
		return value, err
	}

	return cache.getOrCompute(handle, c.produce)
}

// resolveCache finds or creates the per-scope cache for scope.
func (c *Cache[T]) resolveCache(scope *Scope) (*_UnitCache[T], error) {
	// scopes that outlive the cache instance need no weak indirection
	if _, ok := c.ownScopes[scope]; ok {
		return c.ownUnits, nil
	}
	return c.registry.resolve(scope)
}

// Clear removes all cached values. The anchored containers themselves
// stay resident in their scopes until the scopes are unloaded;
// retracting them would require retaining references into every
// touched scope, which is exactly the footprint this cache avoids.
func (c *Cache[T]) Clear() {
	c.ownUnits.clear()
	c.registry.clearEach()
}
