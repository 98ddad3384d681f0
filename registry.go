package scopecache

import (
	"sync"
	"sync/atomic"
	"weak"

	"github.com/reusee/e5"
)

// _ScopeRegistry maps foreign scopes to their unit caches. Neither
// the scope keys nor the cache values are held strongly: a cache is
// kept alive solely by the anchor inside its own scope, never by the
// registry, so registering a scope does not extend its lifetime.
// Snapshots are replaced copy-on-write so readers never lock.
type _ScopeRegistry[T any] struct {
	// mutex guards snapshot replacement
	mutex    sync.Mutex
	snapshot atomic.Pointer[map[weak.Pointer[Scope]]weak.Pointer[_UnitCache[T]]]
}

func newScopeRegistry[T any]() *_ScopeRegistry[T] {
	registry := new(_ScopeRegistry[T])
	snapshot := make(map[weak.Pointer[Scope]]weak.Pointer[_UnitCache[T]])
	registry.snapshot.Store(&snapshot)
	return registry
}

// load resolves scope's cache from the current snapshot without
// locking.
func (r *_ScopeRegistry[T]) load(scope *Scope) (*_UnitCache[T], bool) {
	snapshot := r.snapshot.Load()
	ref, ok := (*snapshot)[weak.Make(scope)]
	if !ok {
		return nil, false
	}
	cache := ref.Value()
	if cache == nil {
		// The caller holds scope strongly and the anchor keeps the
		// cache reachable from inside the scope, so a cleared weak
		// reference here means the anchoring invariant broke.
		debugLog("scopecache: cache for live scope %s vanished\n", scope.id)
		_ = throw(we.With(
			e5.Info("cache for live scope %s resolved to nothing", scope.id),
		)(ErrCacheVanished))
	}
	return cache, true
}

// resolve returns the cache for scope, creating and anchoring a new
// one on first sight. The anchor is attached before the cache becomes
// visible in any snapshot, so a rejected anchor publishes nothing.
func (r *_ScopeRegistry[T]) resolve(scope *Scope) (*_UnitCache[T], error) {
	if cache, ok := r.load(scope); ok {
		return cache, nil
	}

	// critical section to avoid creating duplicate caches
	r.mutex.Lock()
	defer r.mutex.Unlock()

	// the entry may have been created while waiting for the lock
	if cache, ok := r.load(scope); ok {
		return cache, nil
	}

	cache := newUnitCache[T]()
	if err := attachToScope(scope, cache); err != nil {
		return nil, err
	}

	current := r.snapshot.Load()
	next := make(map[weak.Pointer[Scope]]weak.Pointer[_UnitCache[T]], len(*current)+1)
	for scopeRef, cacheRef := range *current {
		if scopeRef.Value() == nil {
			// scope already collected, drop the stale entry
			continue
		}
		next[scopeRef] = cacheRef
	}
	next[weak.Make(scope)] = weak.Make(cache)
	r.snapshot.Store(&next)

	return cache, nil
}

// clearEach empties every cache that is still resolvable, skipping
// entries whose scope has already been collected.
func (r *_ScopeRegistry[T]) clearEach() {
	snapshot := r.snapshot.Load()
	for _, cacheRef := range *snapshot {
		if cache := cacheRef.Value(); cache != nil {
			cache.clear()
		}
	}
}
