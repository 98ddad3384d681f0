package scopecache

import (
	"sync"

	"github.com/dolthub/swiss"
)

// _UnitCache holds the cached values for the types of one scope.
type _UnitCache[T any] struct {
	mutex   sync.RWMutex
	entries *swiss.Map[*TypeHandle, *_Entry[T]]
}

// _Entry computes its value at most once. Concurrent callers for the
// same handle share the one producer run; entries for different
// handles never block each other.
type _Entry[T any] struct {
	once  sync.Once
	value T
	err   error
}

func newUnitCache[T any]() *_UnitCache[T] {
	return &_UnitCache[T]{
		entries: swiss.NewMap[*TypeHandle, *_Entry[T]](8),
	}
}

func (u *_UnitCache[T]) getOrCompute(handle *TypeHandle, produce Producer[T]) (T, error) {
	u.mutex.RLock()
	entry, ok := u.entries.Get(handle)
	u.mutex.RUnlock()

	if !ok {
		u.mutex.Lock()
		entry, ok = u.entries.Get(handle)
		if !ok {
			entry = new(_Entry[T])
			u.entries.Put(handle, entry)
		}
		u.mutex.Unlock()
	}

	entry.once.Do(func() {
		entry.value, entry.err = produce(handle)
		if entry.err != nil {
			// a failed compute leaves no entry, a later call may retry
			u.mutex.Lock()
			if current, ok := u.entries.Get(handle); ok && current == entry {
				u.entries.Delete(handle)
			}
			u.mutex.Unlock()
		}
	})

	return entry.value, entry.err
}

func (u *_UnitCache[T]) clear() {
	u.mutex.Lock()
	u.entries.Clear()
	u.mutex.Unlock()
}

func (u *_UnitCache[T]) len() int {
	u.mutex.RLock()
	defer u.mutex.RUnlock()
	return u.entries.Count()
}
