package scopecache

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/reusee/e5"
)

// Scope is a unit of code loading. Each scope has at most one parent
// and owns a table of named units, its retained graph: everything in
// the table stays reachable exactly as long as the scope itself does.
// Scopes are only ever observed and attached to, never torn down
// explicitly; a scope is unloaded by becoming unreachable.
type Scope struct {
	id     string
	parent *Scope
	sealed atomic.Bool
	// mutex guards unit table replacement
	mutex sync.Mutex
	// units points to the current unit table snapshot. Updates are
	// done using copy-on-write to enable concurrent lock-free reading.
	units atomic.Pointer[map[string]any]
}

// Universe is the root scope. It has no parent and is never unloaded.
var Universe = NewScope(nil)

// NewScope creates a scope with the given parent. A nil parent makes
// a root scope.
func NewScope(parent *Scope) *Scope {
	scope := &Scope{
		id:     uuid.NewString(),
		parent: parent,
	}
	units := make(map[string]any)
	scope.units.Store(&units)
	return scope
}

func (s *Scope) ID() string {
	return s.id
}

// Parent returns the parent scope, or nil for a root scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Seal makes the scope reject any further unit loading.
func (s *Scope) Seal() {
	s.sealed.Store(true)
}

func (s *Scope) Sealed() bool {
	return s.sealed.Load()
}

// LoadUnit installs a unit into the scope's table under name. The
// scope retains the unit for the rest of its lifetime. Fails if the
// scope is sealed or the name is already taken.
func (s *Scope) LoadUnit(name string, unit any) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.sealed.Load() {
		return we.With(
			e5.Info("scope %s rejects unit %s", s.id, name),
		)(ErrScopeSealed)
	}

	current := s.units.Load()
	if _, ok := (*current)[name]; ok {
		return we.With(
			e5.Info("unit %s already loaded in scope %s", name, s.id),
		)(ErrUnitConflict)
	}

	next := make(map[string]any, len(*current)+1)
	for k, v := range *current {
		next[k] = v
	}
	next[name] = unit
	s.units.Store(&next)

	return nil
}

// Unit resolves a loaded unit by name.
func (s *Scope) Unit(name string) (any, bool) {
	ptr := s.units.Load()
	unit, ok := (*ptr)[name]
	return unit, ok
}

// NumUnits reports how many units the scope currently retains.
func (s *Scope) NumUnits() int {
	return len(*s.units.Load())
}
