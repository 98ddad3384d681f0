package scopecache

import "fmt"

// TypeHandle is the identity of a type defined in a scope. Handles
// are compared by pointer, so a handle minted by DefineType is unique
// for the process. A handle keeps its defining scope reachable, and
// the scope's unit table keeps the handle reachable, so the two are
// collected together.
type TypeHandle struct {
	name  string
	scope *Scope
}

// DefineType mints a handle for a new type named name and retains it
// in the scope's unit table.
func (s *Scope) DefineType(name string) (*TypeHandle, error) {
	handle := &TypeHandle{
		name:  name,
		scope: s,
	}
	if err := s.LoadUnit("type."+name, handle); err != nil {
		return nil, err
	}
	return handle, nil
}

func (h *TypeHandle) Name() string {
	return h.name
}

// Scope returns the scope the type was defined in.
func (h *TypeHandle) Scope() *Scope {
	return h.scope
}

func (h *TypeHandle) String() string {
	return fmt.Sprintf("%s@%s", h.name, h.scope.id)
}
