package scopecache

import (
	"github.com/google/uuid"
	"github.com/reusee/e5"
)

// _Anchor is the minimal unit injected into a foreign scope: a single
// mutable reference slot. Once loaded, the strong chain to Slot
// originates from the scope's own unit table, so the scope's
// reachability alone governs the slot content's lifetime.
type _Anchor struct {
	Slot any
}

// attachToScope ties value's lifetime to scope's by loading a fresh
// anchor unit into the scope and writing value into its slot. Neither
// the anchor nor value gains any reference back to the Cache that
// asked for the attachment.
func attachToScope(scope *Scope, value any) error {
	anchor := new(_Anchor)
	name := "anchor." + uuid.NewString()
	if err := scope.LoadUnit(name, anchor); err != nil {
		return we.With(
			e5.Info("scope %s rejects anchor synthesis: %v", scope.id, err),
		)(ErrAnchorRejected)
	}
	anchor.Slot = value
	return nil
}
