package patch

import "github.com/loom-ui/loom/v2/pkg/vdom"

// Phase identifies one stage of a node's patch lifecycle.
type Phase uint8

const (
	PhaseCreate Phase = iota
	PhaseActivate
	PhaseUpdate
	PhaseRemove
	PhaseDestroy
)

func (p Phase) String() string {
	switch p {
	case PhaseCreate:
		return "create"
	case PhaseActivate:
		return "activate"
	case PhaseUpdate:
		return "update"
	case PhaseRemove:
		return "remove"
	case PhaseDestroy:
		return "destroy"
	}
	return "unknown"
}

// CreateFunc runs after a node's output element is created, before insertion.
// The first argument is a shared empty placeholder standing in for "no
// previous node".
type CreateFunc func(empty, vnode *vdom.VNode)

// ActivateFunc runs when a kept-alive component placeholder is re-inserted.
type ActivateFunc func(vnode *vdom.VNode)

// UpdateFunc runs when a node is patched in place against its predecessor.
type UpdateFunc func(old, vnode *vdom.VNode)

// RemoveFunc runs when an element leaves the tree. Detachment is deferred
// until every interested party has called done, which lets modules run
// leave transitions before the node disappears.
type RemoveFunc func(vnode *vdom.VNode, done func())

// DestroyFunc runs when a node is discarded for good.
type DestroyFunc func(vnode *vdom.VNode)

// Module contributes per-phase callbacks to the patcher. Nil entries are
// skipped; within a phase, modules fire in registration order.
type Module struct {
	Name string

	Create   CreateFunc
	Activate ActivateFunc
	Update   UpdateFunc
	Remove   RemoveFunc
	Destroy  DestroyFunc
}

// hookTable holds the merged module callbacks, one ordered slice per phase.
// The set of phases is fixed at compile time, so there is nothing to look
// up by name at patch time.
type hookTable struct {
	create   []CreateFunc
	activate []ActivateFunc
	update   []UpdateFunc
	remove   []RemoveFunc
	destroy  []DestroyFunc
}

func buildHookTable(mods []Module) hookTable {
	var t hookTable
	for _, m := range mods {
		if m.Create != nil {
			t.create = append(t.create, m.Create)
		}
		if m.Activate != nil {
			t.activate = append(t.activate, m.Activate)
		}
		if m.Update != nil {
			t.update = append(t.update, m.Update)
		}
		if m.Remove != nil {
			t.remove = append(t.remove, m.Remove)
		}
		if m.Destroy != nil {
			t.destroy = append(t.destroy, m.Destroy)
		}
	}
	return t
}
