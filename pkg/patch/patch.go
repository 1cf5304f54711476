package patch

import (
	"reflect"
	"strings"

	"github.com/loom-ui/loom/v2/internal/diag"
	"github.com/loom-ui/loom/v2/pkg/vdom"
)

// emptyNode stands in for "no previous node" in create hooks.
var emptyNode = &vdom.VNode{Data: &vdom.Data{}}

// textInputTypes are the input types that can be swapped in place.
var textInputTypes = map[string]bool{
	"text":     true,
	"number":   true,
	"password": true,
	"search":   true,
	"email":    true,
	"tel":      true,
	"url":      true,
}

// Patcher reconciles virtual trees against an output tree through a NodeOps
// backend. It is not safe for concurrent use.
type Patcher struct {
	ops   NodeOps
	cbs   hookTable
	trace TraceFunc
}

// Option configures a Patcher.
type Option func(*Patcher)

// WithModules registers lifecycle modules. Within a phase they fire in the
// order given.
func WithModules(mods ...Module) Option {
	return func(p *Patcher) {
		p.cbs = buildHookTable(mods)
	}
}

// WithTrace installs a function that receives every edit the patcher
// performs.
func WithTrace(fn TraceFunc) Option {
	return func(p *Patcher) {
		p.trace = fn
	}
}

// NewPatcher builds a patcher over the given backend.
func NewPatcher(ops NodeOps, opts ...Option) *Patcher {
	p := &Patcher{ops: ops}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// sameVnode reports whether old and v describe the same logical node and
// can be patched in place rather than replaced.
func sameVnode(a, b *vdom.VNode) bool {
	if !keyEqual(a.Key, b.Key) {
		return false
	}
	if a.AsyncFactory != b.AsyncFactory {
		return false
	}
	if a.Tag == b.Tag &&
		a.IsComment == b.IsComment &&
		(a.Data != nil) == (b.Data != nil) &&
		sameInputType(a, b) {
		return true
	}
	// A resolved async factory may replace its placeholder in place.
	return a.IsAsyncPlaceholder && b.AsyncFactory != nil && !b.AsyncFactory.Error
}

// keyEqual compares keys without panicking on uncomparable types.
func keyEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// sameInputType keeps <input> reuse from carrying stale internal state
// across incompatible type switches.
func sameInputType(a, b *vdom.VNode) bool {
	if a.Tag != "input" {
		return true
	}
	ta := inputType(a)
	tb := inputType(b)
	return ta == tb || (textInputTypes[ta] && textInputTypes[tb])
}

func inputType(v *vdom.VNode) string {
	if v.Data == nil || v.Data.Attrs == nil {
		return ""
	}
	if t, ok := v.Data.Attrs["type"].(string); ok {
		return t
	}
	return ""
}

func isPatchable(v *vdom.VNode) bool {
	for v.ComponentInstance != nil {
		inner, ok := v.ComponentInstance.(interface{ RenderedVnode() *vdom.VNode })
		if !ok {
			break
		}
		r := inner.RenderedVnode()
		if r == nil {
			break
		}
		v = r
	}
	return v.Tag != ""
}

func (p *Patcher) createElm(v *vdom.VNode, inserted *[]*vdom.VNode, parentElm, refElm Node, ownerArray []*vdom.VNode, index int) {
	if v.Elm != nil && ownerArray != nil {
		// This vnode was used in a previous render. Patching it in place
		// would alias trees across renders, so work on a clone.
		v = vdom.Clone(v)
		ownerArray[index] = v
	}

	if p.createComponent(v, inserted, parentElm, refElm) {
		return
	}

	switch {
	case v.Tag != "":
		if v.NS != "" {
			v.Elm = p.ops.CreateElementNS(v.NS, v.Tag)
		} else {
			v.Elm = p.ops.CreateElement(v.Tag)
		}
		p.setScope(v)
		p.createChildren(v, v.Children, inserted)
		if v.Data != nil {
			p.invokeCreateHooks(v, inserted)
		}
		p.emit(Op{Kind: OpCreateElement, Tag: v.Tag})
		p.insert(parentElm, v.Elm, refElm)
	case v.IsComment:
		v.Elm = p.ops.CreateComment(v.Text)
		p.emit(Op{Kind: OpCreateComment, Text: v.Text})
		p.insert(parentElm, v.Elm, refElm)
	default:
		v.Elm = p.ops.CreateTextNode(v.Text)
		p.emit(Op{Kind: OpCreateText, Text: v.Text})
		p.insert(parentElm, v.Elm, refElm)
	}
}

func (p *Patcher) createComponent(v *vdom.VNode, inserted *[]*vdom.VNode, parentElm, refElm Node) bool {
	if v.Data == nil || v.Data.Hook == nil || v.Data.Hook.Init == nil {
		return false
	}
	reactivated := v.ComponentInstance != nil
	v.Data.Hook.Init(v)
	// Init mounts the child component and sets v.Elm and
	// v.ComponentInstance. If it did, the placeholder is done.
	if v.ComponentInstance != nil {
		p.initComponent(v, inserted)
		p.insert(parentElm, v.Elm, refElm)
		if reactivated {
			for _, cb := range p.cbs.activate {
				cb(v)
			}
		}
		return true
	}
	return false
}

func (p *Patcher) initComponent(v *vdom.VNode, inserted *[]*vdom.VNode) {
	if isPatchable(v) {
		p.invokeCreateHooks(v, inserted)
		p.setScope(v)
	} else if v.Data != nil && v.Data.Hook != nil && v.Data.Hook.Insert != nil {
		*inserted = append(*inserted, v)
	}
}

func (p *Patcher) insert(parent, elm, ref Node) {
	if parent == nil {
		return
	}
	if ref != nil {
		if p.ops.ParentNode(ref) == parent {
			p.ops.InsertBefore(parent, elm, ref)
			p.emit(Op{Kind: OpInsert})
		}
		return
	}
	p.ops.AppendChild(parent, elm)
	p.emit(Op{Kind: OpInsert})
}

func (p *Patcher) createChildren(v *vdom.VNode, children []*vdom.VNode, inserted *[]*vdom.VNode) {
	if len(children) == 0 {
		return
	}
	if diag.DevMode {
		checkDuplicateKeys(children)
	}
	for i, c := range children {
		p.createElm(c, inserted, v.Elm, nil, children, i)
	}
}

func (p *Patcher) invokeCreateHooks(v *vdom.VNode, inserted *[]*vdom.VNode) {
	for _, cb := range p.cbs.create {
		cb(emptyNode, v)
	}
	if v.Data.Hook != nil && v.Data.Hook.Insert != nil {
		*inserted = append(*inserted, v)
	}
}

func (p *Patcher) setScope(v *vdom.VNode) {
	if v.Data != nil && v.Data.StyleScope != "" {
		p.ops.SetStyleScope(v.Elm, v.Data.StyleScope)
	}
}

func (p *Patcher) invokeDestroyHook(v *vdom.VNode) {
	if v.Data != nil {
		if v.Data.Hook != nil && v.Data.Hook.Destroy != nil {
			v.Data.Hook.Destroy(v)
		}
		for _, cb := range p.cbs.destroy {
			cb(v)
		}
	}
	for _, c := range v.Children {
		if c != nil {
			p.invokeDestroyHook(c)
		}
	}
}

func (p *Patcher) addVnodes(parentElm, refElm Node, vnodes []*vdom.VNode, start, end int, inserted *[]*vdom.VNode) {
	for ; start <= end; start++ {
		p.createElm(vnodes[start], inserted, parentElm, refElm, vnodes, start)
	}
}

func (p *Patcher) removeVnodes(vnodes []*vdom.VNode, start, end int) {
	for ; start <= end; start++ {
		ch := vnodes[start]
		if ch == nil {
			continue
		}
		if ch.Tag != "" {
			p.removeAndInvokeRemoveHook(ch)
			p.invokeDestroyHook(ch)
		} else if ch.Elm != nil {
			// text or comment node
			p.removeNode(ch.Elm)
		}
	}
}

// removeAndInvokeRemoveHook detaches the element once every remove
// listener has called done. With no listeners it detaches immediately.
func (p *Patcher) removeAndInvokeRemoveHook(v *vdom.VNode) {
	if v.Data == nil {
		p.removeNode(v.Elm)
		return
	}
	remaining := len(p.cbs.remove) + 1
	elm := v.Elm
	done := func() {
		remaining--
		if remaining == 0 {
			p.removeNode(elm)
		}
	}
	for _, cb := range p.cbs.remove {
		cb(v, done)
	}
	if v.Data.Hook != nil && v.Data.Hook.Remove != nil {
		v.Data.Hook.Remove(v, done)
	} else {
		done()
	}
}

func (p *Patcher) removeNode(elm Node) {
	if elm == nil {
		return
	}
	parent := p.ops.ParentNode(elm)
	// already detached by a concurrent move
	if parent == nil {
		return
	}
	p.ops.RemoveChild(parent, elm)
	p.emit(Op{Kind: OpRemove})
}

func (p *Patcher) patchVnode(old, v *vdom.VNode, inserted *[]*vdom.VNode, ownerArray []*vdom.VNode, index int, removeOnly bool) {
	if old == v {
		return
	}
	if v.Elm != nil && ownerArray != nil {
		v = vdom.Clone(v)
		ownerArray[index] = v
	}

	elm := old.Elm
	v.Elm = elm

	if old.IsAsyncPlaceholder {
		if v.AsyncFactory != nil && v.AsyncFactory.Resolved != nil {
			p.hydrateNode(elm, v, inserted)
		} else {
			v.IsAsyncPlaceholder = true
		}
		return
	}

	// Static trees never change between renders, so the previous element
	// and component instance can be carried over wholesale. This only
	// applies to clones: if the new node is not a clone the render
	// function was re-generated and a full patch is required.
	if v.IsStatic && old.IsStatic && keyEqual(v.Key, old.Key) && (v.IsCloned || v.IsOnce) {
		v.ComponentInstance = old.ComponentInstance
		return
	}

	if v.Data != nil && v.Data.Hook != nil && v.Data.Hook.Prepatch != nil {
		v.Data.Hook.Prepatch(old, v)
	}

	if v.Data != nil && isPatchable(v) {
		for _, cb := range p.cbs.update {
			cb(old, v)
		}
	}
	p.emit(Op{Kind: OpPatch, Tag: v.Tag})

	if v.Tag != "" {
		oldCh, ch := old.Children, v.Children
		switch {
		case len(oldCh) > 0 && len(ch) > 0:
			if !sameChildren(oldCh, ch) {
				p.updateChildren(elm, oldCh, ch, inserted, removeOnly)
			}
		case len(ch) > 0:
			if diag.DevMode {
				checkDuplicateKeys(ch)
			}
			if old.Text != "" {
				p.ops.SetTextContent(elm, "")
				p.emit(Op{Kind: OpSetText})
			}
			p.addVnodes(elm, nil, ch, 0, len(ch)-1, inserted)
		case len(oldCh) > 0:
			p.removeVnodes(oldCh, 0, len(oldCh)-1)
		case old.Text != "":
			p.ops.SetTextContent(elm, "")
			p.emit(Op{Kind: OpSetText})
		}
	} else if old.Text != v.Text {
		p.ops.SetTextContent(elm, v.Text)
		p.emit(Op{Kind: OpSetText, Text: v.Text})
	}

	if v.Data != nil && v.Data.Hook != nil && v.Data.Hook.Postpatch != nil {
		v.Data.Hook.Postpatch(old, v)
	}
}

func sameChildren(a, b []*vdom.VNode) bool {
	return len(a) == len(b) && len(a) > 0 && &a[0] == &b[0]
}

// updateChildren diffs two child lists with a pointer at each end of both,
// matching head/head, tail/tail, head/tail and tail/head before falling
// back to a key lookup. The key map over the old list is built lazily, only
// when the cheap comparisons stop matching.
func (p *Patcher) updateChildren(parentElm Node, oldCh, newCh []*vdom.VNode, inserted *[]*vdom.VNode, removeOnly bool) {
	oldStartIdx, newStartIdx := 0, 0
	oldEndIdx := len(oldCh) - 1
	newEndIdx := len(newCh) - 1
	var oldKeyToIdx map[any]int

	// removeOnly is set during transition groups so that removed elements
	// hold their positions while leaving.
	canMove := !removeOnly

	if diag.DevMode {
		checkDuplicateKeys(newCh)
	}

	for oldStartIdx <= oldEndIdx && newStartIdx <= newEndIdx {
		oldStart := oldCh[oldStartIdx]
		oldEnd := oldCh[oldEndIdx]
		newStart := newCh[newStartIdx]
		newEnd := newCh[newEndIdx]

		switch {
		case oldStart == nil:
			// hole left by an earlier key match
			oldStartIdx++
		case oldEnd == nil:
			oldEndIdx--
		case sameVnode(oldStart, newStart):
			p.patchVnode(oldStart, newStart, inserted, newCh, newStartIdx, removeOnly)
			oldStartIdx++
			newStartIdx++
		case sameVnode(oldEnd, newEnd):
			p.patchVnode(oldEnd, newEnd, inserted, newCh, newEndIdx, removeOnly)
			oldEndIdx--
			newEndIdx--
		case sameVnode(oldStart, newEnd):
			// old head moved right
			p.patchVnode(oldStart, newEnd, inserted, newCh, newEndIdx, removeOnly)
			if canMove {
				p.ops.InsertBefore(parentElm, oldStart.Elm, p.ops.NextSibling(oldEnd.Elm))
				p.emit(Op{Kind: OpMove, Tag: oldStart.Tag})
			}
			oldStartIdx++
			newEndIdx--
		case sameVnode(oldEnd, newStart):
			// old tail moved left
			p.patchVnode(oldEnd, newStart, inserted, newCh, newStartIdx, removeOnly)
			if canMove {
				p.ops.InsertBefore(parentElm, oldEnd.Elm, oldStart.Elm)
				p.emit(Op{Kind: OpMove, Tag: oldEnd.Tag})
			}
			oldEndIdx--
			newStartIdx++
		default:
			if oldKeyToIdx == nil {
				oldKeyToIdx = createKeyToOldIdx(oldCh, oldStartIdx, oldEndIdx)
			}
			idxInOld := -1
			if newStart.Key != nil {
				if i, ok := oldKeyToIdx[newStart.Key]; ok {
					idxInOld = i
				}
			} else {
				idxInOld = findIdxInOld(newStart, oldCh, oldStartIdx, oldEndIdx)
			}
			if idxInOld < 0 {
				p.createElm(newStart, inserted, parentElm, oldStart.Elm, newCh, newStartIdx)
			} else {
				moved := oldCh[idxInOld]
				if moved == nil {
					// slot already consumed by an earlier new child
					// with the same key
					p.createElm(newStart, inserted, parentElm, oldStart.Elm, newCh, newStartIdx)
				} else if sameVnode(moved, newStart) {
					p.patchVnode(moved, newStart, inserted, newCh, newStartIdx, removeOnly)
					oldCh[idxInOld] = nil
					if canMove {
						p.ops.InsertBefore(parentElm, moved.Elm, oldStart.Elm)
						p.emit(Op{Kind: OpMove, Tag: moved.Tag})
					}
				} else {
					// same key, different element
					p.createElm(newStart, inserted, parentElm, oldStart.Elm, newCh, newStartIdx)
				}
			}
			newStartIdx++
		}
	}

	if oldStartIdx > oldEndIdx {
		var refElm Node
		if newEndIdx+1 < len(newCh) && newCh[newEndIdx+1] != nil {
			refElm = newCh[newEndIdx+1].Elm
		}
		p.addVnodes(parentElm, refElm, newCh, newStartIdx, newEndIdx, inserted)
	} else if newStartIdx > newEndIdx {
		p.removeVnodes(oldCh, oldStartIdx, oldEndIdx)
	}
}

func createKeyToOldIdx(children []*vdom.VNode, start, end int) map[any]int {
	m := make(map[any]int, end-start+1)
	for i := start; i <= end; i++ {
		c := children[i]
		if c == nil || c.Key == nil {
			continue
		}
		if t := reflect.TypeOf(c.Key); !t.Comparable() {
			continue
		}
		m[c.Key] = i
	}
	return m
}

func findIdxInOld(node *vdom.VNode, oldCh []*vdom.VNode, start, end int) int {
	for i := start; i <= end; i++ {
		c := oldCh[i]
		if c != nil && sameVnode(c, node) {
			return i
		}
	}
	return -1
}

func checkDuplicateKeys(children []*vdom.VNode) {
	seen := make(map[any]bool)
	for _, c := range children {
		if c == nil || c.Key == nil {
			continue
		}
		if t := reflect.TypeOf(c.Key); !t.Comparable() {
			continue
		}
		if seen[c.Key] {
			diag.Warnf("duplicate keys detected: %v; this may cause an update error", c.Key)
		} else {
			seen[c.Key] = true
		}
	}
}

func (p *Patcher) invokeInsertHooks(inserted []*vdom.VNode) {
	for _, v := range inserted {
		v.Data.Hook.Insert(v)
	}
}

// Patch reconciles v against old and returns the output element backing v.
//
// With old nil the tree is freshly created (detached unless a later insert
// attaches it). With v nil the old tree is destroyed and detached. When the
// roots are not the same logical node the new tree is created next to the
// old one and the old one removed.
func (p *Patcher) Patch(old, v *vdom.VNode) Node {
	if v == nil {
		if old != nil {
			p.removeVnodes([]*vdom.VNode{old}, 0, 0)
		}
		return nil
	}

	var inserted []*vdom.VNode

	switch {
	case old == nil:
		p.createElm(v, &inserted, nil, nil, nil, 0)
	case sameVnode(old, v):
		p.patchVnode(old, v, &inserted, nil, 0, false)
	default:
		oldElm := old.Elm
		var parentElm, refElm Node
		if oldElm != nil {
			parentElm = p.ops.ParentNode(oldElm)
			refElm = p.ops.NextSibling(oldElm)
		}

		p.createElm(v, &inserted, parentElm, refElm, nil, 0)

		// Component placeholders up the chain still point at the old
		// element. Their references are non-owning, so just repoint them.
		for ancestor := v.Parent; ancestor != nil; ancestor = ancestor.Parent {
			ancestor.Elm = v.Elm
		}

		if parentElm != nil {
			p.removeVnodes([]*vdom.VNode{old}, 0, 0)
		} else if old.Tag != "" {
			p.invokeDestroyHook(old)
		}
	}

	p.invokeInsertHooks(inserted)
	return v.Elm
}

// MountOn patches v over an existing element, replacing it in place.
func (p *Patcher) MountOn(elm Node, v *vdom.VNode) Node {
	old := &vdom.VNode{
		Tag:  strings.ToLower(p.ops.TagName(elm)),
		Data: &vdom.Data{},
		Elm:  elm,
	}
	return p.Patch(old, v)
}

// HydrateOn adopts an existing server-rendered element tree as the output
// of v, attaching handles without re-creating nodes. On any structural
// mismatch the existing content is discarded and v is freshly rendered.
func (p *Patcher) HydrateOn(elm Node, v *vdom.VNode) Node {
	var inserted []*vdom.VNode
	if p.hydrateNode(elm, v, &inserted) {
		p.invokeInsertHooks(inserted)
		return elm
	}
	diag.Warnf("hydration mismatch: existing content does not match the rendered tree, performing full client-side render")
	return p.MountOn(elm, v)
}

func (p *Patcher) hydrateNode(elm Node, v *vdom.VNode, inserted *[]*vdom.VNode) bool {
	v.Elm = elm

	if v.IsComment && v.AsyncFactory != nil {
		v.IsAsyncPlaceholder = true
		return true
	}

	if v.Tag == "" {
		// Text and comment nodes match positionally.
		return true
	}

	if !strings.EqualFold(p.ops.TagName(elm), v.Tag) {
		return false
	}

	if v.Data != nil && v.Data.Hook != nil && v.Data.Hook.Init != nil {
		v.Data.Hook.Init(v)
		if v.ComponentInstance != nil {
			p.initComponent(v, inserted)
			return true
		}
	}

	if len(v.Children) > 0 {
		lister, ok := p.ops.(ChildLister)
		if !ok {
			// The backend cannot enumerate existing children, so replace
			// them outright.
			p.ops.SetTextContent(elm, "")
			p.createChildren(v, v.Children, inserted)
		} else {
			child := lister.FirstChild(elm)
			for _, c := range v.Children {
				if child == nil || !p.hydrateNode(child, c, inserted) {
					return false
				}
				child = p.ops.NextSibling(child)
			}
			// extra trailing server nodes mean the trees diverge
			if child != nil {
				return false
			}
		}
	}

	if v.Data != nil {
		p.invokeCreateHooks(v, inserted)
	}
	return true
}
