package patch

import (
	"github.com/loom-ui/loom/v2/internal/diag"
	"github.com/loom-ui/loom/v2/pkg/reactive"
	"github.com/loom-ui/loom/v2/pkg/vdom"
)

// RenderFunc produces the next virtual tree from current state. Reactive
// reads inside it are tracked, so mutating anything it touched schedules a
// re-render.
type RenderFunc func() *vdom.VNode

// Renderer owns one render loop: a watcher whose getter runs the render
// function and patches the result against the previous tree.
type Renderer struct {
	patcher *Patcher
	render  RenderFunc
	watcher *reactive.Watcher
	vnode   *vdom.VNode
	parent  Node
}

// NewRenderer builds a renderer over p. Nothing runs until Mount.
func NewRenderer(p *Patcher, render RenderFunc) *Renderer {
	return &Renderer{patcher: p, render: render}
}

// Mount renders the initial tree, attaches it under parent, and starts
// tracking. Re-renders are scheduled through the shared scheduler and run
// at flush time.
func (r *Renderer) Mount(parent Node) Node {
	r.parent = parent
	r.watcher = reactive.NewWatcher(nil, func(any) any {
		r.renderAndPatch()
		return nil
	}, nil, nil)
	if r.vnode == nil {
		return nil
	}
	return r.vnode.Elm
}

func (r *Renderer) renderAndPatch() {
	next := r.safeRender()
	prev := r.vnode
	r.vnode = next
	if prev == nil {
		elm := r.patcher.Patch(nil, next)
		if r.parent != nil && elm != nil {
			r.patcher.ops.AppendChild(r.parent, elm)
		}
		return
	}
	r.patcher.Patch(prev, next)
}

// safeRender isolates render panics. A failed render reports through the
// error handler and keeps the previous tree on screen, falling back to an
// empty comment node on the very first render.
func (r *Renderer) safeRender() (out *vdom.VNode) {
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				diag.HandleError(diag.Recovered(rec), "render function")
				out = nil
			}
		}()
		out = r.render()
	}()
	if out == nil {
		if r.vnode != nil {
			return r.vnode
		}
		return vdom.NewEmpty("")
	}
	return out
}

// Vnode returns the most recently rendered tree.
func (r *Renderer) Vnode() *vdom.VNode {
	return r.vnode
}

// Destroy stops tracking and tears the rendered tree down.
func (r *Renderer) Destroy() {
	if r.watcher != nil {
		r.watcher.Teardown()
	}
	if r.vnode != nil {
		r.patcher.Patch(r.vnode, nil)
		r.vnode = nil
	}
}
