package vdom

// VNode is a lightweight description of one output-tree node: an element,
// a text node, a comment, or a component placeholder. It is the unit of
// diffing; a rendering watcher produces a fresh tree every evaluation and
// the patch engine reconciles it against the previous one.
type VNode struct {
	// Tag is the element tag name. Empty for text and comment nodes.
	Tag string

	// Data carries attributes, hooks and styling metadata. Definedness of
	// Data participates in the same-node test.
	Data *Data

	// Children are the node's ordered children. The slice is owned by
	// this node; Clone copies it so two renders never share one.
	Children []*VNode

	// Text is the content of text and comment nodes.
	Text string

	// Elm is the mounted output-node handle, owned by the patch backend.
	// nil until the node is mounted.
	Elm any

	// NS is the element namespace, if any.
	NS string

	// Key identifies the node among its siblings for reconciliation.
	// Keys must be comparable primitives; duplicates within one sibling
	// list are reported and degrade to positional matching.
	Key any

	// IsComment marks a comment (placeholder) node.
	IsComment bool

	// IsStatic marks a node whose subtree never changes across renders.
	IsStatic bool

	// IsCloned marks a node produced by Clone. Static nodes reused
	// across renders must be cloned before mutation so the previous
	// render's tree is never aliased.
	IsCloned bool

	// IsOnce marks a render-once node, eligible for the static fast path.
	IsOnce bool

	// IsAsyncPlaceholder marks the comment node standing in for an async
	// component that has not resolved yet.
	IsAsyncPlaceholder bool

	// AsyncFactory links an async placeholder to its factory; factory
	// identity participates in the same-node test.
	AsyncFactory *AsyncFactory

	// Parent is the component placeholder this node is the rendered root
	// of. Non-owning back-reference; ownership of children is strictly
	// top-down.
	Parent *VNode

	// ComponentOptions is set on component placeholder nodes.
	ComponentOptions *ComponentOptions

	// ComponentInstance is the mounted component behind a placeholder.
	ComponentInstance any
}

// Data holds a node's attributes and lifecycle linkage.
type Data struct {
	// Attrs are the node's attributes. For an input element the "type"
	// attribute participates in the same-node test.
	Attrs map[string]any

	// Hook carries component lifecycle callbacks invoked by the patch
	// engine for placeholder nodes.
	Hook *Hook

	// StyleScope attributes the node to a scoped-styling context.
	StyleScope string
}

// Hook is the component linkage seam: the patch engine invokes these at
// the corresponding points for component placeholder nodes. The engine
// itself has no knowledge of component internals.
type Hook struct {
	// Init mounts the component behind a placeholder node.
	Init func(v *VNode)

	// Prepatch runs before an in-place patch of two same placeholders.
	Prepatch func(old, new *VNode)

	// Postpatch runs after an in-place patch completed.
	Postpatch func(old, new *VNode)

	// Insert runs once the node's subtree is attached to the output tree.
	Insert func(v *VNode)

	// Remove intercepts removal; done must be called to detach the node.
	Remove func(v *VNode, done func())

	// Destroy runs when the node is being torn down.
	Destroy func(v *VNode)
}

// ComponentOptions carries the metadata a component placeholder owns.
type ComponentOptions struct {
	// Tag is the original component tag, for diagnostics.
	Tag string

	// Ctor identifies the component kind; placeholder equivalence uses
	// pointer identity of whatever the host registers here.
	Ctor any

	// PropsData are the raw props passed to the component.
	PropsData map[string]any

	// Children is the slot content handed to the component.
	Children []*VNode
}

// AsyncFactory identifies an async component factory. Pointer identity
// is the equivalence the same-node test relies on.
type AsyncFactory struct {
	// Resolve produces the resolved component node, once available.
	Resolve func() *VNode

	// Resolved is the resolved render, nil while pending.
	Resolved *VNode

	// Error marks a factory that failed to resolve; a placeholder for a
	// failed factory is no longer patchable in place.
	Error bool
}

// IsText reports whether the node is a plain text node.
func (v *VNode) IsText() bool {
	return v != nil && v.Tag == "" && !v.IsComment
}
