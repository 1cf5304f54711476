package patch

// Node is an opaque handle to one output-tree node. Its concrete type is
// owned by the NodeOps backend; the patch engine only threads it through.
type Node = any

// NodeOps is the abstract node-operations backend the reconciler applies
// its edit sequence through. Implementations exist per host environment
// (a live DOM bridge, the in-memory tree in package memdom).
type NodeOps interface {
	CreateElement(tag string) Node
	CreateElementNS(ns, tag string) Node
	CreateTextNode(text string) Node
	CreateComment(text string) Node

	AppendChild(parent, child Node)
	InsertBefore(parent, node, ref Node)
	RemoveChild(parent, child Node)

	ParentNode(node Node) Node
	NextSibling(node Node) Node

	SetTextContent(node Node, text string)
	TagName(node Node) string

	// SetStyleScope attributes a node to a scoped-styling context.
	SetStyleScope(node Node, scope string)
}

// ChildLister is an optional backend capability: enumerating the first
// child of an existing node. Backends that implement it get recursive
// hydration matching; others fall back to re-creating children.
type ChildLister interface {
	FirstChild(node Node) Node
}
