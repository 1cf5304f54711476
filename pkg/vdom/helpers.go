package vdom

import "fmt"

// New creates an element node.
func New(tag string, data *Data, children ...*VNode) *VNode {
	return &VNode{
		Tag:      tag,
		Data:     data,
		Children: children,
	}
}

// NewText creates a text node.
func NewText(text string) *VNode {
	return &VNode{Text: text}
}

// NewTextf creates a formatted text node.
func NewTextf(format string, args ...any) *VNode {
	return NewText(fmt.Sprintf(format, args...))
}

// NewEmpty creates a comment (placeholder) node.
func NewEmpty(text string) *VNode {
	return &VNode{Text: text, IsComment: true}
}

// Clone shallow-copies a node. Scalar fields are copied, the children
// list is sliced so the parent array is never shared by reference between
// two renders, and the result is marked as a clone. Used for static
// subtrees and slot content reused across renders, which must not alias
// the previous render's tree.
func Clone(v *VNode) *VNode {
	if v == nil {
		return nil
	}
	cloned := *v
	if v.Children != nil {
		cloned.Children = append([]*VNode(nil), v.Children...)
	}
	cloned.IsCloned = true
	return &cloned
}
