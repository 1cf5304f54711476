// Package memdom is an in-memory output tree implementing the patch
// backend. It backs server-side rendering and lets tests assert on exact
// node operations without a browser.
package memdom

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/loom-ui/loom/v2/pkg/patch"
)

// Kind discriminates node types.
type Kind uint8

const (
	KindElement Kind = iota
	KindText
	KindComment
)

// Node is one in-memory output node.
type Node struct {
	Kind       Kind
	Tag        string
	NS         string
	Text       string
	Attrs      map[string]any
	StyleScope string
	Children   []*Node
	Parent     *Node
}

// NewElement returns a detached element node.
func NewElement(tag string) *Node {
	return &Node{Kind: KindElement, Tag: tag}
}

// NewText returns a detached text node.
func NewText(text string) *Node {
	return &Node{Kind: KindText, Text: text}
}

// SetAttr sets one attribute, allocating the map on first use.
func (n *Node) SetAttr(key string, value any) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]any)
	}
	n.Attrs[key] = value
}

// FirstChild returns the first child or nil.
func (n *Node) FirstChild() *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.Children {
		if c == child {
			return i
		}
	}
	return -1
}

func (n *Node) detach() {
	p := n.Parent
	if p == nil {
		return
	}
	if i := p.indexOf(n); i >= 0 {
		p.Children = append(p.Children[:i], p.Children[i+1:]...)
	}
	n.Parent = nil
}

// HTML serializes the subtree. Attributes print in sorted order so output
// is stable for assertions.
func (n *Node) HTML() string {
	var b strings.Builder
	n.writeHTML(&b)
	return b.String()
}

func (n *Node) writeHTML(b *strings.Builder) {
	switch n.Kind {
	case KindText:
		b.WriteString(html.EscapeString(n.Text))
	case KindComment:
		b.WriteString("<!--")
		b.WriteString(n.Text)
		b.WriteString("-->")
	case KindElement:
		b.WriteByte('<')
		b.WriteString(n.Tag)
		keys := make([]string, 0, len(n.Attrs))
		for k := range n.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(b, " %s=%q", k, fmt.Sprint(n.Attrs[k]))
		}
		if n.StyleScope != "" {
			fmt.Fprintf(b, " %s", n.StyleScope)
		}
		b.WriteByte('>')
		for _, c := range n.Children {
			c.writeHTML(b)
		}
		fmt.Fprintf(b, "</%s>", n.Tag)
	}
}

// Ops implements patch.NodeOps over *Node handles.
type Ops struct{}

var _ patch.NodeOps = Ops{}
var _ patch.ChildLister = Ops{}

func (Ops) CreateElement(tag string) patch.Node {
	return NewElement(tag)
}

func (Ops) CreateElementNS(ns, tag string) patch.Node {
	n := NewElement(tag)
	n.NS = ns
	return n
}

func (Ops) CreateTextNode(text string) patch.Node {
	return NewText(text)
}

func (Ops) CreateComment(text string) patch.Node {
	return &Node{Kind: KindComment, Text: text}
}

func (Ops) AppendChild(parent, child patch.Node) {
	p, c := parent.(*Node), child.(*Node)
	c.detach()
	c.Parent = p
	p.Children = append(p.Children, c)
}

func (Ops) InsertBefore(parent, node, ref patch.Node) {
	p, n := parent.(*Node), node.(*Node)
	n.detach()
	if ref == nil {
		n.Parent = p
		p.Children = append(p.Children, n)
		return
	}
	i := p.indexOf(ref.(*Node))
	if i < 0 {
		n.Parent = p
		p.Children = append(p.Children, n)
		return
	}
	n.Parent = p
	p.Children = append(p.Children[:i], append([]*Node{n}, p.Children[i:]...)...)
}

func (Ops) RemoveChild(parent, child patch.Node) {
	c := child.(*Node)
	if c.Parent == parent.(*Node) {
		c.detach()
	}
}

func (Ops) ParentNode(node patch.Node) patch.Node {
	if p := node.(*Node).Parent; p != nil {
		return p
	}
	return nil
}

func (Ops) NextSibling(node patch.Node) patch.Node {
	n := node.(*Node)
	if n.Parent == nil {
		return nil
	}
	i := n.Parent.indexOf(n)
	if i < 0 || i+1 >= len(n.Parent.Children) {
		return nil
	}
	return n.Parent.Children[i+1]
}

func (Ops) SetTextContent(node patch.Node, text string) {
	n := node.(*Node)
	if n.Kind == KindElement {
		for _, c := range n.Children {
			c.Parent = nil
		}
		n.Children = nil
		if text != "" {
			t := NewText(text)
			t.Parent = n
			n.Children = []*Node{t}
		}
		return
	}
	n.Text = text
}

func (Ops) TagName(node patch.Node) string {
	return node.(*Node).Tag
}

func (Ops) SetStyleScope(node patch.Node, scope string) {
	node.(*Node).StyleScope = scope
}

func (Ops) FirstChild(node patch.Node) patch.Node {
	if c := node.(*Node).FirstChild(); c != nil {
		return c
	}
	return nil
}
