package memdom

import "github.com/loom-ui/loom/v2/pkg/patch"

// Counts tallies backend calls per operation.
type Counts struct {
	CreateElement int
	CreateText    int
	CreateComment int
	AppendChild   int
	InsertBefore  int
	RemoveChild   int
	SetText       int
}

// CountingOps wraps a backend and counts mutating calls. Tests use it to
// pin down exactly which operations a patch performed.
type CountingOps struct {
	Inner patch.NodeOps
	N     Counts
}

var _ patch.NodeOps = (*CountingOps)(nil)
var _ patch.ChildLister = (*CountingOps)(nil)

// Reset zeroes the counters.
func (c *CountingOps) Reset() {
	c.N = Counts{}
}

func (c *CountingOps) CreateElement(tag string) patch.Node {
	c.N.CreateElement++
	return c.Inner.CreateElement(tag)
}

func (c *CountingOps) CreateElementNS(ns, tag string) patch.Node {
	c.N.CreateElement++
	return c.Inner.CreateElementNS(ns, tag)
}

func (c *CountingOps) CreateTextNode(text string) patch.Node {
	c.N.CreateText++
	return c.Inner.CreateTextNode(text)
}

func (c *CountingOps) CreateComment(text string) patch.Node {
	c.N.CreateComment++
	return c.Inner.CreateComment(text)
}

func (c *CountingOps) AppendChild(parent, child patch.Node) {
	c.N.AppendChild++
	c.Inner.AppendChild(parent, child)
}

func (c *CountingOps) InsertBefore(parent, node, ref patch.Node) {
	c.N.InsertBefore++
	c.Inner.InsertBefore(parent, node, ref)
}

func (c *CountingOps) RemoveChild(parent, child patch.Node) {
	c.N.RemoveChild++
	c.Inner.RemoveChild(parent, child)
}

func (c *CountingOps) ParentNode(node patch.Node) patch.Node {
	return c.Inner.ParentNode(node)
}

func (c *CountingOps) NextSibling(node patch.Node) patch.Node {
	return c.Inner.NextSibling(node)
}

func (c *CountingOps) SetTextContent(node patch.Node, text string) {
	c.N.SetText++
	c.Inner.SetTextContent(node, text)
}

func (c *CountingOps) TagName(node patch.Node) string {
	return c.Inner.TagName(node)
}

func (c *CountingOps) SetStyleScope(node patch.Node, scope string) {
	c.Inner.SetStyleScope(node, scope)
}

func (c *CountingOps) FirstChild(node patch.Node) patch.Node {
	if l, ok := c.Inner.(patch.ChildLister); ok {
		return l.FirstChild(node)
	}
	return nil
}
