package patch_test

import (
	"strings"
	"testing"

	"github.com/loom-ui/loom/v2/internal/diag"
	"github.com/loom-ui/loom/v2/pkg/memdom"
	"github.com/loom-ui/loom/v2/pkg/patch"
	"github.com/loom-ui/loom/v2/pkg/vdom"
)

func newTestPatcher(mods ...patch.Module) (*patch.Patcher, *memdom.CountingOps) {
	ops := &memdom.CountingOps{Inner: memdom.Ops{}}
	return patch.NewPatcher(ops, patch.WithModules(mods...)), ops
}

func mountList(t *testing.T, p *patch.Patcher, keys ...string) (*memdom.Node, *vdom.VNode) {
	t.Helper()
	v := list(keys...)
	elm := p.Patch(nil, v)
	n, ok := elm.(*memdom.Node)
	if !ok {
		t.Fatalf("expected a memdom node, got %T", elm)
	}
	return n, v
}

func list(keys ...string) *vdom.VNode {
	children := make([]*vdom.VNode, len(keys))
	for i, k := range keys {
		li := vdom.New("li", nil, vdom.NewText(k))
		li.Key = k
		children[i] = li
	}
	return vdom.New("ul", nil, children...)
}

func liTexts(n *memdom.Node) string {
	parts := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		if len(c.Children) > 0 {
			parts = append(parts, c.Children[0].Text)
		}
	}
	return strings.Join(parts, ",")
}

func TestCreateRendersFullTree(t *testing.T) {
	p, ops := newTestPatcher()

	root, _ := mountList(t, p, "a", "b")
	if got := root.HTML(); got != "<ul><li>a</li><li>b</li></ul>" {
		t.Fatalf("unexpected render: %s", got)
	}
	if ops.N.CreateElement != 3 || ops.N.CreateText != 2 {
		t.Fatalf("unexpected op counts: %+v", ops.N)
	}
}

func TestAppendCreatesOnlyTheNewChild(t *testing.T) {
	p, ops := newTestPatcher()

	root, prev := mountList(t, p, "a", "b")
	ops.Reset()

	next := list("a", "b", "c")
	p.Patch(prev, next)

	if got := liTexts(root); got != "a,b,c" {
		t.Fatalf("unexpected list: %s", got)
	}
	if ops.N.CreateElement != 1 || ops.N.CreateText != 1 {
		t.Fatalf("append created more than the new child: %+v", ops.N)
	}
	if ops.N.RemoveChild != 0 {
		t.Fatalf("append removed nodes: %+v", ops.N)
	}
}

func TestKeyedReorderMovesWithoutCreating(t *testing.T) {
	p, ops := newTestPatcher()

	root, prev := mountList(t, p, "a", "b", "c", "d")
	before := make(map[string]*memdom.Node)
	for _, c := range root.Children {
		before[c.Children[0].Text] = c
	}
	ops.Reset()

	next := list("d", "b", "a", "c")
	p.Patch(prev, next)

	if got := liTexts(root); got != "d,b,a,c" {
		t.Fatalf("unexpected order: %s", got)
	}
	if ops.N.CreateElement != 0 || ops.N.CreateText != 0 {
		t.Fatalf("reorder created nodes: %+v", ops.N)
	}
	// Every element survives the reorder by identity.
	for _, c := range root.Children {
		if before[c.Children[0].Text] != c {
			t.Fatalf("element %q was recreated", c.Children[0].Text)
		}
	}
}

func TestReverseReusesAllElements(t *testing.T) {
	p, ops := newTestPatcher()

	root, prev := mountList(t, p, "a", "b", "c", "d", "e")
	ops.Reset()

	next := list("e", "d", "c", "b", "a")
	p.Patch(prev, next)

	if got := liTexts(root); got != "e,d,c,b,a" {
		t.Fatalf("unexpected order: %s", got)
	}
	if ops.N.CreateElement != 0 {
		t.Fatalf("reverse created elements: %+v", ops.N)
	}
}

func TestRemovalDetachesAndPreservesOrder(t *testing.T) {
	p, _ := newTestPatcher()

	root, prev := mountList(t, p, "a", "b", "c")
	next := list("a", "c")
	p.Patch(prev, next)

	if got := liTexts(root); got != "a,c" {
		t.Fatalf("unexpected list after removal: %s", got)
	}
}

func TestSameKeyDifferentTagReplaces(t *testing.T) {
	p, ops := newTestPatcher()

	li := vdom.New("li", nil, vdom.NewText("a"))
	li.Key = "k"
	prev := vdom.New("ul", nil, li)
	root := p.Patch(nil, prev).(*memdom.Node)
	ops.Reset()

	sp := vdom.New("span", nil, vdom.NewText("a"))
	sp.Key = "k"
	next := vdom.New("ul", nil, sp)
	p.Patch(prev, next)

	if root.Children[0].Tag != "span" {
		t.Fatalf("node with changed tag was not replaced: %s", root.HTML())
	}
	if ops.N.CreateElement != 1 || ops.N.RemoveChild != 1 {
		t.Fatalf("unexpected replace ops: %+v", ops.N)
	}
}

func TestTextUpdateInPlace(t *testing.T) {
	p, ops := newTestPatcher()

	prev := vdom.New("p", nil, vdom.NewText("old"))
	root := p.Patch(nil, prev).(*memdom.Node)
	ops.Reset()

	next := vdom.New("p", nil, vdom.NewText("new"))
	p.Patch(prev, next)

	if got := root.HTML(); got != "<p>new</p>" {
		t.Fatalf("unexpected text update: %s", got)
	}
	if ops.N.CreateText != 0 || ops.N.SetText != 1 {
		t.Fatalf("text update recreated the node: %+v", ops.N)
	}
}

func TestCommentTextUpdate(t *testing.T) {
	p, _ := newTestPatcher()

	prev := vdom.NewEmpty("one")
	elm := p.Patch(nil, prev).(*memdom.Node)

	next := vdom.NewEmpty("two")
	p.Patch(prev, next)

	if elm.Kind != memdom.KindComment || elm.Text != "two" {
		t.Fatalf("comment not updated in place: %+v", elm)
	}
}

func TestRootReplacementRewiresParent(t *testing.T) {
	p, _ := newTestPatcher()

	body := memdom.NewElement("body")
	prev := vdom.New("div", nil, vdom.NewText("x"))
	elm := p.Patch(nil, prev)
	memdom.Ops{}.AppendChild(body, elm)

	next := vdom.New("section", nil, vdom.NewText("x"))
	p.Patch(prev, next)

	if len(body.Children) != 1 || body.Children[0].Tag != "section" {
		t.Fatalf("root replacement left the parent wrong: %s", body.HTML())
	}
}

func TestDuplicateKeysWarnWithoutCrashing(t *testing.T) {
	prevDev := diag.DevMode
	diag.DevMode = true
	defer func() { diag.DevMode = prevDev }()

	var warned string
	old := diag.SetWarnHandler(func(msg string) { warned = msg })
	defer diag.SetWarnHandler(old)

	p, _ := newTestPatcher()
	_, prev := mountList(t, p, "a", "b")

	next := list("a", "a", "b")
	p.Patch(prev, next)

	if !strings.Contains(warned, "duplicate keys") {
		t.Fatalf("expected a duplicate-key warning, got %q", warned)
	}
}

func TestDuplicateNewKeysInKeyMapLookup(t *testing.T) {
	p, ops := newTestPatcher()
	root, prev := mountList(t, p, "b", "a", "c")
	reused := root.Children[1]
	ops.Reset()

	// the first "a" consumes the keyed old slot; the second must fall
	// back to a fresh element instead of dereferencing the hole
	next := list("a", "a")
	p.Patch(prev, next)

	if got := liTexts(root); got != "a,a" {
		t.Fatalf("unexpected children after patch: %s", got)
	}
	if root.Children[0] != reused {
		t.Fatalf("first keyed child was not reused")
	}
	if ops.N.CreateElement != 1 || ops.N.CreateText != 1 {
		t.Fatalf("expected one fresh element for the repeated key, got %+v", ops.N)
	}
}

func TestStaticFastPathSkipsSubtree(t *testing.T) {
	p, ops := newTestPatcher()

	mk := func() *vdom.VNode {
		v := vdom.New("div", nil, vdom.New("span", nil, vdom.NewText("static")))
		v.IsStatic = true
		return v
	}

	prev := mk()
	p.Patch(nil, prev)
	ops.Reset()

	next := vdom.Clone(mk())
	p.Patch(prev, next)

	if ops.N.SetText != 0 || ops.N.CreateElement != 0 {
		t.Fatalf("static subtree was walked: %+v", ops.N)
	}
	if next.Elm != prev.Elm {
		t.Fatalf("static node did not carry the element over")
	}
}

func TestRemoveHookDefersDetach(t *testing.T) {
	p, _ := newTestPatcher()

	var done func()
	child := vdom.New("li", &vdom.Data{Hook: &vdom.Hook{
		Remove: func(v *vdom.VNode, d func()) { done = d },
	}}, vdom.NewText("leaving"))
	child.Key = "x"
	prev := vdom.New("ul", nil, child)
	root := p.Patch(nil, prev).(*memdom.Node)

	next := vdom.New("ul", nil)
	p.Patch(prev, next)

	if len(root.Children) != 1 {
		t.Fatalf("element detached before the remove hook finished")
	}
	done()
	if len(root.Children) != 0 {
		t.Fatalf("element not detached after done")
	}
}

func TestDestroyHooksFireRecursively(t *testing.T) {
	p, _ := newTestPatcher()

	var destroyed []string
	hooked := func(name string, children ...*vdom.VNode) *vdom.VNode {
		return vdom.New("div", &vdom.Data{Hook: &vdom.Hook{
			Destroy: func(*vdom.VNode) { destroyed = append(destroyed, name) },
		}}, children...)
	}

	prev := hooked("parent", hooked("child"))
	p.Patch(nil, prev)
	p.Patch(prev, nil)

	if got := strings.Join(destroyed, ","); got != "parent,child" {
		t.Fatalf("unexpected destroy order: %s", got)
	}
}

func TestModuleHooksRunInRegistrationOrder(t *testing.T) {
	var calls []string
	modA := patch.Module{
		Name:   "a",
		Create: func(_, _ *vdom.VNode) { calls = append(calls, "a.create") },
		Update: func(_, _ *vdom.VNode) { calls = append(calls, "a.update") },
	}
	modB := patch.Module{
		Name:   "b",
		Create: func(_, _ *vdom.VNode) { calls = append(calls, "b.create") },
	}

	p, _ := newTestPatcher(modA, modB)

	prev := vdom.New("div", &vdom.Data{}, vdom.NewText("x"))
	p.Patch(nil, prev)
	if got := strings.Join(calls, ","); got != "a.create,b.create" {
		t.Fatalf("unexpected create order: %s", got)
	}

	calls = nil
	next := vdom.New("div", &vdom.Data{}, vdom.NewText("y"))
	p.Patch(prev, next)
	if got := strings.Join(calls, ","); got != "a.update" {
		t.Fatalf("unexpected update calls: %s", got)
	}
}

func TestAttrsModuleAppliesAndDiffs(t *testing.T) {
	p, _ := newTestPatcher(memdom.AttrsModule())

	prev := vdom.New("div", &vdom.Data{Attrs: map[string]any{"id": "a", "class": "x"}})
	root := p.Patch(nil, prev).(*memdom.Node)
	if root.Attrs["id"] != "a" || root.Attrs["class"] != "x" {
		t.Fatalf("attrs not applied: %v", root.Attrs)
	}

	next := vdom.New("div", &vdom.Data{Attrs: map[string]any{"id": "b"}})
	p.Patch(prev, next)
	if root.Attrs["id"] != "b" {
		t.Fatalf("attr not updated: %v", root.Attrs)
	}
	if _, ok := root.Attrs["class"]; ok {
		t.Fatalf("stale attr kept: %v", root.Attrs)
	}
}

func TestInputTypeChangeForcesReplacement(t *testing.T) {
	p, ops := newTestPatcher()

	mk := func(typ string) *vdom.VNode {
		in := vdom.New("input", &vdom.Data{Attrs: map[string]any{"type": typ}})
		return vdom.New("form", nil, in)
	}

	prev := mk("text")
	root := p.Patch(nil, prev).(*memdom.Node)
	ops.Reset()

	// text -> search: both are text-like, the element is reused.
	mid := mk("search")
	p.Patch(prev, mid)
	if ops.N.CreateElement != 0 {
		t.Fatalf("text-like input switch recreated the element")
	}

	// search -> checkbox: incompatible, replaced.
	next := mk("checkbox")
	p.Patch(mid, next)
	if ops.N.CreateElement != 1 {
		t.Fatalf("incompatible input switch reused the element: %+v", ops.N)
	}
	_ = root
}

func TestMountOnReplacesPlaceholder(t *testing.T) {
	p, _ := newTestPatcher()

	body := memdom.NewElement("body")
	placeholder := memdom.NewElement("div")
	memdom.Ops{}.AppendChild(body, placeholder)

	v := vdom.New("main", nil, vdom.NewText("app"))
	p.MountOn(placeholder, v)

	if len(body.Children) != 1 || body.Children[0].Tag != "main" {
		t.Fatalf("mount did not replace the placeholder: %s", body.HTML())
	}
}

func TestTraceReportsEdits(t *testing.T) {
	var ops []patch.Op
	p := patch.NewPatcher(memdom.Ops{}, patch.WithTrace(func(op patch.Op) {
		ops = append(ops, op)
	}))

	prev := list("a")
	p.Patch(nil, prev)

	var kinds []string
	for _, op := range ops {
		kinds = append(kinds, op.Kind.String())
	}
	joined := strings.Join(kinds, ",")
	if !strings.Contains(joined, "create-element") || !strings.Contains(joined, "create-text") {
		t.Fatalf("trace missing creation edits: %s", joined)
	}
}
