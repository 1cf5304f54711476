package patch_test

import (
	"strings"
	"testing"

	"github.com/loom-ui/loom/v2/internal/diag"
	"github.com/loom-ui/loom/v2/pkg/memdom"
	"github.com/loom-ui/loom/v2/pkg/patch"
	"github.com/loom-ui/loom/v2/pkg/vdom"
)

// serverRender mimics pre-rendered output for the given tree.
func serverRender(v *vdom.VNode) *memdom.Node {
	switch {
	case v.Tag != "":
		n := memdom.NewElement(v.Tag)
		for _, c := range v.Children {
			child := serverRender(c)
			child.Parent = n
			n.Children = append(n.Children, child)
		}
		return n
	case v.IsComment:
		return &memdom.Node{Kind: memdom.KindComment, Text: v.Text}
	default:
		return memdom.NewText(v.Text)
	}
}

func TestHydrateAdoptsMatchingTree(t *testing.T) {
	p := patch.NewPatcher(memdom.Ops{})

	v := vdom.New("div", nil,
		vdom.New("span", nil, vdom.NewText("hello")),
		vdom.NewEmpty("marker"),
	)
	existing := serverRender(v)

	got := p.HydrateOn(existing, v)
	if got != existing {
		t.Fatalf("hydration re-created the tree")
	}
	if v.Elm != existing {
		t.Fatalf("root handle not attached")
	}
	span := v.Children[0]
	if span.Elm != existing.Children[0] {
		t.Fatalf("child handle not attached")
	}
}

func TestHydrateMismatchFallsBackToFreshRender(t *testing.T) {
	prevDev := diag.DevMode
	diag.DevMode = true
	defer func() { diag.DevMode = prevDev }()

	var warned string
	old := diag.SetWarnHandler(func(msg string) { warned = msg })
	defer diag.SetWarnHandler(old)

	p := patch.NewPatcher(memdom.Ops{})

	// Server rendered a <p>, client expects a <span>.
	existing := serverRender(vdom.New("div", nil, vdom.New("p", nil, vdom.NewText("x"))))
	body := memdom.NewElement("body")
	memdom.Ops{}.AppendChild(body, existing)

	v := vdom.New("div", nil, vdom.New("span", nil, vdom.NewText("x")))
	got := p.HydrateOn(existing, v).(*memdom.Node)

	if !strings.Contains(warned, "hydration mismatch") {
		t.Fatalf("expected a mismatch warning, got %q", warned)
	}
	if got == existing {
		t.Fatalf("mismatched tree was adopted")
	}
	if len(body.Children) != 1 || body.Children[0] != got {
		t.Fatalf("fresh render did not replace the server tree: %s", body.HTML())
	}
	if body.Children[0].Children[0].Tag != "span" {
		t.Fatalf("fresh render has wrong content: %s", body.HTML())
	}
}

func TestHydrateExtraServerNodesMismatch(t *testing.T) {
	p := patch.NewPatcher(memdom.Ops{})

	server := vdom.New("ul", nil,
		vdom.New("li", nil, vdom.NewText("a")),
		vdom.New("li", nil, vdom.NewText("b")),
	)
	existing := serverRender(server)
	body := memdom.NewElement("body")
	memdom.Ops{}.AppendChild(body, existing)

	v := vdom.New("ul", nil, vdom.New("li", nil, vdom.NewText("a")))
	got := p.HydrateOn(existing, v).(*memdom.Node)

	if got == existing {
		t.Fatalf("tree with extra server children was adopted")
	}
	if len(body.Children[0].Children) != 1 {
		t.Fatalf("fresh render kept stale children: %s", body.HTML())
	}
}

func TestHydrateAsyncPlaceholder(t *testing.T) {
	p := patch.NewPatcher(memdom.Ops{})

	v := vdom.NewEmpty("")
	v.AsyncFactory = &vdom.AsyncFactory{}
	existing := &memdom.Node{Kind: memdom.KindComment}

	if got := p.HydrateOn(existing, v); got != existing {
		t.Fatalf("async placeholder comment was not adopted")
	}
	if !v.IsAsyncPlaceholder {
		t.Fatalf("placeholder flag not set during hydration")
	}
}

func TestHydrateInsertHooksFire(t *testing.T) {
	p := patch.NewPatcher(memdom.Ops{})

	var inserted bool
	v := vdom.New("div", &vdom.Data{Hook: &vdom.Hook{
		Insert: func(*vdom.VNode) { inserted = true },
	}})
	existing := serverRender(v)

	p.HydrateOn(existing, v)
	if !inserted {
		t.Fatalf("insert hook did not fire after successful hydration")
	}
}
