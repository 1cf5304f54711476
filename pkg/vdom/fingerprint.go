package vdom

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint computes a content hash of a subtree: tag, text, comment
// flag, attributes and children, recursively. Static subtrees hoisted out
// of a render function can use it as a stable key, so clones of the same
// static tree hit the reconciler's static fast path across renders.
func Fingerprint(v *VNode) uint64 {
	d := xxhash.New()
	writeNode(d, v)
	return d.Sum64()
}

// StaticKey returns a sibling key derived from the subtree fingerprint.
func StaticKey(v *VNode) string {
	return fmt.Sprintf("static-%x", Fingerprint(v))
}

func writeNode(d *xxhash.Digest, v *VNode) {
	if v == nil {
		d.WriteString("<nil>")
		return
	}
	d.WriteString(v.Tag)
	d.WriteString("\x00")
	d.WriteString(v.Text)
	if v.IsComment {
		d.WriteString("\x01")
	}
	if v.Data != nil && len(v.Data.Attrs) > 0 {
		keys := make([]string, 0, len(v.Data.Attrs))
		for k := range v.Data.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			d.WriteString(k)
			d.WriteString("=")
			d.WriteString(fmt.Sprintf("%v", v.Data.Attrs[k]))
			d.WriteString("\x00")
		}
	}
	for _, c := range v.Children {
		writeNode(d, c)
	}
	d.WriteString("\x02")
}
