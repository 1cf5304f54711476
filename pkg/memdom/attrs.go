package memdom

import (
	"reflect"

	"github.com/loom-ui/loom/v2/pkg/patch"
	"github.com/loom-ui/loom/v2/pkg/vdom"
)

// AttrsModule returns a lifecycle module that applies vnode attribute data
// to memdom elements on create and diffs it on update.
func AttrsModule() patch.Module {
	return patch.Module{
		Name:   "attrs",
		Create: updateAttrs,
		Update: updateAttrs,
	}
}

func updateAttrs(old, v *vdom.VNode) {
	elm, ok := v.Elm.(*Node)
	if !ok || elm.Kind != KindElement {
		return
	}
	var oldAttrs map[string]any
	if old != nil && old.Data != nil {
		oldAttrs = old.Data.Attrs
	}
	var newAttrs map[string]any
	if v.Data != nil {
		newAttrs = v.Data.Attrs
	}

	for k, val := range newAttrs {
		if cur, ok := elm.Attrs[k]; !ok || !attrEqual(cur, val) {
			elm.SetAttr(k, val)
		}
	}
	for k := range oldAttrs {
		if _, ok := newAttrs[k]; !ok {
			delete(elm.Attrs, k)
		}
	}
}

func attrEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
