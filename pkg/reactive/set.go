package reactive

import "github.com/loom-ui/loom/v2/internal/diag"

// Set assigns key on a reactive container through the supported reactive
// path. For Arrays the key is an index and the write goes through the
// splice-based interceptor. For Objects, an existing tracked field is
// written through its binder; a new key is defined reactive and the
// container's own dep is notified, which is what makes post-construction
// key addition observable at all.
func Set(target any, key any, value any) any {
	switch t := target.(type) {
	case *Array:
		i, ok := asIndex(key)
		if !ok {
			diag.Warnf("invalid array index %v in reactive.Set", key)
			return value
		}
		t.SetAt(i, value)
		return value

	case *Object:
		k, ok := key.(string)
		if !ok {
			diag.Warnf("invalid object key %v (%T) in reactive.Set", key, key)
			return value
		}
		if t.hasTracked(k) {
			t.Set(k, value)
			return value
		}
		if t.ob != nil && t.ob.ownerCount > 0 {
			diag.Warnf("avoid adding reactive key %q to a root state object; declare it upfront instead", k)
			return value
		}
		if t.ob == nil {
			// Unobserved target: plain assignment, nothing to notify.
			t.Set(k, value)
			return value
		}
		DefineReactive(t, k, value)
		t.ob.Dep.Notify()
		return value
	}

	diag.Warnf("cannot set reactive key on %T", target)
	return value
}

// Delete removes key from a reactive container and notifies. For Arrays
// the removal goes through the splice-based interceptor; for Objects the
// container's own dep is notified when the key existed.
func Delete(target any, key any) {
	switch t := target.(type) {
	case *Array:
		i, ok := asIndex(key)
		if !ok {
			diag.Warnf("invalid array index %v in reactive.Delete", key)
			return
		}
		t.RemoveAt(i)
		return

	case *Object:
		k, ok := key.(string)
		if !ok {
			diag.Warnf("invalid object key %v (%T) in reactive.Delete", key, key)
			return
		}
		if !t.deleteKey(k) {
			return
		}
		if t.ob != nil {
			t.ob.Dep.Notify()
		}
		return
	}

	diag.Warnf("cannot delete reactive key on %T", target)
}

func asIndex(key any) (int, bool) {
	switch k := key.(type) {
	case int:
		return k, k >= 0
	case int64:
		return int(k), k >= 0
	case uint:
		return int(k), true
	}
	return 0, false
}
