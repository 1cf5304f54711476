package reactive

import (
	"math"
	"reflect"
)

// toReactive converts plain composite values into reactive containers.
// Plain maps become Objects, plain slices become Arrays; everything else
// (scalars and already-reactive containers) passes through unchanged.
func toReactive(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return NewObject(t)
	case []any:
		return NewArray(t)
	default:
		return v
	}
}

// observerOf returns the Observer attached to a container value, or nil
// when the value is not an observed container.
func observerOf(v any) *Observer {
	switch t := v.(type) {
	case *Object:
		if t != nil {
			return t.ob
		}
	case *Array:
		if t != nil {
			return t.ob
		}
	}
	return nil
}

// isContainer reports whether v is a reactive container. Container
// identity can stay stable while contents mutate, which is why watcher
// callbacks fire for containers even when old and new compare equal.
func isContainer(v any) bool {
	switch v.(type) {
	case *Object, *Array:
		return true
	default:
		return false
	}
}

// sameValue compares old and new by identity. NaN-like values (unequal to
// themselves) are treated as unchanged. Uncomparable values always count
// as changed.
func sameValue(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			if math.IsNaN(av) && math.IsNaN(bv) {
				return true
			}
			return av == bv
		}
		return false
	case float32:
		if bv, ok := b.(float32); ok {
			if math.IsNaN(float64(av)) && math.IsNaN(float64(bv)) {
				return true
			}
			return av == bv
		}
		return false
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
