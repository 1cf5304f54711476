package reactive

import mapset "github.com/deckarep/golang-set/v2"

// traverse force-reads every nested property of val so that each observed
// container's dep registers with the evaluating watcher. Frozen containers
// carry no observer and are skipped. Cycles through parent back-references
// are guarded by a per-traversal visited set keyed on container dep ids.
func traverse(val any) {
	seen := mapset.NewThreadUnsafeSet[uint64]()
	traverseRecur(val, seen)
}

func traverseRecur(val any, seen mapset.Set[uint64]) {
	switch v := val.(type) {
	case *Array:
		if v == nil || v.ob == nil {
			return
		}
		id := v.ob.Dep.id
		if seen.Contains(id) {
			return
		}
		seen.Add(id)
		n := v.Len()
		for i := 0; i < n; i++ {
			traverseRecur(v.Get(i), seen)
		}
	case *Object:
		if v == nil || v.ob == nil {
			return
		}
		id := v.ob.Dep.id
		if seen.Contains(id) {
			return
		}
		seen.Add(id)
		for _, k := range v.Keys() {
			traverseRecur(v.Get(k), seen)
		}
	}
}
