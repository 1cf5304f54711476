package reactive

// Observer marks a container value (Object or Array) as trackable and
// carries the container's own dependency node. Exactly one Observer exists
// per observed container; Observe is idempotent and reuses an existing
// attachment.
//
// The container dep fires when the container itself is structurally
// mutated (array mutators, key add/delete via Set and Delete), as opposed
// to the per-field deps that fire on value replacement.
type Observer struct {
	id uint64

	// Dep is the container's own dependency node.
	Dep *Dep

	// ownerCount counts how many root state holders share this container.
	ownerCount int
}

// Observe attaches an Observer to a container value, reusing the existing
// one when already attached. Returns nil for non-container values and for
// frozen Objects. asRoot marks the container as a root state holder, which
// guards it against key addition through Set.
func Observe(value any, asRoot bool) *Observer {
	var ob *Observer

	switch v := value.(type) {
	case *Object:
		if v == nil || v.frozen {
			return nil
		}
		if v.ob != nil {
			ob = v.ob
		} else {
			ob = &Observer{id: nextID(), Dep: newDep()}
			v.ob = ob
			v.walk()
		}
	case *Array:
		if v == nil {
			return nil
		}
		if v.ob != nil {
			ob = v.ob
		} else {
			ob = &Observer{id: nextID(), Dep: newDep()}
			v.ob = ob
			v.observeItems()
		}
	default:
		return nil
	}

	if asRoot {
		ob.ownerCount++
	}
	return ob
}

// OwnerCount returns how many root state holders reference the container.
func (ob *Observer) OwnerCount() int {
	if ob == nil {
		return 0
	}
	return ob.ownerCount
}
