package reactive

import (
	"sort"
	"sync"
)

// Dep is a dependency node: a publisher of change notifications for one
// piece of reactive state. Every reactive field and every observed
// container owns one. Watchers subscribe to it while evaluating and are
// notified when the state behind it mutates.
type Dep struct {
	id uint64

	// subs are the watchers subscribed to this dep.
	// Idempotence of subscription is guaranteed by the watcher's own
	// dep-id set, so addSub never has to scan.
	subs []*Watcher

	// subMu protects the subs slice.
	subMu sync.Mutex
}

func newDep() *Dep {
	return &Dep{id: nextID()}
}

// ID returns the unique identifier for this dep.
func (d *Dep) ID() uint64 {
	return d.id
}

func (d *Dep) addSub(w *Watcher) {
	d.subMu.Lock()
	d.subs = append(d.subs, w)
	d.subMu.Unlock()
}

func (d *Dep) removeSub(w *Watcher) {
	d.subMu.Lock()
	defer d.subMu.Unlock()

	for i, sub := range d.subs {
		if sub.id == w.id {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			return
		}
	}
}

// hasSub reports whether w is currently subscribed. Test hook.
func (d *Dep) hasSub(w *Watcher) bool {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	for _, sub := range d.subs {
		if sub.id == w.id {
			return true
		}
	}
	return false
}

// Depend registers this dep with the watcher currently evaluating, if any.
func (d *Dep) Depend() {
	if w := currentWatcher(); w != nil {
		w.addDep(d)
	}
}

// Notify informs all subscribers that the state behind this dep changed.
// It iterates over a snapshot of the subscriber list, since a callback may
// subscribe or unsubscribe reentrantly during the same pass. Subscribers
// run in ascending creation order (id order), which keeps synchronous
// delivery deterministic; batched watchers re-order themselves in the
// scheduler anyway.
func (d *Dep) Notify() {
	d.subMu.Lock()
	subs := make([]*Watcher, len(d.subs))
	copy(subs, d.subs)
	d.subMu.Unlock()

	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })

	for _, w := range subs {
		w.update()
	}
}
