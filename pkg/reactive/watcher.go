package reactive

import (
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/loom-ui/loom/v2/internal/diag"
)

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	// Deep force-reads every nested property of the evaluated value so
	// container mutations anywhere in the subtree re-trigger the watcher.
	Deep bool

	// User marks a user-registered watcher: its getter and callback are
	// error-isolated, so one failing callback never prevents other
	// subscribers of the same dep from running.
	User bool

	// Lazy defers evaluation until EvaluateIfDirty; a notified lazy
	// watcher only marks itself dirty. Used for computed values.
	Lazy bool

	// Sync recomputes immediately on notification instead of going
	// through the scheduler.
	Sync bool

	// Before is invoked by the scheduler just prior to this watcher's
	// recompute during a flush.
	Before func()
}

// Watcher is a computation node: a tracked unit of re-evaluable work.
// While its function runs, every dep it reads subscribes it; after each
// run the dependency sets are reconciled so stale subscriptions are
// dropped. Depending on mode, a notification re-runs it synchronously,
// marks it dirty, or queues it on the scheduler.
type Watcher struct {
	id  uint64
	ctx any

	getter     func(ctx any) any
	cb         func(ctx any, newVal, oldVal any)
	expression string

	deep   bool
	user   bool
	lazy   bool
	sync   bool
	before func()

	active bool
	dirty  bool
	value  any

	depMu     sync.Mutex
	deps      []*Dep
	depIDs    mapset.Set[uint64]
	newDeps   []*Dep
	newDepIDs mapset.Set[uint64]
}

// NewWatcher creates a watcher over exprOrFn, which is either a getter
// (func() any or func(ctx any) any) or a dot-delimited path string
// resolved against ctx. cb fires with (ctx, newVal, oldVal) when the
// evaluated value changes; it may be nil for render-style watchers whose
// getter performs the work. Non-lazy watchers evaluate immediately.
func NewWatcher(ctx any, exprOrFn any, cb func(ctx any, newVal, oldVal any), opts *WatcherOptions) *Watcher {
	w := &Watcher{
		id:        nextID(),
		ctx:       ctx,
		cb:        cb,
		active:    true,
		depIDs:    mapset.NewThreadUnsafeSet[uint64](),
		newDepIDs: mapset.NewThreadUnsafeSet[uint64](),
	}
	if opts != nil {
		w.deep = opts.Deep
		w.user = opts.User
		w.lazy = opts.Lazy
		w.sync = opts.Sync
		w.before = opts.Before
	}

	switch f := exprOrFn.(type) {
	case func() any:
		w.getter = func(any) any { return f() }
		w.expression = "func()"
	case func(ctx any) any:
		w.getter = f
		w.expression = "func(ctx)"
	case string:
		w.expression = f
		getter, err := ParsePath(f)
		if err != nil {
			diag.Warnf("failed watching path %q: %v; watcher only accepts simple dot-delimited paths", f, err)
			w.getter = func(any) any { return nil }
		} else {
			w.getter = getter
		}
	default:
		diag.Warnf("unsupported watch expression of type %T", exprOrFn)
		w.getter = func(any) any { return nil }
	}

	w.dirty = w.lazy
	if !w.lazy {
		w.value = w.get()
	}
	return w
}

// ID returns the unique identifier for this watcher. IDs stamp creation
// order and drive the scheduler's flush ordering.
func (w *Watcher) ID() uint64 {
	return w.id
}

// Active reports whether the watcher has not been torn down.
func (w *Watcher) Active() bool {
	return w.active
}

// Dirty reports whether a lazy watcher needs recomputation.
func (w *Watcher) Dirty() bool {
	return w.dirty
}

// Value returns the last evaluated value without recomputing.
func (w *Watcher) Value() any {
	return w.value
}

// get evaluates the getter with this watcher as the active dependency
// target. The active slot is restored and the dependency sets reconciled
// on every exit path, including a panicking getter.
func (w *Watcher) get() any {
	pushWatcher(w)
	defer func() {
		popWatcher()
		w.cleanupDeps()
	}()

	var value any
	if w.user {
		func() {
			defer func() {
				if r := recover(); r != nil {
					diag.ReportError(diag.Recovered(r), fmt.Sprintf("getter for watcher %q", w.expression))
				}
			}()
			value = w.getter(w.ctx)
		}()
	} else {
		value = w.getter(w.ctx)
	}

	if w.deep {
		traverse(value)
	}
	return value
}

// addDep records d as touched during the current evaluation. The id-set
// keeps the subscription idempotent without scanning subscriber lists.
func (w *Watcher) addDep(d *Dep) {
	w.depMu.Lock()
	defer w.depMu.Unlock()

	if w.newDepIDs.Contains(d.id) {
		return
	}
	w.newDepIDs.Add(d.id)
	w.newDeps = append(w.newDeps, d)
	if !w.depIDs.Contains(d.id) {
		d.addSub(w)
	}
}

// cleanupDeps unsubscribes from deps no longer touched by the latest
// evaluation and promotes the new dep set to current.
func (w *Watcher) cleanupDeps() {
	w.depMu.Lock()
	defer w.depMu.Unlock()

	for _, d := range w.deps {
		if !w.newDepIDs.Contains(d.id) {
			d.removeSub(w)
		}
	}

	w.deps, w.newDeps = w.newDeps, w.deps[:0]
	w.depIDs, w.newDepIDs = w.newDepIDs, w.depIDs
	w.newDepIDs.Clear()
}

// update handles a dependency notification according to the watcher mode.
func (w *Watcher) update() {
	switch {
	case w.lazy:
		w.dirty = true
	case w.sync:
		w.run()
	default:
		queueWatcher(w)
	}
}

// run re-evaluates and fires the callback when the value changed by
// identity, is a container (identity can stay stable while contents
// mutate), or the watcher is deep.
func (w *Watcher) run() {
	if !w.active {
		return
	}

	value := w.get()
	if sameValue(value, w.value) && !isContainer(value) && !w.deep {
		return
	}

	old := w.value
	w.value = value
	if w.cb == nil {
		return
	}
	if w.user {
		func() {
			defer func() {
				if r := recover(); r != nil {
					diag.ReportError(diag.Recovered(r), fmt.Sprintf("callback for watcher %q", w.expression))
				}
			}()
			w.cb(w.ctx, value, old)
		}()
		return
	}
	w.cb(w.ctx, value, old)
}

// Evaluate recomputes the value and clears the dirty flag. Only called
// for lazy watchers.
func (w *Watcher) Evaluate() {
	w.value = w.get()
	w.dirty = false
}

// EvaluateIfDirty recomputes only when a notification has marked the
// watcher dirty since the last evaluation.
func (w *Watcher) EvaluateIfDirty() {
	if w.dirty {
		w.Evaluate()
	}
}

// Depend registers all of this watcher's deps with the currently
// evaluating watcher. Used when a lazy watcher's value is read during
// another evaluation, so the outer watcher inherits the dependencies.
func (w *Watcher) Depend() {
	w.depMu.Lock()
	deps := make([]*Dep, len(w.deps))
	copy(deps, w.deps)
	w.depMu.Unlock()

	for _, d := range deps {
		d.Depend()
	}
}

// Teardown unsubscribes from every dep and marks the watcher inactive.
// Idempotent. A torn-down watcher still queued in the scheduler performs
// no work when its turn arrives.
func (w *Watcher) Teardown() {
	if !w.active {
		return
	}
	w.active = false

	w.depMu.Lock()
	defer w.depMu.Unlock()
	for _, d := range w.deps {
		d.removeSub(w)
	}
	w.deps = nil
	w.newDeps = nil
	w.depIDs.Clear()
	w.newDepIDs.Clear()
}
