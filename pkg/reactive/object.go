package reactive

import (
	"sort"
	"sync"

	"github.com/loom-ui/loom/v2/internal/diag"
)

// Object is a reactive string-keyed record. Each tracked field is backed
// by its own dependency node: Get subscribes the evaluating watcher, Set
// notifies subscribers unless the new value is identical to the old one.
//
// Fields added after construction through plain Object.Set are stored but
// not tracked; the supported path for reactive key addition is the
// package-level Set, which defines the field through the binder and then
// notifies the container's own dep. This mirrors the documented
// limitation of accessor-based reactivity.
type Object struct {
	mu     sync.RWMutex
	ob     *Observer
	frozen bool
	fields map[string]*field
}

// field is one bound property: a dep plus either a stored value or a
// wrapped accessor pair. A nil dep marks a plain (untracked) field, which
// observation leaves as-is.
type field struct {
	dep      *Dep
	value    any
	childOb  *Observer
	shallow  bool
	get      func() any
	set      func(any)
	setGuard func()
}

// FieldOption configures a reactive field definition.
type FieldOption func(*field)

// Shallow disables recursive observation of the field's value; replacing
// the container still notifies, mutating inside it does not.
func Shallow() FieldOption {
	return func(f *field) { f.shallow = true }
}

// SetGuard installs a dev-mode hook invoked on every write to the field,
// used to warn about writes that should go through a controlled path.
func SetGuard(fn func()) FieldOption {
	return func(f *field) { f.setGuard = fn }
}

// Accessor wraps a pre-existing getter/setter pair. Dependency tracking
// and change notification are layered around the originals. A nil set
// makes the field read-only: writes are ignored.
func Accessor(get func() any, set func(any)) FieldOption {
	return func(f *field) {
		f.get = get
		f.set = set
	}
}

// NewObject builds a reactive record from a plain map. Nested plain maps
// and slices are converted to reactive containers recursively.
func NewObject(initial map[string]any) *Object {
	o := &Object{fields: make(map[string]*field, len(initial))}
	for k, v := range initial {
		DefineReactive(o, k, v)
	}
	Observe(o, false)
	return o
}

// DefineReactive binds key on o as an intercepted accessor backed by a
// dedicated dep. An existing field under the same key is replaced.
func DefineReactive(o *Object, key string, value any, opts ...FieldOption) {
	f := &field{dep: newDep()}
	for _, opt := range opts {
		opt(f)
	}
	if f.get == nil {
		f.value = toReactive(value)
		if !f.shallow {
			f.childOb = Observe(f.value, false)
		}
	}

	o.mu.Lock()
	o.fields[key] = f
	o.mu.Unlock()
}

// DefinePlain stores key without interception. Plain fields never
// subscribe or notify; re-observing the object leaves them as-is.
func (o *Object) DefinePlain(key string, value any) {
	o.mu.Lock()
	o.fields[key] = &field{value: value}
	o.mu.Unlock()
}

// Get returns the field value, registering the evaluating watcher as a
// subscriber of the field's dep. If the value is an observed container,
// the watcher also depends on the container's own dep, so replacing the
// container later still notifies; arrays additionally subscribe to every
// observed element, since index reads are not intercepted per element.
//
// Reading a missing key returns nil and registers nothing.
func (o *Object) Get(key string) any {
	o.mu.RLock()
	f := o.fields[key]
	o.mu.RUnlock()
	if f == nil {
		return nil
	}

	var val any
	if f.get != nil {
		val = f.get()
	} else {
		val = f.value
	}

	if f.dep != nil && currentWatcher() != nil {
		f.dep.Depend()
		if f.childOb != nil {
			f.childOb.Dep.Depend()
			if arr, ok := val.(*Array); ok {
				arr.dependItems()
			}
		}
	}
	return val
}

// Set replaces the field value and notifies subscribers. Identical values
// (identity compare, NaN-like treated as unchanged) are a no-op. Writing
// to a missing key stores a plain, untracked field — use reactive.Set for
// the reactive key-addition path.
func (o *Object) Set(key string, value any) {
	o.mu.RLock()
	f := o.fields[key]
	o.mu.RUnlock()

	if f == nil {
		o.DefinePlain(key, value)
		return
	}
	if f.dep == nil {
		o.mu.Lock()
		f.value = value
		o.mu.Unlock()
		return
	}

	var old any
	if f.get != nil {
		old = f.get()
	} else {
		old = f.value
	}
	if sameValue(old, value) {
		return
	}
	if f.setGuard != nil && diag.DevMode {
		f.setGuard()
	}
	if f.get != nil && f.set == nil {
		// Read-only accessor: tracking stays, writes are dropped.
		return
	}

	v := toReactive(value)
	if f.set != nil {
		f.set(v)
	} else {
		o.mu.Lock()
		f.value = v
		o.mu.Unlock()
	}
	if !f.shallow {
		f.childOb = Observe(v, false)
	}
	f.dep.Notify()
}

// Has reports whether key exists on o. It does not register dependencies.
func (o *Object) Has(key string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.fields[key]
	return ok
}

// Keys returns the object's keys in sorted order. It does not register
// dependencies; deep traversal reads each value instead.
func (o *Object) Keys() []string {
	o.mu.RLock()
	keys := make([]string, 0, len(o.fields))
	for k := range o.fields {
		keys = append(keys, k)
	}
	o.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Freeze marks the object as non-observable: Observe returns nil for it
// afterwards, so it is skipped when nested into reactive state. Freeze
// before sharing the object; fields already bound stay bound.
func (o *Object) Freeze() {
	o.mu.Lock()
	o.frozen = true
	o.mu.Unlock()
}

// hasTracked reports whether key exists as a tracked (dep-backed) field.
func (o *Object) hasTracked(key string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	f, ok := o.fields[key]
	return ok && f.dep != nil
}

// deleteKey removes key and reports whether it existed.
func (o *Object) deleteKey(key string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.fields[key]; !ok {
		return false
	}
	delete(o.fields, key)
	return true
}

// walk ensures every tracked field's value is observed. Called once when
// the Observer attaches; plain fields are left as-is.
func (o *Object) walk() {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, f := range o.fields {
		if f.dep != nil && !f.shallow && f.childOb == nil && f.get == nil {
			f.childOb = Observe(f.value, false)
		}
	}
}
