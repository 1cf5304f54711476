package reactive

import (
	"sort"
	"sync"
)

// Array is a reactive ordered container. In-place mutation is observable
// through the seven intercepted mutators (Push, Pop, Unshift, Shift,
// Splice, Sort, Reverse), each of which observes inserted elements and
// notifies the array's own dep. Index assignment is not interceptable;
// SetAt and RemoveAt are the supported path and are splice-based.
type Array struct {
	mu    sync.RWMutex
	ob    *Observer
	items []any
}

// NewArray builds a reactive array from a plain slice, converting plain
// nested maps and slices recursively.
func NewArray(initial []any) *Array {
	a := &Array{items: make([]any, len(initial))}
	for i, v := range initial {
		a.items[i] = toReactive(v)
	}
	Observe(a, false)
	return a
}

// Len returns the element count, registering a dependency on the array.
func (a *Array) Len() int {
	a.depend()
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

// Get returns the element at index i, registering a dependency on the
// array and on the element's own observer when it is a container. Out of
// range reads return nil.
func (a *Array) Get(i int) any {
	a.depend()
	a.mu.RLock()
	if i < 0 || i >= len(a.items) {
		a.mu.RUnlock()
		return nil
	}
	v := a.items[i]
	a.mu.RUnlock()

	if currentWatcher() != nil {
		if ob := observerOf(v); ob != nil {
			ob.Dep.Depend()
			if nested, ok := v.(*Array); ok {
				nested.dependItems()
			}
		}
	}
	return v
}

// Slice returns a snapshot copy of the elements, registering a dependency
// on the array.
func (a *Array) Slice() []any {
	a.depend()
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]any, len(a.items))
	copy(out, a.items)
	return out
}

// Push appends elements to the end.
func (a *Array) Push(items ...any) {
	conv := convertAll(items)
	a.mu.Lock()
	a.items = append(a.items, conv...)
	a.mu.Unlock()
	a.observeInserted(conv)
	a.notify()
}

// Pop removes and returns the last element, or nil when empty.
func (a *Array) Pop() any {
	a.mu.Lock()
	n := len(a.items)
	if n == 0 {
		a.mu.Unlock()
		return nil
	}
	v := a.items[n-1]
	a.items = a.items[:n-1]
	a.mu.Unlock()
	a.notify()
	return v
}

// Unshift prepends elements to the start.
func (a *Array) Unshift(items ...any) {
	conv := convertAll(items)
	a.mu.Lock()
	a.items = append(conv, a.items...)
	a.mu.Unlock()
	a.observeInserted(conv)
	a.notify()
}

// Shift removes and returns the first element, or nil when empty.
func (a *Array) Shift() any {
	a.mu.Lock()
	if len(a.items) == 0 {
		a.mu.Unlock()
		return nil
	}
	v := a.items[0]
	a.items = append(a.items[:0:0], a.items[1:]...)
	a.mu.Unlock()
	a.notify()
	return v
}

// Splice removes deleteCount elements starting at start, inserts items in
// their place, and returns the removed elements. Bounds are clamped.
func (a *Array) Splice(start, deleteCount int, items ...any) []any {
	conv := convertAll(items)

	a.mu.Lock()
	n := len(a.items)
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if deleteCount < 0 {
		deleteCount = 0
	}
	if start+deleteCount > n {
		deleteCount = n - start
	}

	removed := make([]any, deleteCount)
	copy(removed, a.items[start:start+deleteCount])

	next := make([]any, 0, n-deleteCount+len(conv))
	next = append(next, a.items[:start]...)
	next = append(next, conv...)
	next = append(next, a.items[start+deleteCount:]...)
	a.items = next
	a.mu.Unlock()

	a.observeInserted(conv)
	a.notify()
	return removed
}

// Sort sorts the elements in place using less, stably.
func (a *Array) Sort(less func(x, y any) bool) {
	a.mu.Lock()
	sort.SliceStable(a.items, func(i, j int) bool {
		return less(a.items[i], a.items[j])
	})
	a.mu.Unlock()
	a.notify()
}

// Reverse reverses the elements in place.
func (a *Array) Reverse() {
	a.mu.Lock()
	for i, j := 0, len(a.items)-1; i < j; i, j = i+1, j-1 {
		a.items[i], a.items[j] = a.items[j], a.items[i]
	}
	a.mu.Unlock()
	a.notify()
}

// SetAt replaces the element at index i through the splice path. Setting
// at index Len() appends.
func (a *Array) SetAt(i int, v any) {
	if i == a.rawLen() {
		a.Push(v)
		return
	}
	a.Splice(i, 1, v)
}

// RemoveAt removes the element at index i through the splice path.
func (a *Array) RemoveAt(i int) {
	a.Splice(i, 1)
}

func (a *Array) rawLen() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

func (a *Array) depend() {
	if a.ob != nil && currentWatcher() != nil {
		a.ob.Dep.Depend()
	}
}

// dependItems subscribes the evaluating watcher to every observed element,
// recursively. Array index reads cannot be intercepted per element, so
// reads of the array must pessimistically subscribe to all of them.
func (a *Array) dependItems() {
	a.mu.RLock()
	items := make([]any, len(a.items))
	copy(items, a.items)
	a.mu.RUnlock()

	for _, v := range items {
		if ob := observerOf(v); ob != nil {
			ob.Dep.Depend()
			if nested, ok := v.(*Array); ok {
				nested.dependItems()
			}
		}
	}
}

func (a *Array) observeItems() {
	a.mu.RLock()
	items := make([]any, len(a.items))
	copy(items, a.items)
	a.mu.RUnlock()

	for _, v := range items {
		Observe(v, false)
	}
}

func (a *Array) observeInserted(items []any) {
	for _, v := range items {
		Observe(v, false)
	}
}

func (a *Array) notify() {
	if a.ob != nil {
		a.ob.Dep.Notify()
	}
}

func convertAll(items []any) []any {
	conv := make([]any, len(items))
	for i, v := range items {
		conv[i] = toReactive(v)
	}
	return conv
}
