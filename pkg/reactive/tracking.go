package reactive

import (
	"runtime"
	"sync"
)

// trackingContext holds the reactive evaluation state for a goroutine.
// The engine is single-threaded cooperative, but keying the state by
// goroutine keeps independent render loops (tests, sessions) from sharing
// an active-watcher slot.
type trackingContext struct {
	// current is the watcher whose evaluation is in progress. Signal reads
	// register dependencies against it. nil means no tracking.
	current *Watcher

	// stack holds suspended watchers for nested evaluations, e.g. a lazy
	// computed watcher read during a render.
	stack []*Watcher

	// batchDepth tracks nested Batch() calls. While > 0, the scheduler
	// defers its flush until the outermost batch completes.
	batchDepth int
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// getGoroutineID returns a unique identifier for the current goroutine,
// parsed from the runtime stack header ("goroutine <id> ...").
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := 10; i < n; i++ { // skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTrackingContext returns the tracking context for the current
// goroutine, creating one if needed.
func getTrackingContext() *trackingContext {
	gid := getGoroutineID()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}

	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// currentWatcher returns the watcher currently collecting dependencies,
// or nil when no tracked evaluation is in progress.
func currentWatcher() *Watcher {
	return getTrackingContext().current
}

// pushWatcher makes w the active dependency target, suspending the
// previous occupant on the stack.
func pushWatcher(w *Watcher) {
	ctx := getTrackingContext()
	ctx.stack = append(ctx.stack, ctx.current)
	ctx.current = w
}

// popWatcher restores the previously active watcher. Push and pop must
// nest strictly; evaluation paths guarantee the pop even on panic.
func popWatcher() {
	ctx := getTrackingContext()
	n := len(ctx.stack)
	if n == 0 {
		ctx.current = nil
		return
	}
	ctx.current = ctx.stack[n-1]
	ctx.stack = ctx.stack[:n-1]
}

// Untracked runs fn without registering dependencies for signal reads.
func Untracked(fn func()) {
	pushWatcher(nil)
	defer popWatcher()
	fn()
}

func batchDepth() int {
	return getTrackingContext().batchDepth
}

func incrementBatchDepth() {
	getTrackingContext().batchDepth++
}

// decrementBatchDepth decreases the batch depth and reports whether the
// outermost batch just completed.
func decrementBatchDepth() bool {
	ctx := getTrackingContext()
	ctx.batchDepth--
	return ctx.batchDepth == 0
}
