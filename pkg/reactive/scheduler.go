package reactive

import (
	"sort"
	"time"

	"github.com/loom-ui/loom/v2/internal/diag"
)

// defaultMaxUpdateCount is the circular-update guard threshold: a watcher
// re-queued more than this many times within one flush is dropped and
// reported instead of looping forever.
const defaultMaxUpdateCount = 100

var maxUpdateCount = defaultMaxUpdateCount

// SetMaxUpdateCount overrides the circular-update guard threshold.
// Values below 1 are ignored.
func SetMaxUpdateCount(n int) {
	if n > 0 {
		maxUpdateCount = n
	}
}

// FlushStats describes one completed scheduler flush.
type FlushStats struct {
	// Watchers is the number of watcher recomputes the flush performed.
	Watchers int

	// Duration is the wall time of the flush.
	Duration time.Duration
}

// schedulerState is the single pending queue for async watchers. It is
// mutated only from the engine's execution thread; reentrancy during a
// flush is expected (a running watcher may queue others, including
// itself) and handled by walking the queue by index rather than by
// snapshot.
type schedulerState struct {
	queue      []*Watcher
	has        map[uint64]bool
	circular   map[uint64]int
	flushing   bool
	index      int
	afterFlush []func()
	observer   func(FlushStats)
}

var sched = &schedulerState{
	has:      make(map[uint64]bool),
	circular: make(map[uint64]int),
}

// SetFlushObserver installs a hook invoked after every flush. Used by the
// devtools instrumentation; pass nil to remove.
func SetFlushObserver(fn func(FlushStats)) {
	sched.observer = fn
}

// queueWatcher enqueues a watcher for the next flush, deduplicated by id.
// If a flush is in progress the watcher is spliced into its id-sorted
// position after the current index, so it still runs in the same pass.
func queueWatcher(w *Watcher) {
	if sched.has[w.id] {
		return
	}
	sched.has[w.id] = true

	if !sched.flushing {
		sched.queue = append(sched.queue, w)
		return
	}

	i := len(sched.queue) - 1
	for i > sched.index && sched.queue[i].id > w.id {
		i--
	}
	sched.queue = append(sched.queue, nil)
	copy(sched.queue[i+2:], sched.queue[i+1:])
	sched.queue[i+1] = w
}

// Batch groups state mutations: async watchers notified inside run once,
// when the outermost batch completes. Batches nest.
func Batch(fn func()) {
	incrementBatchDepth()
	defer func() {
		if decrementBatchDepth() {
			Flush()
		}
	}()
	fn()
}

// NextTick queues fn to run after the next flush completes.
func NextTick(fn func()) {
	sched.afterFlush = append(sched.afterFlush, fn)
}

// Flush runs all pending watchers in ascending id order — creation order,
// which guarantees a parent recomputes before the children it created.
// Flush is the tick boundary: Batch invokes it when the outermost batch
// completes, and hosts driving their own event loop call it after each
// event. Watchers queued during the flush join the same pass. Inside a
// batch Flush is a no-op; the outermost Batch flushes on completion.
func Flush() {
	if sched.flushing || batchDepth() > 0 {
		return
	}
	sched.flushing = true
	start := time.Now()

	sort.Slice(sched.queue, func(i, j int) bool {
		return sched.queue[i].id < sched.queue[j].id
	})

	ran := 0
	for sched.index = 0; sched.index < len(sched.queue); sched.index++ {
		w := sched.queue[sched.index]
		if !w.active {
			delete(sched.has, w.id)
			continue
		}
		if w.before != nil {
			w.before()
		}
		delete(sched.has, w.id)
		ran++
		w.run()

		// Re-queued during its own run: allow it, bounded.
		if sched.has[w.id] {
			sched.circular[w.id]++
			if sched.circular[w.id] > maxUpdateCount {
				dropPending(w.id)
				diag.ReportError(
					diag.Newf("L201", diag.CategoryScheduler,
						"infinite update loop in watcher %q", w.expression),
					"scheduler flush")
			}
		}
	}

	stats := FlushStats{Watchers: ran, Duration: time.Since(start)}
	sched.queue = sched.queue[:0]
	sched.index = 0
	sched.has = make(map[uint64]bool)
	sched.circular = make(map[uint64]int)
	sched.flushing = false

	cbs := sched.afterFlush
	sched.afterFlush = nil
	for _, cb := range cbs {
		cb()
	}

	if sched.observer != nil {
		sched.observer(stats)
	}
}

// dropPending removes a watcher's re-queued entry so the flush can make
// progress past it.
func dropPending(id uint64) {
	delete(sched.has, id)
	for i := sched.index + 1; i < len(sched.queue); i++ {
		if sched.queue[i].id == id {
			sched.queue = append(sched.queue[:i], sched.queue[i+1:]...)
			return
		}
	}
}
