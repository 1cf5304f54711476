package reactive

import (
	"errors"
	"strings"
	"testing"

	"github.com/loom-ui/loom/v2/internal/diag"
)

func TestFlushRunsWatchersInCreationOrder(t *testing.T) {
	state := NewObject(map[string]any{"n": 0})

	var order []string
	mk := func(name string) *Watcher {
		return NewWatcher(nil, func(any) any {
			order = append(order, name)
			return state.Get("n")
		}, nil, nil)
	}

	// Creation order stamps ids, so parents created before children flush
	// first regardless of notification order.
	w1 := mk("first")
	w2 := mk("second")
	w3 := mk("third")
	defer w1.Teardown()
	defer w2.Teardown()
	defer w3.Teardown()

	order = nil
	state.Set("n", 1)
	Flush()
	if got := strings.Join(order, ","); got != "first,second,third" {
		t.Fatalf("unexpected flush order: %s", got)
	}
}

func TestQueueDeduplicatesWatcher(t *testing.T) {
	state := NewObject(map[string]any{"a": 0, "b": 0})

	var runs int
	w := NewWatcher(nil, func(any) any {
		runs++
		return []any{state.Get("a"), state.Get("b")}
	}, nil, nil)
	defer w.Teardown()

	Batch(func() {
		state.Set("a", 1)
		state.Set("b", 1)
	})
	if runs != 2 {
		t.Fatalf("expected one coalesced re-run, got %d total runs", runs)
	}
}

func TestNestedBatchFlushesOnce(t *testing.T) {
	state := NewObject(map[string]any{"n": 0})

	var runs int
	w := NewWatcher(nil, func(any) any {
		runs++
		return state.Get("n")
	}, nil, nil)
	defer w.Teardown()

	Batch(func() {
		state.Set("n", 1)
		Batch(func() {
			state.Set("n", 2)
		})
		// Inner batch end must not flush: still inside the outer batch.
		if runs != 1 {
			t.Fatalf("inner batch flushed early: %d runs", runs)
		}
	})
	if runs != 2 {
		t.Fatalf("outer batch did not flush once: %d runs", runs)
	}
}

func TestFlushInsideBatchIsDeferred(t *testing.T) {
	state := NewObject(map[string]any{"n": 0})

	var runs int
	w := NewWatcher(nil, func(any) any {
		runs++
		return state.Get("n")
	}, nil, nil)
	defer w.Teardown()

	Batch(func() {
		state.Set("n", 1)
		Flush()
		if runs != 1 {
			t.Fatalf("explicit flush fired inside the batch: %d runs", runs)
		}
	})
	if runs != 2 {
		t.Fatalf("batch end did not flush: %d runs", runs)
	}
}

func TestNextTickRunsAfterFlush(t *testing.T) {
	state := NewObject(map[string]any{"n": 0})

	var seen any
	w := NewWatcher(nil, func(any) any {
		return state.Get("n")
	}, nil, nil)
	defer w.Teardown()

	state.Set("n", 5)
	NextTick(func() {
		seen = w.Value()
	})
	Flush()
	if seen != 5 {
		t.Fatalf("NextTick observed stale value %v", seen)
	}
}

func TestInactiveWatcherSkippedDuringFlush(t *testing.T) {
	state := NewObject(map[string]any{"n": 0})

	var late *Watcher
	var lateRuns int

	// early flushes first (smaller id) and tears late down mid-flush.
	early := NewWatcher(nil, func(any) any {
		return state.Get("n")
	}, func(any, any, any) {
		late.Teardown()
	}, nil)
	defer early.Teardown()

	late = NewWatcher(nil, func(any) any {
		lateRuns++
		return state.Get("n")
	}, nil, nil)
	defer late.Teardown()

	state.Set("n", 1)
	Flush()
	if lateRuns != 1 {
		t.Fatalf("watcher torn down mid-flush still ran: %d runs", lateRuns)
	}
}

func TestCircularUpdateIsDroppedAndReported(t *testing.T) {
	SetMaxUpdateCount(10)
	defer SetMaxUpdateCount(defaultMaxUpdateCount)

	var reported error
	old := diag.SetErrorHandler(func(err error, context string) {
		reported = err
	})
	defer diag.SetErrorHandler(old)

	state := NewObject(map[string]any{"n": 0})

	w := NewWatcher(nil, func(any) any {
		return state.Get("n")
	}, func(any, newVal, _ any) {
		// Self-perpetuating update.
		state.Set("n", newVal.(int)+1)
	}, &WatcherOptions{User: true})
	defer w.Teardown()

	state.Set("n", 1)
	Flush()

	if reported == nil {
		t.Fatalf("circular update was not reported")
	}
	var derr *diag.Error
	if !errors.As(reported, &derr) {
		t.Fatalf("expected a structured error, got %T", reported)
	}
	if derr.Code != "L201" || derr.Category != diag.CategoryScheduler {
		t.Fatalf("unexpected error identity: %+v", derr)
	}

	// The loop is broken: a later write flushes normally.
	reported = nil
	state.Set("n", -100)
	Flush()
	state.Set("n", -200)
	Flush()
}

func TestFlushObserverReceivesStats(t *testing.T) {
	var got FlushStats
	SetFlushObserver(func(s FlushStats) { got = s })
	defer SetFlushObserver(nil)

	state := NewObject(map[string]any{"n": 0})
	w := NewWatcher(nil, func(any) any {
		return state.Get("n")
	}, nil, nil)
	defer w.Teardown()

	state.Set("n", 1)
	Flush()
	if got.Watchers != 1 {
		t.Fatalf("expected 1 watcher in stats, got %d", got.Watchers)
	}
}

func TestBeforeHookRunsBeforeEachFlushRun(t *testing.T) {
	state := NewObject(map[string]any{"n": 0})

	var order []string
	w := NewWatcher(nil, func(any) any {
		order = append(order, "run")
		return state.Get("n")
	}, nil, &WatcherOptions{Before: func() {
		order = append(order, "before")
	}})
	defer w.Teardown()

	order = nil
	state.Set("n", 1)
	Flush()
	if got := strings.Join(order, ","); got != "before,run" {
		t.Fatalf("unexpected hook ordering: %s", got)
	}
}
