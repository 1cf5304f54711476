package devtools

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/loom-ui/loom/v2/pkg/patch"
	"github.com/loom-ui/loom/v2/pkg/reactive"
)

func TestMetricsObserveFlushAndPatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))

	observe := m.FlushObserver()
	observe(reactive.FlushStats{Watchers: 3, Duration: 5 * time.Millisecond})
	observe(reactive.FlushStats{Watchers: 1, Duration: time.Millisecond})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.flushesTotal))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.watcherRuns))

	trace := m.PatchTrace()
	trace(patch.Op{Kind: patch.OpCreateElement, Tag: "div"})
	trace(patch.Op{Kind: patch.OpCreateElement, Tag: "span"})
	trace(patch.Op{Kind: patch.OpMove})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.patchOps.WithLabelValues("create-element")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.patchOps.WithLabelValues("move")))
}

func TestServerPatchTraceNeverBlocks(t *testing.T) {
	srv := NewServer("localhost:0")
	trace := srv.PatchTrace()

	// No broadcast loop is running; the buffer must absorb or drop every
	// edit without stalling the caller.
	for i := 0; i < traceBuffer*2; i++ {
		trace(patch.Op{Kind: patch.OpPatch})
	}
	assert.Len(t, srv.traces, traceBuffer)
}
