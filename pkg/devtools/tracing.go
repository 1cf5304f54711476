package devtools

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/loom-ui/loom/v2/pkg/reactive"
)

// Default tracer name for loom applications.
const defaultTracerName = "loom"

// TracingConfig configures the OpenTelemetry flush tracer.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "loom").
	TracerName string

	// Filter determines which flushes to trace. Return true to trace the
	// flush, false to skip. If nil, all flushes are traced.
	Filter func(stats reactive.FlushStats) bool

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// TracingOption configures the OpenTelemetry flush tracer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithFlushFilter sets the flush filter.
func WithFlushFilter(filter func(stats reactive.FlushStats) bool) TracingOption {
	return func(c *TracingConfig) {
		c.Filter = filter
	}
}

// FlushTracer returns a callback for reactive.SetFlushObserver that records
// one span per flush cycle. The scheduler reports after the fact, so the
// span start time is backdated by the measured duration.
func FlushTracer(opts ...TracingOption) func(reactive.FlushStats) {
	config := &TracingConfig{
		TracerName: defaultTracerName,
	}
	for _, opt := range opts {
		opt(config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	return func(stats reactive.FlushStats) {
		if config.Filter != nil && !config.Filter(stats) {
			return
		}
		end := time.Now()
		start := end.Add(-stats.Duration)
		_, span := config.tracer.Start(context.Background(), "loom.flush",
			trace.WithTimestamp(start),
			trace.WithAttributes(
				attribute.Int("loom.watchers", stats.Watchers),
			),
		)
		span.End(trace.WithTimestamp(end))
	}
}
