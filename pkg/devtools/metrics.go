package devtools

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/loom-ui/loom/v2/pkg/patch"
	"github.com/loom-ui/loom/v2/pkg/reactive"
)

// MetricsConfig configures the Prometheus metrics collector.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "loom").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics collector.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the flush duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "loom",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics collects Prometheus metrics for the reactive scheduler and the
// patch engine.
//
// Metrics collected:
//   - loom_flushes_total: Counter of scheduler flush cycles
//   - loom_flush_duration_seconds: Histogram of flush duration
//   - loom_watcher_runs_total: Counter of watcher evaluations during flushes
//   - loom_patch_ops_total: Counter of patch edits by kind
type Metrics struct {
	flushesTotal  prometheus.Counter
	flushDuration prometheus.Histogram
	watcherRuns   prometheus.Counter
	patchOps      *prometheus.CounterVec
}

// NewMetrics builds the collector and registers its metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		flushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of scheduler flush cycles",
			ConstLabels: config.ConstLabels,
		}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Scheduler flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		watcherRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "watcher_runs_total",
			Help:        "Total number of watcher evaluations during flushes",
			ConstLabels: config.ConstLabels,
		}),

		patchOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patch_ops_total",
			Help:        "Total number of patch edits by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),
	}
}

// FlushObserver returns a callback for reactive.SetFlushObserver.
func (m *Metrics) FlushObserver() func(reactive.FlushStats) {
	return func(stats reactive.FlushStats) {
		m.flushesTotal.Inc()
		m.flushDuration.Observe(stats.Duration.Seconds())
		m.watcherRuns.Add(float64(stats.Watchers))
	}
}

// PatchTrace returns a trace function for patch.WithTrace.
func (m *Metrics) PatchTrace() patch.TraceFunc {
	return func(op patch.Op) {
		m.patchOps.WithLabelValues(op.Kind.String()).Inc()
	}
}
