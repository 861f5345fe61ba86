package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	BuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "weave_builds_total",
		Help: "Total number of builds, by outcome.",
	}, []string{"status"})

	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "weave_build_seconds",
		Help:    "Wall time of a complete build.",
		Buckets: prometheus.DefBuckets,
	})

	PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "weave_phase_seconds",
		Help:    "Time spent in one build phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	NamespacesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "weave_namespaces_total",
		Help: "Number of namespaces discovered by the last build.",
	})

	PrunePasses = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "weave_prune_passes",
		Help:    "Dead-code passes needed to reach a fixpoint.",
		Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 50, 100, 1000},
	})

	MangledSymbols = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "weave_mangled_symbols_total",
		Help: "Number of symbol groups that received a numeric code in the last build.",
	})

	OutputBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "weave_output_bytes",
		Help: "Size of the last emitted program.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weave_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RebuildsThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weave_rebuilds_throttled_total",
		Help: "Rebuild requests dropped by the rebuild rate limit.",
	})
)
