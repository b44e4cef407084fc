package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions. Cartographer-specific names are kept separate
// from any other metric family this process might expose: a different
// analysis, not a different version of the same one.
var (
	CartographerFilesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cartographer_files_total",
		Help: "Number of files whose dependency list the grapher has populated, across every Analyze call in this process.",
	})

	CartographerUnresolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cartographer_unresolved_total",
		Help: "Total number of dependency edges that failed to resolve.",
	})

	CartographerResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cartographer_resolve_seconds",
		Help:    "Time spent resolving one specifier against a base directory.",
		Buckets: prometheus.DefBuckets,
	})

	CartographerAnalyzeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cartographer_analyze_seconds",
		Help:    "Time spent on a full Analyze call, keyed by outcome.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
)
