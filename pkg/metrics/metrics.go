package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Define global variables for metrics.
// We use 'promauto' which automatically registers metrics without complex initialization.

var (
	// 1. Refinement Rounds Total (Counter)
	// Counts how many refinement rounds have completed since process start.
	RefinementRoundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hyperank_refinement_rounds_total",
			Help: "Total number of completed refinement rounds",
		},
	)

	// 2. Stage Duration (Histogram)
	// Measures how long each pipeline stage takes per round.
	// The interesting stages are quadratic-to-cubic in the item count, so the
	// buckets cover from sub-millisecond (small collections) to minutes.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hyperank_stage_duration_seconds",
			Help:    "Duration of refinement pipeline stages in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"stage"},
	)

	// 3. Indexed Items (Gauge)
	// Tracks the size of the collection currently loaded into an engine.
	IndexedItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hyperank_items",
			Help: "Number of items in the loaded collection",
		},
	)

	// 4. Queries Total (Counter)
	// Counts retrieval queries served after refinement.
	QueriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hyperank_queries_total",
			Help: "Total number of retrieval queries served",
		},
	)
)
