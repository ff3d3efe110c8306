package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StageDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:      "stage_duration_seconds",
			Namespace: RoomsenseNamespace,
			Subsystem: "pipeline",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
			Help:      "Wall time of each batch stage in seconds.",
		},
		[]string{"stage"},
	)

	StageRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "stage_rows_total",
			Namespace: RoomsenseNamespace,
			Subsystem: "pipeline",
			Help:      "Rows produced by each batch stage.",
		},
		[]string{"stage"},
	)

	MalformedPayloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name:      "malformed_payloads_total",
		Namespace: RoomsenseNamespace,
		Subsystem: "pipeline",
		Help:      "Raw payloads that could not be decoded.",
	})

	LabelsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "labels_total",
			Namespace: RoomsenseNamespace,
			Subsystem: "pipeline",
			Help:      "Classified samples by compliance status, Invalid included.",
		},
		[]string{"policy", "status"},
	)

	MissingRatio = promauto.NewGauge(prometheus.GaugeOpts{
		Name:      "missing_ratio",
		Namespace: RoomsenseNamespace,
		Subsystem: "pipeline",
		Help:      "Share of aggregated rows with a missing value in the last run.",
	})

	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "runs_total",
			Namespace: RoomsenseNamespace,
			Subsystem: "pipeline",
			Help:      "Batch runs by result.",
		},
		[]string{"result"},
	)

	SinkErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "sink_errors_total",
			Namespace: RoomsenseNamespace,
			Subsystem: "pipeline",
			Help:      "Failed hand-offs to result sinks.",
		},
		[]string{"sink"},
	)
)
