package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ScyllaDb = "scylladb"
)

var (
	DbReadLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:      "db_read_latency_seconds",
			Namespace: RoomsenseNamespace,
			ConstLabels: prometheus.Labels{
				"db": ScyllaDb,
			},
			Buckets: prometheus.DefBuckets,
			Help:    "The latency of db read operations in seconds.",
		},
		[]string{"query"},
	)

	DbWriteLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:      "db_write_latency_seconds",
			Namespace: RoomsenseNamespace,
			ConstLabels: prometheus.Labels{
				"db": ScyllaDb,
			},
			// sample batches are slower than single reads
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
			Help:    "The latency of db write operations in seconds.",
		},
		[]string{"query"},
	)
)
