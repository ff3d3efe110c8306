package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:      "http_request_latency_seconds",
			Namespace: RoomsenseNamespace,
			Buckets:   prometheus.DefBuckets,
			Help:      "The latency of http operations in seconds.",
		},
		[]string{"route", "verb"},
	)

	HttpResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "http_responses_total",
			Namespace: RoomsenseNamespace,
			Help:      "The number of http responses by route and status code.",
		},
		[]string{"route", "code"},
	)
)
