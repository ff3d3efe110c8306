package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	KafkaMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "kafka_messages_total",
			Namespace: RoomsenseNamespace,
			Help:      "Messages handed to the Kafka producer, by topic and result.",
		},
		[]string{"topic", "result"},
	)
)
