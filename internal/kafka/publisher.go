// Package kafka publishes labeled samples and run summaries to Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/ntentasd/roomsense/internal/metrics"
	"github.com/ntentasd/roomsense/pkg/types"
)

// chunkSize bounds the messages handed to one SendMessages call.
const chunkSize = 500

func NewConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_8_0_0
	cfg.ClientID = "roomsense"
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Compression = sarama.CompressionSnappy
	return cfg
}

type SampleMessage struct {
	RunID uuid.UUID `json:"run_id"`
	types.Sample
}

type Publisher struct {
	producer     sarama.SyncProducer
	topic        string
	summaryTopic string
}

func NewPublisher(brokers []string, topic, summaryTopic string) (*Publisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewConfig())
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return NewPublisherWithProducer(producer, topic, summaryTopic), nil
}

func NewPublisherWithProducer(producer sarama.SyncProducer, topic, summaryTopic string) *Publisher {
	return &Publisher{
		producer:     producer,
		topic:        topic,
		summaryTopic: summaryTopic,
	}
}

func (p *Publisher) Name() string { return "kafka" }

// Publish sends every sample keyed by status, then the summary keyed by
// run id.
func (p *Publisher) Publish(ctx context.Context, summary types.Summary, samples []types.Sample) error {
	for i := 0; i < len(samples); i += chunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk := samples[i:min(i+chunkSize, len(samples))]
		msgs := make([]*sarama.ProducerMessage, 0, len(chunk))
		for _, s := range chunk {
			b, err := json.Marshal(SampleMessage{RunID: summary.RunID, Sample: s})
			if err != nil {
				return fmt.Errorf("encode sample: %w", err)
			}
			msgs = append(msgs, &sarama.ProducerMessage{
				Topic: p.topic,
				Key:   sarama.StringEncoder(s.Status),
				Value: sarama.ByteEncoder(b),
			})
		}
		if err := p.producer.SendMessages(msgs); err != nil {
			metrics.KafkaMessagesTotal.WithLabelValues(p.topic, "error").Add(float64(len(msgs)))
			return fmt.Errorf("publish samples: %w", err)
		}
		metrics.KafkaMessagesTotal.WithLabelValues(p.topic, "ok").Add(float64(len(msgs)))
	}

	b, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.summaryTopic,
		Key:   sarama.StringEncoder(summary.RunID.String()),
		Value: sarama.ByteEncoder(b),
	})
	if err != nil {
		metrics.KafkaMessagesTotal.WithLabelValues(p.summaryTopic, "error").Inc()
		return fmt.Errorf("publish summary: %w", err)
	}
	metrics.KafkaMessagesTotal.WithLabelValues(p.summaryTopic, "ok").Inc()
	return nil
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
