package kafka

import (
	"fmt"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

// EnsureTopics creates any of topics the cluster does not know yet.
func EnsureTopics(brokers []string, partitions int32, logger zerolog.Logger, topics ...string) error {
	admin, err := sarama.NewClusterAdmin(brokers, NewConfig())
	if err != nil {
		return fmt.Errorf("kafka admin: %w", err)
	}
	defer admin.Close()

	existing, err := admin.ListTopics()
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}

	for _, topic := range topics {
		if _, ok := existing[topic]; ok {
			continue
		}
		err := admin.CreateTopic(topic, &sarama.TopicDetail{
			NumPartitions:     partitions,
			ReplicationFactor: 1,
		}, false)
		if err != nil {
			return fmt.Errorf("create topic %s: %w", topic, err)
		}
		logger.Info().Str("topic", topic).Msg("created kafka topic")
	}
	return nil
}
