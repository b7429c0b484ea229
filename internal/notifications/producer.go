package notifications

import (
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"cinebook/pkg/logger"
)

// Producer publishes notification messages to Kafka
type Producer interface {
	Publish(topic, key string, payload interface{}) error
	Close() error
}

type kafkaProducer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

func NewKafkaProducer(brokers []string, log *logger.Logger) (Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	config.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return &kafkaProducer{producer: producer, log: log}, nil
}

func (p *kafkaProducer) Publish(topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	p.log.Debug("notification published",
		"topic", topic,
		"partition", partition,
		"offset", offset)
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.producer.Close()
}
