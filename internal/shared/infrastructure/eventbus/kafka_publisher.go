package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

// DefaultKafkaTopic receives every domain event when KAFKA_TOPIC is unset.
const DefaultKafkaTopic = "flora.domain-events"

// KafkaConfig locates the cluster and topic.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaPublisher writes envelopes to one topic. Messages are keyed by
// aggregate id so a subscription's events stay ordered within a partition;
// the routing key travels as a header.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// NewKafkaPublisher connects a synchronous producer that waits for all in-sync replicas.
func NewKafkaPublisher(cfg KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Timeout = 5 * time.Second
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, cfg.Topic, logger), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer.
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if topic == "" {
		topic = DefaultKafkaTopic
	}
	return &KafkaPublisher{producer: producer, topic: topic, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic:   p.topic,
		Key:     sarama.StringEncoder(partitionKey(routingKey, payload)),
		Value:   sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{{Key: []byte("routing_key"), Value: []byte(routingKey)}},
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send %s to topic %s: %w", routingKey, p.topic, err)
	}
	p.logger.Debug("message published",
		"topic", p.topic,
		"routing_key", routingKey,
		"partition", partition,
		"offset", offset,
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

func partitionKey(routingKey string, payload []byte) string {
	var envelope struct {
		AggregateID string `json:"aggregate_id"`
	}
	if err := json.Unmarshal(payload, &envelope); err == nil && envelope.AggregateID != "" {
		return envelope.AggregateID
	}
	return routingKey
}
