package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// DefaultTopic is the topic notifications land on when none is configured.
const DefaultTopic = "smartcredentials.events"

// KafkaSink publishes notifications to Kafka for off-path indexers. Records
// are JSON-encoded and keyed by instance address so one instance's history
// stays ordered within a partition.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// KafkaOption configures a KafkaSink.
type KafkaOption func(*KafkaSink)

// WithTopic overrides the destination topic.
func WithTopic(topic string) KafkaOption {
	return func(s *KafkaSink) {
		s.topic = topic
	}
}

// NewKafkaSink connects a producer to the given brokers.
func NewKafkaSink(brokers []string, opts ...KafkaOption) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka producer: %w", err)
	}
	s := &KafkaSink{client: client, topic: DefaultTopic}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Emit produces the event synchronously. Callers treat failures as
// observability loss, not operation failure.
func (s *KafkaSink) Emit(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Instance),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event: %w", err)
	}
	return nil
}

// Close flushes and shuts down the producer.
func (s *KafkaSink) Close() {
	s.client.Close()
}
