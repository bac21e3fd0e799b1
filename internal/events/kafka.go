package events

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes settled events and dead letters to separate topics,
// keyed by intent ID so every event of one payment lands on one partition.
type KafkaPublisher struct {
	writer          *kafka.Writer
	settledTopic    string
	deadLetterTopic string
}

// NewKafkaPublisher creates a publisher for the given brokers.
func NewKafkaPublisher(brokers []string, settledTopic, deadLetterTopic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return &KafkaPublisher{writer: w, settledTopic: settledTopic, deadLetterTopic: deadLetterTopic}
}

// Publish writes one event.
func (k *KafkaPublisher) Publish(ctx context.Context, event SettlementEvent) error {
	body, err := encode(event)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement event: %w", err)
	}

	topic := k.settledTopic
	if event.Kind == KindDeadLetter {
		topic = k.deadLetterTopic
	}

	if err := k.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(event.IntentID),
		Value: body,
	}); err != nil {
		return fmt.Errorf("failed to publish settlement event: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *KafkaPublisher) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

var _ Publisher = (*KafkaPublisher)(nil)
