package events

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQPublisher publishes to a durable topic exchange; the event kind is
// the routing key.
type RabbitMQPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewRabbitMQPublisher dials the broker and declares the exchange.
func NewRabbitMQPublisher(url, exchange string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &RabbitMQPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish sends one persistent message.
func (r *RabbitMQPublisher) Publish(ctx context.Context, event SettlementEvent) error {
	body, err := encode(event)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement event: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ch.PublishWithContext(
		ctx,
		r.exchange,
		string(event.Kind),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.IntentID,
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("failed to publish settlement event: %w", err)
	}
	return nil
}

// Close closes the channel and the connection.
func (r *RabbitMQPublisher) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

var _ Publisher = (*RabbitMQPublisher)(nil)
