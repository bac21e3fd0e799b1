package app

import (
	"fmt"

	"ridepay/internal/config"
	"ridepay/internal/events"
)

// NewPublisher builds the settlement event publisher selected by cfg.Broker.
func NewPublisher(cfg config.EventsConfig) (events.Publisher, error) {
	switch cfg.Broker {
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka broker list is empty")
		}
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.SettledTopic, cfg.DeadLetterTopic), nil
	case "rabbitmq", "amqp":
		return events.NewRabbitMQPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	case "", "none":
		return events.NopPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown events broker %q", cfg.Broker)
	}
}
