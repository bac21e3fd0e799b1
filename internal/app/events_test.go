package app

import (
	"testing"

	"ridepay/internal/config"
	"ridepay/internal/events"
)

func TestNewPublisher(t *testing.T) {
	t.Parallel()

	pub, err := NewPublisher(config.EventsConfig{Broker: "none"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := pub.(events.NopPublisher); !ok {
		t.Errorf("expected nop publisher, got %T", pub)
	}

	pub, err = NewPublisher(config.EventsConfig{Broker: "kafka", KafkaBrokers: []string{"localhost:9092"}, SettledTopic: "s", DeadLetterTopic: "d"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := pub.(*events.KafkaPublisher); !ok {
		t.Errorf("expected kafka publisher, got %T", pub)
	}
	_ = pub.Close()

	if _, err := NewPublisher(config.EventsConfig{Broker: "kafka"}); err == nil {
		t.Error("expected error for empty broker list")
	}
	if _, err := NewPublisher(config.EventsConfig{Broker: "carrier-pigeon"}); err == nil {
		t.Error("expected error for unknown broker")
	}
}
