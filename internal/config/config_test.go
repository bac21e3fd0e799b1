package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("EVENTS_BROKER", "")
	t.Setenv("PENDING_SWEEP_INTERVAL", "")
	t.Setenv("CLIENT_URL", "https://rides.example.com")
	t.Setenv("STRIPE_SUCCESS_URL", "")
	t.Setenv("STRIPE_CANCEL_URL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg := Load()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Settlement.SweepInterval != 0 {
		t.Errorf("expected sweeper disabled by default, got %v", cfg.Settlement.SweepInterval)
	}
	if cfg.Events.Broker != "none" {
		t.Errorf("expected events broker none, got %s", cfg.Events.Broker)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://rides.example.com" {
		t.Errorf("expected client url as allowed origin, got %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Stripe.SuccessURL != "https://rides.example.com" {
		t.Errorf("unexpected success url %s", cfg.Stripe.SuccessURL)
	}
	if cfg.Stripe.CancelURL != "https://rides.example.com/paymentFailed" {
		t.Errorf("unexpected cancel url %s", cfg.Stripe.CancelURL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("EVENTS_BROKER", "Kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	t.Setenv("SETTLEMENT_LOCK_TTL", "5s")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("PENDING_SWEEP_INTERVAL", "10m")

	cfg := Load()

	if cfg.Events.Broker != "kafka" {
		t.Errorf("expected broker kafka, got %s", cfg.Events.Broker)
	}
	if len(cfg.Events.KafkaBrokers) != 2 || cfg.Events.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("unexpected brokers %v", cfg.Events.KafkaBrokers)
	}
	if cfg.Settlement.LockTTL != 5*time.Second {
		t.Errorf("expected lock ttl 5s, got %v", cfg.Settlement.LockTTL)
	}
	if cfg.Settlement.SweepInterval != 10*time.Minute {
		t.Errorf("expected sweep interval 10m, got %v", cfg.Settlement.SweepInterval)
	}
	if cfg.Redis.DB != 0 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.Redis.DB)
	}
}
