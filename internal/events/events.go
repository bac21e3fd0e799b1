// Package events publishes settlement outcomes so downstream consumers
// (notifications, finance reconciliation) learn about them.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Kind identifies the settlement outcome an event reports.
type Kind string

const (
	KindSettled    Kind = "settlement.succeeded"
	KindDeadLetter Kind = "settlement.dead_letter"
)

// SettlementEvent is the message body for both outcome kinds.
type SettlementEvent struct {
	Kind          Kind      `json:"kind"`
	IntentID      string    `json:"intent_id"`
	PayerID       string    `json:"payer_id,omitempty"`
	PendingKey    string    `json:"pending_key,omitempty"`
	RideID        string    `json:"ride_id,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	BookingID     string    `json:"booking_id,omitempty"`
	Seats         int       `json:"seats,omitempty"`
	AmountMinor   int64     `json:"amount_minor"`
	Reason        string    `json:"reason,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher delivers settlement events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event SettlementEvent) error
	Close() error
}

func encode(event SettlementEvent) ([]byte, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return json.Marshal(event)
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event SettlementEvent) error { return nil }
func (NopPublisher) Close() error                                             { return nil }

var _ Publisher = NopPublisher{}
