package domain

import "time"

// PendingPayment is a reservation intent created at checkout time and
// awaiting gateway confirmation. It is keyed by (PayerID, Key).
type PendingPayment struct {
	Key                string
	PayerID            string
	RideID             string
	Seats              int
	UnitCost           float64
	Distance           float64
	Amount             float64
	PickUp             Coordinates
	Destination        Coordinates
	PickUpAddress      string
	DestinationAddress string
	PickUpDate         string
	PickUpTime         string
	CreatedAt          time.Time
}

// Transaction is the immutable record of a completed charge.
// IntentID is unique and acts as the settlement idempotency key.
type Transaction struct {
	ID           string
	IntentID     string
	PaidBy       string
	PaidTo       string
	AmountPaid   float64
	UnitCost     float64
	Distance     float64
	Seats        int
	RideID       string
	DriverName   string
	Source       string
	Destination  string
	LatestCharge string
	CreatedAt    time.Time
}

// PaymentEventType is the gateway's event kind.
type PaymentEventType string

const (
	PaymentEventSucceeded PaymentEventType = "payment_intent.succeeded"
)

// PaymentEvent is a verified notification from the payment gateway.
type PaymentEvent struct {
	Type         PaymentEventType
	IntentID     string
	PayerID      string
	PendingKey   string
	AmountMinor  int64
	LatestCharge string
}

// AmountMajor converts the paid amount from minor units (cents).
func (e *PaymentEvent) AmountMajor() float64 {
	return float64(e.AmountMinor) / 100
}
