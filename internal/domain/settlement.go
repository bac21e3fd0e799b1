package domain

import "time"

// FailureReason classifies why a captured payment could not be settled.
type FailureReason string

const (
	FailurePayerNotFound   FailureReason = "payer_not_found"
	FailurePendingNotFound FailureReason = "pending_not_found"
	FailureRideNotFound    FailureReason = "ride_not_found"
	FailureDriverNotFound  FailureReason = "driver_not_found"
	FailureOversold        FailureReason = "oversold"
)

// SettlementFailure is a dead-letter record for a payment the gateway has
// captured but which could not be turned into a booking.
type SettlementFailure struct {
	ID          string
	IntentID    string
	PayerID     string
	PendingKey  string
	RideID      string
	Reason      FailureReason
	Detail      string
	AmountMinor int64
	CreatedAt   time.Time
	ResolvedAt  time.Time
}

// Resolved reports whether an operator has closed the record.
func (f *SettlementFailure) Resolved() bool {
	return !f.ResolvedAt.IsZero()
}
