package service

import "errors"

var (
	// ErrPayerNotFound is returned when the event's payer does not exist.
	ErrPayerNotFound = errors.New("payer not found")

	// ErrPendingPaymentNotFound is returned when the pending key is absent
	// or was already consumed by an earlier settlement.
	ErrPendingPaymentNotFound = errors.New("pending payment not found")

	// ErrRideNotFound is returned when the reserved ride no longer exists.
	ErrRideNotFound = errors.New("ride not found")

	// ErrDriverNotFound is returned when the ride's driver does not exist.
	ErrDriverNotFound = errors.New("driver not found")

	// ErrOversold is returned when the ride has fewer seats left than the
	// payment reserved. The charge has already been captured.
	ErrOversold = errors.New("ride oversold")

	// ErrSettlementInProgress is returned when another worker holds the
	// settlement lock for the same intent.
	ErrSettlementInProgress = errors.New("settlement already in progress")

	// ErrInvalidEvent is returned when an event carries no intent ID.
	ErrInvalidEvent = errors.New("invalid payment event")

	// ErrInvalidPayerID is returned when payer ID is empty.
	ErrInvalidPayerID = errors.New("invalid payer id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidIntentID is returned when intent ID is empty.
	ErrInvalidIntentID = errors.New("invalid intent id")

	// ErrInvalidSeats is returned when seat count is not positive.
	ErrInvalidSeats = errors.New("invalid seat count")

	// ErrInvalidPaymentAmount is returned when payment amount is invalid.
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")

	// ErrNotEnoughSeats is returned at checkout when the ride cannot fit the
	// requested seats.
	ErrNotEnoughSeats = errors.New("not enough seats available")

	// ErrTransactionNotFound is returned when no transaction exists for an intent.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrFailureNotFound is returned when no settlement failure exists for an intent.
	ErrFailureNotFound = errors.New("settlement failure not found")
)

var terminalErrors = []error{
	ErrPayerNotFound,
	ErrPendingPaymentNotFound,
	ErrRideNotFound,
	ErrDriverNotFound,
	ErrOversold,
}

// IsTerminal reports whether a settlement error is final for its event.
// Redelivering such an event cannot succeed, so it should be acknowledged.
func IsTerminal(err error) bool {
	for _, target := range terminalErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
