// Package gateway adapts the Stripe payment gateway: verifying inbound
// webhook notifications and creating checkout sessions.
package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"

	"ridepay/internal/domain"
)

// ErrVerificationFailed is returned when a notification cannot be trusted.
var ErrVerificationFailed = errors.New("webhook verification failed")

// Metadata keys written at checkout and read back on settlement.
const (
	MetadataPayerID    = "paidBy"
	MetadataPendingKey = "key"
)

// Verifier authenticates a raw notification and decodes it into a typed event.
type Verifier interface {
	Verify(payload []byte, signatureHeader string) (*domain.PaymentEvent, error)
}

// StripeVerifier verifies Stripe webhook signatures.
type StripeVerifier struct {
	secret  string
	options webhook.ConstructEventOptions
}

// NewStripeVerifier creates a verifier for the given endpoint secret.
func NewStripeVerifier(secret string, tolerance time.Duration, ignoreAPIVersionMismatch bool) *StripeVerifier {
	return &StripeVerifier{
		secret: secret,
		options: webhook.ConstructEventOptions{
			Tolerance:                tolerance,
			IgnoreAPIVersionMismatch: ignoreAPIVersionMismatch,
		},
	}
}

// Verify checks the Stripe-Signature header and decodes the event. For
// payment_intent.* events the intent's metadata is extracted; other kinds
// carry only their type.
func (v *StripeVerifier) Verify(payload []byte, signatureHeader string) (*domain.PaymentEvent, error) {
	if signatureHeader == "" {
		return nil, fmt.Errorf("%w: missing signature header", ErrVerificationFailed)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, v.options)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}

	out := &domain.PaymentEvent{Type: domain.PaymentEventType(event.Type)}
	if !strings.HasPrefix(string(event.Type), "payment_intent.") || event.Data == nil {
		return out, nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, fmt.Errorf("%w: decode payment intent: %v", ErrVerificationFailed, err)
	}

	out.IntentID = intent.ID
	out.AmountMinor = intent.AmountReceived
	if out.AmountMinor == 0 {
		out.AmountMinor = intent.Amount
	}
	if intent.Metadata != nil {
		out.PayerID = intent.Metadata[MetadataPayerID]
		out.PendingKey = intent.Metadata[MetadataPendingKey]
	}
	if intent.LatestCharge != nil {
		out.LatestCharge = intent.LatestCharge.ID
	}

	return out, nil
}
