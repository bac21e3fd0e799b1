package gateway

import (
	"context"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"

	"ridepay/internal/config"
)

// MaxUnitAmount caps a single checkout at 9999.99 in the configured currency.
const MaxUnitAmount int64 = 999999

// SessionRequest describes a hosted checkout page for one pending payment.
type SessionRequest struct {
	Description string
	AmountMinor int64
	Email       string
	PayerID     string
	PendingKey  string
}

// CheckoutGateway creates hosted checkout sessions and returns their URL.
type CheckoutGateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (string, error)
}

// StripeCheckout creates Stripe Checkout Sessions.
type StripeCheckout struct {
	api *client.API
	cfg config.StripeConfig
}

// NewStripeCheckout creates a checkout gateway with its own API client, so
// the secret key never lives in stripe-go's package-level state.
func NewStripeCheckout(cfg config.StripeConfig) *StripeCheckout {
	return &StripeCheckout{
		api: client.New(cfg.SecretKey, nil),
		cfg: cfg,
	}
}

// CreateSession creates a one-item card payment session. The payer and
// pending key travel in the payment intent metadata and come back in the
// payment_intent.succeeded notification.
func (s *StripeCheckout) CreateSession(ctx context.Context, req SessionRequest) (string, error) {
	if req.AmountMinor <= 0 {
		return "", errors.New("amount must be positive")
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(min(MaxUnitAmount, req.AmountMinor)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				MetadataPendingKey: req.PendingKey,
				MetadataPayerID:    req.PayerID,
			},
		},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.Context = ctx

	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return session.URL, nil
}

var _ CheckoutGateway = (*StripeCheckout)(nil)
