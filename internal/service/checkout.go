package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"ridepay/internal/domain"
	"ridepay/internal/gateway"
	"ridepay/internal/observability"
	"ridepay/internal/repository"
)

// CheckoutService records pending payments and opens gateway sessions for them.
type CheckoutService struct {
	users   repository.UserRepository
	rides   repository.AvailableRideRepository
	pending repository.PendingPaymentRepository
	gateway gateway.CheckoutGateway
	logger  *slog.Logger
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	users repository.UserRepository,
	rides repository.AvailableRideRepository,
	pending repository.PendingPaymentRepository,
	gw gateway.CheckoutGateway,
	logger *slog.Logger,
) *CheckoutService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckoutService{
		users:   users,
		rides:   rides,
		pending: pending,
		gateway: gw,
		logger:  logger,
	}
}

// CheckoutRequest contains everything the booking needs once payment succeeds.
type CheckoutRequest struct {
	PayerID            string
	Key                string
	RideID             string
	Seats              int
	UnitCost           float64
	Distance           float64
	Amount             float64
	PickUp             domain.Coordinates
	Destination        domain.Coordinates
	PickUpAddress      string
	DestinationAddress string
	PickUpDate         string
	PickUpTime         string
	Description        string
	Email              string
}

// CheckoutResult is the pending key and the hosted page to redirect to.
type CheckoutResult struct {
	Key         string
	RedirectURL string
}

// Checkout stores the pending payment and creates a gateway session whose
// metadata points back at it. The seat check here is advisory; seats are
// only taken at settlement.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.PayerID == "" {
		return nil, ErrInvalidPayerID
	}
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}
	if req.Seats <= 0 {
		return nil, ErrInvalidSeats
	}
	if req.Amount <= 0 || math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		return nil, ErrInvalidPaymentAmount
	}

	payer, err := s.users.GetByID(ctx, req.PayerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPayerNotFound
	}
	if err != nil {
		return nil, err
	}

	ride, err := s.rides.GetByID(ctx, req.RideID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRideNotFound
	}
	if err != nil {
		return nil, err
	}
	if !ride.HasSeats(req.Seats) {
		observability.CheckoutsTotal.WithLabelValues("no_seats").Inc()
		return nil, ErrNotEnoughSeats
	}

	key := req.Key
	generated := key == ""
	if generated {
		key = uuid.New().String()
	}

	pending := &domain.PendingPayment{
		Key:                key,
		PayerID:            req.PayerID,
		RideID:             req.RideID,
		Seats:              req.Seats,
		UnitCost:           req.UnitCost,
		Distance:           req.Distance,
		Amount:             req.Amount,
		PickUp:             req.PickUp,
		Destination:        req.Destination,
		PickUpAddress:      req.PickUpAddress,
		DestinationAddress: req.DestinationAddress,
		PickUpDate:         req.PickUpDate,
		PickUpTime:         req.PickUpTime,
	}
	if err := s.pending.Put(ctx, pending); err != nil {
		return nil, fmt.Errorf("store pending payment: %w", err)
	}

	email := req.Email
	if email == "" {
		email = payer.Email
	}
	description := req.Description
	if description == "" {
		description = fmt.Sprintf("%d seat(s): %s to %s", req.Seats, req.PickUpAddress, req.DestinationAddress)
	}

	url, err := s.gateway.CreateSession(ctx, gateway.SessionRequest{
		Description: description,
		AmountMinor: int64(math.Round(req.Amount * 100)),
		Email:       email,
		PayerID:     req.PayerID,
		PendingKey:  key,
	})
	if err != nil {
		observability.CheckoutsTotal.WithLabelValues("gateway_error").Inc()
		// A caller-supplied key may already back an earlier session whose
		// payment is still in flight, so only a key minted here is dropped.
		if generated {
			if _, takeErr := s.pending.Take(ctx, req.PayerID, key); takeErr != nil {
				s.logger.WarnContext(ctx, "failed to drop pending payment", "payer_id", req.PayerID, "key", key, "error", takeErr)
			}
		}
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	observability.CheckoutsTotal.WithLabelValues("created").Inc()
	s.logger.InfoContext(ctx, "checkout created", "payer_id", req.PayerID, "ride_id", req.RideID, "key", key, "seats", req.Seats)

	return &CheckoutResult{Key: key, RedirectURL: url}, nil
}
