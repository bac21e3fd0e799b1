package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

// RideService publishes ride offers whose seats riders can pay for.
type RideService struct {
	tx     repository.TxRunner
	logger *slog.Logger
}

// NewRideService creates a new RideService.
func NewRideService(tx repository.TxRunner, logger *slog.Logger) *RideService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RideService{tx: tx, logger: logger}
}

// OfferRideRequest contains the parameters for offering a ride.
type OfferRideRequest struct {
	DriverID         string
	Seats            int
	VehicleType      string
	OverviewPolyline string
	Source           string
	Destination      string
	SourceCo         domain.Coordinates
	DestinationCo    domain.Coordinates
}

// OfferRide creates the ride together with the driver's history entry that
// every booking of it will reference.
func (s *RideService) OfferRide(ctx context.Context, req OfferRideRequest) (*domain.AvailableRide, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	if req.Seats <= 0 {
		return nil, ErrInvalidSeats
	}

	ride := &domain.AvailableRide{
		ID:               uuid.New().String(),
		DriverID:         req.DriverID,
		AvailableSeats:   req.Seats,
		VehicleType:      req.VehicleType,
		OverviewPolyline: req.OverviewPolyline,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Users.GetByID(ctx, req.DriverID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrDriverNotFound
			}
			return err
		}

		driverPast := &domain.PastRide{
			ID:               uuid.New().String(),
			RideID:           ride.ID,
			UserID:           req.DriverID,
			Role:             domain.RoleDriver,
			Source:           req.Source,
			Destination:      req.Destination,
			OverviewPolyline: req.OverviewPolyline,
			SourceCo:         req.SourceCo,
			DestinationCo:    req.DestinationCo,
			CreatedAt:        time.Now(),
		}
		if err := repos.PastRides.Create(ctx, driverPast); err != nil {
			return err
		}

		ride.DriverPastRideID = driverPast.ID
		return repos.Rides.Create(ctx, ride)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "ride offered", "ride_id", ride.ID, "driver_id", ride.DriverID, "seats", ride.AvailableSeats)
	return ride, nil
}
