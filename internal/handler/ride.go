package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridepay/internal/domain"
	"ridepay/internal/service"
)

// RideHandler handles HTTP requests for ride offers.
type RideHandler struct {
	rideService  *service.RideService
	queryService *service.QueryService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService, queryService *service.QueryService) *RideHandler {
	return &RideHandler{
		rideService:  rideService,
		queryService: queryService,
	}
}

// OfferRideRequest is the HTTP request body for offering a ride.
type OfferRideRequest struct {
	DriverID         string             `json:"driver_id"`
	Seats            int                `json:"seats"`
	VehicleType      string             `json:"vehicle_type"`
	OverviewPolyline string             `json:"overview_polyline,omitempty"`
	Source           string             `json:"source"`
	Destination      string             `json:"destination"`
	SourceCo         CoordinatesRequest `json:"source_co"`
	DestinationCo    CoordinatesRequest `json:"destination_co"`
}

// RideResponse is the HTTP response for a ride offer.
type RideResponse struct {
	ID               string `json:"id"`
	DriverID         string `json:"driver_id"`
	AvailableSeats   int    `json:"available_seats"`
	VehicleType      string `json:"vehicle_type"`
	DriverPastRideID string `json:"driver_past_ride_id"`
}

// AvailabilityResponse is the HTTP response for a ride's seat count.
type AvailabilityResponse struct {
	RideID         string `json:"ride_id"`
	DriverID       string `json:"driver_id"`
	AvailableSeats int    `json:"available_seats"`
	VehicleType    string `json:"vehicle_type"`
	Cached         bool   `json:"cached"`
}

// OfferRide handles POST /v1/rides
func (h *RideHandler) OfferRide(c *gin.Context) {
	var req OfferRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.OfferRide(c.Request.Context(), service.OfferRideRequest{
		DriverID:         req.DriverID,
		Seats:            req.Seats,
		VehicleType:      req.VehicleType,
		OverviewPolyline: req.OverviewPolyline,
		Source:           req.Source,
		Destination:      req.Destination,
		SourceCo:         domain.Coordinates{Lat: req.SourceCo.Lat, Lng: req.SourceCo.Lng},
		DestinationCo:    domain.Coordinates{Lat: req.DestinationCo.Lat, Lng: req.DestinationCo.Lng},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, RideResponse{
		ID:               ride.ID,
		DriverID:         ride.DriverID,
		AvailableSeats:   ride.AvailableSeats,
		VehicleType:      ride.VehicleType,
		DriverPastRideID: ride.DriverPastRideID,
	})
}

// GetAvailability handles GET /v1/rides/:id/availability
func (h *RideHandler) GetAvailability(c *gin.Context) {
	availability, err := h.queryService.Availability(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, AvailabilityResponse{
		RideID:         availability.RideID,
		DriverID:       availability.DriverID,
		AvailableSeats: availability.AvailableSeats,
		VehicleType:    availability.VehicleType,
		Cached:         availability.Cached,
	})
}
