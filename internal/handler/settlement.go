package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ridepay/internal/domain"
	"ridepay/internal/service"
)

// SettlementHandler serves settled transactions, pending checkouts and
// the dead-letter queue.
type SettlementHandler struct {
	queryService *service.QueryService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(queryService *service.QueryService) *SettlementHandler {
	return &SettlementHandler{queryService: queryService}
}

// TransactionResponse is the HTTP response for a settled transaction.
type TransactionResponse struct {
	ID               string    `json:"id"`
	IntentID         string    `json:"intent_id"`
	PaidBy           string    `json:"paid_by"`
	PaidTo           string    `json:"paid_to"`
	AmountPaid       float64   `json:"amount_paid"`
	Seats            int       `json:"seats"`
	RideID           string    `json:"ride_id"`
	DriverName       string    `json:"driver_name"`
	Source           string    `json:"source"`
	Destination      string    `json:"destination"`
	BookingID        string    `json:"booking_id,omitempty"`
	VerificationCode int       `json:"verification_code,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// PendingPaymentResponse is the HTTP response for an unconfirmed checkout.
type PendingPaymentResponse struct {
	Key                string             `json:"key"`
	RideID             string             `json:"ride_id"`
	Seats              int                `json:"seats"`
	Amount             float64            `json:"amount"`
	PickUp             domain.Coordinates `json:"pick_up"`
	Destination        domain.Coordinates `json:"destination"`
	PickUpAddress      string             `json:"pick_up_address"`
	DestinationAddress string             `json:"destination_address"`
	PickUpDate         string             `json:"pick_up_date"`
	PickUpTime         string             `json:"pick_up_time"`
	CreatedAt          time.Time          `json:"created_at"`
}

// BookingResponse is the HTTP response for a booked seat.
type BookingResponse struct {
	ID                 string    `json:"id"`
	RideID             string    `json:"ride_id"`
	TransactionID      string    `json:"transaction_id"`
	Seats              int       `json:"seats"`
	VerificationCode   int       `json:"verification_code"`
	DriverName         string    `json:"driver_name"`
	VehicleType        string    `json:"vehicle_type"`
	PickUpAddress      string    `json:"pick_up_address"`
	DestinationAddress string    `json:"destination_address"`
	PickUpDate         string    `json:"pick_up_date"`
	PickUpTime         string    `json:"pick_up_time"`
	CreatedAt          time.Time `json:"created_at"`
}

// PastRideResponse is the HTTP response for a ride history entry.
type PastRideResponse struct {
	ID          string                 `json:"id"`
	RideID      string                 `json:"ride_id"`
	Role        domain.ParticipantRole `json:"role"`
	Source      string                 `json:"source"`
	Destination string                 `json:"destination"`
	Rating      *float64               `json:"rating,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// FailureResponse is the HTTP response for a settlement failure.
type FailureResponse struct {
	IntentID    string     `json:"intent_id"`
	PayerID     string     `json:"payer_id"`
	PendingKey  string     `json:"pending_key"`
	RideID      string     `json:"ride_id,omitempty"`
	Reason      string     `json:"reason"`
	Detail      string     `json:"detail"`
	AmountMinor int64      `json:"amount_minor"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// GetTransaction handles GET /v1/transactions/:intentId
func (h *SettlementHandler) GetTransaction(c *gin.Context) {
	ctx := c.Request.Context()

	txn, err := h.queryService.Transaction(ctx, c.Param("intentId"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := TransactionResponse{
		ID:          txn.ID,
		IntentID:    txn.IntentID,
		PaidBy:      txn.PaidBy,
		PaidTo:      txn.PaidTo,
		AmountPaid:  txn.AmountPaid,
		Seats:       txn.Seats,
		RideID:      txn.RideID,
		DriverName:  txn.DriverName,
		Source:      txn.Source,
		Destination: txn.Destination,
		CreatedAt:   txn.CreatedAt,
	}
	if booking, err := h.queryService.Booking(ctx, txn.ID); err == nil {
		resp.BookingID = booking.ID
		resp.VerificationCode = booking.VerificationCode
	}

	respondJSON(c, http.StatusOK, resp)
}

// ListPendingPayments handles GET /v1/riders/:id/pending-payments
func (h *SettlementHandler) ListPendingPayments(c *gin.Context) {
	pending, err := h.queryService.PendingPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]PendingPaymentResponse, 0, len(pending))
	for _, p := range pending {
		response = append(response, PendingPaymentResponse{
			Key:                p.Key,
			RideID:             p.RideID,
			Seats:              p.Seats,
			Amount:             p.Amount,
			PickUp:             p.PickUp,
			Destination:        p.Destination,
			PickUpAddress:      p.PickUpAddress,
			DestinationAddress: p.DestinationAddress,
			PickUpDate:         p.PickUpDate,
			PickUpTime:         p.PickUpTime,
			CreatedAt:          p.CreatedAt,
		})
	}

	respondJSON(c, http.StatusOK, response)
}

// ListBookings handles GET /v1/riders/:id/bookings
func (h *SettlementHandler) ListBookings(c *gin.Context) {
	bookings, err := h.queryService.Bookings(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		response = append(response, BookingResponse{
			ID:                 b.ID,
			RideID:             b.RideID,
			TransactionID:      b.TransactionID,
			Seats:              b.Seats,
			VerificationCode:   b.VerificationCode,
			DriverName:         b.DriverName,
			VehicleType:        b.VehicleType,
			PickUpAddress:      b.PickUpAddress,
			DestinationAddress: b.DestinationAddress,
			PickUpDate:         b.PickUpDate,
			PickUpTime:         b.PickUpTime,
			CreatedAt:          b.CreatedAt,
		})
	}

	respondJSON(c, http.StatusOK, response)
}

// ListPastRides handles GET /v1/users/:id/past-rides
func (h *SettlementHandler) ListPastRides(c *gin.Context) {
	history, err := h.queryService.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]PastRideResponse, 0, len(history))
	for _, p := range history {
		response = append(response, PastRideResponse{
			ID:          p.ID,
			RideID:      p.RideID,
			Role:        p.Role,
			Source:      p.Source,
			Destination: p.Destination,
			Rating:      p.Rating,
			CreatedAt:   p.CreatedAt,
		})
	}

	respondJSON(c, http.StatusOK, response)
}

// ListFailures handles GET /v1/settlements/failures
func (h *SettlementHandler) ListFailures(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	failures, err := h.queryService.Failures(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]FailureResponse, 0, len(failures))
	for _, f := range failures {
		response = append(response, toFailureResponse(f))
	}

	respondJSON(c, http.StatusOK, response)
}

// ResolveFailure handles POST /v1/settlements/failures/:intentId/resolve
func (h *SettlementHandler) ResolveFailure(c *gin.Context) {
	if err := h.queryService.ResolveFailure(c.Request.Context(), c.Param("intentId")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func toFailureResponse(f *domain.SettlementFailure) FailureResponse {
	resp := FailureResponse{
		IntentID:    f.IntentID,
		PayerID:     f.PayerID,
		PendingKey:  f.PendingKey,
		RideID:      f.RideID,
		Reason:      string(f.Reason),
		Detail:      f.Detail,
		AmountMinor: f.AmountMinor,
		CreatedAt:   f.CreatedAt,
	}
	if f.Resolved() {
		resolved := f.ResolvedAt
		resp.ResolvedAt = &resolved
	}
	return resp
}
