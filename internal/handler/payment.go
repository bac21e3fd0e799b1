package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ridepay/internal/domain"
	"ridepay/internal/gateway"
	"ridepay/internal/observability"
	"ridepay/internal/service"
)

const (
	signatureHeader  = "Stripe-Signature"
	pendingKeyHeader = "X-Pending-Key"

	// maxWebhookBody matches the gateway's documented maximum event size.
	maxWebhookBody = 65536
)

// Settler settles verified payment events.
type Settler interface {
	Settle(ctx context.Context, event *domain.PaymentEvent) (*service.SettlementResult, error)
}

// PaymentHandler handles the gateway webhook and checkout initiation.
type PaymentHandler struct {
	verifier gateway.Verifier
	settler  Settler
	checkout *service.CheckoutService
	logger   *slog.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(verifier gateway.Verifier, settler Settler, checkout *service.CheckoutService, logger *slog.Logger) *PaymentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentHandler{
		verifier: verifier,
		settler:  settler,
		checkout: checkout,
		logger:   logger,
	}
}

// WebhookResponse acknowledges a gateway notification.
type WebhookResponse struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome"`
	Reason   string `json:"reason,omitempty"`
}

// Webhook handles POST /v1/payments/webhook
func (h *PaymentHandler) Webhook(c *gin.Context) {
	status := h.webhook(c)
	observability.WebhookRequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (h *PaymentHandler) webhook(c *gin.Context) int {
	ctx := c.Request.Context()

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "webhook error: unreadable body"})
		return http.StatusBadRequest
	}

	event, err := h.verifier.Verify(payload, c.GetHeader(signatureHeader))
	if err != nil {
		h.logger.WarnContext(ctx, "webhook verification failed", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "webhook error: " + err.Error()})
		return http.StatusBadRequest
	}

	result, err := h.settler.Settle(ctx, event)
	switch {
	case err == nil:
		respondJSON(c, http.StatusOK, WebhookResponse{Received: true, Outcome: string(result.Outcome)})
		return http.StatusOK

	case service.IsTerminal(err):
		// Acknowledged: redelivery cannot fix it and the failure is on record.
		respondJSON(c, http.StatusOK, WebhookResponse{Received: true, Outcome: "rejected", Reason: err.Error()})
		return http.StatusOK

	case errors.Is(err, service.ErrInvalidEvent):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return http.StatusBadRequest

	default:
		h.logger.ErrorContext(ctx, "webhook settlement failed", "intent_id", event.IntentID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "settlement failed, retry later"})
		return http.StatusInternalServerError
	}
}

// CoordinatesRequest is a lat/lng pair in a request body.
type CoordinatesRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CheckoutRequest is the HTTP request body for starting a checkout.
type CheckoutRequest struct {
	UserID             string             `json:"user_id"`
	Key                string             `json:"key,omitempty"`
	RideID             string             `json:"ride_id"`
	Seats              int                `json:"seats"`
	UnitCost           float64            `json:"unit_cost"`
	Distance           float64            `json:"distance"`
	Amount             float64            `json:"amount"`
	PickUp             CoordinatesRequest `json:"pick_up"`
	Destination        CoordinatesRequest `json:"destination"`
	PickUpAddress      string             `json:"pick_up_address"`
	DestinationAddress string             `json:"destination_address"`
	PickUpDate         string             `json:"pick_up_date"`
	PickUpTime         string             `json:"pick_up_time"`
	Description        string             `json:"description,omitempty"`
	Email              string             `json:"email,omitempty"`
}

// Checkout handles POST /v1/payments/checkout
func (h *PaymentHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.checkout.Checkout(c.Request.Context(), service.CheckoutRequest{
		PayerID:            req.UserID,
		Key:                req.Key,
		RideID:             req.RideID,
		Seats:              req.Seats,
		UnitCost:           req.UnitCost,
		Distance:           req.Distance,
		Amount:             req.Amount,
		PickUp:             domain.Coordinates{Lat: req.PickUp.Lat, Lng: req.PickUp.Lng},
		Destination:        domain.Coordinates{Lat: req.Destination.Lat, Lng: req.Destination.Lng},
		PickUpAddress:      req.PickUpAddress,
		DestinationAddress: req.DestinationAddress,
		PickUpDate:         req.PickUpDate,
		PickUpTime:         req.PickUpTime,
		Description:        req.Description,
		Email:              req.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header(pendingKeyHeader, result.Key)
	c.Redirect(http.StatusSeeOther, result.RedirectURL)
}
