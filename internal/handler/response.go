package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridepay/internal/gateway"
	"ridepay/internal/repository"
	"ridepay/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Server errors are reported without detail.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	msg := err.Error()
	if code >= http.StatusInternalServerError {
		msg = http.StatusText(code)
	}
	c.JSON(code, ErrorResponse{Error: msg})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrPayerNotFound),
		errors.Is(err, service.ErrRideNotFound),
		errors.Is(err, service.ErrDriverNotFound),
		errors.Is(err, service.ErrPendingPaymentNotFound),
		errors.Is(err, service.ErrTransactionNotFound),
		errors.Is(err, service.ErrFailureNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, gateway.ErrVerificationFailed),
		errors.Is(err, service.ErrInvalidEvent),
		errors.Is(err, service.ErrInvalidPayerID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidIntentID),
		errors.Is(err, service.ErrInvalidSeats),
		errors.Is(err, service.ErrInvalidPaymentAmount):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, repository.ErrDuplicate),
		errors.Is(err, service.ErrNotEnoughSeats),
		errors.Is(err, service.ErrOversold):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
