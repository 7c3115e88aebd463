package handler

import (
	"errors"
	"net/http"

	"github.com/efreitasn/tradesim/internal/domain"
)

// errorMapping pairs a domain sentinel with its HTTP status. The sentinel's
// text doubles as the machine-readable error code.
type errorMapping struct {
	err     error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{domain.ErrInvalidQuantity, http.StatusBadRequest, "quantity must be a positive integer"},
	{domain.ErrUnknownAccount, http.StatusNotFound, "Account not found"},
	{domain.ErrUnknownInstrument, http.StatusNotFound, "Instrument not found"},
	{domain.ErrOrderNotFound, http.StatusNotFound, "Order not found"},
	{domain.ErrWebhookNotFound, http.StatusNotFound, "Webhook not found"},
	{domain.ErrAccountAlreadyExists, http.StatusConflict, "Account already exists"},
	{domain.ErrInsufficientFunds, http.StatusUnprocessableEntity, "Balance does not cover the order"},
	{domain.ErrInsufficientHoldings, http.StatusUnprocessableEntity, "Holding does not cover the order"},
}

// classifyError resolves err to a status, code and message.
func classifyError(err error) (int, string, string) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, "validation_error", validationErr.Message
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.err.Error(), m.message
		}
	}
	return http.StatusInternalServerError, "internal_error", "An unexpected error occurred"
}

// mapError writes the error response for a service error.
func mapError(w http.ResponseWriter, err error) {
	status, code, message := classifyError(err)
	WriteError(w, status, code, message)
}
