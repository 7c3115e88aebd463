package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrUnknownInstrument    = errors.New("unknown_instrument")
	ErrUnknownAccount       = errors.New("unknown_account")
	ErrAccountAlreadyExists = errors.New("account_already_exists")
	ErrInvalidQuantity      = errors.New("invalid_quantity")
	ErrInsufficientFunds    = errors.New("insufficient_funds")
	ErrInsufficientHoldings = errors.New("insufficient_holdings")
	ErrOrderNotFound        = errors.New("order_not_found")
	ErrInvalidTransition    = errors.New("invalid_order_transition")
	ErrWebhookNotFound      = errors.New("webhook_not_found")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
