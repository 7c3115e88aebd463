package domain

import "time"

// EventTradeExecuted is fired after an order fills.
const EventTradeExecuted = "trade.executed"

// Webhook represents an account's subscription to an event notification.
type Webhook struct {
	WebhookID string
	AccountID string
	Event     string
	URL       string
	CreatedAt time.Time
	UpdatedAt time.Time
}
