package domain

import (
	"fmt"
	"time"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusSubmitted OrderStatus = "submitted"
	OrderStatusValidated OrderStatus = "validated"
	OrderStatusExecuted  OrderStatus = "executed"
	OrderStatusRejected  OrderStatus = "rejected"
)

// orderTransitions lists the allowed next states for each state.
// Executed and rejected are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusSubmitted: {OrderStatusValidated, OrderStatusRejected},
	OrderStatusValidated: {OrderStatusExecuted, OrderStatusRejected},
}

// Order is a request to buy or sell an instrument at the current simulated
// price. Orders never rest: they end executed or rejected within the call
// that submitted them.
type Order struct {
	OrderID      string
	AccountID    string
	Symbol       string
	Side         Side
	Quantity     int64
	Status       OrderStatus
	RejectReason string
	Trade        *Trade // set once executed
	SubmittedAt  time.Time
	CompletedAt  *time.Time
}

// NewOrder creates an order in the submitted state.
func NewOrder(id, accountID, symbol string, side Side, quantity int64, at time.Time) *Order {
	return &Order{
		OrderID:     id,
		AccountID:   accountID,
		Symbol:      symbol,
		Side:        side,
		Quantity:    quantity,
		Status:      OrderStatusSubmitted,
		SubmittedAt: at,
	}
}

// Terminal reports whether the order has reached a final state.
func (o *Order) Terminal() bool {
	return o.Status == OrderStatusExecuted || o.Status == OrderStatusRejected
}

// Advance moves the order to next. It returns ErrInvalidTransition if the
// move is not allowed from the current state.
func (o *Order) Advance(next OrderStatus) error {
	for _, allowed := range orderTransitions[o.Status] {
		if allowed == next {
			o.Status = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
}

// Execute records the trade that filled the order and marks it executed.
func (o *Order) Execute(t Trade) error {
	if err := o.Advance(OrderStatusExecuted); err != nil {
		return err
	}
	o.Trade = &t
	completed := t.ExecutedAt
	o.CompletedAt = &completed
	return nil
}

// Reject marks the order rejected with the reason taken from cause.
func (o *Order) Reject(cause error, at time.Time) error {
	if err := o.Advance(OrderStatusRejected); err != nil {
		return err
	}
	o.RejectReason = cause.Error()
	o.CompletedAt = &at
	return nil
}
