package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/tradesim/internal/service"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
	view
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService, currency string) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc, view: view{currency: currency}}
}

type executeOrderRequest struct {
	AccountID string `json:"account_id"`
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	Quantity  int64  `json:"quantity"`
}

// rejectedOrderResponse is the error body for an order the engine
// rejected; the order itself is journaled and can be fetched by ID.
type rejectedOrderResponse struct {
	errorResponse
	Order orderResponse `json:"order"`
}

// Execute handles POST /orders.
func (h *OrderHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req executeOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	order, err := h.orderSvc.Execute(service.ExecuteOrderRequest{
		AccountID: req.AccountID,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Quantity:  req.Quantity,
	})
	if err != nil {
		if order == nil {
			mapError(w, err)
			return
		}
		status, code, message := classifyError(err)
		WriteJSON(w, status, rejectedOrderResponse{
			errorResponse: errorResponse{Error: code, Message: message},
			Order:         h.order(order),
		})
		return
	}

	WriteJSON(w, http.StatusCreated, h.order(order))
}

// GetOrder handles GET /orders/{order_id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderSvc.GetOrder(chi.URLParam(r, "order_id"))
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.order(order))
}
