package service

import (
	"fmt"
	"strings"

	"github.com/efreitasn/tradesim/internal/domain"
	"github.com/efreitasn/tradesim/internal/engine"
	"github.com/efreitasn/tradesim/internal/store"
)

// ExecuteOrderRequest represents the input for order execution.
type ExecuteOrderRequest struct {
	AccountID string
	Symbol    string
	Side      string
	Quantity  int64
}

// OrderService executes market orders and serves the order journal.
type OrderService struct {
	executor   *engine.Executor
	orderStore *store.OrderStore
	webhookSvc *WebhookService
}

// NewOrderService creates a new OrderService with the given dependencies.
func NewOrderService(executor *engine.Executor, orderStore *store.OrderStore, webhookSvc *WebhookService) *OrderService {
	return &OrderService{
		executor:   executor,
		orderStore: orderStore,
		webhookSvc: webhookSvc,
	}
}

// Execute fills the order at the current market price. Requests that fail
// basic shape checks return a ValidationError and are not journaled;
// anything the engine rejects is journaled and returned together with the
// rejection error.
func (s *OrderService) Execute(req ExecuteOrderRequest) (*domain.Order, error) {
	side := domain.Side(strings.ToLower(strings.TrimSpace(req.Side)))
	if !side.Valid() {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("side must be 'buy' or 'sell', got %q", req.Side),
		}
	}
	symbol := normalizeSymbol(req.Symbol)
	if symbol == "" {
		return nil, &domain.ValidationError{Message: "symbol is required"}
	}
	if req.AccountID == "" {
		return nil, &domain.ValidationError{Message: "account_id is required"}
	}
	if !accountIDRegex.MatchString(req.AccountID) {
		return nil, &domain.ValidationError{
			Message: "account_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}

	order, trade, err := s.executor.Execute(req.AccountID, symbol, req.Quantity, side)
	if err != nil {
		return order, err
	}

	if s.webhookSvc != nil {
		s.webhookSvc.DispatchTradeExecuted(order, trade)
	}
	return order, nil
}

// GetOrder retrieves a journaled order by ID.
func (s *OrderService) GetOrder(orderID string) (*domain.Order, error) {
	return s.orderStore.Get(orderID)
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
