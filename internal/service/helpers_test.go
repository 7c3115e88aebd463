package service

import (
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/tradesim/internal/domain"
	"github.com/efreitasn/tradesim/internal/engine"
	"github.com/efreitasn/tradesim/internal/store"
)

// testingT is satisfied by both *testing.T and *rapid.T.
type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type testServices struct {
	registry *domain.Registry
	accounts *store.AccountStore
	orders   *store.OrderStore
	trades   *store.TradeStore
	webhooks *store.WebhookStore

	accountSvc *AccountService
	marketSvc  *MarketService
	orderSvc   *OrderService
	webhookSvc *WebhookService
}

func newTestServices(t testingT) *testServices {
	t.Helper()
	registry, err := domain.NewRegistry([]domain.Listing{
		{Symbol: "AAPL", DisplayName: "Apple Inc.", InitialPrice: dec("150")},
		{Symbol: "MSFT", DisplayName: "Microsoft Corporation", InitialPrice: dec("300")},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	s := &testServices{
		registry: registry,
		accounts: store.NewAccountStore(),
		orders:   store.NewOrderStore(),
		trades:   store.NewTradeStore(),
		webhooks: store.NewWebhookStore(),
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	executor := engine.NewExecutor(registry, s.accounts, s.orders, s.trades)

	s.webhookSvc = NewWebhookService(s.webhooks, s.accounts, 5*time.Second, logger)
	s.accountSvc = NewAccountService(s.accounts, s.orders, registry)
	s.marketSvc = NewMarketService(registry, s.trades)
	s.orderSvc = NewOrderService(executor, s.orders, s.webhookSvc)
	return s
}

func (s *testServices) register(t testingT, id, balance string) {
	t.Helper()
	if _, err := s.accountSvc.Register(RegisterAccountRequest{
		AccountID:      id,
		InitialBalance: dec(balance),
	}); err != nil {
		t.Fatalf("Register(%s): %v", id, err)
	}
}

func (s *testServices) buy(t testingT, id, symbol string, qty int64) *domain.Order {
	t.Helper()
	order, err := s.orderSvc.Execute(ExecuteOrderRequest{
		AccountID: id, Symbol: symbol, Side: "buy", Quantity: qty,
	})
	if err != nil {
		t.Fatalf("buy %d %s: %v", qty, symbol, err)
	}
	return order
}
