package engine

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/tradesim/internal/domain"
	"github.com/efreitasn/tradesim/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestRegistry(t testing.TB) *domain.Registry {
	t.Helper()
	r, err := domain.NewRegistry([]domain.Listing{
		{Symbol: "AAPL", DisplayName: "Apple Inc.", InitialPrice: dec("150")},
		{Symbol: "GOOGL", DisplayName: "Alphabet Inc.", InitialPrice: dec("2800")},
		{Symbol: "MSFT", DisplayName: "Microsoft Corporation", InitialPrice: dec("300")},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

// setPrice moves symbol to target through the registry's public update path.
func setPrice(t testing.TB, r *domain.Registry, symbol, target string) {
	t.Helper()
	cur, err := r.Price(symbol)
	if err != nil {
		t.Fatalf("Price(%s): %v", symbol, err)
	}
	want := dec(target)
	delta := want.Div(cur).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100))
	got, err := r.ApplyPriceDelta(symbol, delta)
	if err != nil {
		t.Fatalf("ApplyPriceDelta(%s): %v", symbol, err)
	}
	if !got.Equal(want) {
		t.Fatalf("setPrice(%s) landed on %s, want %s", symbol, got, want)
	}
}

type testEnv struct {
	registry *domain.Registry
	accounts *store.AccountStore
	orders   *store.OrderStore
	trades   *store.TradeStore
	executor *Executor
}

func newTestEnv(t testing.TB) *testEnv {
	t.Helper()
	env := &testEnv{
		registry: newTestRegistry(t),
		accounts: store.NewAccountStore(),
		orders:   store.NewOrderStore(),
		trades:   store.NewTradeStore(),
	}
	env.executor = NewExecutor(env.registry, env.accounts, env.orders, env.trades)
	return env
}

func (env *testEnv) openAccount(t testing.TB, id, balance string) *domain.Account {
	t.Helper()
	a, err := domain.NewAccount(id, dec(balance), env.executor.now())
	if err != nil {
		t.Fatalf("NewAccount: %v", err)
	}
	if err := env.accounts.Create(a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return a
}
