package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/efreitasn/tradesim/internal/domain"
)

func TestExecute_BuyThenSellScenario(t *testing.T) {
	env := newTestEnv(t)
	acct := env.openAccount(t, "alice", "10000")

	order, trade, err := env.executor.Execute("alice", "AAPL", 10, domain.SideBuy)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if order.Status != domain.OrderStatusExecuted {
		t.Errorf("order status = %s, want executed", order.Status)
	}
	if !trade.Price.Equal(dec("150")) || trade.Side != domain.SideBuy || trade.Quantity != 10 {
		t.Errorf("unexpected buy trade %+v", trade)
	}
	snap := acct.Snapshot()
	if !snap.Balance.Equal(dec("8500")) {
		t.Errorf("balance after buy = %s, want 8500", snap.Balance)
	}
	if snap.Quantity("AAPL") != 10 || len(snap.History) != 1 {
		t.Errorf("holdings/history after buy = %d/%d, want 10/1", snap.Quantity("AAPL"), len(snap.History))
	}

	setPrice(t, env.registry, "AAPL", "160")

	_, trade, err = env.executor.Execute("alice", "AAPL", 5, domain.SideSell)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if !trade.Price.Equal(dec("160")) || trade.Side != domain.SideSell {
		t.Errorf("unexpected sell trade %+v", trade)
	}
	snap = acct.Snapshot()
	if !snap.Balance.Equal(dec("9300")) {
		t.Errorf("balance after sell = %s, want 9300", snap.Balance)
	}
	if snap.Quantity("AAPL") != 5 || len(snap.History) != 2 {
		t.Errorf("holdings/history after sell = %d/%d, want 5/2", snap.Quantity("AAPL"), len(snap.History))
	}

	avg, ok := AverageCostBasis(snap.History, "AAPL")
	if !ok || !avg.Equal(dec("150")) {
		t.Errorf("AverageCostBasis = %s, %v; want 150, true", avg, ok)
	}
}

func TestExecute_UnknownInstrumentLeavesAccountUnchanged(t *testing.T) {
	env := newTestEnv(t)
	acct := env.openAccount(t, "alice", "10000")
	before := acct.Snapshot()

	order, _, err := env.executor.Execute("alice", "XXXX", 1, domain.SideBuy)
	if !errors.Is(err, domain.ErrUnknownInstrument) {
		t.Fatalf("error = %v, want ErrUnknownInstrument", err)
	}
	if order.Status != domain.OrderStatusRejected || order.RejectReason != "unknown_instrument" {
		t.Errorf("order = %s/%q, want rejected/unknown_instrument", order.Status, order.RejectReason)
	}
	after := acct.Snapshot()
	if !after.Balance.Equal(before.Balance) || len(after.History) != 0 || len(after.Holdings) != 0 {
		t.Error("account changed after rejected order")
	}
}

func TestExecute_InsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	acct := env.openAccount(t, "bob", "100")

	_, _, err := env.executor.Execute("bob", "AAPL", 1, domain.SideBuy)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}
	if !acct.Balance().Equal(dec("100")) {
		t.Errorf("balance = %s, want 100", acct.Balance())
	}
}

func TestExecute_InsufficientHoldings(t *testing.T) {
	env := newTestEnv(t)
	env.openAccount(t, "bob", "1000")

	_, _, err := env.executor.Execute("bob", "AAPL", 1, domain.SideSell)
	if !errors.Is(err, domain.ErrInsufficientHoldings) {
		t.Fatalf("error = %v, want ErrInsufficientHoldings", err)
	}
}

func TestExecute_Rejections(t *testing.T) {
	env := newTestEnv(t)
	env.openAccount(t, "alice", "1000")

	tests := []struct {
		name    string
		account string
		symbol  string
		qty     int64
		side    domain.Side
		wantErr error
	}{
		{"zero quantity", "alice", "AAPL", 0, domain.SideBuy, domain.ErrInvalidQuantity},
		{"negative quantity", "alice", "AAPL", -3, domain.SideSell, domain.ErrInvalidQuantity},
		{"quantity checked before account", "nobody", "AAPL", 0, domain.SideBuy, domain.ErrInvalidQuantity},
		{"unknown account", "nobody", "AAPL", 1, domain.SideBuy, domain.ErrUnknownAccount},
		{"unknown instrument", "alice", "XXXX", 1, domain.SideBuy, domain.ErrUnknownInstrument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, _, err := env.executor.Execute(tt.account, tt.symbol, tt.qty, tt.side)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if order.Status != domain.OrderStatusRejected {
				t.Errorf("status = %s, want rejected", order.Status)
			}
			if order.Trade != nil {
				t.Error("rejected order must not carry a trade")
			}
		})
	}
}

func TestExecute_RejectionsForMissingAccountAreNotIndexed(t *testing.T) {
	env := newTestEnv(t)

	for _, qty := range []int64{1, 0} {
		order, _, err := env.executor.Execute("nobody", "AAPL", qty, domain.SideBuy)
		if err == nil {
			t.Fatalf("qty %d: expected rejection", qty)
		}
		if _, err := env.orders.Get(order.OrderID); err != nil {
			t.Errorf("qty %d: rejected order not journaled: %v", qty, err)
		}
	}

	env.openAccount(t, "nobody", "1000")
	if _, total := env.orders.ListByAccount("nobody", nil, 1, 10); total != 0 {
		t.Errorf("account lists %d orders submitted before it existed", total)
	}

	if _, _, err := env.executor.Execute("nobody", "AAPL", 0, domain.SideBuy); err == nil {
		t.Fatal("expected rejection")
	}
	if _, total := env.orders.ListByAccount("nobody", nil, 1, 10); total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}

func TestExecute_InvalidSide(t *testing.T) {
	env := newTestEnv(t)
	env.openAccount(t, "alice", "1000")

	_, _, err := env.executor.Execute("alice", "AAPL", 1, domain.Side("short"))
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestExecute_JournalsOrdersAndTape(t *testing.T) {
	env := newTestEnv(t)
	env.openAccount(t, "alice", "1000")
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	env.executor.now = func() time.Time { return fixed }

	ok, trade, err := env.executor.Execute("alice", "AAPL", 2, domain.SideBuy)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	bad, _, _ := env.executor.Execute("alice", "AAPL", 100, domain.SideBuy)

	got, err := env.orders.Get(ok.OrderID)
	if err != nil || got.Status != domain.OrderStatusExecuted {
		t.Errorf("journaled executed order = %+v, %v", got, err)
	}
	if got.Trade == nil || got.Trade.TradeID != trade.TradeID {
		t.Error("journaled order does not reference its trade")
	}
	if !got.SubmittedAt.Equal(fixed) || got.CompletedAt == nil || !got.CompletedAt.Equal(fixed) {
		t.Errorf("timestamps = %v/%v, want %v", got.SubmittedAt, got.CompletedAt, fixed)
	}

	got, err = env.orders.Get(bad.OrderID)
	if err != nil || got.Status != domain.OrderStatusRejected || got.RejectReason != "insufficient_funds" {
		t.Errorf("journaled rejected order = %+v, %v", got, err)
	}

	tape := env.trades.GetBySymbol("AAPL", 0)
	if len(tape) != 1 || tape[0].TradeID != trade.TradeID {
		t.Errorf("tape = %+v, want only the executed trade", tape)
	}
}

func TestExecute_PriceFixedAtRead(t *testing.T) {
	env := newTestEnv(t)
	env.openAccount(t, "alice", "100000")

	_, first, _ := env.executor.Execute("alice", "MSFT", 1, domain.SideBuy)
	setPrice(t, env.registry, "MSFT", "330")
	_, second, _ := env.executor.Execute("alice", "MSFT", 1, domain.SideBuy)

	if !first.Price.Equal(dec("300")) {
		t.Errorf("first price = %s, want 300", first.Price)
	}
	if !second.Price.Equal(dec("330")) {
		t.Errorf("second price = %s, want 330", second.Price)
	}
	// The earlier trade is not repriced by the later update.
	snap, _ := env.accounts.Get("alice")
	if h := snap.Snapshot().History; !h[0].Price.Equal(dec("300")) {
		t.Errorf("history[0].Price = %s, want 300", h[0].Price)
	}
}

func TestExecute_ConcurrentOrdersWithSimulator(t *testing.T) {
	env := newTestEnv(t)
	sim := NewSimulator(time.Millisecond, 2.5, env.registry, nil, discardLogger())
	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		env.openAccount(t, id, "50000")
	}

	sim.Start(context.Background())
	defer sim.Stop()

	var wg sync.WaitGroup
	for _, id := range ids {
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func(id string, w int) {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					side := domain.SideBuy
					if (i+w)%3 == 0 {
						side = domain.SideSell
					}
					sym := []string{"AAPL", "MSFT"}[i%2]
					_, _, err := env.executor.Execute(id, sym, int64(1+i%3), side)
					if err != nil &&
						!errors.Is(err, domain.ErrInsufficientFunds) &&
						!errors.Is(err, domain.ErrInsufficientHoldings) {
						t.Errorf("unexpected error: %v", err)
					}
				}
			}(id, w)
		}
	}
	wg.Wait()

	for _, id := range ids {
		a, _ := env.accounts.Get(id)
		s := a.Snapshot()
		if s.Balance.IsNegative() {
			t.Errorf("%s: negative balance %s", id, s.Balance)
		}
		net := map[string]int64{}
		for _, tr := range s.History {
			if tr.Side == domain.SideBuy {
				net[tr.Symbol] += tr.Quantity
			} else {
				net[tr.Symbol] -= tr.Quantity
			}
		}
		for _, sym := range []string{"AAPL", "MSFT"} {
			if s.Quantity(sym) != net[sym] {
				t.Errorf("%s: holding %s=%d, history net %d", id, sym, s.Quantity(sym), net[sym])
			}
		}
		orders, total := env.orders.ListByAccount(id, nil, 1, 1000)
		if total != 200 || len(orders) != 200 {
			t.Errorf("%s: journaled %d orders, want 200", id, total)
		}
	}
}

func BenchmarkExecute_Buy(b *testing.B) {
	env := newTestEnv(b)
	env.openAccount(b, "bench", fmt.Sprint(int64(b.N)*200+1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := env.executor.Execute("bench", "AAPL", 1, domain.SideBuy); err != nil {
			b.Fatal(err)
		}
	}
}
