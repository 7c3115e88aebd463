package domain

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestInstrument(price string) *Instrument {
	return NewInstrument(Listing{Symbol: "AAPL", DisplayName: "Apple Inc.", InitialPrice: dec(price)})
}

func TestNewInstrument(t *testing.T) {
	inst := newTestInstrument("150")

	if !inst.Price().Equal(dec("150")) {
		t.Errorf("Price() = %s, want 150", inst.Price())
	}
	if !inst.OpenPrice.Equal(dec("150")) {
		t.Errorf("OpenPrice = %s, want 150", inst.OpenPrice)
	}
	h := inst.History()
	if len(h) != 1 || !h[0].Equal(dec("150")) {
		t.Errorf("History() = %v, want [150]", h)
	}
}

func TestInstrument_ApplyDelta(t *testing.T) {
	tests := []struct {
		name  string
		start string
		delta string
		want  string
	}{
		{"up", "150", "2", "153"},
		{"down", "150", "-2.5", "146.25"},
		{"zero", "150", "0", "150"},
		{"rounds to price scale", "3.33", "1.5", "3.38"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := newTestInstrument(tt.start)
			got, floored := inst.ApplyDelta(dec(tt.delta))
			if floored {
				t.Error("floored = true, want false")
			}
			if !got.Equal(dec(tt.want)) {
				t.Errorf("ApplyDelta(%s) = %s, want %s", tt.delta, got, tt.want)
			}
			if !inst.Price().Equal(got) {
				t.Errorf("Price() = %s, want %s", inst.Price(), got)
			}
			if !inst.OpenPrice.Equal(dec(tt.start)) {
				t.Errorf("OpenPrice changed to %s", inst.OpenPrice)
			}
		})
	}
}

func TestInstrument_ApplyDelta_ClampsToFloor(t *testing.T) {
	inst := newTestInstrument("10")

	got, floored := inst.ApplyDelta(dec("-150"))
	if !floored {
		t.Error("floored = false, want true")
	}
	if !got.Equal(PriceFloor) {
		t.Errorf("price = %s, want %s", got, PriceFloor)
	}

	got, _ = inst.ApplyDelta(dec("-100"))
	if !got.Equal(PriceFloor) {
		t.Errorf("price after -100%% = %s, want %s", got, PriceFloor)
	}
}

func TestInstrument_RepeatedNegativeDeltasStabilizeAtFloor(t *testing.T) {
	inst := newTestInstrument("1")

	for i := 0; i < 500; i++ {
		p, _ := inst.ApplyDelta(dec("-2.5"))
		if !p.IsPositive() {
			t.Fatalf("tick %d: price %s is not positive", i, p)
		}
	}
	if !inst.Price().Equal(PriceFloor) {
		t.Errorf("Price() = %s, want floor %s", inst.Price(), PriceFloor)
	}
}

func TestInstrument_HistoryIsAppendOnly(t *testing.T) {
	inst := newTestInstrument("100")
	inst.ApplyDelta(dec("1"))
	inst.ApplyDelta(dec("-1"))

	h := inst.History()
	want := []string{"100", "101", "99.99"}
	if len(h) != len(want) {
		t.Fatalf("len(History()) = %d, want %d", len(h), len(want))
	}
	for i, w := range want {
		if !h[i].Equal(dec(w)) {
			t.Errorf("History()[%d] = %s, want %s", i, h[i], w)
		}
	}

	// Mutating the returned copy must not affect the instrument.
	h[0] = dec("1")
	if !inst.History()[0].Equal(dec("100")) {
		t.Error("History() returned an aliased slice")
	}
}

func TestInstrument_PercentChangeFromOpen(t *testing.T) {
	inst := newTestInstrument("200")
	inst.ApplyDelta(dec("2.5"))

	got := inst.PercentChangeFromOpen()
	if !got.Equal(dec("2.5")) {
		t.Errorf("PercentChangeFromOpen() = %s, want 2.5", got)
	}
}

func TestInstrument_Snapshot(t *testing.T) {
	inst := newTestInstrument("100")
	inst.ApplyDelta(dec("10"))

	s := inst.Snapshot()
	if s.Symbol != "AAPL" || s.DisplayName != "Apple Inc." {
		t.Errorf("unexpected identity %q %q", s.Symbol, s.DisplayName)
	}
	if !s.Price.Equal(dec("110")) {
		t.Errorf("Price = %s, want 110", s.Price)
	}
	if !s.ChangePercent.Equal(dec("10")) {
		t.Errorf("ChangePercent = %s, want 10", s.ChangePercent)
	}
	if s.Updates != 1 {
		t.Errorf("Updates = %d, want 1", s.Updates)
	}
}

func TestInstrument_ConcurrentReadersAndWriters(t *testing.T) {
	inst := newTestInstrument("100")
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				inst.ApplyDelta(dec("0.5"))
			}
		}()
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if p := inst.Price(); !p.IsPositive() {
					t.Errorf("observed non-positive price %s", p)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := len(inst.History()); got != 1001 {
		t.Errorf("len(History()) = %d, want 1001", got)
	}
}
