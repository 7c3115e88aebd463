package domain

import (
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// Listing is the bootstrap description of a tradable instrument.
type Listing struct {
	Symbol       string
	DisplayName  string
	InitialPrice decimal.Decimal
}

// Instrument is a tradable symbol and its simulated price state.
//
// The current price lives in an atomic cell: readers load it without
// locking and always see a fully published value. Writers are serialized
// by mu, which also guards the append-only price history.
type Instrument struct {
	Symbol      string
	DisplayName string
	OpenPrice   decimal.Decimal

	price   atomic.Pointer[decimal.Decimal]
	mu      sync.Mutex
	history []decimal.Decimal
}

// InstrumentSnapshot is a point-in-time summary of an instrument.
type InstrumentSnapshot struct {
	Symbol        string
	DisplayName   string
	Price         decimal.Decimal
	OpenPrice     decimal.Decimal
	ChangePercent decimal.Decimal
	Updates       int
}

// NewInstrument creates an instrument whose current and opening price are
// both set to l.InitialPrice. The opening price is the first history entry.
func NewInstrument(l Listing) *Instrument {
	open := RoundPrice(l.InitialPrice)
	inst := &Instrument{
		Symbol:      l.Symbol,
		DisplayName: l.DisplayName,
		OpenPrice:   open,
		history:     []decimal.Decimal{open},
	}
	inst.price.Store(&open)
	return inst
}

// Price returns the most recently published price.
func (i *Instrument) Price() decimal.Decimal {
	return *i.price.Load()
}

// ApplyDelta moves the price by deltaPercent percent, clamps the result to
// PriceFloor, records it in the history and publishes it. It returns the
// new price and whether the floor was applied.
func (i *Instrument) ApplyDelta(deltaPercent decimal.Decimal) (decimal.Decimal, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	factor := decimal.NewFromInt(1).Add(deltaPercent.Div(hundred))
	next := RoundPrice(i.Price().Mul(factor))
	floored := false
	if next.LessThan(PriceFloor) {
		next = PriceFloor
		floored = true
	}

	i.history = append(i.history, next)
	i.price.Store(&next)
	return next, floored
}

// PercentChangeFromOpen returns (current - open) / open × 100.
func (i *Instrument) PercentChangeFromOpen() decimal.Decimal {
	return percentChange(i.OpenPrice, i.Price())
}

// History returns a copy of every price the instrument has had, oldest
// first, starting with the opening price.
func (i *Instrument) History() []decimal.Decimal {
	i.mu.Lock()
	defer i.mu.Unlock()

	out := make([]decimal.Decimal, len(i.history))
	copy(out, i.history)
	return out
}

// Snapshot returns a consistent summary: the price and the update count
// are read under the writer lock so they belong to the same update.
func (i *Instrument) Snapshot() InstrumentSnapshot {
	i.mu.Lock()
	price := i.Price()
	updates := len(i.history) - 1
	i.mu.Unlock()

	return InstrumentSnapshot{
		Symbol:        i.Symbol,
		DisplayName:   i.DisplayName,
		Price:         price,
		OpenPrice:     i.OpenPrice,
		ChangePercent: percentChange(i.OpenPrice, price),
		Updates:       updates,
	}
}

func percentChange(open, current decimal.Decimal) decimal.Decimal {
	return current.Sub(open).Div(open).Mul(hundred).Round(4)
}
