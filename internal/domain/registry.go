package domain

import (
	"fmt"
	"strings"

	"github.com/google/btree"
	"github.com/shopspring/decimal"
)

// Registry holds the fixed universe of tradable instruments, ordered by
// symbol. It is populated once by NewRegistry; the tree is never written
// afterwards, so lookups and iteration need no lock. Price state is
// synchronized per instrument.
type Registry struct {
	tree *btree.BTreeG[*Instrument]
}

func symbolLess(a, b *Instrument) bool {
	return a.Symbol < b.Symbol
}

// NewRegistry builds a registry from the given listings. Symbols must be
// non-empty and unique, and every initial price must be at least PriceFloor.
func NewRegistry(listings []Listing) (*Registry, error) {
	const degree = 8
	tree := btree.NewG[*Instrument](degree, symbolLess)

	for _, l := range listings {
		if strings.TrimSpace(l.Symbol) == "" {
			return nil, &ValidationError{Message: "instrument symbol must not be empty"}
		}
		if l.InitialPrice.LessThan(PriceFloor) {
			return nil, &ValidationError{
				Message: fmt.Sprintf("initial price for %s must be >= %s", l.Symbol, PriceFloor),
			}
		}
		if _, dup := tree.ReplaceOrInsert(NewInstrument(l)); dup {
			return nil, &ValidationError{
				Message: fmt.Sprintf("duplicate instrument symbol: %s", l.Symbol),
			}
		}
	}

	return &Registry{tree: tree}, nil
}

// Get returns the instrument for symbol, or ErrUnknownInstrument.
func (r *Registry) Get(symbol string) (*Instrument, error) {
	inst, ok := r.tree.Get(&Instrument{Symbol: symbol})
	if !ok {
		return nil, ErrUnknownInstrument
	}
	return inst, nil
}

// Exists reports whether symbol is listed.
func (r *Registry) Exists(symbol string) bool {
	return r.tree.Has(&Instrument{Symbol: symbol})
}

// Price returns the current price of symbol.
func (r *Registry) Price(symbol string) (decimal.Decimal, error) {
	inst, err := r.Get(symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return inst.Price(), nil
}

// ApplyPriceDelta moves the price of symbol by deltaPercent percent.
func (r *Registry) ApplyPriceDelta(symbol string, deltaPercent decimal.Decimal) (decimal.Decimal, error) {
	inst, err := r.Get(symbol)
	if err != nil {
		return decimal.Zero, err
	}
	price, _ := inst.ApplyDelta(deltaPercent)
	return price, nil
}

// PercentChangeFromOpen returns the change of symbol since the open, in percent.
func (r *Registry) PercentChangeFromOpen(symbol string) (decimal.Decimal, error) {
	inst, err := r.Get(symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return inst.PercentChangeFromOpen(), nil
}

// History returns a copy of symbol's price history, opening price first.
func (r *Registry) History(symbol string) ([]decimal.Decimal, error) {
	inst, err := r.Get(symbol)
	if err != nil {
		return nil, err
	}
	return inst.History(), nil
}

// Instruments returns every instrument in symbol order.
func (r *Registry) Instruments() []*Instrument {
	out := make([]*Instrument, 0, r.tree.Len())
	r.tree.Ascend(func(inst *Instrument) bool {
		out = append(out, inst)
		return true
	})
	return out
}

// Snapshot returns a summary of every instrument in symbol order. Each
// summary is internally consistent; summaries of different instruments may
// come from different ticks.
func (r *Registry) Snapshot() []InstrumentSnapshot {
	out := make([]InstrumentSnapshot, 0, r.tree.Len())
	r.tree.Ascend(func(inst *Instrument) bool {
		out = append(out, inst.Snapshot())
		return true
	})
	return out
}

// Len returns the number of listed instruments.
func (r *Registry) Len() int {
	return r.tree.Len()
}
