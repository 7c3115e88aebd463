package engine

import (
	"github.com/shopspring/decimal"

	"github.com/efreitasn/tradesim/internal/domain"
)

// PriceSource resolves the current price of a symbol. *domain.Registry
// satisfies it.
type PriceSource interface {
	Price(symbol string) (decimal.Decimal, error)
}

// Position is the valuation of one held symbol.
type Position struct {
	Symbol        string
	Quantity      int64
	AverageCost   decimal.Decimal
	CurrentPrice  decimal.Decimal
	Investment    decimal.Decimal // AverageCost × Quantity
	CurrentValue  decimal.Decimal // CurrentPrice × Quantity
	UnrealizedPnL decimal.Decimal
}

// Performance summarizes an account's open positions against current
// prices.
type Performance struct {
	AccountID         string
	Positions         []Position
	TotalInvestment   decimal.Decimal
	TotalCurrentValue decimal.Decimal
	UnrealizedPnL     decimal.Decimal
	// Percent is (TotalCurrentValue - TotalInvestment) / TotalInvestment × 100,
	// nil when TotalInvestment is zero.
	Percent     *decimal.Decimal
	RealizedPnL decimal.Decimal
}

// AverageCostBasis returns the quantity-weighted mean price of every buy of
// symbol in history. Sells do not affect it. The second result is false when
// there are no buys.
func AverageCostBasis(history []domain.Trade, symbol string) (decimal.Decimal, bool) {
	cost, qty := buyTotals(history, symbol)
	if qty.IsZero() {
		return decimal.Zero, false
	}
	return cost.Div(qty), true
}

// buyTotals sums the notional and the quantity of every buy of symbol.
// Quantities are summed as decimals since repeated buys can exceed int64.
func buyTotals(history []domain.Trade, symbol string) (cost, qty decimal.Decimal) {
	cost, qty = decimal.Zero, decimal.Zero
	for _, t := range history {
		if t.Symbol != symbol || t.Side != domain.SideBuy {
			continue
		}
		cost = cost.Add(t.Notional())
		qty = qty.Add(decimal.NewFromInt(t.Quantity))
	}
	return cost, qty
}

// UnrealizedPerformance values every positive holding of the snapshot at
// the current price. It reads prices only and changes nothing.
func UnrealizedPerformance(snap domain.AccountSnapshot, prices PriceSource) (Performance, error) {
	perf := Performance{
		AccountID:         snap.AccountID,
		Positions:         make([]Position, 0, len(snap.Holdings)),
		TotalInvestment:   decimal.Zero,
		TotalCurrentValue: decimal.Zero,
		RealizedPnL:       RealizedPnL(snap.History),
	}

	for _, h := range snap.Holdings {
		price, err := prices.Price(h.Symbol)
		if err != nil {
			return Performance{}, err
		}
		cost, bought := buyTotals(snap.History, h.Symbol)
		qty := decimal.NewFromInt(h.Quantity)

		// avg × qty, with a single division.
		avg, investment := decimal.Zero, decimal.Zero
		if !bought.IsZero() {
			avg = cost.Div(bought)
			investment = cost.Mul(qty).Div(bought)
		}
		value := price.Mul(qty)

		perf.Positions = append(perf.Positions, Position{
			Symbol:        h.Symbol,
			Quantity:      h.Quantity,
			AverageCost:   avg,
			CurrentPrice:  price,
			Investment:    investment,
			CurrentValue:  value,
			UnrealizedPnL: value.Sub(investment),
		})
		perf.TotalInvestment = perf.TotalInvestment.Add(investment)
		perf.TotalCurrentValue = perf.TotalCurrentValue.Add(value)
	}

	perf.UnrealizedPnL = perf.TotalCurrentValue.Sub(perf.TotalInvestment)
	if !perf.TotalInvestment.IsZero() {
		pct := perf.UnrealizedPnL.Div(perf.TotalInvestment).Mul(decimal.NewFromInt(100)).Round(4)
		perf.Percent = &pct
	}
	return perf, nil
}

// RealizedPnL returns the profit locked in by sells, each measured against
// the running average cost of the position at the time of the sale.
func RealizedPnL(history []domain.Trade) decimal.Decimal {
	type lot struct {
		qty  decimal.Decimal
		cost decimal.Decimal
	}
	lots := make(map[string]*lot)
	realized := decimal.Zero

	for _, t := range history {
		l := lots[t.Symbol]
		if l == nil {
			l = &lot{qty: decimal.Zero, cost: decimal.Zero}
			lots[t.Symbol] = l
		}
		switch t.Side {
		case domain.SideBuy:
			l.qty = l.qty.Add(decimal.NewFromInt(t.Quantity))
			l.cost = l.cost.Add(t.Notional())
		case domain.SideSell:
			if l.qty.IsZero() {
				continue
			}
			n := decimal.NewFromInt(t.Quantity)
			sold := l.cost.Mul(n).Div(l.qty)
			realized = realized.Add(t.Notional().Sub(sold))
			l.qty = l.qty.Sub(n)
			l.cost = l.cost.Sub(sold)
			if l.qty.IsZero() {
				l.cost = decimal.Zero
			}
		}
	}
	return realized
}
