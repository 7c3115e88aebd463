package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side indicates whether a trade or order buys or sells.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Trade is an immutable record of an executed order. Trades are created by
// an Account when it applies a buy or sell and are never modified.
type Trade struct {
	TradeID    string
	Seq        int64 // per-account sequence number, starting at 1
	AccountID  string
	Symbol     string
	Side       Side
	Quantity   int64
	Price      decimal.Decimal // price at execution time
	ExecutedAt time.Time
}

// Notional returns quantity × price for the trade.
func (t Trade) Notional() decimal.Decimal {
	return Notional(t.Quantity, t.Price)
}
