package domain

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// PriceFloor is the smallest price an instrument can trade at. Any price
// update that would land below it is replaced by it.
var PriceFloor = decimal.New(1, -2)

const (
	// priceScale is the number of decimal places kept on simulated prices.
	priceScale = 4
	centScale  = 2
)

var hundred = decimal.NewFromInt(100)

// RoundPrice rounds a price to the simulator's price precision.
func RoundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(priceScale)
}

// HasCentPrecision reports whether d has at most two decimal places.
func HasCentPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Round(centScale))
}

// Notional returns quantity × price.
func Notional(quantity int64, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(quantity))
}

// ValidCurrency reports whether code is an ISO currency known to go-money.
func ValidCurrency(code string) bool {
	return money.GetCurrency(code) != nil
}

// FormatAmount renders an amount for display in the given currency,
// e.g. "$8,500.00" for USD. The amount is rounded to the currency's
// minor unit first.
func FormatAmount(d decimal.Decimal, currency string) string {
	cur := money.New(0, currency).Currency()
	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return cur.Formatter().Format(minor)
}
