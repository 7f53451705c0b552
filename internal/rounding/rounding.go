// Package rounding implements tick/lot-exact price and quantity rounding
// for Binance USDT-margined futures symbols.
package rounding

import (
	"math"

	"github.com/shopspring/decimal"
)

// Decimals returns the number of decimal places implied by a tick/step
// size such as 0.001 -> 3, 1 -> 0, 0.1 -> 1.
func Decimals(step float64) int32 {
	if step <= 0 {
		return 0
	}
	d := math.Round(math.Log10(1 / step))
	if d < 0 {
		return 0
	}
	return int32(d)
}

// RoundPrice rounds price down to the symbol's tick size. Idempotent:
// rounding an already-rounded price returns the same value.
func RoundPrice(price, tickSize float64) float64 {
	return roundStep(price, tickSize)
}

// RoundQty rounds qty down to the symbol's lot step size. Idempotent for
// the same reason as RoundPrice.
func RoundQty(qty, stepSize float64) float64 {
	return roundStep(qty, stepSize)
}

func roundStep(value, step float64) float64 {
	if step <= 0 {
		return value
	}
	v := decimal.NewFromFloat(value)
	s := decimal.NewFromFloat(step)
	steps := v.Div(s).Floor()
	rounded := steps.Mul(s)
	f, _ := rounded.Round(Decimals(step)).Float64()
	return f
}
