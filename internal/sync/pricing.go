package sync

import "github.com/shopspring/decimal"

// minMarginMultiplier keeps a misconfigured margin from dividing by zero.
const minMarginMultiplier = 0.01

// ComputeVariantPrice derives a retail price from the distributor cost:
// cost divided by margin/100, so a 50% margin doubles the cost. The divisor
// is floored so a zero or negative margin cannot blow the price up without
// bound. The result rounds UP to the next increment boundary so rounding
// never undercuts the intended margin.
//
// A non-positive cost returns 0: the caller leaves such variants unpriced.
// A non-positive increment disables rounding.
func ComputeVariantPrice(cost, marginPercent, increment float64) float64 {
	if cost <= 0 {
		return 0
	}

	multiplier := marginPercent / 100
	if multiplier < minMarginMultiplier {
		multiplier = minMarginMultiplier
	}

	raw := decimal.NewFromFloat(cost).Div(decimal.NewFromFloat(multiplier))
	if increment <= 0 {
		price, _ := raw.Float64()
		return price
	}

	inc := decimal.NewFromFloat(increment)
	price, _ := raw.Div(inc).Ceil().Mul(inc).Float64()
	return price
}
