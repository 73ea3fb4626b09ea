// Package util provides common utility functions for price calculations.
package util

import "math"

// RoundToTick rounds x to the nearest tick increment.
// For example, with tick=0.01, 1.2345 becomes 1.23 or 1.24 depending on rounding.
func RoundToTick(x, tick float64) float64 {
	if tick <= 0 {
		return x
	}
	return math.Round(x/tick) * tick
}

// OptionTick returns the minimum price increment for an option premium
// under the penny-increment program: $0.01 below $3.00, $0.05 at or above.
func OptionTick(price float64) float64 {
	if price < 3.00 {
		return 0.01
	}
	return 0.05
}

// RoundPremium rounds an option premium to its exchange tick.
func RoundPremium(price float64) float64 {
	return RoundToTick(price, OptionTick(price))
}
