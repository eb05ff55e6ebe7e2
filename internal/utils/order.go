package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// AllInQuantity is the largest number of whole shares whose cost at price plus the
// commission fee charges for them fits in cash.
func AllInQuantity(cash float64, price float64, fee func(quantity float64, price float64) float64) float64 {
	if price <= 0 || cash <= 0 || math.IsNaN(price) {
		return 0
	}

	available := decimal.NewFromFloat(cash)
	px := decimal.NewFromFloat(price)

	fits := func(quantity float64) bool {
		cost := decimal.NewFromFloat(quantity).Mul(px).Add(decimal.NewFromFloat(fee(quantity, price)))

		return cost.LessThanOrEqual(available)
	}

	// cost only grows with quantity, whatever the commission scheme
	low, high := 0.0, math.Floor(cash/price)
	for low < high {
		mid := math.Ceil((low + high) / 2)
		if fits(mid) {
			low = mid
		} else {
			high = mid - 1
		}
	}

	return low
}

// RoundToDecimalPrecision rounds the quantity down to the specified decimal precision.
func RoundToDecimalPrecision(quantity float64, decimalPrecision int) float64 {
	multiplier := math.Pow10(decimalPrecision)

	return math.Floor(quantity*multiplier) / multiplier
}

// Round rounds value half away from zero to places decimals.
func Round(value float64, places int32) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}

	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}
