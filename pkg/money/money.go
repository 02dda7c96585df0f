package money

import "github.com/shopspring/decimal"

// Round rounds a monetary amount to the given number of decimal places.
// Float arithmetic over commissions and tax rates accumulates artifacts
// (0.1+0.2 style); round-tripping through decimal keeps reported costs exact.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Round2 rounds a monetary amount to 2 decimal places.
func Round2(v float64) float64 {
	return Round(v, 2)
}
