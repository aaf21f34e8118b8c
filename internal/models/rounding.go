package models

import "github.com/shopspring/decimal"

// Round1 rounds to one decimal place, the precision contract for all age and
// percentage outputs. Decimal rounding avoids the float drift of the usual
// multiply-round-divide trick on values like 2.675.
func Round1(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(1).Float64()
	return f
}

// Round2 rounds to two decimal places, used for ratios and correlation
// coefficients in API responses.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
