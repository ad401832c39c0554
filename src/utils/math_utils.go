package utils

import "math"

// RoundFloat rounds a float64 to a specified number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// PercentChange returns the relative change from previous to current as a
// percentage, rounded to two decimals. A zero previous value yields zero,
// matching the reporting convention for months without data.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return RoundFloat((current-previous)/previous*100, 2)
}
