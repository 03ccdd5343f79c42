package utils

import "math"

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}

// KmToMiles converts kilometers to statute miles.
func KmToMiles(km float64) float64 {
	return km * 0.621371
}
