package utils

import "math"

// Round2 rounds v to two decimal places, half away from zero.
// Currency and score values are passed through it before serialization.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
