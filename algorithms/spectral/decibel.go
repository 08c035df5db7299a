package spectral

import (
	"math"
)

// PowerToDecibels converts a power matrix to decibels as 10*log10(p + floor).
// The floor keeps the logarithm finite for zero power.
func PowerToDecibels(power [][]float64, floor float64) [][]float64 {
	db := make([][]float64, len(power))
	for f, row := range power {
		db[f] = make([]float64, len(row))
		for t, p := range row {
			db[f][t] = 10 * math.Log10(p+floor)
		}
	}
	return db
}
