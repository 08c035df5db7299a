package windowing

// Rectangular represents a rectangular (boxcar) window function
type Rectangular struct {
	table
}

// NewRectangular creates a new rectangular window
func NewRectangular(size int) *Rectangular {
	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	return &Rectangular{table: table{kind: "rectangular", coefficients: coeffs}}
}
