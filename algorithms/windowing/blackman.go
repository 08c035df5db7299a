package windowing

// Blackman is the three-term cosine window (0.42, 0.5, 0.08).
type Blackman struct {
	table
}

// NewBlackman creates a new Blackman window
func NewBlackman(size int, symmetric bool) *Blackman {
	coeffs := cosineSum(size, symmetric, 0.42, 0.5, 0.08)
	// The formula yields tiny negative values at the edges
	for i, c := range coeffs {
		if c < 0 {
			coeffs[i] = 0
		}
	}
	return &Blackman{table: table{kind: "blackman", coefficients: coeffs}}
}
