package windowing

// Hamming is a raised cosine window that does not reach zero at the edges.
type Hamming struct {
	table
}

// NewHamming creates a new Hamming window
func NewHamming(size int, symmetric bool) *Hamming {
	return &Hamming{table: table{kind: "hamming", coefficients: cosineSum(size, symmetric, 0.54, 0.46)}}
}
