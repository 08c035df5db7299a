package analysis

// Result is the analysis bundle handed to the transport layer.
// All slices are freshly allocated and every value is finite.
type Result struct {
	Times       []float64   `json:"times"`       // Seconds, one per sample
	Oscilogram  []float64   `json:"oscilogram"`  // Filtered, peak-normalized samples
	Frequencies []float64   `json:"frequencies"` // Hz, one per bin
	Spectrogram [][]float64 `json:"spectrogram"` // dB, [bin][segment]
	TimeBins    []float64   `json:"time_bins"`   // Seconds, one per segment

	SampleRate      int     `json:"sample_rate"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Segments returns the number of spectrogram segments
func (r *Result) Segments() int {
	return len(r.TimeBins)
}

// Bins returns the number of frequency bins
func (r *Result) Bins() int {
	return len(r.Frequencies)
}
