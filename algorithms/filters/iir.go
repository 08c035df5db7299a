package filters

import (
	"errors"
	"fmt"
)

// ErrInvalidCoefficients is returned when a denominator is empty or a[0] is zero.
var ErrInvalidCoefficients = errors.New("invalid filter coefficients")

// IIRFilter implements a causal recursive filter in transposed direct form II.
//
// The difference equation is:
// a[0]*y[n] = b[0]*x[n] + b[1]*x[n-1] + ... - a[1]*y[n-1] - a[2]*y[n-2] - ...
//
// Coefficients are divided by a[0] once at construction, so processing always
// runs against a normalized denominator.
type IIRFilter struct {
	b []float64
	a []float64

	// State variables (one per delay element)
	z []float64
}

// NewIIRFilter creates a filter from numerator b and denominator a.
func NewIIRFilter(b, a []float64) (*IIRFilter, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, fmt.Errorf("%w: empty coefficient sequence", ErrInvalidCoefficients)
	}
	if a[0] == 0 {
		return nil, fmt.Errorf("%w: a[0] must be non-zero", ErrInvalidCoefficients)
	}

	// Pad to a common length so the delay line update is uniform
	n := max(len(a), len(b))
	nb := make([]float64, n)
	na := make([]float64, n)
	for i, v := range b {
		nb[i] = v / a[0]
	}
	for i, v := range a {
		na[i] = v / a[0]
	}

	return &IIRFilter{
		b: nb,
		a: na,
		z: make([]float64, n),
	}, nil
}

// Process applies the filter to a single sample.
func (f *IIRFilter) Process(input float64) float64 {
	output := f.b[0]*input + f.z[0]

	n := len(f.b)
	for i := 1; i < n; i++ {
		f.z[i-1] = f.b[i]*input + f.z[i] - f.a[i]*output
	}

	return output
}

// ProcessBuffer applies the filter to an entire buffer of samples.
// The filter state carries over between calls.
func (f *IIRFilter) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = f.Process(sample)
	}
	return output
}

// Reset clears the filter's internal state (delay line).
func (f *IIRFilter) Reset() {
	clear(f.z)
}

// LFilter filters x with the rational transfer function b/a, starting from
// zero initial conditions. The input is not modified.
func LFilter(b, a, x []float64) ([]float64, error) {
	f, err := NewIIRFilter(b, a)
	if err != nil {
		return nil, err
	}
	return f.ProcessBuffer(x), nil
}

// Cascade runs a chain of second-order sections, each in transposed direct form II.
type Cascade struct {
	sections []Section
	z1, z2   []float64
}

// NewCascade creates a cascade with zeroed state.
func NewCascade(sections []Section) *Cascade {
	s := make([]Section, len(sections))
	copy(s, sections)
	return &Cascade{
		sections: s,
		z1:       make([]float64, len(s)),
		z2:       make([]float64, len(s)),
	}
}

// Process applies every section to a single sample.
func (c *Cascade) Process(input float64) float64 {
	x := input
	for i, s := range c.sections {
		y := s.B0*x + c.z1[i]
		c.z1[i] = s.B1*x - s.A1*y + c.z2[i]
		c.z2[i] = s.B2*x - s.A2*y
		x = y
	}
	return x
}

// ProcessBuffer applies the cascade to an entire buffer of samples.
func (c *Cascade) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = c.Process(sample)
	}
	return output
}

// Reset clears the state of every section.
func (c *Cascade) Reset() {
	clear(c.z1)
	clear(c.z2)
}

// Apply filters x with zero initial conditions and returns a new slice.
// When second-order sections are available they are used; otherwise the
// polynomial form is evaluated directly.
func (c *Coefficients) Apply(x []float64) ([]float64, error) {
	if len(c.Sections) > 0 {
		return NewCascade(c.Sections).ProcessBuffer(x), nil
	}
	return LFilter(c.B, c.A, x)
}
