package filters

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"
)

var (
	// ErrInvalidBand is returned when the pass band is degenerate or does not
	// fit strictly inside (0, Nyquist).
	ErrInvalidBand = errors.New("invalid pass band")

	// ErrInvalidOrder is returned for a prototype order below 1.
	ErrInvalidOrder = errors.New("invalid filter order")
)

// Default telephone-band design parameters.
const (
	DefaultLowCutHz  = 300.0
	DefaultHighCutHz = 3400.0
	DefaultOrder     = 5
)

// Section is a single second-order section (biquad) with a0 normalized to 1.
//
// H(z) = (B0 + B1*z^-1 + B2*z^-2) / (1 + A1*z^-1 + A2*z^-2)
type Section struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Coefficients holds a designed IIR filter in two equivalent forms.
//
// B and A are the transfer function polynomials in z^-1 with A[0] == 1. For a
// bandpass of prototype order N both have length 2N+1.
//
// Sections is the same transfer function factored into N second-order
// sections. Expanding high-order polynomials loses precision quickly when the
// poles crowd the unit circle (low cut frequencies at high sample rates), so
// the cascade is what Apply uses.
type Coefficients struct {
	B        []float64 `json:"b"`
	A        []float64 `json:"a"`
	Sections []Section `json:"-"`
}

// Order returns the degree of the transfer function.
func (c *Coefficients) Order() int {
	return len(c.A) - 1
}

// Clone returns a deep copy of the coefficients.
func (c *Coefficients) Clone() *Coefficients {
	out := &Coefficients{
		B:        make([]float64, len(c.B)),
		A:        make([]float64, len(c.A)),
		Sections: make([]Section, len(c.Sections)),
	}
	copy(out.B, c.B)
	copy(out.A, c.A)
	copy(out.Sections, c.Sections)
	return out
}

// ButterBandpass designs a digital Butterworth bandpass filter.
//
// Parameters:
//   - lowHz, highHz: -3 dB band edges in Hz, 0 < lowHz < highHz < sampleRate/2
//   - sampleRate: Sample rate in Hz
//   - order: order of the analog lowpass prototype (the digital filter has order 2*order)
//
// The design follows the classical route: analog Butterworth prototype poles,
// band edges pre-warped for the bilinear transform, lowpass to bandpass
// frequency transformation, then the bilinear transform itself. All of it is
// done on poles and zeros so the polynomial form is only built at the end.
func ButterBandpass(lowHz, highHz float64, sampleRate, order int) (*Coefficients, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: order must be at least 1, got %d", ErrInvalidOrder, order)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidBand, sampleRate)
	}

	nyquist := 0.5 * float64(sampleRate)
	if !(lowHz > 0) || !(highHz > lowHz) || !(highHz < nyquist) {
		return nil, fmt.Errorf("%w: need 0 < low (%g Hz) < high (%g Hz) < Nyquist (%g Hz)",
			ErrInvalidBand, lowHz, highHz, nyquist)
	}

	// Normalized to Nyquist, in (0, 1)
	low := lowHz / nyquist
	high := highHz / nyquist

	// Pre-warp with fs = 2 so that the bilinear constant is 2*fs = 4
	const fs2 = 4.0
	warpedLow := fs2 * math.Tan(math.Pi*low/2)
	warpedHigh := fs2 * math.Tan(math.Pi*high/2)
	bw := warpedHigh - warpedLow
	w0 := math.Sqrt(warpedLow * warpedHigh)

	// Analog prototype: unit circle poles in the left half plane, no zeros, unit gain
	proto := make([]complex128, 0, order)
	for m := -order + 1; m < order; m += 2 {
		proto = append(proto, -cmplx.Exp(complex(0, math.Pi*float64(m)/float64(2*order))))
	}

	// Lowpass to bandpass: each prototype pole splits into two, N zeros land at s = 0
	analogPoles := make([]complex128, 0, 2*order)
	w0sq := complex(w0*w0, 0)
	for _, p := range proto {
		lp := p * complex(bw/2, 0)
		disc := cmplx.Sqrt(lp*lp - w0sq)
		analogPoles = append(analogPoles, lp+disc)
	}
	for _, p := range proto {
		lp := p * complex(bw/2, 0)
		disc := cmplx.Sqrt(lp*lp - w0sq)
		analogPoles = append(analogPoles, lp-disc)
	}
	gain := math.Pow(bw, float64(order))

	// Bilinear transform. Zeros at s = 0 map to z = 1, the N zeros at infinity
	// map to z = -1.
	poles := make([]complex128, len(analogPoles))
	den := complex(1, 0)
	for i, p := range analogPoles {
		poles[i] = (fs2 + p) / (fs2 - p)
		den *= fs2 - p
	}
	num := complex(math.Pow(fs2, float64(order)), 0)
	gain *= real(num / den)

	zeros := make([]complex128, 0, 2*order)
	for range order {
		zeros = append(zeros, 1)
	}
	for range order {
		zeros = append(zeros, -1)
	}

	b := polyFromRoots(zeros)
	for i := range b {
		b[i] *= gain
	}
	a := polyFromRoots(poles)

	sections, err := pairSections(poles, gain)
	if err != nil {
		return nil, err
	}

	return &Coefficients{B: b, A: a, Sections: sections}, nil
}

// polyFromRoots expands prod(1 - r*z^-1) and keeps the real part.
// Roots are expected to come in conjugate pairs.
func polyFromRoots(roots []complex128) []float64 {
	c := make([]complex128, 1, len(roots)+1)
	c[0] = 1
	for _, r := range roots {
		next := make([]complex128, len(c)+1)
		for i, v := range c {
			next[i] += v
			next[i+1] -= v * r
		}
		c = next
	}

	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = real(v)
	}
	return out
}

// pairSections groups the digital poles into second-order sections. Every
// section receives one zero at z = 1 and one at z = -1, so all numerators are
// (1 - z^-2); the overall gain is folded into the first section.
func pairSections(poles []complex128, gain float64) ([]Section, error) {
	var upper []complex128
	var reals []float64
	for _, p := range poles {
		switch {
		case math.Abs(imag(p)) <= 1e-12*cmplx.Abs(p):
			reals = append(reals, real(p))
		case imag(p) > 0:
			upper = append(upper, p)
		}
	}
	if len(reals)%2 != 0 || len(upper)+len(reals)/2 != len(poles)/2 {
		return nil, fmt.Errorf("unpaired poles: %d complex, %d real", len(upper), len(reals))
	}
	sort.Float64s(reals)

	sections := make([]Section, 0, len(poles)/2)
	for _, p := range upper {
		sections = append(sections, Section{
			B0: 1, B2: -1,
			A1: -2 * real(p),
			A2: real(p)*real(p) + imag(p)*imag(p),
		})
	}
	for i := 0; i < len(reals); i += 2 {
		sections = append(sections, Section{
			B0: 1, B2: -1,
			A1: -(reals[i] + reals[i+1]),
			A2: reals[i] * reals[i+1],
		})
	}

	sections[0].B0 *= gain
	sections[0].B2 *= gain
	return sections, nil
}
