package filters

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLFilter_FirstOrderImpulse(t *testing.T) {
	impulse := make([]float64, 8)
	impulse[0] = 1

	// y[n] = x[n] + 0.5*y[n-1]
	y, err := LFilter([]float64{1}, []float64{1, -0.5}, impulse)
	require.NoError(t, err)

	for n, v := range y {
		assert.InDelta(t, math.Pow(0.5, float64(n)), v, 1e-15, "n=%d", n)
	}
}

func TestLFilter_NormalizesByA0(t *testing.T) {
	x := []float64{1, 2, 3, 4}

	unit, err := LFilter([]float64{0.5, 0.25}, []float64{1, -0.25}, x)
	require.NoError(t, err)
	scaled, err := LFilter([]float64{1, 0.5}, []float64{2, -0.5}, x)
	require.NoError(t, err)

	assert.InDeltaSlice(t, unit, scaled, 1e-15)
}

func TestLFilter_FIR(t *testing.T) {
	// Two-point moving sum, numerator longer than denominator
	y, err := LFilter([]float64{1, 1}, []float64{1}, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3, 5, 7}, y)
}

func TestLFilter_InvalidCoefficients(t *testing.T) {
	_, err := LFilter([]float64{1}, nil, []float64{1})
	assert.ErrorIs(t, err, ErrInvalidCoefficients)

	_, err = LFilter([]float64{1}, []float64{0, 1}, []float64{1})
	assert.ErrorIs(t, err, ErrInvalidCoefficients)

	_, err = LFilter(nil, []float64{1}, []float64{1})
	assert.ErrorIs(t, err, ErrInvalidCoefficients)
}

func TestLFilter_EmptyInput(t *testing.T) {
	y, err := LFilter([]float64{1}, []float64{1}, []float64{})
	require.NoError(t, err)
	assert.Empty(t, y)
}

func TestIIRFilter_StateAndReset(t *testing.T) {
	f, err := NewIIRFilter([]float64{1}, []float64{1, -0.5})
	require.NoError(t, err)

	first := f.ProcessBuffer([]float64{1, 0})
	assert.Equal(t, []float64{1, 0.5}, first)

	// State carries over
	assert.Equal(t, 0.25, f.Process(0))

	f.Reset()
	assert.Equal(t, 0.0, f.Process(0))
}

func TestCascade_MatchesSingleSections(t *testing.T) {
	sections := []Section{
		{B0: 0.2, B1: 0.1, B2: -0.05, A1: -0.3, A2: 0.1},
		{B0: 1, B2: -1, A1: 0.2, A2: 0.05},
	}
	x := testSignal(800)

	expected := x
	for _, s := range sections {
		var err error
		expected, err = LFilter([]float64{s.B0, s.B1, s.B2}, []float64{1, s.A1, s.A2}, expected)
		require.NoError(t, err)
	}

	c := NewCascade(sections)
	assert.InDeltaSlice(t, expected, c.ProcessBuffer(x), 1e-12)

	c.Reset()
	assert.InDeltaSlice(t, expected, c.ProcessBuffer(x), 1e-12)
}
