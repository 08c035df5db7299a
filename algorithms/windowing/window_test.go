package windowing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTukey_PeriodicShape(t *testing.T) {
	w := NewTukey(256, 0.25, false)
	c := w.GetCoefficients()
	require.Len(t, c, 256)

	assert.Equal(t, "tukey", w.GetType())
	assert.Equal(t, 0.25, w.GetAlpha())
	assert.InDelta(t, 0, c[0], 1e-15)

	// Flat top between the tapers: width = floor(0.25*256/2) = 32
	for n := 32; n <= 224; n++ {
		assert.InDelta(t, 1.0, c[n], 1e-15, "n=%d", n)
	}
	assert.Less(t, c[31], 1.0)
	assert.Less(t, c[225], 1.0)

	// Periodic windows are symmetric around size/2
	for n := 1; n < 256; n++ {
		assert.InDelta(t, c[n], c[256-n], 1e-12, "n=%d", n)
	}
}

func TestTukey_Limits(t *testing.T) {
	assert.Equal(t, NewRectangular(16).GetCoefficients(), NewTukey(16, 0, false).GetCoefficients())
	assert.Equal(t, NewHann(16, true).GetCoefficients(), NewTukey(16, 1, true).GetCoefficients())
	assert.Equal(t, []float64{1}, NewTukey(1, 0.5, false).GetCoefficients())
}

func TestHann(t *testing.T) {
	periodic := NewHann(8, false).GetCoefficients()
	for n, v := range periodic {
		assert.InDelta(t, 0.5*(1-math.Cos(2*math.Pi*float64(n)/8)), v, 1e-15, "n=%d", n)
	}

	symmetric := NewHann(9, true).GetCoefficients()
	assert.InDelta(t, 0, symmetric[0], 1e-15)
	assert.InDelta(t, 0, symmetric[8], 1e-15)
	assert.InDelta(t, 1, symmetric[4], 1e-15)

	assert.InDelta(t, 128, Sum(NewHann(256, false)), 1e-9)
	assert.Empty(t, NewHann(0, false).GetCoefficients())
}

func TestHammingAndBlackman(t *testing.T) {
	hamming := NewHamming(9, true).GetCoefficients()
	assert.InDelta(t, 0.08, hamming[0], 1e-12)
	assert.InDelta(t, 1.0, hamming[4], 1e-12)

	blackman := NewBlackman(9, true).GetCoefficients()
	assert.GreaterOrEqual(t, blackman[0], 0.0)
	assert.InDelta(t, 0, blackman[0], 1e-12)
	assert.InDelta(t, 1.0, blackman[4], 1e-12)
}

func TestNew(t *testing.T) {
	tests := []struct {
		cfg      Config
		wantType string
	}{
		{DefaultConfig(), "tukey"},
		{Config{Type: "HANN"}, "hann"},
		{Config{Type: "hanning", Symmetric: true}, "hann"},
		{Config{Type: "hamming"}, "hamming"},
		{Config{Type: "blackman"}, "blackman"},
		{Config{Type: "boxcar"}, "rectangular"},
	}

	for _, tt := range tests {
		t.Run(tt.cfg.Type, func(t *testing.T) {
			w, err := New(tt.cfg, 64)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, w.GetType())
			assert.Equal(t, 64, w.GetSize())
		})
	}

	_, err := New(Config{Type: "kaiser"}, 64)
	assert.ErrorIs(t, err, ErrUnknownWindow)

	_, err = New(Config{Type: "tukey", Alpha: 1.5}, 64)
	assert.Error(t, err)

	_, err = New(DefaultConfig(), 0)
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	w := NewHann(4, false)
	signal := []float64{2, 2, 2, 2}

	windowed := w.Apply(signal)
	assert.InDeltaSlice(t, []float64{0, 1, 2, 1}, windowed, 1e-15)
	assert.Equal(t, []float64{2, 2, 2, 2}, signal)

	assert.Nil(t, w.Apply([]float64{1, 2}))

	require.NoError(t, w.ApplyInPlace(signal))
	assert.InDeltaSlice(t, []float64{0, 1, 2, 1}, signal, 1e-15)
	assert.Error(t, w.ApplyInPlace([]float64{1}))
}

func TestSumSquares(t *testing.T) {
	assert.InDelta(t, 16, SumSquares(NewRectangular(16)), 1e-12)
	// Periodic Hann energy is 3N/8
	assert.InDelta(t, 96, SumSquares(NewHann(256, false)), 1e-9)
}
