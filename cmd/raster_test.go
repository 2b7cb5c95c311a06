package main

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/kass/go-insar-gps/pkg/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitPhase returns the real and imaginary parts of a 4x4 raster with phase
// 0.1*col and amplitude 2
func unitPhase(t *testing.T) (*raster.Field, *raster.Field) {
	t.Helper()
	re, im := raster.NewField(4, 4), raster.NewField(4, 4)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			v := cmplx.Rect(2, 0.1*float64(c))
			re.Set(r, c, real(v))
			im.Set(r, c, imag(v))
		}
	}
	return re, im
}

func TestFillPhase(t *testing.T) {
	t.Run("missing cell", func(t *testing.T) {
		re, im := unitPhase(t)
		re.Set(1, 2, math.NaN())

		out, err := fillPhase(re, im, fillOptions{}, newReport("test"))
		require.NoError(t, err)
		filled := out.At(1, 2)
		assert.InDelta(t, 1.0, cmplx.Abs(filled), 1e-12)
		assert.InDelta(t, 0.2, cmplx.Phase(filled), 1e-9)
		assert.InDelta(t, 2.0, cmplx.Abs(out.At(0, 0)), 1e-12)
	})

	t.Run("coherence mask", func(t *testing.T) {
		re, im := unitPhase(t)
		coherence := raster.NewField(4, 4)
		for i := range coherence.Data {
			coherence.Data[i] = 0.9
		}
		coherence.Set(2, 1, 0.1)

		rep := newReport("test")
		out, err := fillPhase(re, im, fillOptions{coherence: coherence, threshold: 0.5}, rep)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, cmplx.Abs(out.At(2, 1)), 1e-12)
		assert.InDelta(t, 0.1, cmplx.Phase(out.At(2, 1)), 1e-9)
		assert.Contains(t, rep.render(false), "Masked: 1 cells below 0.5")
	})

	t.Run("cut", func(t *testing.T) {
		re, im := unitPhase(t)
		out, err := fillPhase(re, im, fillOptions{cut: []float64{0, 0.5, 0, 1}}, newReport("test"))
		require.NoError(t, err)
		assert.Equal(t, 2, out.Cols)
		assert.Equal(t, 4, out.Rows)
	})

	t.Run("shape mismatch", func(t *testing.T) {
		re, _ := unitPhase(t)
		_, err := fillPhase(re, raster.NewField(2, 2), fillOptions{}, newReport("test"))
		assert.ErrorIs(t, err, raster.ErrShapeMismatch)
	})
}

func TestFillReal(t *testing.T) {
	f := raster.NewField(3, 3)
	for i := range f.Data {
		f.Data[i] = float64(i)
	}
	f.Data[4] = math.NaN()

	out, err := fillReal(f, fillOptions{precision: raster.Float32}, newReport("test"))
	require.NoError(t, err)
	assert.InDelta(t, 4.0, out.At(1, 1), 1e-6)
	assert.Equal(t, raster.Float32, out.Precision)

	_, err = fillReal(f, fillOptions{cut: []float64{0, 1}}, newReport("test"))
	assert.Error(t, err)
}
