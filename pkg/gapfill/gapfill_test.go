package gapfill

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"testing"

	"github.com/kass/go-insar-gps/pkg/interp"
	"github.com/kass/go-insar-gps/pkg/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

func field(t *testing.T, rows [][]float64) *raster.Field {
	t.Helper()
	f, err := raster.FromRows(rows)
	require.NoError(t, err)
	return f
}

func TestBuildMask(t *testing.T) {
	coh := field(t, [][]float64{
		{0.9, 0.1, nan},
		{0.5, 0.49, 1},
	})
	mask := BuildMask(coh, 0.5)

	expected := []bool{true, false, false, true, false, true}
	for i, valid := range expected {
		if valid {
			assert.Equal(t, 1.0, mask.Data[i], "cell %d", i)
		} else {
			assert.True(t, math.IsNaN(mask.Data[i]), "cell %d", i)
		}
	}
}

func TestApplyMask(t *testing.T) {
	data := field(t, [][]float64{{0.1, 2}, {3, 4}})
	mask := field(t, [][]float64{{1, nan}, {1, 1}})

	t.Run("float64", func(t *testing.T) {
		out, err := ApplyMask(data, mask, raster.Float64)
		require.NoError(t, err)
		assert.Equal(t, raster.Float64, out.Precision)
		assert.Equal(t, 0.1, out.At(0, 0))
		assert.True(t, math.IsNaN(out.At(0, 1)))
		assert.Equal(t, 4.0, out.At(1, 1))
	})

	t.Run("float32", func(t *testing.T) {
		out, err := ApplyMask(data, mask, raster.Float32)
		require.NoError(t, err)
		assert.Equal(t, raster.Float32, out.Precision)
		assert.Equal(t, float64(float32(0.1)), out.At(0, 0))
		assert.True(t, math.IsNaN(out.At(0, 1)))
	})

	t.Run("shape mismatch", func(t *testing.T) {
		_, err := ApplyMask(data, field(t, [][]float64{{1, 1, 1}}), raster.Float64)
		assert.True(t, errors.Is(err, raster.ErrShapeMismatch))
	})
}

func TestApplyMaskComplex(t *testing.T) {
	data := raster.NewComplexField(1, 2)
	data.Data = []complex128{complex(1, 2), complex(3, 4)}
	mask := field(t, [][]float64{{1, nan}})

	out, err := ApplyMaskComplex(data, mask, raster.Float32)
	require.NoError(t, err)
	assert.Equal(t, complex(1, 2), out.At(0, 0))
	assert.True(t, cmplx.IsNaN(out.At(0, 1)))
	assert.Equal(t, raster.Float32, out.Precision)

	_, err = ApplyMaskComplex(data, field(t, [][]float64{{1}}), raster.Float64)
	assert.True(t, errors.Is(err, raster.ErrShapeMismatch))
}

func TestFillGapsIdempotentWithoutNaN(t *testing.T) {
	f := field(t, [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})
	out, err := FillGaps(f)
	require.NoError(t, err)
	assert.Equal(t, f.Data, out.Data)

	again, err := FillGaps(out)
	require.NoError(t, err)
	assert.Equal(t, out.Data, again.Data)
}

func TestFillGapsLinearField(t *testing.T) {
	// v = 2*col + row, holes in the interior
	rows := make([][]float64, 5)
	for r := range rows {
		rows[r] = make([]float64, 5)
		for c := range rows[r] {
			rows[r][c] = float64(2*c + r)
		}
	}
	rows[2][2], rows[1][3], rows[3][1] = nan, nan, nan
	f := field(t, rows)

	out, err := FillGaps(f)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, out.At(2, 2), 1e-9)
	assert.InDelta(t, 7.0, out.At(1, 3), 1e-9)
	assert.InDelta(t, 5.0, out.At(3, 1), 1e-9)
	assert.Equal(t, 0, out.CountNaN())
	assert.True(t, math.IsNaN(f.At(2, 2)), "input is not modified")
}

func TestFillGapsOutsideHull(t *testing.T) {
	f := field(t, [][]float64{
		{nan, nan, nan},
		{nan, 4, 5},
		{nan, 6, 7},
	})
	out, err := FillGaps(f)
	require.NotNil(t, out)

	var warning *interp.OutOfBoundsWarning
	require.True(t, errors.As(err, &warning))
	assert.Equal(t, 5, warning.Count)
	for _, i := range []int{0, 1, 2, 3, 6} {
		assert.Equal(t, Fallback, out.Data[i])
	}
	assert.Equal(t, 7.0, out.At(2, 2))
}

func TestFillGapsInsufficient(t *testing.T) {
	f := field(t, [][]float64{{nan, 1}, {nan, 2}})
	_, err := FillGaps(f)
	var insufficient *interp.InsufficientDataError
	assert.True(t, errors.As(err, &insufficient))
}

func TestFillPhaseGaps(t *testing.T) {
	f := raster.NewComplexField(3, 3)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			// amplitude 2, phase rising along columns
			f.Set(r, c, cmplx.Rect(2, 0.1*float64(c)))
		}
	}
	f.Set(1, 1, complex(nan, nan))

	out, err := FillPhaseGaps(f)
	require.NoError(t, err)

	filled := out.At(1, 1)
	assert.InDelta(t, 1.0, cmplx.Abs(filled), 1e-12)
	assert.InDelta(t, 0.1, cmplx.Phase(filled), 1e-9)
	assert.Equal(t, f.At(0, 0), out.At(0, 0))
	assert.InDelta(t, 2.0, cmplx.Abs(out.At(2, 2)), 1e-12)
}

func TestCutGrid(t *testing.T) {
	f := raster.NewField(10, 10)
	for i := range f.Data {
		f.Data[i] = float64(i)
	}
	f.X = make([]float64, 10)
	f.Y = make([]float64, 10)
	for i := range f.X {
		f.X[i] = float64(i) * 0.5
		f.Y[i] = float64(i)
	}

	t.Run("fractional with buffer", func(t *testing.T) {
		out, err := CutGrid(f, [2]float64{0, 0.5}, [2]float64{0.2, 1}, true, 3)
		require.NoError(t, err)
		// columns [3,5), rows [3,7)
		assert.Equal(t, 2, out.Cols)
		assert.Equal(t, 4, out.Rows)
		assert.Equal(t, 33.0, out.At(0, 0))
		assert.Equal(t, []float64{1.5, 2}, out.X)
		assert.Equal(t, []float64{3, 4, 5, 6}, out.Y)
	})

	t.Run("indices", func(t *testing.T) {
		out, err := CutGrid(f, [2]float64{1, 4}, [2]float64{2, 3}, false, 0)
		require.NoError(t, err)
		assert.Equal(t, []float64{21, 22, 23}, out.Data)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := CutGrid(f, [2]float64{0, 0.2}, [2]float64{0, 1}, true, 3)
		assert.True(t, errors.Is(err, ErrEmptyCut))
	})
}

func TestFillGapsScatteredHoles(t *testing.T) {
	// v = col - 2*row with every seventh cell missing, corners kept
	f := raster.NewField(40, 40)
	for r := 0; r < f.Rows; r++ {
		for c := 0; c < f.Cols; c++ {
			f.Set(r, c, float64(c-2*r))
		}
	}
	for i := 1; i < len(f.Data)-1; i += 7 {
		f.Data[i] = nan
	}

	out, err := FillGaps(f)
	require.NoError(t, err)
	for r := 0; r < f.Rows; r++ {
		for c := 0; c < f.Cols; c++ {
			assert.InDelta(t, float64(c-2*r), out.At(r, c), 1e-9, "cell (%d, %d)", r, c)
		}
	}
}

// gappy is a size×size ramp with every seventh cell missing
func gappy(size int) *raster.Field {
	f := raster.NewField(size, size)
	for i := range f.Data {
		f.Data[i] = float64(i % 17)
		if i%7 == 0 {
			f.Data[i] = math.NaN()
		}
	}
	return f
}

func BenchmarkFillGaps(b *testing.B) {
	for _, size := range []int{60, 200, 400} {
		f := gappy(size)
		b.Run(fmt.Sprintf("%dx%d", size, size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, _ = FillGaps(f)
			}
		})
	}
}
