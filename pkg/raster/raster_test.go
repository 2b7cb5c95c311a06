package raster

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRows(t *testing.T) {
	f, err := FromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Rows)
	assert.Equal(t, 3, f.Cols)
	assert.Equal(t, 6.0, f.At(1, 2))
	assert.NoError(t, f.Validate())

	_, err = FromRows([][]float64{{1, 2}, {3}})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestValidate(t *testing.T) {
	f := NewField(2, 2)
	f.X = []float64{0, 1, 2}
	assert.True(t, errors.Is(f.Validate(), ErrShapeMismatch))

	c := NewComplexField(2, 3)
	c.Data = c.Data[:5]
	assert.True(t, errors.Is(c.Validate(), ErrShapeMismatch))
}

func TestCloneIsDeep(t *testing.T) {
	f := NewField(1, 2)
	f.X = []float64{10, 11}
	g := f.Clone()
	g.Set(0, 0, 7)
	g.X[0] = 0
	assert.Equal(t, 0.0, f.At(0, 0))
	assert.Equal(t, 10.0, f.X[0])
	assert.Nil(t, g.Y)
}

func TestPrecisionRound(t *testing.T) {
	v := 0.1
	assert.Equal(t, v, Float64.Round(v))
	assert.Equal(t, float64(float32(v)), Float32.Round(v))
	assert.NotEqual(t, v, Float32.Round(v))
	assert.Equal(t, complex128(complex64(complex(v, v))), Float32.RoundComplex(complex(v, v)))
	assert.Equal(t, "float32", Float32.String())
}

func TestPhaseAndCountNaN(t *testing.T) {
	c := NewComplexField(1, 3)
	c.Data = []complex128{complex(0, 1), complex(-1, 0), complex(math.NaN(), 0)}
	p := c.Phase()
	assert.InDelta(t, math.Pi/2, p.At(0, 0), 1e-12)
	assert.InDelta(t, math.Pi, p.At(0, 1), 1e-12)
	assert.True(t, math.IsNaN(p.At(0, 2)))
	assert.Equal(t, 1, p.CountNaN())
}

func TestCombineAndParts(t *testing.T) {
	re, err := FromRows([][]float64{{1, math.NaN(), 3}})
	require.NoError(t, err)
	im, err := FromRows([][]float64{{-1, 2, math.NaN()}})
	require.NoError(t, err)

	c, err := Combine(re, im)
	require.NoError(t, err)
	assert.Equal(t, complex(1, -1), c.At(0, 0))
	assert.Equal(t, 2, c.Phase().CountNaN())

	r2, i2 := c.Parts()
	assert.Equal(t, 1.0, r2.At(0, 0))
	assert.Equal(t, -1.0, i2.At(0, 0))
	assert.True(t, math.IsNaN(r2.At(0, 1)))
	assert.True(t, math.IsNaN(i2.At(0, 2)))

	_, err = Combine(re, NewField(1, 2))
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}
