package geo

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/kass/go-insar-gps/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitSquare() models.Boundary {
	return models.Boundary{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 0}, {Lon: 1, Lat: 1}, {Lon: 0, Lat: 1}}
}

func TestDistance(t *testing.T) {
	testCases := []struct {
		name     string
		lat1     float64
		lon1     float64
		lat2     float64
		lon2     float64
		expected float64
		delta    float64
	}{
		{
			name: "Same point",
			lat1: 40.0, lon1: -124.0,
			lat2: 40.0, lon2: -124.0,
			expected: 0,
			delta:    1e-9,
		},
		{
			name: "One degree of latitude",
			lat1: 40.0, lon1: -124.0,
			lat2: 41.0, lon2: -124.0,
			expected: 6371.0 * math.Pi / 180,
			delta:    1e-9,
		},
		{
			name: "SF to LA",
			lat1: 37.7749, lon1: -122.4194,
			lat2: 34.0522, lon2: -118.2437,
			expected: 559.0,
			delta:    5.0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dist := Distance(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			assert.InDelta(t, tc.expected, dist, tc.delta)
		})
	}
}

func TestDistanceIsNotPlanar(t *testing.T) {
	// one degree of longitude shrinks with latitude, one degree of latitude does not
	equator := Distance(0, 0, 0, 1)
	north := Distance(60, 0, 60, 1)
	assert.InDelta(t, equator/2, north, 0.5)
}

func TestContains(t *testing.T) {
	sq := unitSquare()
	testCases := []struct {
		p    models.Location
		want bool
	}{
		{models.Location{Lon: 0.5, Lat: 0.5}, true},
		{models.Location{Lon: 0, Lat: 0}, true},
		{models.Location{Lon: 1, Lat: 0}, false},
		{models.Location{Lon: 0, Lat: 1}, false},
		{models.Location{Lon: 1, Lat: 1}, false},
		{models.Location{Lon: 1.5, Lat: 0.5}, false},
		{models.Location{Lon: -0.1, Lat: 0.5}, false},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%v,%v", tc.p.Lon, tc.p.Lat), func(t *testing.T) {
			assert.Equal(t, tc.want, Contains(sq, tc.p))
			// repeated calls classify edge points the same way
			assert.Equal(t, tc.want, Contains(sq, tc.p))
		})
	}
}

func TestContainsClosedRingAndConcave(t *testing.T) {
	// an L shape with the closing vertex repeated
	l := models.Boundary{
		{Lon: 0, Lat: 0}, {Lon: 2, Lat: 0}, {Lon: 2, Lat: 1},
		{Lon: 1, Lat: 1}, {Lon: 1, Lat: 2}, {Lon: 0, Lat: 2}, {Lon: 0, Lat: 0},
	}
	assert.True(t, Contains(l, models.Location{Lon: 0.5, Lat: 1.5}))
	assert.True(t, Contains(l, models.Location{Lon: 1.5, Lat: 0.5}))
	assert.False(t, Contains(l, models.Location{Lon: 1.5, Lat: 1.5}))
	assert.False(t, Contains(models.Boundary{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 1}}, models.Location{}))
}

func TestGenerateGridStrictInterior(t *testing.T) {
	grid, err := GenerateGrid(NewExtent([4]float64{0, 2, 0, 2}), 1, unitSquare())
	require.NoError(t, err)
	assert.Equal(t, []models.Location{{Lon: 0, Lat: 0}}, grid.Points)
	assert.Equal(t, 2, grid.Columns)
	assert.Equal(t, 2, grid.Rows)
}

func TestGenerateGridNoBoundary(t *testing.T) {
	grid, err := GenerateGrid(NewExtent([4]float64{0, 2, 0, 2}), 1)
	require.NoError(t, err)
	assert.Equal(t, []models.Location{
		{Lon: 0, Lat: 0}, {Lon: 1, Lat: 0},
		{Lon: 0, Lat: 1}, {Lon: 1, Lat: 1},
	}, grid.Points)
}

func TestGenerateGridUnionOfBoundaries(t *testing.T) {
	south := models.Boundary{{Lon: -1, Lat: -1}, {Lon: 5, Lat: -1}, {Lon: 5, Lat: 1.5}, {Lon: -1, Lat: 1.5}}
	north := models.Boundary{{Lon: -1, Lat: 0.5}, {Lon: 1.5, Lat: 0.5}, {Lon: 1.5, Lat: 5}, {Lon: -1, Lat: 5}}

	grid, err := GenerateGrid(NewExtent([4]float64{0, 3, 0, 3}), 1, south, north)
	require.NoError(t, err)

	// rows 0 and 1 from south, columns 0 and 1 of row 2 from north, the
	// overlap only once
	assert.Equal(t, []models.Location{
		{Lon: 0, Lat: 0}, {Lon: 1, Lat: 0}, {Lon: 2, Lat: 0},
		{Lon: 0, Lat: 1}, {Lon: 1, Lat: 1}, {Lon: 2, Lat: 1},
		{Lon: 0, Lat: 2}, {Lon: 1, Lat: 2},
	}, grid.Points)
}

func TestGenerateGridDegenerate(t *testing.T) {
	grid, err := GenerateGrid(NewExtent([4]float64{0, 1, 0, 1}), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, grid.Len())

	grid, err = GenerateGrid(NewExtent([4]float64{1, 1, 0, 1}), 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0, grid.Len())
}

func TestGenerateGridInvalidSpacing(t *testing.T) {
	for _, s := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := GenerateGrid(NewExtent([4]float64{0, 1, 0, 1}), s)
		assert.ErrorIs(t, err, ErrInvalidSpacing)
	}
}

func TestGenerateGridDomainMismatch(t *testing.T) {
	far := models.Boundary{{Lon: 50, Lat: 50}, {Lon: 51, Lat: 50}, {Lon: 51, Lat: 51}, {Lon: 50, Lat: 51}}
	_, err := GenerateGrid(NewExtent([4]float64{0, 2, 0, 2}), 0.5, far)

	var mismatch *DomainMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 16, mismatch.Candidates)
	assert.Equal(t, 1, mismatch.Boundaries)
}

func TestGenerateGridDeterministicOrder(t *testing.T) {
	circle := make(models.Boundary, 64)
	for i := range circle {
		a := 2 * math.Pi * float64(i) / 64
		circle[i] = models.Location{Lon: -123 + 1.2*math.Cos(a), Lat: 40 + 1.2*math.Sin(a)}
	}
	extent := NewExtent([4]float64{-125, -121, 38, 42})

	first, err := GenerateGrid(extent, 0.05, circle)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := GenerateGrid(extent, 0.05, circle)
		require.NoError(t, err)
		assert.Equal(t, first.Points, again.Points)
	}
	for _, p := range first.Points {
		// vertices of the polygon lie on the circle itself
		assert.LessOrEqual(t, math.Hypot(p.Lon+123, p.Lat-40), 1.2+1e-9)
	}
}

func BenchmarkGenerateGrid(b *testing.B) {
	circle := make(models.Boundary, 360)
	for i := range circle {
		a := 2 * math.Pi * float64(i) / 360
		circle[i] = models.Location{Lon: -123 + 2*math.Cos(a), Lat: 40 + 2*math.Sin(a)}
	}
	extent := NewExtent([4]float64{-125, -121, 38, 42})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = GenerateGrid(extent, 0.01, circle)
	}
}
