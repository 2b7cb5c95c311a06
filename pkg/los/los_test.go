package los

import (
	"math"
	"testing"

	"github.com/kass/go-insar-gps/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPureVerticalIgnoresFlightAngle(t *testing.T) {
	for _, flight := range []float64{0, 14, 90, 194, 346} {
		for _, inc := range []float64{0, 23.5, 30, 45} {
			got := ProjectENUToLOS(0, 0, 7.5, flight, inc)
			assert.Equal(t, 7.5*math.Cos(inc*math.Pi/180), got, "flight=%v inc=%v", flight, inc)
		}
	}
}

func TestHorizonLookFromNorth(t *testing.T) {
	for _, ue := range []float64{-12.5, 0, 3, 41} {
		assert.Equal(t, -ue, ProjectENUToLOS(ue, 9, 0, 0, 90))
	}
}

func TestLookVectorMatchesProjection(t *testing.T) {
	g := models.ViewingGeometry{FlightAngleDeg: 346, IncidenceAngleDeg: 30}
	v := models.ENU{E: 21.3, N: -4.2, U: 1.1}
	lv := LookVector(g)

	dot := lv.E*v.E + lv.N*v.N + lv.U*v.U
	assert.InDelta(t, Project(v, g), dot, 1e-12)
	assert.InDelta(t, 1.0, math.Sqrt(lv.E*lv.E+lv.N*lv.N+lv.U*lv.U), 1e-12)
}

func TestProjectSeriesUniform(t *testing.T) {
	ue := []float64{1, 2, 3}
	un := []float64{4, 5, 6}
	uu := []float64{0, 1, 0}
	g := models.ViewingGeometry{FlightAngleDeg: 194, IncidenceAngleDeg: 30}

	got, err := ProjectSeries(ue, un, uu, Uniform(g))
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range ue {
		assert.Equal(t, ProjectENUToLOS(ue[i], un[i], uu[i], 194, 30), got[i])
	}
}

func TestProjectSeriesPerElementPairsAngles(t *testing.T) {
	ue := []float64{10, 10, 10}
	un := []float64{0, 0, 0}
	uu := []float64{5, 5, 5}
	flight := []float64{0, 90, 180}
	inc := []float64{20, 30, 40}

	angles, err := PerElement(flight, inc)
	require.NoError(t, err)

	got, err := ProjectSeries(ue, un, uu, angles)
	require.NoError(t, err)
	for i := range got {
		want := ProjectENUToLOS(ue[i], un[i], uu[i], flight[i], inc[i])
		assert.Equal(t, want, got[i], "element %d must use its own angle pair", i)
	}
	// identical velocities, different geometries: results must differ
	assert.NotEqual(t, got[0], got[1])
	assert.NotEqual(t, got[1], got[2])
}

func TestProjectSeriesLengthMismatch(t *testing.T) {
	_, err := ProjectSeries([]float64{1, 2}, []float64{1}, []float64{1, 2}, Uniform(models.ViewingGeometry{}))
	assert.ErrorIs(t, err, ErrLengthMismatch)

	angles, err := PerElement([]float64{1, 2, 3}, []float64{30, 30, 30})
	require.NoError(t, err)
	_, err = ProjectSeries([]float64{1}, []float64{1}, []float64{1}, angles)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = PerElement([]float64{1}, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestProjectSeriesPropagatesNaN(t *testing.T) {
	got, err := ProjectSeries([]float64{math.NaN(), 1}, []float64{0, 1}, []float64{0, 1},
		Uniform(models.ViewingGeometry{FlightAngleDeg: 346, IncidenceAngleDeg: 30}))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got[0]))
	assert.False(t, math.IsNaN(got[1]))
}

func TestProjectRelativeZeroesReference(t *testing.T) {
	g := models.ViewingGeometry{FlightAngleDeg: 346, IncidenceAngleDeg: 30}
	ref := models.ENU{E: -20, N: 15}
	vs := []models.ENU{ref, {E: -18, N: 16}}

	got := ProjectRelative(vs, ref, g)
	assert.Equal(t, 0.0, got[0])
	assert.InDelta(t, Project(vs[1], g)-Project(ref, g), got[1], 1e-12)
}

func TestProjectStations(t *testing.T) {
	g := models.ViewingGeometry{FlightAngleDeg: 194, IncidenceAngleDeg: 30}
	stations := []models.StationVelocity{
		{Name: "P157", Location: models.Location{Lon: -123.5, Lat: 40.1}, E: -12, N: 18, U: 0.5},
	}
	got := ProjectStations(stations, g)
	require.Len(t, got, 1)
	assert.Equal(t, "P157", got[0].Name)
	assert.Equal(t, stations[0].Location, got[0].Location)
	assert.Equal(t, g, got[0].Geometry)
	assert.Equal(t, Project(stations[0].ENU(), g), got[0].LOS)
}
