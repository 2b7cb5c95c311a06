// Package pairing matches point LOS measurements with the raster cells
// nearest to them, averaging a window of cells around each match.
package pairing

import (
	"fmt"
	"math"

	"github.com/kass/go-insar-gps/internal/logging"
	"github.com/kass/go-insar-gps/pkg/models"
	"github.com/kass/go-insar-gps/pkg/raster"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultWindowRadius is the half-width of the averaging window, in cells
	DefaultWindowRadius = 5
	// DefaultDistanceTolerance is about 1 km, in degrees
	DefaultDistanceTolerance = 0.01
)

// ClosestIndex returns the index of the value in seq nearest to target and
// the signed offset seq[index] - target. Exact ties go to the lower index.
// Targets beyond either end resolve to that end. An empty seq yields (-1, NaN).
func ClosestIndex(seq []float64, target float64) (int, float64) {
	if len(seq) == 0 {
		return -1, math.NaN()
	}
	best := 0
	bestDist := math.Abs(seq[0] - target)
	for i := 1; i < len(seq); i++ {
		if d := math.Abs(seq[i] - target); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, seq[best] - target
}

// Options control Match
type Options struct {
	// WindowRadius r averages rows [row-r, row+r) and columns [col-r, col+r),
	// clipped to the raster. Zero leaves the window empty, so nothing pairs.
	WindowRadius int
	// DistanceTolerance is the largest axis offset, in degrees, at which a
	// station still counts as inside the raster.
	DistanceTolerance float64
	Logger            logging.Logger
}

// DefaultOptions returns the radius and tolerance used by the pairing CLI
func DefaultOptions() Options {
	return Options{WindowRadius: DefaultWindowRadius, DistanceTolerance: DefaultDistanceTolerance}
}

// Pair is a station together with the raster window mean around it
type Pair struct {
	Station models.LOSVelocity
	Row     int
	Col     int
	Raster  float64
}

// Match pairs every station that falls on the raster with the NaN-ignoring
// mean of the window around its nearest cell. Stations farther than the
// tolerance from every cell, or whose window holds no data, are left out, so
// the result may be shorter than stations and is not index-aligned with it.
func Match(stations []models.LOSVelocity, r *raster.Field, opts Options) ([]Pair, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.X == nil || r.Y == nil {
		return nil, fmt.Errorf("pairing: raster has no coordinate axes")
	}
	log := logging.OrNoop(opts.Logger)

	pairs := make([]Pair, 0, len(stations))
	for _, st := range stations {
		p, reason := match(st, r, opts)
		if reason != "" {
			log.Debug("station not paired", logging.String("station", st.Name), logging.String("reason", reason))
			continue
		}
		pairs = append(pairs, p)
	}
	if dropped := len(stations) - len(pairs); dropped > 0 {
		log.Info("stations excluded from pairing",
			logging.Int("dropped", dropped), logging.Int("paired", len(pairs)))
	}
	return pairs, nil
}

func match(st models.LOSVelocity, r *raster.Field, opts Options) (Pair, string) {
	col, dx := ClosestIndex(r.X, st.Location.Lon)
	row, dy := ClosestIndex(r.Y, st.Location.Lat)
	if col < 0 || row < 0 {
		return Pair{}, "empty raster"
	}
	if !(math.Abs(dx) < opts.DistanceTolerance && math.Abs(dy) < opts.DistanceTolerance) {
		return Pair{}, "outside raster"
	}
	mean := windowMean(r, row, col, opts.WindowRadius)
	if math.IsNaN(mean) {
		return Pair{}, "no data in window"
	}
	return Pair{Station: st, Row: row, Col: col, Raster: mean}, ""
}

func windowMean(r *raster.Field, row, col, radius int) float64 {
	r0, r1 := max(row-radius, 0), min(row+radius, r.Rows)
	c0, c1 := max(col-radius, 0), min(col+radius, r.Cols)

	values := make([]float64, 0, max(r1-r0, 0)*max(c1-c0, 0))
	for i := r0; i < r1; i++ {
		for j := c0; j < c1; j++ {
			if v := r.At(i, j); !math.IsNaN(v) {
				values = append(values, v)
			}
		}
	}
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

// PairPointsWithRaster returns the raster window means and the station LOS
// values of every pair; both slices always have the same length.
func PairPointsWithRaster(stations []models.LOSVelocity, r *raster.Field, opts Options) ([]float64, []float64, error) {
	pairs, err := Match(stations, r, opts)
	if err != nil {
		return nil, nil, err
	}
	rasterValues := make([]float64, len(pairs))
	stationValues := make([]float64, len(pairs))
	for i, p := range pairs {
		rasterValues[i] = p.Raster
		stationValues[i] = p.Station.LOS
	}
	return rasterValues, stationValues, nil
}
