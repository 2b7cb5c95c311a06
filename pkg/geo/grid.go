package geo

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/kass/go-insar-gps/pkg/models"
)

// ErrInvalidSpacing is returned for non-positive or non-finite grid spacing
var ErrInvalidSpacing = errors.New("geo: grid spacing must be positive and finite")

// Extent is an [xmin, xmax) × [ymin, ymax) region in degrees
type Extent struct {
	XMin, XMax float64
	YMin, YMax float64
}

// NewExtent builds an Extent from the conventional [xmin, xmax, ymin, ymax] order
func NewExtent(b [4]float64) Extent {
	return Extent{XMin: b[0], XMax: b[1], YMin: b[2], YMax: b[3]}
}

// DomainMismatchError reports a lattice with no point inside any boundary
type DomainMismatchError struct {
	Extent     Extent
	Boundaries int
	Candidates int
}

func (e *DomainMismatchError) Error() string {
	return fmt.Sprintf("geo: none of %d lattice points over [%g, %g, %g, %g] fall inside %d boundaries",
		e.Candidates, e.Extent.XMin, e.Extent.XMax, e.Extent.YMin, e.Extent.YMax, e.Boundaries)
}

// Grid is an ordered set of interpolation targets. Points are row-major:
// latitude outer, longitude inner, both ascending.
type Grid struct {
	Points  []models.Location
	Spacing float64
	// Lattice shape before boundary filtering
	Columns int
	Rows    int
}

// Len returns the number of retained points
func (g *Grid) Len() int {
	return len(g.Points)
}

// axis mirrors a half-open arange: start, start+step, ... < stop
func axis(start, stop, step float64) []float64 {
	if !(stop > start) {
		return nil
	}
	n := int(math.Ceil((stop - start) / step))
	values := make([]float64, n)
	for i := range values {
		values[i] = start + float64(i)*step
	}
	return values
}

// GenerateGrid builds the regular lattice over the extent at the given spacing.
// When boundaries are given, a point is kept if it lies inside any of them.
// A spacing at least as large as the extent yields a grid of zero or one
// point, which is not an error.
func GenerateGrid(extent Extent, spacing float64, boundaries ...models.Boundary) (*Grid, error) {
	if !(spacing > 0) || math.IsInf(spacing, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpacing, spacing)
	}

	xs := axis(extent.XMin, extent.XMax, spacing)
	ys := axis(extent.YMin, extent.YMax, spacing)

	lattice := make([]models.Location, 0, len(xs)*len(ys))
	for _, y := range ys {
		for _, x := range xs {
			lattice = append(lattice, models.Location{Lon: x, Lat: y})
		}
	}

	grid := &Grid{Spacing: spacing, Columns: len(xs), Rows: len(ys)}
	if len(boundaries) == 0 {
		grid.Points = lattice
		return grid, nil
	}

	keep := insideAny(lattice, boundaries)
	points := make([]models.Location, 0, len(lattice))
	for i, ok := range keep {
		if ok {
			points = append(points, lattice[i])
		}
	}

	if len(points) == 0 && len(lattice) > 0 {
		return nil, &DomainMismatchError{Extent: extent, Boundaries: len(boundaries), Candidates: len(lattice)}
	}
	grid.Points = points
	return grid, nil
}

// insideAny tests every point against the boundaries, one batch per CPU.
// Each worker writes only its own slots, so the result does not depend on
// scheduling.
func insideAny(points []models.Location, boundaries []models.Boundary) []bool {
	polygons := make([]polygon, len(boundaries))
	for i, b := range boundaries {
		polygons[i] = newPolygon(b)
	}

	keep := make([]bool, len(points))
	if len(points) == 0 {
		return keep
	}

	numCPU := runtime.NumCPU()
	batchSize := len(points) / numCPU
	if batchSize < 1 {
		batchSize = 1
	}

	var wg sync.WaitGroup
	for start := 0; start < len(points); start += batchSize {
		end := start + batchSize
		if end > len(points) {
			end = len(points)
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				for _, poly := range polygons {
					if poly.contains(points[i]) {
						keep[i] = true
						break
					}
				}
			}
		}(start, end)
	}
	wg.Wait()

	return keep
}
