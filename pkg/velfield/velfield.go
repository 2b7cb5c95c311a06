// Package velfield interpolates GPS station velocities into a continuous
// east/north field and derives line-of-sight models, reference velocities
// and two-point LOS gradients from it.
package velfield

import (
	"errors"
	"fmt"
	"math"

	"github.com/kass/go-insar-gps/internal/logging"
	"github.com/kass/go-insar-gps/pkg/geo"
	"github.com/kass/go-insar-gps/pkg/interp"
	"github.com/kass/go-insar-gps/pkg/models"
	"github.com/kass/go-insar-gps/pkg/rtree"
	"golang.org/x/sync/errgroup"
)

// DefaultCoLocationTolerance is how far, in degrees, a reference point may be
// from a station and still be read from that station directly.
const DefaultCoLocationTolerance = 1e-6

// ErrCoincidentPoints is returned for a gradient between two identical points
var ErrCoincidentPoints = errors.New("velfield: gradient points coincide")

// ReferenceNotFoundError reports a reference that matches no station and,
// for coordinates, cannot be interpolated either.
type ReferenceNotFoundError struct {
	Name     string
	Location *models.Location
}

func (e *ReferenceNotFoundError) Error() string {
	if e.Location != nil {
		return fmt.Sprintf("velfield: no reference velocity at (%g, %g)", e.Location.Lon, e.Location.Lat)
	}
	return fmt.Sprintf("velfield: reference station %q not found", e.Name)
}

// Field is an east/north velocity field fitted over station positions.
// The vertical component is not interpolated.
type Field struct {
	kind      interp.Kind
	stations  []models.StationVelocity
	east      interp.Interpolator
	north     interp.Interpolator
	index     *rtree.StationIndex
	tolerance float64
	log       logging.Logger
}

// Option configures a Field
type Option func(*Field)

// WithLogger sets the logger used to report points outside the station hull
func WithLogger(l logging.Logger) Option {
	return func(f *Field) {
		f.log = logging.OrNoop(l)
	}
}

// WithCoLocationTolerance sets the co-location tolerance in degrees
func WithCoLocationTolerance(deg float64) Option {
	return func(f *Field) {
		f.tolerance = deg
	}
}

// New fits one interpolator per horizontal component over the stations.
func New(stations []models.StationVelocity, kind interp.Kind, opts ...Option) (*Field, error) {
	f := &Field{
		kind:      kind,
		stations:  stations,
		index:     rtree.NewStationIndex(),
		tolerance: DefaultCoLocationTolerance,
		log:       logging.Noop(),
	}
	for _, opt := range opts {
		opt(f)
	}

	if err := f.index.IndexStations(stations); err != nil {
		return nil, fmt.Errorf("failed to index stations: %w", err)
	}

	xs := make([]float64, len(stations))
	ys := make([]float64, len(stations))
	es := make([]float64, len(stations))
	ns := make([]float64, len(stations))
	for i, s := range stations {
		xs[i], ys[i] = s.Location.Lon, s.Location.Lat
		es[i], ns[i] = s.E, s.N
	}

	// east and north are fitted concurrently
	var g errgroup.Group
	g.Go(func() (err error) {
		if f.east, err = interp.New(kind, xs, ys, es); err != nil {
			return fmt.Errorf("failed to fit east velocities: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if f.north, err = interp.New(kind, xs, ys, ns); err != nil {
			return fmt.Errorf("failed to fit north velocities: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	f.log.Debug("velocity field fitted",
		logging.String("kind", string(kind)), logging.Int("stations", len(stations)))
	return f, nil
}

// Kind returns the interpolation kind of the field
func (f *Field) Kind() interp.Kind {
	return f.kind
}

// Stations returns the stations the field was fitted over
func (f *Field) Stations() []models.StationVelocity {
	return f.stations
}

// Estimate is the interpolated velocity at one location. U is always 0.
type Estimate struct {
	Location models.Location
	ENU      models.ENU
	Inside   bool
}

// Evaluate interpolates east and north velocity at p. Outside the stations'
// hull the error is an *interp.OutOfBoundsWarning and the estimate holds NaN
// (linear) or an extrapolation (cubic).
func (f *Field) Evaluate(p models.Location) (Estimate, error) {
	e, inside := f.east.Predict(p.Lon, p.Lat)
	n, _ := f.north.Predict(p.Lon, p.Lat)
	est := Estimate{Location: p, ENU: models.ENU{E: e, N: n}, Inside: inside}
	if !inside {
		return est, f.outside(1, 1)
	}
	return est, nil
}

// EvaluateGrid evaluates every grid point, one at a time. Points outside the
// hull are counted into a single warning, which is also logged.
func (f *Field) EvaluateGrid(grid *geo.Grid) ([]Estimate, error) {
	out := make([]Estimate, len(grid.Points))
	outside := 0
	for i, p := range grid.Points {
		est, err := f.Evaluate(p)
		if err != nil && !isWarning(err) {
			return nil, err
		}
		if !est.Inside {
			outside++
		}
		out[i] = est
	}
	if outside > 0 {
		warning := f.outside(outside, len(out))
		f.log.Warn("grid points outside station hull",
			logging.Int("outside", outside), logging.Int("total", len(out)),
			logging.Bool("extrapolated", f.kind == interp.Cubic))
		return out, warning
	}
	return out, nil
}

func (f *Field) outside(count, total int) error {
	return &interp.OutOfBoundsWarning{
		Count:        count,
		Total:        total,
		Fallback:     math.NaN(),
		Extrapolated: f.kind == interp.Cubic,
	}
}

func isWarning(err error) bool {
	var warning *interp.OutOfBoundsWarning
	return errors.As(err, &warning)
}
