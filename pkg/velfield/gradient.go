package velfield

import (
	"fmt"
	"math"

	"github.com/kass/go-insar-gps/internal/logging"
	"github.com/kass/go-insar-gps/pkg/geo"
	"github.com/kass/go-insar-gps/pkg/los"
	"github.com/kass/go-insar-gps/pkg/models"
)

// Gradient is the LOS velocity change between two points
type Gradient struct {
	From, To models.Location
	// Delta is |los(From) - los(To)| in mm/yr
	Delta      float64
	DistanceKm float64
	// PerHundredKm is Delta normalized to mm/yr per 100 km
	PerHundredKm float64
}

// EvaluateGradient compares two LOS values over the great-circle distance
// between their points.
func EvaluateGradient(p1, p2 models.Location, los1, los2 float64) (Gradient, error) {
	d := geo.DistanceBetween(p1, p2)
	if d == 0 {
		return Gradient{}, fmt.Errorf("%w: (%g, %g)", ErrCoincidentPoints, p1.Lon, p1.Lat)
	}
	delta := math.Abs(los1 - los2)
	return Gradient{
		From:         p1,
		To:           p2,
		Delta:        delta,
		DistanceKm:   d,
		PerHundredKm: 100 * delta / d,
	}, nil
}

// Gradient interpolates both points, projects them into LOS with g (vertical
// taken as 0) and evaluates the gradient between them. A point the field
// cannot cover is an error.
func (f *Field) Gradient(p1, p2 models.Location, g models.ViewingGeometry) (Gradient, error) {
	v1, err := f.pointLOS(p1, g)
	if err != nil {
		return Gradient{}, err
	}
	v2, err := f.pointLOS(p2, g)
	if err != nil {
		return Gradient{}, err
	}
	grad, err := EvaluateGradient(p1, p2, v1, v2)
	if err != nil {
		return Gradient{}, err
	}
	f.log.Info("LOS gradient",
		logging.Float("delta_mm_yr", grad.Delta),
		logging.Float("distance_km", grad.DistanceKm),
		logging.Float("mm_yr_per_100km", grad.PerHundredKm))
	return grad, nil
}

func (f *Field) pointLOS(p models.Location, g models.ViewingGeometry) (float64, error) {
	est, err := f.Evaluate(p)
	if math.IsNaN(est.ENU.E) || math.IsNaN(est.ENU.N) {
		return 0, fmt.Errorf("gradient point (%g, %g): %w", p.Lon, p.Lat, err)
	}
	if err != nil {
		f.log.Warn("gradient point extrapolated outside station hull",
			logging.Float("lon", p.Lon), logging.Float("lat", p.Lat))
	}
	return los.Project(est.ENU, g), nil
}
