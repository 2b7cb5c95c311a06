package velfield

import (
	"math"

	"github.com/kass/go-insar-gps/internal/logging"
	"github.com/kass/go-insar-gps/pkg/models"
)

// Reference is the velocity that LOS models are expressed relative to
type Reference struct {
	Name     string
	Location models.Location
	ENU      models.ENU
	// Interpolated is set when no station sits at the reference location
	Interpolated bool
}

// ReferenceByName returns the velocity of the station with exactly this name.
// zeroVertical drops the station's vertical component.
func (f *Field) ReferenceByName(name string, zeroVertical bool) (Reference, error) {
	for _, s := range f.stations {
		if s.Name != name {
			continue
		}
		return stationReference(s, zeroVertical), nil
	}
	return Reference{}, &ReferenceNotFoundError{Name: name}
}

// ReferenceByCoords returns the velocity at p. A station within the
// co-location tolerance is used directly; otherwise the field is interpolated
// at p and the vertical component is 0. When p lies outside the station hull
// of a cubic field the extrapolated reference comes back with an
// *interp.OutOfBoundsWarning.
func (f *Field) ReferenceByCoords(p models.Location, zeroVertical bool) (Reference, error) {
	if s, ok := f.index.CoLocated(p, f.tolerance); ok {
		return stationReference(s, zeroVertical), nil
	}

	est, err := f.Evaluate(p)
	if math.IsNaN(est.ENU.E) || math.IsNaN(est.ENU.N) {
		loc := p
		return Reference{}, &ReferenceNotFoundError{Location: &loc}
	}
	if err != nil {
		f.log.Warn("reference extrapolated outside station hull",
			logging.Float("lon", p.Lon), logging.Float("lat", p.Lat), logging.Err(err))
	}
	return Reference{Location: p, ENU: est.ENU, Interpolated: true}, err
}

func stationReference(s models.StationVelocity, zeroVertical bool) Reference {
	enu := s.ENU()
	if zeroVertical {
		enu.U = 0
	}
	return Reference{Name: s.Name, Location: s.Location, ENU: enu}
}
