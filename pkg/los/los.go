// Package los projects east-north-up ground velocities into the scalar
// line-of-sight quantity observed by a radar satellite (Fialko et al., 2001):
//
//	Dlos = (Un sin φ - Ue cos φ) sin λ + Uu cos λ
//
// where φ is the satellite heading clockwise from north and λ the local
// incidence angle from vertical.
package los

import (
	"errors"
	"fmt"
	"math"

	"github.com/kass/go-insar-gps/pkg/models"
)

// ErrLengthMismatch is returned when series arguments differ in length
var ErrLengthMismatch = errors.New("los: input series lengths differ")

func degToRad(angle float64) float64 {
	return angle * math.Pi / 180
}

// ProjectENUToLOS projects a single velocity triple with scalar angles in degrees
func ProjectENUToLOS(ue, un, uu, flightAngleDeg, incidenceAngleDeg float64) float64 {
	phi := degToRad(flightAngleDeg)
	lamda := degToRad(incidenceAngleDeg)
	return (un*math.Sin(phi)-ue*math.Cos(phi))*math.Sin(lamda) + uu*math.Cos(lamda)
}

// Project projects an ENU vector with the given viewing geometry
func Project(v models.ENU, g models.ViewingGeometry) float64 {
	return ProjectENUToLOS(v.E, v.N, v.U, g.FlightAngleDeg, g.IncidenceAngleDeg)
}

// LookVector returns the unit ENU vector that Project dots velocities against.
func LookVector(g models.ViewingGeometry) models.ENU {
	phi := degToRad(g.FlightAngleDeg)
	lamda := degToRad(g.IncidenceAngleDeg)
	return models.ENU{
		E: -math.Cos(phi) * math.Sin(lamda),
		N: math.Sin(phi) * math.Sin(lamda),
		U: math.Cos(lamda),
	}
}

// Angles supplies one viewing geometry per element of a series.
type Angles interface {
	At(i int) models.ViewingGeometry
	Len() int // negative when the angles broadcast to any length
}

type uniform models.ViewingGeometry

func (u uniform) At(int) models.ViewingGeometry { return models.ViewingGeometry(u) }
func (uniform) Len() int                         { return -1 }

// Uniform broadcasts one geometry to every element
func Uniform(g models.ViewingGeometry) Angles {
	return uniform(g)
}

type perElement struct {
	flight    []float64
	incidence []float64
}

func (p perElement) At(i int) models.ViewingGeometry {
	return models.ViewingGeometry{FlightAngleDeg: p.flight[i], IncidenceAngleDeg: p.incidence[i]}
}

func (p perElement) Len() int { return len(p.flight) }

// PerElement pairs the i-th flight and incidence angle with the i-th velocity,
// e.g. per-pixel incidence angles.
func PerElement(flightDeg, incidenceDeg []float64) (Angles, error) {
	if len(flightDeg) != len(incidenceDeg) {
		return nil, fmt.Errorf("%w: %d flight angles, %d incidence angles",
			ErrLengthMismatch, len(flightDeg), len(incidenceDeg))
	}
	return perElement{flight: flightDeg, incidence: incidenceDeg}, nil
}

// ProjectSeries projects equal-length east, north and up series. The result
// has one value per input triple; NaN inputs produce NaN outputs.
func ProjectSeries(ue, un, uu []float64, angles Angles) ([]float64, error) {
	if len(ue) != len(un) || len(ue) != len(uu) {
		return nil, fmt.Errorf("%w: e=%d n=%d u=%d", ErrLengthMismatch, len(ue), len(un), len(uu))
	}
	if n := angles.Len(); n >= 0 && n != len(ue) {
		return nil, fmt.Errorf("%w: %d velocities, %d angle pairs", ErrLengthMismatch, len(ue), n)
	}

	out := make([]float64, len(ue))
	for i := range ue {
		g := angles.At(i)
		out[i] = ProjectENUToLOS(ue[i], un[i], uu[i], g.FlightAngleDeg, g.IncidenceAngleDeg)
	}
	return out, nil
}

// ProjectVectors is ProjectSeries over ENU values
func ProjectVectors(vs []models.ENU, angles Angles) ([]float64, error) {
	ue := make([]float64, len(vs))
	un := make([]float64, len(vs))
	uu := make([]float64, len(vs))
	for i, v := range vs {
		ue[i], un[i], uu[i] = v.E, v.N, v.U
	}
	return ProjectSeries(ue, un, uu, angles)
}

// ProjectRelative projects every vector and subtracts the projected reference,
// so the reference point reads zero.
func ProjectRelative(vs []models.ENU, ref models.ENU, g models.ViewingGeometry) []float64 {
	refLOS := Project(ref, g)
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = Project(v, g) - refLOS
	}
	return out
}

// ProjectStations converts GPS stations into LOS records for one track.
func ProjectStations(stations []models.StationVelocity, g models.ViewingGeometry) []models.LOSVelocity {
	out := make([]models.LOSVelocity, len(stations))
	for i, s := range stations {
		out[i] = models.LOSVelocity{
			Name:     s.Name,
			Location: s.Location,
			LOS:      Project(s.ENU(), g),
			Geometry: g,
		}
	}
	return out
}
