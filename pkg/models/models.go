// Package models holds the record types shared by the projection,
// interpolation and pairing packages.
package models

import (
	"fmt"
	"time"
)

// Location represents a geographic location with longitude and latitude in degrees
type Location struct {
	Lon float64 `json:"lon" yaml:"lon"`
	Lat float64 `json:"lat" yaml:"lat"`
}

// Validate checks that the location lies on the globe
func (l Location) Validate() error {
	if l.Lon < -180 || l.Lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", l.Lon)
	}
	if l.Lat < -90 || l.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", l.Lat)
	}
	return nil
}

// BoundingBox represents a rectangular area defined by two corners
type BoundingBox struct {
	BottomLeft Location
	TopRight   Location
}

// Contains reports whether the location falls inside the box, edges included
func (b BoundingBox) Contains(l Location) bool {
	return l.Lon >= b.BottomLeft.Lon && l.Lon <= b.TopRight.Lon &&
		l.Lat >= b.BottomLeft.Lat && l.Lat <= b.TopRight.Lat
}

// Boundary is an implicitly closed polygon of (lon, lat) vertices.
type Boundary []Location

// ENU is a velocity vector in the local east-north-up frame, mm/yr
type ENU struct {
	E float64 `json:"e"`
	N float64 `json:"n"`
	U float64 `json:"u"`
}

// ViewingGeometry describes the satellite heading and local incidence of one track
type ViewingGeometry struct {
	FlightAngleDeg    float64 `json:"flight_angle_deg" yaml:"flight_angle_deg"`
	IncidenceAngleDeg float64 `json:"incidence_angle_deg" yaml:"incidence_angle_deg"`
}

// VelocityRecord is implemented by StationVelocity and LOSVelocity.
// The unexported marker keeps the set closed.
type VelocityRecord interface {
	StationName() string
	Position() Location
	velocityRecord()
}

// StationVelocity is a GPS station's three-component velocity with uncertainties
type StationVelocity struct {
	Name       string    `json:"name"`
	Location   Location  `json:"location"`
	E          float64   `json:"e"`
	N          float64   `json:"n"`
	U          float64   `json:"u"`
	SE         float64   `json:"se"`
	SN         float64   `json:"sn"`
	SU         float64   `json:"su"`
	FirstEpoch time.Time `json:"first_epoch"`
	LastEpoch  time.Time `json:"last_epoch"`
}

func (s StationVelocity) StationName() string { return s.Name }
func (s StationVelocity) Position() Location  { return s.Location }
func (StationVelocity) velocityRecord()       {}

// ENU returns the velocity vector of the station
func (s StationVelocity) ENU() ENU {
	return ENU{E: s.E, N: s.N, U: s.U}
}

// Validate checks the station coordinates
func (s StationVelocity) Validate() error {
	if err := s.Location.Validate(); err != nil {
		return fmt.Errorf("station %q: %w", s.Name, err)
	}
	return nil
}

// LOSVelocity is a scalar line-of-sight velocity at a location, mm/yr.
// Name is empty for interpolated grid points.
type LOSVelocity struct {
	Name     string          `json:"name"`
	Location Location        `json:"location"`
	LOS      float64         `json:"los"`
	Geometry ViewingGeometry `json:"geometry"`
}

func (l LOSVelocity) StationName() string { return l.Name }
func (l LOSVelocity) Position() Location  { return l.Location }
func (LOSVelocity) velocityRecord()       {}
