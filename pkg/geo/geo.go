// Package geo provides the planar and spherical geometry used to build
// interpolation domains: great-circle distance, polygon containment and
// boundary-filtered lattice generation.
package geo

import (
	"math"

	"github.com/kass/go-insar-gps/pkg/models"
)

const earthRadius = 6371.0 // km

// Distance calculates the haversine distance between two lat/lon points in kilometers
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadius * c
}

// DistanceBetween is Distance over two locations
func DistanceBetween(a, b models.Location) float64 {
	return Distance(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Bounds returns the bounding box of a boundary's vertices
func Bounds(b models.Boundary) models.BoundingBox {
	box := models.BoundingBox{
		BottomLeft: models.Location{Lon: math.Inf(1), Lat: math.Inf(1)},
		TopRight:   models.Location{Lon: math.Inf(-1), Lat: math.Inf(-1)},
	}
	for _, v := range b {
		box.BottomLeft.Lon = math.Min(box.BottomLeft.Lon, v.Lon)
		box.BottomLeft.Lat = math.Min(box.BottomLeft.Lat, v.Lat)
		box.TopRight.Lon = math.Max(box.TopRight.Lon, v.Lon)
		box.TopRight.Lat = math.Max(box.TopRight.Lat, v.Lat)
	}
	return box
}

// Contains reports whether p lies inside the boundary using even-odd ray
// casting. An edge counts as crossed when it straddles p's latitude with the
// half-open rule (lat_i > y) != (lat_j > y) and its crossing is strictly east
// of p, so points on west and south edges are inside and points on east and
// north edges are outside, every time.
func Contains(b models.Boundary, p models.Location) bool {
	return containsRing(b, p)
}

func containsRing(ring models.Boundary, p models.Location) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	x, y := p.Lon, p.Lat
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].Lon, ring[i].Lat
		xj, yj := ring[j].Lon, ring[j].Lat
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// polygon caches a boundary's bounding box for fast rejection
type polygon struct {
	ring models.Boundary
	box  models.BoundingBox
}

func newPolygon(b models.Boundary) polygon {
	return polygon{ring: b, box: Bounds(b)}
}

func (p polygon) contains(l models.Location) bool {
	if !p.box.Contains(l) {
		return false
	}
	return containsRing(p.ring, l)
}
