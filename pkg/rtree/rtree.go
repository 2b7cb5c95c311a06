// Package rtree implements an R-Tree index over GPS stations, used to find
// stations co-located with a reference point and to pull candidate stations
// around raster cells.
package rtree

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dhconnelly/rtreego"
	"github.com/kass/go-insar-gps/pkg/geo"
	"github.com/kass/go-insar-gps/pkg/models"
)

const (
	tolerance   = 1e-9
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
	earthRadius = 6371.0 // km
)

// spatialStation wraps a station to implement rtreego.Spatial interface
type spatialStation struct {
	station *models.StationVelocity
	rect    *rtreego.Rect
}

func (sp *spatialStation) Bounds() *rtreego.Rect {
	return sp.rect
}

// StationIndex is a thread-safe R-Tree index of station positions
type StationIndex struct {
	tree      *rtreego.Rtree
	mu        sync.RWMutex
	itemCount atomic.Int64
}

// NewStationIndex creates an empty station index
func NewStationIndex() *StationIndex {
	return &StationIndex{
		tree: rtreego.NewTree(dimensions, minChildren, maxChildren),
	}
}

// IndexStations adds stations to the index. Stations with invalid
// coordinates are rejected before anything is inserted.
func (s *StationIndex) IndexStations(stations []models.StationVelocity) error {
	items := make([]*spatialStation, 0, len(stations))
	for i := range stations {
		st := stations[i]
		if err := st.Validate(); err != nil {
			return fmt.Errorf("failed to index station: %w", err)
		}
		p := rtreego.Point{st.Location.Lat, st.Location.Lon}
		items = append(items, &spatialStation{station: &st, rect: p.ToRect(tolerance)})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		s.tree.Insert(item)
	}
	s.itemCount.Add(int64(len(items)))
	return nil
}

// QueryBox returns all stations within the given bounding box
func (s *StationIndex) QueryBox(box models.BoundingBox) ([]models.StationVelocity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryBox(box)
}

func (s *StationIndex) queryBox(box models.BoundingBox) ([]models.StationVelocity, error) {
	latSize := math.Max(box.TopRight.Lat-box.BottomLeft.Lat, tolerance)
	lonSize := math.Max(box.TopRight.Lon-box.BottomLeft.Lon, tolerance)
	bounds, err := rtreego.NewRect(
		rtreego.Point{box.BottomLeft.Lat - tolerance, box.BottomLeft.Lon - tolerance},
		[]float64{latSize + 2*tolerance, lonSize + 2*tolerance},
	)
	if err != nil {
		return nil, fmt.Errorf("invalid bounding box: %w", err)
	}

	results := s.tree.SearchIntersect(bounds)
	stations := make([]models.StationVelocity, 0, len(results))
	for _, result := range results {
		item, ok := result.(*spatialStation)
		if !ok || item.station == nil {
			continue
		}
		if box.Contains(item.station.Location) {
			stations = append(stations, *item.station)
		}
	}
	sortByName(stations)
	return stations, nil
}

// QueryRadius returns all stations within radiusKm of the center
func (s *StationIndex) QueryRadius(center models.Location, radiusKm float64) ([]models.StationVelocity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates, err := s.queryBox(radiusBox(center, radiusKm))
	if err != nil {
		return nil, fmt.Errorf("invalid radius search: %w", err)
	}

	stations := candidates[:0]
	for _, st := range candidates {
		if geo.DistanceBetween(center, st.Location) <= radiusKm {
			stations = append(stations, st)
		}
	}
	return stations, nil
}

// radiusBox bounds every location within radiusKm of center. The longitude
// span follows the highest latitude the circle reaches and covers the globe
// once the circle takes in a pole.
func radiusBox(center models.Location, radiusKm float64) models.BoundingBox {
	deg := (radiusKm / earthRadius) * (180 / math.Pi)
	minLat, maxLat := math.Max(center.Lat-deg, -90), math.Min(center.Lat+deg, 90)
	widest := math.Max(math.Abs(minLat), math.Abs(maxLat))

	lonDeg := 180.0
	if widest < 90 {
		lonDeg = math.Min(deg/math.Cos(widest*math.Pi/180), 180)
	}
	return models.BoundingBox{
		BottomLeft: models.Location{Lat: minLat, Lon: center.Lon - lonDeg},
		TopRight:   models.Location{Lat: maxLat, Lon: center.Lon + lonDeg},
	}
}

// NearestNeighbors returns up to n stations nearest to the location,
// ordered by great-circle distance. The n planar nearest stations bound the
// search radius, and every station inside that radius is ranked on the sphere.
func (s *StationIndex) NearestNeighbors(center models.Location, n int) []models.StationVelocity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 {
		return nil
	}
	reach := 0.0
	var stations []models.StationVelocity
	for _, result := range s.tree.NearestNeighbors(n, rtreego.Point{center.Lat, center.Lon}) {
		item, ok := result.(*spatialStation)
		if !ok || item == nil || item.station == nil {
			continue
		}
		reach = math.Max(reach, geo.DistanceBetween(center, item.station.Location))
		stations = append(stations, *item.station)
	}
	if len(stations) == 0 {
		return nil
	}

	// pad the radius so stations at exactly reach survive rounding
	if wider, err := s.queryBox(radiusBox(center, reach*(1+1e-9)+1e-9)); err == nil {
		stations = wider
	}

	type nearestResult struct {
		station  models.StationVelocity
		distance float64
	}
	ranked := make([]nearestResult, len(stations))
	for i, st := range stations {
		ranked[i] = nearestResult{station: st, distance: geo.DistanceBetween(center, st.Location)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].distance != ranked[j].distance {
			return ranked[i].distance < ranked[j].distance
		}
		return ranked[i].station.Name < ranked[j].station.Name
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]models.StationVelocity, len(ranked))
	for i, r := range ranked {
		out[i] = r.station
	}
	return out
}

// CoLocated returns the station closest to p whose longitude and latitude
// both differ from p by at most tolDeg.
func (s *StationIndex) CoLocated(p models.Location, tolDeg float64) (models.StationVelocity, bool) {
	candidates, err := s.QueryBox(models.BoundingBox{
		BottomLeft: models.Location{Lon: p.Lon - tolDeg, Lat: p.Lat - tolDeg},
		TopRight:   models.Location{Lon: p.Lon + tolDeg, Lat: p.Lat + tolDeg},
	})
	if err != nil || len(candidates) == 0 {
		return models.StationVelocity{}, false
	}

	best := 0
	bestDist := geo.DistanceBetween(p, candidates[0].Location)
	for i := 1; i < len(candidates); i++ {
		if d := geo.DistanceBetween(p, candidates[i].Location); d < bestDist {
			best, bestDist = i, d
		}
	}
	return candidates[best], true
}

// Count returns the number of indexed stations
func (s *StationIndex) Count() int64 {
	return s.itemCount.Load()
}

// Clear removes all stations from the index
func (s *StationIndex) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tree = rtreego.NewTree(dimensions, minChildren, maxChildren)
	s.itemCount.Store(0)
}

func sortByName(stations []models.StationVelocity) {
	sort.SliceStable(stations, func(i, j int) bool {
		return stations[i].Name < stations[j].Name
	})
}
