package main

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/kass/go-insar-gps/pkg/geo"
	"github.com/kass/go-insar-gps/pkg/interp"
	"github.com/kass/go-insar-gps/pkg/models"
	"github.com/kass/go-insar-gps/pkg/rtree"
	"github.com/kass/go-insar-gps/pkg/velfield"
)

func main() {
	// Synthetic stations around the Mendocino triple junction, mm/yr
	stations := []models.StationVelocity{
		{Name: "CME1", Location: models.Location{Lon: -124.40, Lat: 40.44}, E: 21.3, N: 31.0, U: 2.1},
		{Name: "P159", Location: models.Location{Lon: -124.10, Lat: 40.87}, E: 12.8, N: 18.9, U: 1.2},
		{Name: "P160", Location: models.Location{Lon: -123.80, Lat: 41.20}, E: 9.1, N: 12.4, U: 0.4},
		{Name: "P162", Location: models.Location{Lon: -123.55, Lat: 40.40}, E: 6.5, N: 15.2, U: -0.3},
		{Name: "P164", Location: models.Location{Lon: -123.20, Lat: 39.80}, E: 4.2, N: 21.7, U: -0.8},
		{Name: "P166", Location: models.Location{Lon: -123.70, Lat: 39.45}, E: 8.8, N: 32.6, U: 0.1},
		{Name: "P168", Location: models.Location{Lon: -122.90, Lat: 40.95}, E: 2.7, N: 8.3, U: -0.2},
		{Name: "P170", Location: models.Location{Lon: -122.60, Lat: 40.10}, E: 1.4, N: 10.9, U: -0.6},
		{Name: "P172", Location: models.Location{Lon: -122.40, Lat: 39.30}, E: 0.9, N: 13.5, U: -1.0},
		{Name: "P174", Location: models.Location{Lon: -124.20, Lat: 39.90}, E: 14.1, N: 33.8, U: 1.7},
		{Name: "P176", Location: models.Location{Lon: -122.30, Lat: 41.60}, E: 0.6, N: 5.2, U: 0.3},
		{Name: "P178", Location: models.Location{Lon: -124.05, Lat: 41.70}, E: 10.6, N: 9.8, U: 1.9},
	}

	// Index the stations
	index := rtree.NewStationIndex()
	if err := index.IndexStations(stations); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Indexed %d stations\n\n", index.Count())

	// Example 1: Stations nearest to Cape Mendocino
	fmt.Println("=== 3 Nearest Stations to Cape Mendocino ===")
	cape := models.Location{Lon: -124.41, Lat: 40.44}
	for i, s := range index.NearestNeighbors(cape, 3) {
		fmt.Printf("  %d. %s: %.1f km away\n", i+1, s.Name, geo.DistanceBetween(cape, s.Location))
	}

	// Example 2: Linear velocity field over a 0.25° grid
	fmt.Println("\n=== Linear Velocity Field ===")
	field, err := velfield.New(stations, interp.Linear)
	if err != nil {
		log.Fatal(err)
	}
	grid, err := geo.GenerateGrid(geo.NewExtent([4]float64{-124.5, -122.25, 39.25, 41.75}), 0.25)
	if err != nil {
		log.Fatal(err)
	}
	estimates, err := field.EvaluateGrid(grid)
	var warning *interp.OutOfBoundsWarning
	if err != nil && !errors.As(err, &warning) {
		log.Fatal(err)
	}
	inside := 0
	for _, est := range estimates {
		if est.Inside {
			inside++
		}
	}
	fmt.Printf("Grid of %d points, %d inside the station hull\n", grid.Len(), inside)

	// Example 3: LOS model per track relative to P170
	fmt.Println("\n=== LOS Models Relative to P170 ===")
	ref, err := field.ReferenceByName("P170", true)
	if err != nil {
		log.Fatal(err)
	}
	tracks := []velfield.Track{
		{Name: "ascending", Geometry: models.ViewingGeometry{FlightAngleDeg: 346, IncidenceAngleDeg: 30}},
		{Name: "descending", Geometry: models.ViewingGeometry{FlightAngleDeg: 194, IncidenceAngleDeg: 30}},
	}
	modelled, err := field.Tracks(grid, ref, tracks...)
	if err != nil && !errors.As(err, &warning) {
		log.Fatal(err)
	}
	for _, m := range modelled {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, p := range m.Points {
			if !math.IsNaN(p.LOS) {
				lo, hi = math.Min(lo, p.LOS), math.Max(hi, p.LOS)
			}
		}
		fmt.Printf("  - %s: LOS %.2f to %.2f mm/yr\n", m.Track.Name, lo, hi)
	}

	// Example 4: LOS gradient across the junction
	fmt.Println("\n=== LOS Gradient ===")
	from := models.Location{Lon: -124.0, Lat: 40.0}
	to := models.Location{Lon: -124.0, Lat: 41.0}
	for _, t := range tracks {
		g, err := field.Gradient(from, to, t.Geometry)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("  - %s: Δ %.2f mm/yr over %.1f km (%.2f per 100 km)\n",
			t.Name, g.Delta, g.DistanceKm, g.PerHundredKm)
	}

	// Save and reload the station index
	fmt.Println("\n=== Saving Index ===")
	if err := index.SaveToFile("stations.gob"); err != nil {
		log.Fatal(err)
	}
	reloaded := rtree.NewStationIndex()
	if err := reloaded.LoadFromFile("stations.gob"); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Loaded index with %d stations\n", reloaded.Count())
}
