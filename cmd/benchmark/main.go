package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kass/go-insar-gps/pkg/gapfill"
	"github.com/kass/go-insar-gps/pkg/geo"
	"github.com/kass/go-insar-gps/pkg/interp"
	"github.com/kass/go-insar-gps/pkg/models"
	"github.com/kass/go-insar-gps/pkg/raster"
	"github.com/kass/go-insar-gps/pkg/rtree"
	"github.com/kass/go-insar-gps/pkg/velfield"
)

type BenchmarkResult struct {
	QueryType     string
	TotalQueries  int
	TotalDuration time.Duration
	AvgDuration   time.Duration
	QueriesPerSec float64
	MinDuration   time.Duration
	MaxDuration   time.Duration
	TotalResults  int64
	AvgResults    float64
}

// bounds of the synthetic station network
type region struct {
	minLon, maxLon float64
	minLat, maxLat float64
}

func (g region) random(r *rand.Rand) models.Location {
	return models.Location{
		Lon: g.minLon + r.Float64()*(g.maxLon-g.minLon),
		Lat: g.minLat + r.Float64()*(g.maxLat-g.minLat),
	}
}

func main() {
	var (
		queryType   = flag.String("t", "predict", "Benchmark: predict, nearest, radius, colocate, grid, fill, mixed")
		numQueries  = flag.Int("n", 1000, "Number of queries to run")
		workers     = flag.Int("w", runtime.NumCPU(), "Number of concurrent workers")
		numStations = flag.Int("s", 500, "Number of synthetic stations")
		kind        = flag.String("kind", "linear", "Interpolation kind: linear or cubic")
		// Default region: northern California
		minLat = flag.Float64("min-lat", 36.0, "Minimum station latitude")
		maxLat = flag.Float64("max-lat", 42.0, "Maximum station latitude")
		minLon = flag.Float64("min-lon", -125.0, "Minimum station longitude")
		maxLon = flag.Float64("max-lon", -119.0, "Maximum station longitude")
		// Query-specific parameters
		radius  = flag.Float64("radius", 50.0, "Radius in km (for radius queries)")
		k       = flag.Int("k", 10, "Number of nearest neighbors")
		spacing = flag.Float64("spacing", 0.05, "Grid spacing in degrees (for grid queries)")
		size    = flag.Int("size", 200, "Raster side in cells (for fill queries)")
	)
	flag.Parse()

	g := region{minLon: *minLon, maxLon: *maxLon, minLat: *minLat, maxLat: *maxLat}
	stations := generateStations(*numStations, g)

	ik, err := interp.ParseKind(*kind)
	if err != nil {
		log.Fatalf("Invalid kind: %v", err)
	}

	log.Printf("Building %s velocity field from %d stations...\n", ik, len(stations))
	start := time.Now()
	field, err := velfield.New(stations, ik)
	if err != nil {
		log.Fatalf("Failed to build field: %v", err)
	}
	log.Printf("Field built in %v\n", time.Since(start))

	index := rtree.NewStationIndex()
	if err := index.IndexStations(stations); err != nil {
		log.Fatalf("Failed to index stations: %v", err)
	}

	log.Printf("Running %d %s queries with %d workers...\n", *numQueries, *queryType, *workers)

	benchmarks := map[string]func(n int) BenchmarkResult{
		"predict": func(n int) BenchmarkResult {
			return run("predict", n, *workers, func(r *rand.Rand) int {
				est, _ := field.Evaluate(g.random(r))
				if math.IsNaN(est.ENU.E) {
					return 0
				}
				return 1
			})
		},
		"nearest": func(n int) BenchmarkResult {
			return run("nearest", n, *workers, func(r *rand.Rand) int {
				return len(index.NearestNeighbors(g.random(r), *k))
			})
		},
		"radius": func(n int) BenchmarkResult {
			return run("radius", n, *workers, func(r *rand.Rand) int {
				found, err := index.QueryRadius(g.random(r), *radius)
				if err != nil {
					return -1
				}
				return len(found)
			})
		},
		"colocate": func(n int) BenchmarkResult {
			return run("colocate", n, *workers, func(r *rand.Rand) int {
				s := stations[r.Intn(len(stations))]
				if _, ok := index.CoLocated(s.Location, velfield.DefaultCoLocationTolerance); ok {
					return 1
				}
				return 0
			})
		},
		"grid": func(n int) BenchmarkResult {
			extent := geo.Extent{XMin: g.minLon, XMax: g.maxLon, YMin: g.minLat, YMax: g.maxLat}
			return run("grid", n, *workers, func(r *rand.Rand) int {
				grid, err := geo.GenerateGrid(extent, *spacing)
				if err != nil {
					return -1
				}
				return grid.Len()
			})
		},
		"fill": func(n int) BenchmarkResult {
			return run("fill", n, *workers, func(r *rand.Rand) int {
				f := gappyRaster(r, *size)
				if filled, _ := gapfill.FillGaps(f); filled == nil {
					return -1
				}
				return f.CountNaN()
			})
		},
	}

	var result BenchmarkResult
	if *queryType == "mixed" {
		result = benchmarkMixed(benchmarks, *numQueries)
	} else {
		bench, ok := benchmarks[*queryType]
		if !ok {
			log.Fatalf("Unknown query type: %s", *queryType)
		}
		result = bench(*numQueries)
	}

	// Print results
	fmt.Println("\n=== Benchmark Results ===")
	fmt.Printf("Query Type: %s\n", result.QueryType)
	fmt.Printf("Total Queries: %d\n", result.TotalQueries)
	fmt.Printf("Total Duration: %v\n", result.TotalDuration)
	fmt.Printf("Average Duration: %v\n", result.AvgDuration)
	fmt.Printf("Queries/Second: %.2f\n", result.QueriesPerSec)
	fmt.Printf("Min Duration: %v\n", result.MinDuration)
	fmt.Printf("Max Duration: %v\n", result.MaxDuration)
	fmt.Printf("Total Results: %d\n", result.TotalResults)
	fmt.Printf("Avg Results/Query: %.2f\n", result.AvgResults)
	fmt.Printf("Workers Used: %d\n", *workers)
	fmt.Printf("CPU Cores: %d\n", runtime.NumCPU())
}

// run spreads numQueries calls of op over a worker pool. op returns the
// number of results of one query, negative on failure.
func run(name string, numQueries, workers int, op func(r *rand.Rand) int) BenchmarkResult {
	var (
		totalResults int64
		minDuration  = time.Hour
		maxDuration  time.Duration
		durations    []time.Duration
		mu           sync.Mutex
	)

	startTime := time.Now()

	// Worker pool
	queryCh := make(chan int, numQueries)
	var wg sync.WaitGroup

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))

			for range queryCh {
				queryStart := time.Now()
				results := op(r)
				queryDuration := time.Since(queryStart)
				if results < 0 {
					continue
				}
				atomic.AddInt64(&totalResults, int64(results))

				mu.Lock()
				durations = append(durations, queryDuration)
				minDuration = min(minDuration, queryDuration)
				maxDuration = max(maxDuration, queryDuration)
				mu.Unlock()
			}
		}(int64(w) + 1)
	}

	for i := 0; i < numQueries; i++ {
		queryCh <- i
	}
	close(queryCh)

	wg.Wait()
	totalDuration := time.Since(startTime)

	var totalDur time.Duration
	for _, d := range durations {
		totalDur += d
	}
	var avgDuration time.Duration
	if len(durations) > 0 {
		avgDuration = totalDur / time.Duration(len(durations))
	}

	return BenchmarkResult{
		QueryType:     name,
		TotalQueries:  numQueries,
		TotalDuration: totalDuration,
		AvgDuration:   avgDuration,
		QueriesPerSec: float64(numQueries) / totalDuration.Seconds(),
		MinDuration:   minDuration,
		MaxDuration:   maxDuration,
		TotalResults:  totalResults,
		AvgResults:    float64(totalResults) / float64(max(numQueries, 1)),
	}
}

func benchmarkMixed(benchmarks map[string]func(int) BenchmarkResult, numQueries int) BenchmarkResult {
	kinds := []string{"predict", "nearest", "radius", "colocate"}
	perKind := numQueries / len(kinds)

	log.Printf("Running mixed benchmark (%d%% each of %v)...\n", 100/len(kinds), kinds)

	combined := BenchmarkResult{QueryType: "mixed", MinDuration: time.Hour}
	for _, kind := range kinds {
		r := benchmarks[kind](perKind)
		combined.TotalQueries += r.TotalQueries
		combined.TotalDuration += r.TotalDuration
		combined.TotalResults += r.TotalResults
		combined.MinDuration = min(combined.MinDuration, r.MinDuration)
		combined.MaxDuration = max(combined.MaxDuration, r.MaxDuration)
	}
	if combined.TotalQueries > 0 {
		combined.AvgDuration = combined.TotalDuration / time.Duration(combined.TotalQueries)
		combined.QueriesPerSec = float64(combined.TotalQueries) / combined.TotalDuration.Seconds()
		combined.AvgResults = float64(combined.TotalResults) / float64(combined.TotalQueries)
	}
	return combined
}

// generateStations places n stations at random in the region with a smooth
// rotating velocity field
func generateStations(n int, g region) []models.StationVelocity {
	r := rand.New(rand.NewSource(42))
	stations := make([]models.StationVelocity, n)
	midLon, midLat := (g.minLon+g.maxLon)/2, (g.minLat+g.maxLat)/2
	for i := range stations {
		loc := g.random(r)
		stations[i] = models.StationVelocity{
			Name:     fmt.Sprintf("S%03d", i),
			Location: loc,
			E:        -5 * (loc.Lat - midLat),
			N:        5*(loc.Lon-midLon) + 20,
			U:        r.NormFloat64(),
			SE:       0.5, SN: 0.5, SU: 1,
		}
	}
	return stations
}

// gappyRaster is a size×size ramp with about a tenth of the cells missing
func gappyRaster(r *rand.Rand, size int) *raster.Field {
	f := raster.NewField(size, size)
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			v := float64(row) + 0.5*float64(col)
			if r.Float64() < 0.1 {
				v = math.NaN()
			}
			f.Set(row, col, v)
		}
	}
	return f
}
