package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kass/go-insar-gps/internal/logging"
	"github.com/kass/go-insar-gps/pkg/geo"
	"github.com/kass/go-insar-gps/pkg/models"
	"github.com/kass/go-insar-gps/pkg/rtree"
	"github.com/spf13/cobra"
)

var nearCmd = &cobra.Command{
	Use:   "near",
	Short: "Find the stations nearest to a location",
	Long: `Index the stations in an R-Tree, or load a saved index, and list the
stations nearest to a location or within a radius of it.`,
	RunE: runNear,
}

var (
	indexFile    string
	saveIndex    bool
	nearPoint    []float64
	numNeighbors int
	searchRadius float64
)

func init() {
	nearCmd.Flags().StringVarP(&stationsFile, "stations", "s", "", "Station velocity file (profile stations when empty)")
	nearCmd.Flags().StringVarP(&indexFile, "file", "f", "", "Saved station index (gob)")
	nearCmd.Flags().BoolVar(&saveIndex, "save", false, "Save the index built from --stations to --file")
	nearCmd.Flags().Float64SliceVar(&nearPoint, "at", nil, "Query location as lon,lat")
	nearCmd.Flags().IntVarP(&numNeighbors, "neighbors", "n", 5, "Number of nearest stations")
	nearCmd.Flags().Float64VarP(&searchRadius, "radius", "R", 0, "List every station within this many km instead")
	_ = nearCmd.MarkFlagRequired("at")
}

// loadIndex restores a saved index when one exists and --save is not set,
// otherwise indexes the station file.
func loadIndex() (*rtree.StationIndex, string, error) {
	index := rtree.NewStationIndex()
	if indexFile != "" && !saveIndex {
		if _, err := os.Stat(indexFile); err == nil {
			if err := index.LoadFromFile(indexFile); err != nil {
				return nil, "", err
			}
			return index, indexFile, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, "", err
		}
	}

	stations, err := readStations(stationsFile)
	if err != nil {
		return nil, "", err
	}
	if err := index.IndexStations(stations); err != nil {
		return nil, "", err
	}
	if saveIndex {
		if indexFile == "" {
			return nil, "", errors.New("--save needs --file")
		}
		if err := index.SaveToFile(indexFile); err != nil {
			return nil, "", err
		}
		logger.Info("index saved", logging.String("file", indexFile), logging.Int("stations", int(index.Count())))
	}
	return index, "stations", nil
}

func runNear(cmd *cobra.Command, args []string) error {
	at, err := parsePoint("at", nearPoint)
	if err != nil {
		return err
	}
	start := time.Now()
	index, source, err := loadIndex()
	if err != nil {
		return err
	}
	loaded := time.Since(start)

	start = time.Now()
	var found []models.StationVelocity
	if searchRadius > 0 {
		if found, err = index.QueryRadius(at, searchRadius); err != nil {
			return err
		}
	} else {
		found = index.NearestNeighbors(at, numNeighbors)
	}
	elapsed := time.Since(start)

	rep := newReport(fmt.Sprintf("Stations near (%.4f, %.4f)", at.Lon, at.Lat))
	rep.add("Index", "%d stations from %s in %v", index.Count(), source, loaded.Round(time.Microsecond))
	rep.add("Query", "%d found in %v", len(found), elapsed.Round(time.Microsecond))
	for _, s := range found {
		rep.add(s.Name, "%8.3f km  E %6.2f  N %6.2f  U %6.2f",
			geo.DistanceBetween(at, s.Location), s.E, s.N, s.U)
	}
	rep.print()
	return nil
}
