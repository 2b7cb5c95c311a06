package main

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/kass/go-insar-gps/internal/logging"
	"github.com/kass/go-insar-gps/pkg/config"
	"github.com/kass/go-insar-gps/pkg/geo"
	"github.com/kass/go-insar-gps/pkg/los"
	"github.com/kass/go-insar-gps/pkg/models"
	"github.com/kass/go-insar-gps/pkg/postgis"
	"github.com/kass/go-insar-gps/pkg/velfield"
	"github.com/kass/go-insar-gps/pkg/velio"
	"github.com/spf13/cobra"
)

var interpCmd = &cobra.Command{
	Use:   "interp",
	Short: "Interpolate station velocities and model LOS on a grid",
	Long: `Interpolate the east and north station velocities over the profile's grid,
then write one LOS model per track relative to the profile's reference.`,
	RunE: runInterp,
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project station velocities into each track's LOS",
	RunE:  runProject,
}

var gradientCmd = &cobra.Command{
	Use:   "gradient",
	Short: "Report the LOS gradient between two points per track",
	RunE:  runGradient,
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the configured profiles",
	RunE:  runProfiles,
}

var (
	stationsFile  string
	outDir        string
	kindFlag      string
	spacingFlag   float64
	estimatesFile string
	toPostGIS     bool
	fromPoint     []float64
	toPoint       []float64
)

func init() {
	for _, c := range []*cobra.Command{interpCmd, projectCmd, gradientCmd} {
		c.Flags().StringVarP(&stationsFile, "stations", "s", "", "Station velocity file (profile stations when empty)")
	}
	for _, c := range []*cobra.Command{interpCmd, gradientCmd} {
		c.Flags().StringVarP(&kindFlag, "kind", "k", "", "Interpolation kind: linear or cubic (profile kind when empty)")
	}
	for _, c := range []*cobra.Command{interpCmd, projectCmd} {
		c.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	}

	interpCmd.Flags().Float64Var(&spacingFlag, "spacing", 0, "Grid spacing in degrees (profile spacing when 0)")
	interpCmd.Flags().StringVar(&estimatesFile, "estimates", "", "Also write the interpolated east/north field to this file")
	interpCmd.Flags().BoolVar(&toPostGIS, "postgis", false, "Store the LOS models in PostGIS")

	gradientCmd.Flags().Float64SliceVar(&fromPoint, "from", nil, "First point as lon,lat (profile gradient points when empty)")
	gradientCmd.Flags().Float64SliceVar(&toPoint, "to", nil, "Second point as lon,lat")
}

// buildField reads the stations and fits the velocity field with the
// profile's kind and reference.
func buildField() (*velfield.Field, velfield.Reference, error) {
	stations, err := readStations(stationsFile)
	if err != nil {
		return nil, velfield.Reference{}, err
	}
	kind, err := profileKind(kindFlag)
	if err != nil {
		return nil, velfield.Reference{}, err
	}
	field, err := velfield.New(stations, kind, velfield.WithLogger(logger))
	if err != nil {
		return nil, velfield.Reference{}, err
	}
	ref, err := resolveReference(field, profile.Reference)
	if err != nil {
		return nil, velfield.Reference{}, err
	}
	return field, ref, nil
}

// resolveReference looks up the configured reference. Without one the LOS
// models are absolute.
func resolveReference(f *velfield.Field, r config.Reference) (velfield.Reference, error) {
	switch {
	case r.Station != "":
		return f.ReferenceByName(r.Station, r.ZeroVertical)
	case r.Location != nil:
		ref, err := f.ReferenceByCoords(*r.Location, r.ZeroVertical)
		if err != nil && !isWarning(err) {
			return velfield.Reference{}, err
		}
		return ref, nil
	}
	return velfield.Reference{}, nil
}

func profileTracks() []velfield.Track {
	tracks := make([]velfield.Track, len(profile.Tracks))
	for i, t := range profile.Tracks {
		tracks[i] = velfield.Track{Name: t.Name, Geometry: t.Geometry()}
	}
	return tracks
}

func runInterp(cmd *cobra.Command, args []string) error {
	start := time.Now()
	boundaries, err := readBoundaries(profile.Boundaries)
	if err != nil {
		return err
	}
	spacing := profile.Spacing
	if spacingFlag > 0 {
		spacing = spacingFlag
	}
	grid, err := geo.GenerateGrid(profile.Extent(), spacing, boundaries...)
	if err != nil {
		return err
	}

	field, ref, err := buildField()
	if err != nil {
		return err
	}

	rep := newReport("Velocity field: " + profileName)
	rep.add("Stations", "%d", len(field.Stations()))
	rep.add("Kind", "%s", field.Kind())
	rep.add("Grid", "%d points (%dx%d lattice, %g°)", grid.Len(), grid.Columns, grid.Rows, spacing)
	rep.add("Reference", "%s", describeReference(ref))

	tracks, err := field.Tracks(grid, ref, profileTracks()...)
	if err != nil && !isWarning(err) {
		return err
	}
	if err != nil {
		rep.warn("%v", err)
	}

	for _, m := range tracks {
		path := filepath.Join(outDir, fmt.Sprintf("%s_%s_los.txt", profileName, m.Track.Name))
		if err := writeLOSFile(path, m.Points); err != nil {
			return err
		}
		lo, hi := losRange(m.Points)
		rep.add("Track "+m.Track.Name, "%s (LOS %.2f to %.2f mm/yr)", path, lo, hi)
	}

	if estimatesFile != "" {
		if err := writeEstimates(field, grid); err != nil {
			return err
		}
		rep.add("Estimates", "%s", estimatesFile)
	}

	if toPostGIS {
		if err := storeModels(cmd.Context(), tracks); err != nil {
			return err
		}
		rep.add("PostGIS", "%s@%s/%s", cfg.PostGIS.User, cfg.PostGIS.Host, cfg.PostGIS.Database)
	}

	if len(profile.GradientPoints) == 2 {
		p1, p2 := profile.GradientPoints[0], profile.GradientPoints[1]
		for _, t := range profileTracks() {
			g, err := field.Gradient(p1, p2, t.Geometry)
			if err != nil {
				rep.warn("gradient %s: %v", t.Name, err)
				continue
			}
			rep.add("Gradient "+t.Name, "%.3f mm/yr per 100 km", g.PerHundredKm)
		}
	}

	rep.add("Elapsed", "%v", time.Since(start).Round(time.Millisecond))
	rep.print(estimatesFile)
	return nil
}

func describeReference(ref velfield.Reference) string {
	switch {
	case ref.Name != "":
		return fmt.Sprintf("station %s (%.3f, %.3f)", ref.Name, ref.Location.Lon, ref.Location.Lat)
	case ref.Interpolated:
		return fmt.Sprintf("interpolated at (%.3f, %.3f)", ref.Location.Lon, ref.Location.Lat)
	}
	return "none (absolute LOS)"
}

func writeLOSFile(path string, records []models.LOSVelocity) error {
	f, closeFn, err := createOutput(path)
	if err != nil {
		return err
	}
	if err := velio.WriteLOS(f, records); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func writeEstimates(field *velfield.Field, grid *geo.Grid) error {
	estimates, err := field.EvaluateGrid(grid)
	if err != nil && !isWarning(err) {
		return err
	}
	locations := make([]models.Location, len(estimates))
	enu := make([]models.ENU, len(estimates))
	for i, est := range estimates {
		locations[i] = est.Location
		enu[i] = est.ENU
	}

	f, closeFn, err := createOutput(estimatesFile)
	if err != nil {
		return err
	}
	if err := velio.WriteEstimates(f, locations, enu); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func storeModels(ctx context.Context, tracks []velfield.TrackModel) error {
	store, err := postgis.Open(ctx, cfg.PostGIS)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitSchema(ctx); err != nil {
		return err
	}
	for _, m := range tracks {
		name := profileName + "/" + m.Track.Name
		if _, err := store.DeleteTrack(ctx, name); err != nil {
			return err
		}
		if err := store.InsertLOS(ctx, name, m.Points); err != nil {
			return err
		}
		logger.Info("stored LOS model", logging.String("track", name), logging.Int("records", len(m.Points)))
	}
	return store.CreateSpatialIndex(ctx)
}

func losRange(records []models.LOSVelocity) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range records {
		if math.IsNaN(r.LOS) {
			continue
		}
		lo, hi = math.Min(lo, r.LOS), math.Max(hi, r.LOS)
	}
	if lo > hi {
		return math.NaN(), math.NaN()
	}
	return lo, hi
}

func runProject(cmd *cobra.Command, args []string) error {
	stations, err := readStations(stationsFile)
	if err != nil {
		return err
	}

	rep := newReport("Station LOS: " + profileName)
	rep.add("Stations", "%d", len(stations))

	// a reference needs the interpolated field; without one plain projection will do
	project := func(g models.ViewingGeometry) []models.LOSVelocity {
		return los.ProjectStations(stations, g)
	}
	if profile.Reference.IsSet() {
		field, ref, err := buildField()
		if err != nil {
			return err
		}
		rep.add("Reference", "%s", describeReference(ref))
		project = func(g models.ViewingGeometry) []models.LOSVelocity {
			return field.StationLOS(g, ref)
		}
	}

	for _, t := range profileTracks() {
		path := filepath.Join(outDir, fmt.Sprintf("%s_%s_stations.txt", profileName, t.Name))
		f, closeFn, err := createOutput(path)
		if err != nil {
			return err
		}
		if err := velio.WritePaired(f, stations, project(t.Geometry)); err != nil {
			closeFn()
			return err
		}
		if err := closeFn(); err != nil {
			return err
		}
		rep.add("Track "+t.Name, "%s", path)
	}
	rep.print()
	return nil
}

func runGradient(cmd *cobra.Command, args []string) error {
	points := profile.GradientPoints
	if fromPoint != nil || toPoint != nil {
		p1, err := parsePoint("from", fromPoint)
		if err != nil {
			return err
		}
		p2, err := parsePoint("to", toPoint)
		if err != nil {
			return err
		}
		points = []models.Location{p1, p2}
	}
	if len(points) != 2 {
		return fmt.Errorf("gradient needs two points: set --from and --to or the profile's gradient_points")
	}

	field, _, err := buildField()
	if err != nil {
		return err
	}

	rep := newReport("LOS gradient: " + profileName)
	rep.add("From", "(%.4f, %.4f)", points[0].Lon, points[0].Lat)
	rep.add("To", "(%.4f, %.4f)", points[1].Lon, points[1].Lat)
	rep.add("Distance", "%.3f km", geo.DistanceBetween(points[0], points[1]))
	for _, t := range profileTracks() {
		g, err := field.Gradient(points[0], points[1], t.Geometry)
		if err != nil {
			return fmt.Errorf("track %s: %w", t.Name, err)
		}
		rep.add(t.Name, "Δ %.3f mm/yr, %.3f mm/yr per 100 km", g.Delta, g.PerHundredKm)
	}
	rep.print()
	return nil
}

// parsePoint reads a lon,lat flag value
func parsePoint(flag string, v []float64) (models.Location, error) {
	if len(v) != 2 {
		return models.Location{}, fmt.Errorf("--%s wants lon,lat, got %v", flag, v)
	}
	p := models.Location{Lon: v[0], Lat: v[1]}
	if err := p.Validate(); err != nil {
		return models.Location{}, fmt.Errorf("--%s: %w", flag, err)
	}
	return p, nil
}

func runProfiles(cmd *cobra.Command, args []string) error {
	rep := newReport("Profiles")
	for _, name := range cfg.ProfileNames() {
		p := cfg.Profiles[name]
		tracks := make([]string, len(p.Tracks))
		for i, t := range p.Tracks {
			tracks[i] = t.Name
		}
		marker := ""
		if name == cfg.Active {
			marker = " (active)"
		}
		rep.add(name+marker, "%s, bounds %v, %s", p.Kind, p.Bounds, strings.Join(tracks, "/"))
		if err := p.Validate(); err != nil {
			rep.warn("%s: %v", name, err)
		}
	}
	rep.print()
	return nil
}
