package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/kass/go-insar-gps/internal/logging"
	"github.com/kass/go-insar-gps/pkg/config"
	"github.com/kass/go-insar-gps/pkg/interp"
	"github.com/kass/go-insar-gps/pkg/models"
	"github.com/kass/go-insar-gps/pkg/velio"
	"github.com/spf13/cobra"
)

var (
	configFile  string
	profileName string
	logLevel    string
	logFormat   string
	verbose     bool
	noColor     bool
)

// resolved once per invocation by the root pre-run hook
var (
	cfg     *config.Config
	profile config.Profile
	logger  logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "insar-gps",
	Short: "Model GPS velocities in InSAR line of sight",
	Long: `Interpolate GPS station velocities onto a grid, project them into the
line of sight of ascending and descending tracks, fill and pair InSAR rasters
with stations, and report LOS gradients between two points.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (built-in profiles when empty)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "Profile to run (the config's active profile when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug logging)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Plain report output even on a terminal")

	rootCmd.AddCommand(interpCmd, projectCmd, gradientCmd, fillCmd, pairCmd, nearCmd, profilesCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if configFile == "" {
		cfg = config.Default()
	} else if cfg, err = config.Load(configFile); err != nil {
		return err
	}

	level, format := cfg.Logging.Level, cfg.Logging.Format
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	if verbose {
		level = "debug"
	}
	logger = logging.New(logging.Config{Level: level, Format: format})

	// listing profiles must work even when the active one is invalid
	if cmd.Name() == "profiles" {
		return nil
	}
	if profile, err = cfg.Profile(profileName); err != nil {
		return err
	}
	if profileName == "" {
		profileName = cfg.Active
	}
	logger = logger.With(logging.String("profile", profileName))
	logger.Debug("profile resolved",
		logging.Any("bounds", profile.Bounds),
		logging.Float("spacing", profile.Spacing),
		logging.Int("tracks", len(profile.Tracks)))
	return nil
}

// readStations loads the station file named by path, falling back to the profile
func readStations(path string) ([]models.StationVelocity, error) {
	if path == "" {
		path = profile.Stations
	}
	if path == "" {
		return nil, errors.New("no station file: set --stations or the profile's stations")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stations: %w", err)
	}
	defer f.Close()

	stations, err := velio.ReadStations(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("stations loaded", logging.String("file", path), logging.Int("count", len(stations)))
	return stations, nil
}

func readBoundaries(paths []string) ([]models.Boundary, error) {
	boundaries := make([]models.Boundary, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open boundary: %w", err)
		}
		b, err := velio.ReadBoundary(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		boundaries = append(boundaries, b)
	}
	return boundaries, nil
}

// profileKind returns the --kind override or the profile's interpolation kind
func profileKind(override string) (interp.Kind, error) {
	if override != "" {
		return interp.ParseKind(override)
	}
	return profile.InterpKind()
}

// createOutput opens path for writing, "-" being stdout
func createOutput(path string) (*os.File, func() error, error) {
	if path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output: %w", err)
	}
	return f, f.Close, nil
}

// isWarning reports whether err only flags points outside the data hull
func isWarning(err error) bool {
	var warning *interp.OutOfBoundsWarning
	return errors.As(err, &warning)
}
