// Package config loads run settings from YAML. A file holds any number of
// named regional profiles and selects one as active; nothing is global, every
// caller passes the Profile it resolved.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/kass/go-insar-gps/pkg/geo"
	"github.com/kass/go-insar-gps/pkg/interp"
	"github.com/kass/go-insar-gps/pkg/models"
	"gopkg.in/yaml.v3"
)

// ErrUnknownProfile is returned when the requested profile is not defined
var ErrUnknownProfile = errors.New("config: unknown profile")

// Config is the top-level configuration file
type Config struct {
	Active   string             `yaml:"active"`
	Profiles map[string]Profile `yaml:"profiles"`
	Logging  Logging            `yaml:"logging"`
	PostGIS  PostGIS            `yaml:"postgis"`
}

// Logging selects level and format for internal/logging
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PostGIS holds the connection settings of the LOS record store
type PostGIS struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Track is a named acquisition geometry
type Track struct {
	Name              string  `yaml:"name"`
	FlightAngleDeg    float64 `yaml:"flight_angle_deg"`
	IncidenceAngleDeg float64 `yaml:"incidence_angle_deg"`
}

// Geometry returns the track's viewing geometry
func (t Track) Geometry() models.ViewingGeometry {
	return models.ViewingGeometry{FlightAngleDeg: t.FlightAngleDeg, IncidenceAngleDeg: t.IncidenceAngleDeg}
}

// Reference selects the reference velocity by station name or by location.
// Both empty means no reference: LOS values are absolute.
type Reference struct {
	Station      string           `yaml:"station,omitempty"`
	Location     *models.Location `yaml:"location,omitempty"`
	ZeroVertical bool             `yaml:"zero_vertical"`
}

// IsSet reports whether a reference was configured
func (r Reference) IsSet() bool {
	return r.Station != "" || r.Location != nil
}

// Profile is one region's settings
type Profile struct {
	Stations   string   `yaml:"stations"`
	Boundaries []string `yaml:"boundaries"`

	// Bounds is [xmin, xmax, ymin, ymax] in degrees
	Bounds  [4]float64 `yaml:"bounds"`
	Spacing float64    `yaml:"spacing"`
	Kind    string     `yaml:"kind"`

	Tracks         []Track           `yaml:"tracks"`
	GradientPoints []models.Location `yaml:"gradient_points"`
	Reference      Reference         `yaml:"reference"`

	CoherenceThreshold   float64 `yaml:"coherence_threshold"`
	WindowRadius         int     `yaml:"window_radius"`
	DistanceToleranceDeg float64 `yaml:"distance_tolerance_deg"`
}

// Extent returns the profile bounds as a grid extent
func (p Profile) Extent() geo.Extent {
	return geo.NewExtent(p.Bounds)
}

// InterpKind parses the profile's interpolation kind
func (p Profile) InterpKind() (interp.Kind, error) {
	return interp.ParseKind(p.Kind)
}

// Validate checks the profile for values no run could use
func (p Profile) Validate() error {
	var errs []error
	if !(p.Spacing > 0) {
		errs = append(errs, fmt.Errorf("spacing must be positive, got %v", p.Spacing))
	}
	if _, err := p.InterpKind(); err != nil {
		errs = append(errs, err)
	}
	if !(p.Bounds[0] < p.Bounds[1]) || !(p.Bounds[2] < p.Bounds[3]) {
		errs = append(errs, fmt.Errorf("bounds %v must be [xmin, xmax, ymin, ymax] with min < max", p.Bounds))
	}
	if len(p.Tracks) == 0 {
		errs = append(errs, errors.New("at least one track is required"))
	}
	for _, t := range p.Tracks {
		if t.IncidenceAngleDeg < 0 || t.IncidenceAngleDeg > 90 {
			errs = append(errs, fmt.Errorf("track %q: incidence angle %v outside [0, 90]", t.Name, t.IncidenceAngleDeg))
		}
	}
	if n := len(p.GradientPoints); n != 0 && n != 2 {
		errs = append(errs, fmt.Errorf("gradient_points needs exactly 2 points, have %d", n))
	}
	if p.Reference.Station != "" && p.Reference.Location != nil {
		errs = append(errs, errors.New("reference: set station or location, not both"))
	}
	if p.WindowRadius < 0 {
		errs = append(errs, fmt.Errorf("window_radius must not be negative, got %d", p.WindowRadius))
	}
	if !(p.DistanceToleranceDeg > 0) {
		errs = append(errs, fmt.Errorf("distance_tolerance_deg must be positive, got %v", p.DistanceToleranceDeg))
	}
	return errors.Join(errs...)
}

// Default returns a fresh configuration holding the built-in regional
// profiles, with mendocino active.
func Default() *Config {
	tracks := []Track{
		{Name: "ascending", FlightAngleDeg: 360 - 14, IncidenceAngleDeg: 30},
		{Name: "descending", FlightAngleDeg: 180 + 14, IncidenceAngleDeg: 30},
	}
	base := Profile{
		Spacing:              0.08,
		Kind:                 string(interp.Cubic),
		CoherenceThreshold:   0.2,
		WindowRadius:         5,
		DistanceToleranceDeg: 0.01,
	}

	mendocino := base
	mendocino.Tracks = append([]Track(nil), tracks...)
	mendocino.Bounds = [4]float64{-125, -122, 39.0, 42.0}
	mendocino.GradientPoints = []models.Location{{Lon: -124.0, Lat: 40.0}, {Lon: -124.0, Lat: 41.0}}
	mendocino.Reference = Reference{Location: &models.Location{Lon: -123.4, Lat: 39.9}}

	oregon := base
	oregon.Tracks = append([]Track(nil), tracks...)
	oregon.Bounds = [4]float64{-125, -122, 41.5, 46.0}
	oregon.GradientPoints = []models.Location{{Lon: -123.0, Lat: 43.0}, {Lon: -123.0, Lat: 42.0}}

	bayArea := base
	bayArea.Tracks = append([]Track(nil), tracks...)
	bayArea.Bounds = [4]float64{-124, -121.3, 36.8, 39.0}
	bayArea.GradientPoints = []models.Location{{Lon: -122.3, Lat: 37.2}, {Lon: -121.5, Lat: 37.6}}
	bayArea.Reference = Reference{Location: &models.Location{Lon: -121.5, Lat: 37.0}}

	return &Config{
		Active: "mendocino",
		Profiles: map[string]Profile{
			"mendocino": mendocino,
			"oregon":    oregon,
			"bay_area":  bayArea,
		},
		Logging: Logging{Level: "info", Format: "text"},
		PostGIS: PostGIS{Host: "localhost", Port: 5432, User: "postgres", Database: "insar"},
	}
}

// Load reads a YAML file over the defaults. Profiles named in the file
// replace the built-in profile of the same name entirely.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if file.Active != "" {
		cfg.Active = file.Active
	}
	for name, p := range file.Profiles {
		cfg.Profiles[name] = p
	}
	if file.Logging.Level != "" {
		cfg.Logging.Level = file.Logging.Level
	}
	if file.Logging.Format != "" {
		cfg.Logging.Format = file.Logging.Format
	}
	if file.PostGIS != (PostGIS{}) {
		cfg.PostGIS = file.PostGIS
	}
	return cfg, nil
}

// Profile resolves a profile by name, the active one when name is empty,
// and validates it.
func (c *Config) Profile(name string) (Profile, error) {
	if name == "" {
		name = c.Active
	}
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w %q (have %v)", ErrUnknownProfile, name, c.ProfileNames())
	}
	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("profile %q: %w", name, err)
	}
	return p, nil
}

// ProfileNames lists the defined profiles in order
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Marshal encodes the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
