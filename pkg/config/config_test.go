package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kass/go-insar-gps/pkg/interp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "mendocino", cfg.Active)
	assert.Equal(t, []string{"bay_area", "mendocino", "oregon"}, cfg.ProfileNames())

	p, err := cfg.Profile("")
	require.NoError(t, err)
	assert.Equal(t, [4]float64{-125, -122, 39.0, 42.0}, p.Bounds)
	require.Len(t, p.Tracks, 2)
	assert.Equal(t, 346.0, p.Tracks[0].Geometry().FlightAngleDeg)
	assert.True(t, p.Reference.IsSet())

	kind, err := p.InterpKind()
	require.NoError(t, err)
	assert.Equal(t, interp.Cubic, kind)

	oregon, err := cfg.Profile("oregon")
	require.NoError(t, err)
	assert.False(t, oregon.Reference.IsSet())
}

func TestDefaultIsFresh(t *testing.T) {
	a := Default()
	p := a.Profiles["mendocino"]
	p.Tracks[0].IncidenceAngleDeg = 45
	a.Profiles["mendocino"] = p

	b := Default()
	assert.Equal(t, 30.0, b.Profiles["mendocino"].Tracks[0].IncidenceAngleDeg)
	assert.Equal(t, 30.0, b.Profiles["oregon"].Tracks[0].IncidenceAngleDeg)
}

func TestUnknownProfile(t *testing.T) {
	_, err := Default().Profile("iceland")
	assert.True(t, errors.Is(err, ErrUnknownProfile))
}

const fileConfig = `
active: test
logging:
  level: debug
profiles:
  test:
    stations: velocities.txt
    boundaries: [california_bdr, oregon_bdr]
    bounds: [-125, -122, 39, 42]
    spacing: 0.1
    kind: linear
    tracks:
      - name: ascending
        flight_angle_deg: 346
        incidence_angle_deg: 30
    gradient_points:
      - {lon: -124, lat: 40}
      - {lon: -124, lat: 41}
    reference:
      station: P157
      zero_vertical: true
    coherence_threshold: 0.3
    window_radius: 3
    distance_tolerance_deg: 0.01
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fileConfig), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Active)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 5432, cfg.PostGIS.Port)
	assert.Contains(t, cfg.ProfileNames(), "mendocino")

	p, err := cfg.Profile("")
	require.NoError(t, err)
	assert.Equal(t, "velocities.txt", p.Stations)
	assert.Equal(t, []string{"california_bdr", "oregon_bdr"}, p.Boundaries)
	assert.Equal(t, "P157", p.Reference.Station)
	assert.True(t, p.Reference.ZeroVertical)
	assert.Equal(t, 3, p.WindowRadius)
	assert.Equal(t, -124.0, p.GradientPoints[1].Lon)
	assert.Equal(t, 39.0, p.Extent().YMin)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("profiles: [not, a, map]"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Default().Profiles["mendocino"]
	require.NoError(t, valid.Validate())

	testCases := []struct {
		name   string
		mutate func(p *Profile)
	}{
		{"zero spacing", func(p *Profile) { p.Spacing = 0 }},
		{"bad kind", func(p *Profile) { p.Kind = "nearest" }},
		{"inverted bounds", func(p *Profile) { p.Bounds = [4]float64{-122, -125, 39, 42} }},
		{"no tracks", func(p *Profile) { p.Tracks = nil }},
		{"incidence", func(p *Profile) { p.Tracks = []Track{{Name: "x", IncidenceAngleDeg: 120}} }},
		{"one gradient point", func(p *Profile) { p.GradientPoints = p.GradientPoints[:1] }},
		{"two references", func(p *Profile) { p.Reference.Station = "P157" }},
		{"negative window", func(p *Profile) { p.WindowRadius = -1 }},
		{"zero tolerance", func(p *Profile) { p.DistanceToleranceDeg = 0 }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := Default().Profiles["mendocino"]
			tc.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Default().Marshal()
	require.NoError(t, err)

	cfg, err := Parse(data)
	require.NoError(t, err)
	p, err := cfg.Profile("bay_area")
	require.NoError(t, err)
	assert.Equal(t, -121.5, p.Reference.Location.Lon)
}
