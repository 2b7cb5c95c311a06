package postgis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/kass/go-insar-gps/pkg/config"
	"github.com/kass/go-insar-gps/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.PostGIS{Host: "db", Port: 5433, User: "u", Password: "p", Database: "insar"})
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=insar sslmode=disable", dsn)
}

// TestLOSStore runs against a live PostGIS when INSAR_POSTGIS_DSN is set
func TestLOSStore(t *testing.T) {
	dsn := os.Getenv("INSAR_POSTGIS_DSN")
	if dsn == "" {
		t.Skip("INSAR_POSTGIS_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := OpenDSN(ctx, dsn)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.InitSchema(ctx))
	require.NoError(t, store.CreateSpatialIndex(ctx))

	track := fmt.Sprintf("test-%d", time.Now().UnixNano())
	defer store.DeleteTrack(ctx, track)

	g := models.ViewingGeometry{FlightAngleDeg: 346, IncidenceAngleDeg: 30}
	records := []models.LOSVelocity{
		{Name: "P157", Location: models.Location{Lon: -123.4, Lat: 39.9}, LOS: 1.5, Geometry: g},
		{Location: models.Location{Lon: -124.0, Lat: 40.0}, LOS: -2, Geometry: g},
		{Location: models.Location{Lon: -118.0, Lat: 34.0}, LOS: 0.25, Geometry: g},
	}
	require.NoError(t, store.InsertLOS(ctx, track, records))

	count, err := store.Count(ctx, track)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	got, err := store.QueryBox(ctx, track, models.BoundingBox{
		BottomLeft: models.Location{Lon: -125, Lat: 39},
		TopRight:   models.Location{Lon: -122, Lat: 42},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "P157", got[0].Name)
	assert.Equal(t, g, got[0].Geometry)
	assert.InDelta(t, -124.0, got[1].Location.Lon, 1e-9)
}
