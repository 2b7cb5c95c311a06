package velfield

import (
	"github.com/kass/go-insar-gps/pkg/geo"
	"github.com/kass/go-insar-gps/pkg/los"
	"github.com/kass/go-insar-gps/pkg/models"
)

// Track is one acquisition geometry, e.g. an ascending or descending pass
type Track struct {
	Name     string
	Geometry models.ViewingGeometry
}

// TrackModel is the modelled LOS field of one track
type TrackModel struct {
	Track  Track
	Points []models.LOSVelocity
}

// LOSModel projects the interpolated field at every grid point into LOS with
// g, relative to the reference, so the reference location reads zero. The
// error may be an *interp.OutOfBoundsWarning next to a complete result.
func (f *Field) LOSModel(grid *geo.Grid, g models.ViewingGeometry, ref Reference) ([]models.LOSVelocity, error) {
	tracks, err := f.Tracks(grid, ref, Track{Geometry: g})
	if tracks == nil {
		return nil, err
	}
	return tracks[0].Points, err
}

// Tracks evaluates the grid once and projects it into every track.
func (f *Field) Tracks(grid *geo.Grid, ref Reference, tracks ...Track) ([]TrackModel, error) {
	estimates, err := f.EvaluateGrid(grid)
	if estimates == nil {
		return nil, err
	}
	vectors := make([]models.ENU, len(estimates))
	for i, est := range estimates {
		vectors[i] = est.ENU
	}

	out := make([]TrackModel, len(tracks))
	for k, t := range tracks {
		values := los.ProjectRelative(vectors, ref.ENU, t.Geometry)
		points := make([]models.LOSVelocity, len(values))
		for i, v := range values {
			points[i] = models.LOSVelocity{Location: estimates[i].Location, LOS: v, Geometry: t.Geometry}
		}
		out[k] = TrackModel{Track: t, Points: points}
	}
	return out, err
}

// StationLOS projects the stations into LOS with g relative to the reference,
// the GPS side of an InSAR comparison.
func (f *Field) StationLOS(g models.ViewingGeometry, ref Reference) []models.LOSVelocity {
	out := los.ProjectStations(f.stations, g)
	refLOS := los.Project(ref.ENU, g)
	for i := range out {
		out[i].LOS -= refLOS
	}
	return out
}
