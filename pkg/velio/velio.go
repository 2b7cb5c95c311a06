// Package velio reads and writes the whitespace-separated text tables used to
// exchange station velocities, LOS records, boundary polygons and rasters.
//
// Station velocity rows:
//
//	lon lat east north up sigma_e sigma_n sigma_u name
//
// LOS rows keep the same leading columns, with columns 3-5 reserved:
//
//	lon lat 0 0 0 los name
//
// Rasters are plain matrices, one row per line, with "nan" for missing cells.
//
// Blank lines and lines starting with '#' are skipped.
package velio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/kass/go-insar-gps/pkg/models"
	"github.com/kass/go-insar-gps/pkg/pairing"
)

// ErrMismatchedRecords is returned when paired record slices differ in length
var ErrMismatchedRecords = errors.New("velio: record counts differ")

// ParseError locates a malformed row
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("velio: line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// scanRows calls fn with the fields of every data row
func scanRows(r io.Reader, minFields int, fn func(fields []string) error) error {
	scanner := bufio.NewScanner(r)
	// raster rows grow with the number of columns
	scanner.Buffer(make([]byte, 0, 64*1024), math.MaxInt32)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < minFields {
			return &ParseError{Line: line, Err: fmt.Errorf("want at least %d columns, have %d", minFields, len(fields))}
		}
		if err := fn(fields); err != nil {
			return &ParseError{Line: line, Err: err}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("velio: failed to read: %w", err)
	}
	return nil
}

func parseFloats(fields []string, idx ...int) ([]float64, error) {
	out := make([]float64, len(idx))
	for k, i := range idx {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i+1, err)
		}
		out[k] = v
	}
	return out, nil
}

// ReadStations reads station velocity rows
func ReadStations(r io.Reader) ([]models.StationVelocity, error) {
	var stations []models.StationVelocity
	err := scanRows(r, 9, func(fields []string) error {
		v, err := parseFloats(fields, 0, 1, 2, 3, 4, 5, 6, 7)
		if err != nil {
			return err
		}
		s := models.StationVelocity{
			Name:     fields[8],
			Location: models.Location{Lon: v[0], Lat: v[1]},
			E:        v[2], N: v[3], U: v[4],
			SE: v[5], SN: v[6], SU: v[7],
		}
		if err := s.Validate(); err != nil {
			return err
		}
		stations = append(stations, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stations, nil
}

// ReadLOS reads LOS rows. Only longitude, latitude, LOS and name are used.
func ReadLOS(r io.Reader) ([]models.LOSVelocity, error) {
	var records []models.LOSVelocity
	err := scanRows(r, 7, func(fields []string) error {
		v, err := parseFloats(fields, 0, 1, 5)
		if err != nil {
			return err
		}
		rec := models.LOSVelocity{
			Name:     unname(fields[6]),
			Location: models.Location{Lon: v[0], Lat: v[1]},
			LOS:      v[2],
		}
		if err := rec.Location.Validate(); err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ReadBoundary reads "lon lat" vertex rows into a boundary. A repeated first
// vertex at the end is dropped, the ring being implicitly closed.
func ReadBoundary(r io.Reader) (models.Boundary, error) {
	var b models.Boundary
	err := scanRows(r, 2, func(fields []string) error {
		v, err := parseFloats(fields, 0, 1)
		if err != nil {
			return err
		}
		b = append(b, models.Location{Lon: v[0], Lat: v[1]})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if n := len(b); n > 1 && b[0] == b[n-1] {
		b = b[:n-1]
	}
	if len(b) < 3 {
		return nil, fmt.Errorf("velio: boundary needs at least 3 vertices, have %d", len(b))
	}
	return b, nil
}

// WriteLOS writes LOS rows with the reserved columns set to 0
func WriteLOS(w io.Writer, records []models.LOSVelocity) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if _, err := fmt.Fprintf(bw, "%f %f 0 0 0 %f %s\n", r.Location.Lon, r.Location.Lat, r.LOS, name(r.Name)); err != nil {
			return fmt.Errorf("velio: failed to write: %w", err)
		}
	}
	return bw.Flush()
}

// WritePaired writes one row per station with its ENU velocity and its LOS
// projection: lon lat e n u los name. Records are matched by position.
func WritePaired(w io.Writer, stations []models.StationVelocity, projected []models.LOSVelocity) error {
	if len(stations) != len(projected) {
		return fmt.Errorf("%w: %d stations, %d LOS records", ErrMismatchedRecords, len(stations), len(projected))
	}
	bw := bufio.NewWriter(w)
	for i, s := range stations {
		p := projected[i]
		if _, err := fmt.Fprintf(bw, "%f %f %f %f %f %f %s\n",
			p.Location.Lon, p.Location.Lat, s.E, s.N, s.U, p.LOS, name(p.Name)); err != nil {
			return fmt.Errorf("velio: failed to write: %w", err)
		}
	}
	return bw.Flush()
}

// WritePairs writes station-raster pairs: lon lat station_los raster_los name
func WritePairs(w io.Writer, pairs []pairing.Pair) error {
	bw := bufio.NewWriter(w)
	for _, p := range pairs {
		if _, err := fmt.Fprintf(bw, "%f %f %f %f %s\n",
			p.Station.Location.Lon, p.Station.Location.Lat, p.Station.LOS, p.Raster, name(p.Station.Name)); err != nil {
			return fmt.Errorf("velio: failed to write: %w", err)
		}
	}
	return bw.Flush()
}

// WriteEstimates writes interpolated velocities: lon lat e n u
func WriteEstimates(w io.Writer, locations []models.Location, enu []models.ENU) error {
	if len(locations) != len(enu) {
		return fmt.Errorf("%w: %d locations, %d velocities", ErrMismatchedRecords, len(locations), len(enu))
	}
	bw := bufio.NewWriter(w)
	for i, l := range locations {
		v := enu[i]
		if _, err := fmt.Fprintf(bw, "%f %f %f %f %f\n", l.Lon, l.Lat, v.E, v.N, v.U); err != nil {
			return fmt.Errorf("velio: failed to write: %w", err)
		}
	}
	return bw.Flush()
}

// name keeps unnamed grid points in a single column
func name(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func unname(s string) string {
	if s == "-" {
		return ""
	}
	return s
}
