// Package gapfill masks low-coherence raster cells and fills missing cells by
// linear interpolation over the Delaunay triangulation of the valid ones.
package gapfill

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/kass/go-insar-gps/pkg/interp"
	"github.com/kass/go-insar-gps/pkg/raster"
	"gonum.org/v1/gonum/floats"
)

// Fallback is written into cells outside the convex hull of the valid cells
const Fallback = 1.0

// ErrEmptyCut is returned when trimming leaves no rows or columns
var ErrEmptyCut = errors.New("gapfill: cut leaves an empty field")

// BuildMask marks cells that are NaN or below threshold as NaN and all
// others as 1.
func BuildMask(coherence *raster.Field, threshold float64) *raster.Field {
	mask := &raster.Field{
		Rows:      coherence.Rows,
		Cols:      coherence.Cols,
		Data:      make([]float64, len(coherence.Data)),
		Precision: coherence.Precision,
		X:         coherence.X,
		Y:         coherence.Y,
	}
	for i, c := range coherence.Data {
		if math.IsNaN(c) || c < threshold {
			mask.Data[i] = math.NaN()
		} else {
			mask.Data[i] = 1
		}
	}
	return mask
}

// ApplyMask multiplies data by mask cell by cell and rounds the result to p.
func ApplyMask(data, mask *raster.Field, p raster.Precision) (*raster.Field, error) {
	if !data.SameShape(mask) || len(data.Data) != len(mask.Data) {
		return nil, fmt.Errorf("%w: data %dx%d, mask %dx%d", raster.ErrShapeMismatch,
			data.Rows, data.Cols, mask.Rows, mask.Cols)
	}
	out := &raster.Field{Rows: data.Rows, Cols: data.Cols, Precision: p, X: data.X, Y: data.Y}
	out.Data = floats.MulTo(make([]float64, len(data.Data)), data.Data, mask.Data)
	if p == raster.Float32 {
		for i, v := range out.Data {
			out.Data[i] = p.Round(v)
		}
	}
	return out, nil
}

// ApplyMaskComplex is ApplyMask for complex data. A NaN mask cell makes the
// cell NaN in both parts.
func ApplyMaskComplex(data *raster.ComplexField, mask *raster.Field, p raster.Precision) (*raster.ComplexField, error) {
	if data.Rows != mask.Rows || data.Cols != mask.Cols || len(data.Data) != len(mask.Data) {
		return nil, fmt.Errorf("%w: data %dx%d, mask %dx%d", raster.ErrShapeMismatch,
			data.Rows, data.Cols, mask.Rows, mask.Cols)
	}
	out := &raster.ComplexField{Rows: data.Rows, Cols: data.Cols, Precision: p, X: data.X, Y: data.Y}
	out.Data = make([]complex128, len(data.Data))
	for i, v := range data.Data {
		out.Data[i] = p.RoundComplex(v * complex(mask.Data[i], 0))
	}
	return out, nil
}

// FillGaps replaces every NaN cell with a linear interpolation of the valid
// cells, using column and row indices as coordinates. Cells outside the hull
// of the valid cells get Fallback, and the returned error is then an
// *interp.OutOfBoundsWarning next to a complete result. A field without NaN
// is returned unchanged.
func FillGaps(f *raster.Field) (*raster.Field, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	out := f.Clone()

	var xs, ys, vs []float64
	var targets []int
	var tx, ty []float64
	for row := 0; row < f.Rows; row++ {
		for col := 0; col < f.Cols; col++ {
			i := row*f.Cols + col
			if v := f.Data[i]; math.IsNaN(v) {
				targets = append(targets, i)
				tx = append(tx, float64(col))
				ty = append(ty, float64(row))
			} else {
				xs = append(xs, float64(col))
				ys = append(ys, float64(row))
				vs = append(vs, v)
			}
		}
	}
	if len(targets) == 0 {
		return out, nil
	}

	ip, err := interp.New(interp.Linear, xs, ys, vs)
	if err != nil {
		return nil, fmt.Errorf("gapfill: %w", err)
	}
	filled, warning := interp.Evaluate(ip, tx, ty, Fallback)
	if filled == nil {
		return nil, warning
	}
	for k, i := range targets {
		out.Data[i] = f.Precision.Round(filled[k])
	}
	return out, warning
}

// FillPhaseGaps fills NaN cells of a wrapped-phase field. The phase of the
// valid cells is interpolated and each filled cell becomes the unit phasor
// e^{iθ}; amplitude is not carried into filled cells. Valid cells are kept
// as they are.
func FillPhaseGaps(f *raster.ComplexField) (*raster.ComplexField, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	phase, err := FillGaps(f.Phase())
	var warning *interp.OutOfBoundsWarning
	if err != nil && !errors.As(err, &warning) {
		return nil, err
	}

	out := &raster.ComplexField{
		Rows:      f.Rows,
		Cols:      f.Cols,
		Data:      make([]complex128, len(f.Data)),
		Precision: f.Precision,
		X:         f.X,
		Y:         f.Y,
	}
	for i, v := range f.Data {
		if cmplx.IsNaN(v) {
			out.Data[i] = f.Precision.RoundComplex(cmplx.Rect(1, phase.Data[i]))
		} else {
			out.Data[i] = v
		}
	}
	return out, err
}

// CutGrid trims a field to xbounds (columns) and ybounds (rows), given either
// as indices or, when fractional, as fractions of each axis. The cut is kept
// at least buffer cells away from every edge.
func CutGrid(f *raster.Field, xbounds, ybounds [2]float64, fractional bool, buffer int) (*raster.Field, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	xmin, xmax := int(xbounds[0]), int(xbounds[1])
	ymin, ymax := int(ybounds[0]), int(ybounds[1])
	if fractional {
		xmin, xmax = int(xbounds[0]*float64(f.Cols)), int(xbounds[1]*float64(f.Cols))
		ymin, ymax = int(ybounds[0]*float64(f.Rows)), int(ybounds[1]*float64(f.Rows))
	}
	xmin, xmax = max(xmin, buffer), min(xmax, f.Cols-buffer)
	ymin, ymax = max(ymin, buffer), min(ymax, f.Rows-buffer)
	if xmin >= xmax || ymin >= ymax {
		return nil, fmt.Errorf("%w: rows [%d, %d) columns [%d, %d) of %dx%d",
			ErrEmptyCut, ymin, ymax, xmin, xmax, f.Rows, f.Cols)
	}

	out := raster.NewField(ymax-ymin, xmax-xmin)
	out.Precision = f.Precision
	for row := ymin; row < ymax; row++ {
		copy(out.Data[(row-ymin)*out.Cols:], f.Data[row*f.Cols+xmin:row*f.Cols+xmax])
	}
	if f.X != nil {
		out.X = append([]float64(nil), f.X[xmin:xmax]...)
	}
	if f.Y != nil {
		out.Y = append([]float64(nil), f.Y[ymin:ymax]...)
	}
	return out, nil
}
