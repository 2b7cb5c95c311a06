// Package raster holds the 2D scalar and complex fields exchanged with the
// raster readers and writers. Cells are stored row-major; NaN marks no data.
package raster

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// ErrShapeMismatch is returned when two fields that must line up do not
var ErrShapeMismatch = errors.New("raster: field shapes differ")

// Precision records whether values originated as 32- or 64-bit floats
type Precision int

const (
	Float64 Precision = iota
	Float32
)

func (p Precision) String() string {
	if p == Float32 {
		return "float32"
	}
	return "float64"
}

// Round rounds v to the precision
func (p Precision) Round(v float64) float64 {
	if p == Float32 {
		return float64(float32(v))
	}
	return v
}

// RoundComplex rounds v to the precision, complex64 for Float32
func (p Precision) RoundComplex(v complex128) complex128 {
	if p == Float32 {
		return complex128(complex64(v))
	}
	return v
}

// Field is a rows × cols grid of real values. X and Y, when set, hold the
// coordinate of each column and row.
type Field struct {
	Rows      int
	Cols      int
	Data      []float64
	Precision Precision
	X         []float64
	Y         []float64
}

// NewField allocates a zero field
func NewField(rows, cols int) *Field {
	return &Field{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// FromRows builds a field from a slice of equal-length rows
func FromRows(rows [][]float64) (*Field, error) {
	f := &Field{Rows: len(rows)}
	if len(rows) > 0 {
		f.Cols = len(rows[0])
	}
	f.Data = make([]float64, 0, f.Rows*f.Cols)
	for i, r := range rows {
		if len(r) != f.Cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShapeMismatch, i, len(r), f.Cols)
		}
		f.Data = append(f.Data, r...)
	}
	return f, nil
}

// At returns the value at (row, col)
func (f *Field) At(row, col int) float64 {
	return f.Data[row*f.Cols+col]
}

// Set stores v at (row, col)
func (f *Field) Set(row, col int, v float64) {
	f.Data[row*f.Cols+col] = v
}

// Len returns the number of cells
func (f *Field) Len() int {
	return f.Rows * f.Cols
}

// Validate checks that the data and axes match the shape
func (f *Field) Validate() error {
	return validate(f.Rows, f.Cols, len(f.Data), f.X, f.Y)
}

// Clone returns a deep copy
func (f *Field) Clone() *Field {
	out := *f
	out.Data = append([]float64(nil), f.Data...)
	out.X = append([]float64(nil), f.X...)
	out.Y = append([]float64(nil), f.Y...)
	return &out
}

// SameShape reports whether g has the same rows and columns as f
func (f *Field) SameShape(g *Field) bool {
	return f.Rows == g.Rows && f.Cols == g.Cols
}

// CountNaN returns the number of cells without data
func (f *Field) CountNaN() int {
	n := 0
	for _, v := range f.Data {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// ComplexField is the complex counterpart of Field, e.g. wrapped interferogram phase.
type ComplexField struct {
	Rows      int
	Cols      int
	Data      []complex128
	Precision Precision
	X         []float64
	Y         []float64
}

// NewComplexField allocates a zero field
func NewComplexField(rows, cols int) *ComplexField {
	return &ComplexField{Rows: rows, Cols: cols, Data: make([]complex128, rows*cols)}
}

// At returns the value at (row, col)
func (f *ComplexField) At(row, col int) complex128 {
	return f.Data[row*f.Cols+col]
}

// Set stores v at (row, col)
func (f *ComplexField) Set(row, col int, v complex128) {
	f.Data[row*f.Cols+col] = v
}

// Validate checks that the data and axes match the shape
func (f *ComplexField) Validate() error {
	return validate(f.Rows, f.Cols, len(f.Data), f.X, f.Y)
}

// Phase returns the angle of every cell; NaN cells stay NaN
func (f *ComplexField) Phase() *Field {
	out := &Field{Rows: f.Rows, Cols: f.Cols, Data: make([]float64, len(f.Data)), Precision: f.Precision, X: f.X, Y: f.Y}
	for i, v := range f.Data {
		if cmplx.IsNaN(v) {
			out.Data[i] = math.NaN()
			continue
		}
		out.Data[i] = cmplx.Phase(v)
	}
	return out
}

// Combine pairs a real and an imaginary field of the same shape. A cell
// missing from either part is missing from the result.
func Combine(re, im *Field) (*ComplexField, error) {
	if !re.SameShape(im) {
		return nil, fmt.Errorf("%w: real %dx%d, imaginary %dx%d", ErrShapeMismatch, re.Rows, re.Cols, im.Rows, im.Cols)
	}
	out := &ComplexField{Rows: re.Rows, Cols: re.Cols, Data: make([]complex128, len(re.Data)), Precision: re.Precision, X: re.X, Y: re.Y}
	for i := range re.Data {
		if math.IsNaN(re.Data[i]) || math.IsNaN(im.Data[i]) {
			out.Data[i] = cmplx.NaN()
			continue
		}
		out.Data[i] = complex(re.Data[i], im.Data[i])
	}
	return out, nil
}

// Parts splits the field into its real and imaginary fields
func (f *ComplexField) Parts() (*Field, *Field) {
	re := &Field{Rows: f.Rows, Cols: f.Cols, Data: make([]float64, len(f.Data)), Precision: f.Precision, X: f.X, Y: f.Y}
	im := &Field{Rows: f.Rows, Cols: f.Cols, Data: make([]float64, len(f.Data)), Precision: f.Precision, X: f.X, Y: f.Y}
	for i, v := range f.Data {
		re.Data[i], im.Data[i] = real(v), imag(v)
	}
	return re, im
}

func validate(rows, cols, n int, x, y []float64) error {
	if rows < 0 || cols < 0 {
		return fmt.Errorf("%w: negative shape %dx%d", ErrShapeMismatch, rows, cols)
	}
	if n != rows*cols {
		return fmt.Errorf("%w: %d values for %dx%d", ErrShapeMismatch, n, rows, cols)
	}
	if x != nil && len(x) != cols {
		return fmt.Errorf("%w: %d x coordinates for %d columns", ErrShapeMismatch, len(x), cols)
	}
	if y != nil && len(y) != rows {
		return fmt.Errorf("%w: %d y coordinates for %d rows", ErrShapeMismatch, len(y), rows)
	}
	return nil
}
