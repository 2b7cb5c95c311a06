package velio

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/kass/go-insar-gps/pkg/raster"
)

// ReadField reads a whitespace-separated matrix, one raster row per line.
// "nan" (any case) marks a cell without data.
func ReadField(r io.Reader) (*raster.Field, error) {
	var rows [][]float64
	err := scanRows(r, 1, func(fields []string) error {
		row := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return fmt.Errorf("column %d: %w", i+1, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return raster.FromRows(rows)
}

// WriteField writes a field in the ReadField layout
func WriteField(w io.Writer, f *raster.Field) error {
	bw := bufio.NewWriter(w)
	for row := 0; row < f.Rows; row++ {
		for col := 0; col < f.Cols; col++ {
			if col > 0 {
				bw.WriteByte(' ')
			}
			v := f.At(row, col)
			if math.IsNaN(v) {
				bw.WriteString("nan")
				continue
			}
			bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("velio: failed to write: %w", err)
		}
	}
	return bw.Flush()
}

// Axis returns n coordinates start, start+step, ...
func Axis(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
