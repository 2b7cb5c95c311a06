// Package interp provides scattered-data interpolation over irregular 2D
// samples: piecewise-linear over a Delaunay triangulation and a cubic
// polyharmonic spline.
package interp

import (
	"fmt"
	"math"
	"strings"
)

// Kind selects the interpolation scheme
type Kind string

const (
	Linear Kind = "linear"
	Cubic  Kind = "cubic"
)

// Minimum number of distinct samples per kind. The cubic minimum matches the
// (k+1)² support of a bicubic surface.
const (
	MinLinearPoints = 3
	MinCubicPoints  = 16
)

// ParseKind parses "linear" or "cubic", case-insensitively
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Linear, Cubic:
		return k, nil
	default:
		return "", fmt.Errorf("interp: unknown interpolation kind %q (want linear or cubic)", s)
	}
}

// MinPoints returns the minimum sample count for the kind
func (k Kind) MinPoints() int {
	if k == Cubic {
		return MinCubicPoints
	}
	return MinLinearPoints
}

// Interpolator evaluates a fitted surface at a single point. The boolean is
// false when the point lies outside the convex hull of the samples; the value
// is then NaN for linear surfaces and an extrapolation for cubic ones.
type Interpolator interface {
	Predict(x, y float64) (float64, bool)
}

// InsufficientDataError is returned when a surface cannot be fitted from the
// samples given.
type InsufficientDataError struct {
	Kind Kind
	Have int
	Need int
	// Reason is set when the count is sufficient but the geometry is not,
	// e.g. all samples collinear.
	Reason string
}

func (e *InsufficientDataError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("interp: %s interpolation over %d points: %s", e.Kind, e.Have, e.Reason)
	}
	return fmt.Sprintf("interp: %s interpolation needs at least %d points, have %d", e.Kind, e.Need, e.Have)
}

// OutOfBoundsWarning reports query points outside the samples' convex hull.
// It is not fatal: it is returned next to a complete result in which those
// points hold Fallback (or an extrapolated value when Extrapolated is set).
type OutOfBoundsWarning struct {
	Count        int
	Total        int
	Fallback     float64
	Extrapolated bool
}

func (w *OutOfBoundsWarning) Error() string {
	if w.Extrapolated {
		return fmt.Sprintf("interp: %d of %d points outside the data hull were extrapolated", w.Count, w.Total)
	}
	return fmt.Sprintf("interp: %d of %d points outside the data hull set to %v", w.Count, w.Total, w.Fallback)
}

// New fits an interpolator of the given kind over samples (xs[i], ys[i]) -> values[i].
// Samples sharing coordinates keep the first value seen; NaN samples are dropped.
func New(kind Kind, xs, ys, values []float64) (Interpolator, error) {
	if len(xs) != len(ys) || len(xs) != len(values) {
		return nil, fmt.Errorf("interp: sample lengths differ: x=%d y=%d v=%d", len(xs), len(ys), len(values))
	}
	pts, vals := distinct(xs, ys, values)

	switch kind {
	case Linear:
		l, err := NewLinear(pts, vals)
		if err != nil {
			return nil, err
		}
		return l, nil
	case Cubic:
		c, err := NewCubic(pts, vals)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("interp: unknown interpolation kind %q", kind)
	}
}

// Evaluate predicts every (xs[i], ys[i]). Points outside the hull take fill
// for linear surfaces; the returned error is an *OutOfBoundsWarning when any
// point was outside.
func Evaluate(ip Interpolator, xs, ys []float64, fill float64) ([]float64, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("interp: query lengths differ: x=%d y=%d", len(xs), len(ys))
	}
	_, extrapolates := ip.(*CubicInterpolator)

	out := make([]float64, len(xs))
	outside := 0
	for i := range xs {
		v, inside := ip.Predict(xs[i], ys[i])
		if !inside {
			outside++
			if !extrapolates {
				v = fill
			}
		}
		out[i] = v
	}
	if outside > 0 {
		return out, &OutOfBoundsWarning{Count: outside, Total: len(xs), Fallback: fill, Extrapolated: extrapolates}
	}
	return out, nil
}

type point struct {
	x, y float64
}

func distinct(xs, ys, values []float64) ([]point, []float64) {
	seen := make(map[point]struct{}, len(xs))
	pts := make([]point, 0, len(xs))
	vals := make([]float64, 0, len(xs))
	for i := range xs {
		p := point{xs[i], ys[i]}
		if math.IsNaN(p.x) || math.IsNaN(p.y) || math.IsNaN(values[i]) {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		pts = append(pts, p)
		vals = append(vals, values[i])
	}
	return pts, vals
}

// orient is twice the signed area of (a, b, c); positive when counter-clockwise
func orient(a, b, c point) float64 {
	return (b.x-a.x)*(c.y-a.y) - (b.y-a.y)*(c.x-a.x)
}
