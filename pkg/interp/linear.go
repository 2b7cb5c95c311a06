package interp

import "math"

// LinearInterpolator is piecewise-linear over the Delaunay triangulation of the
// samples, NaN outside their convex hull.
type LinearInterpolator struct {
	tri    *Triangulation
	values []float64
}

// NewLinear triangulates distinct samples. At least three non-collinear
// samples are required.
func NewLinear(pts []point, values []float64) (*LinearInterpolator, error) {
	if len(pts) < MinLinearPoints {
		return nil, &InsufficientDataError{Kind: Linear, Have: len(pts), Need: MinLinearPoints}
	}
	tri := triangulate(pts)
	if tri.Len() == 0 {
		return nil, &InsufficientDataError{Kind: Linear, Have: len(pts), Need: MinLinearPoints, Reason: "samples are collinear"}
	}
	return &LinearInterpolator{tri: tri, values: values}, nil
}

// Predict implements Interpolator
func (l *LinearInterpolator) Predict(x, y float64) (float64, bool) {
	v, w, ok := l.tri.Locate(x, y)
	if !ok {
		return math.NaN(), false
	}
	return w[0]*l.values[v[0]] + w[1]*l.values[v[1]] + w[2]*l.values[v[2]], true
}

// Triangles returns the number of triangles in the underlying triangulation
func (l *LinearInterpolator) Triangles() int {
	return l.tri.Len()
}
