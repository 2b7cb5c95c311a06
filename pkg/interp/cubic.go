package interp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const hullTolerance = 1e-12

// CubicInterpolator is a polyharmonic spline with kernel r³ and a linear
// polynomial tail. It reproduces linear fields exactly and is C² smooth.
// Points outside the convex hull of the samples are extrapolated.
type CubicInterpolator struct {
	// samples in normalized coordinates
	pts   []point
	hull  []point
	cx    float64
	cy    float64
	scale float64

	weights []float64
	// tail: c0 + c1*x + c2*y
	tail [3]float64
}

// NewCubic fits the spline through distinct samples. At least MinCubicPoints
// samples not all collinear are required.
func NewCubic(pts []point, values []float64) (*CubicInterpolator, error) {
	n := len(pts)
	if n < MinCubicPoints {
		return nil, &InsufficientDataError{Kind: Cubic, Have: n, Need: MinCubicPoints}
	}

	c := &CubicInterpolator{}
	c.normalize(pts)

	c.hull = convexHull(c.pts)
	if len(c.hull) < 3 {
		return nil, &InsufficientDataError{Kind: Cubic, Have: n, Need: MinCubicPoints, Reason: "samples are collinear"}
	}

	size := n + 3
	a := mat.NewDense(size, size, nil)
	rhs := mat.NewVecDense(size, nil)
	for i := 0; i < n; i++ {
		pi := c.pts[i]
		for j := i + 1; j < n; j++ {
			k := kernel(pi, c.pts[j])
			a.Set(i, j, k)
			a.Set(j, i, k)
		}
		a.Set(i, n, 1)
		a.Set(i, n+1, pi.x)
		a.Set(i, n+2, pi.y)
		a.Set(n, i, 1)
		a.Set(n+1, i, pi.x)
		a.Set(n+2, i, pi.y)
		rhs.SetVec(i, values[i])
	}

	var sol mat.VecDense
	if err := sol.SolveVec(a, rhs); err != nil {
		// mat.Condition is a warning: the system was solved but is ill-conditioned
		if cond, ok := err.(mat.Condition); !ok || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("interp: solving cubic system: %w", err)
		}
	}

	c.weights = make([]float64, n)
	for i := range c.weights {
		c.weights[i] = sol.AtVec(i)
	}
	c.tail = [3]float64{sol.AtVec(n), sol.AtVec(n + 1), sol.AtVec(n + 2)}
	return c, nil
}

// Predict implements Interpolator. The boolean is false for points outside the
// hull, whose value is then extrapolated.
func (c *CubicInterpolator) Predict(x, y float64) (float64, bool) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN(), false
	}
	p := point{(x - c.cx) / c.scale, (y - c.cy) / c.scale}

	v := c.tail[0] + c.tail[1]*p.x + c.tail[2]*p.y
	for i, q := range c.pts {
		v += c.weights[i] * kernel(p, q)
	}
	return v, inHull(c.hull, p, hullTolerance)
}

func (c *CubicInterpolator) normalize(pts []point) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.x), math.Max(maxX, p.x)
		minY, maxY = math.Min(minY, p.y), math.Max(maxY, p.y)
	}
	c.cx, c.cy = (minX+maxX)/2, (minY+maxY)/2
	c.scale = math.Max(maxX-minX, maxY-minY) / 2
	if c.scale == 0 {
		c.scale = 1
	}

	c.pts = make([]point, len(pts))
	for i, p := range pts {
		c.pts[i] = point{(p.x - c.cx) / c.scale, (p.y - c.cy) / c.scale}
	}
}

func kernel(a, b point) float64 {
	r := math.Hypot(a.x-b.x, a.y-b.y)
	return r * r * r
}
