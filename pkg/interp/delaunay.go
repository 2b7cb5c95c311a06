package interp

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/fogleman/delaunay"
)

const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50
	locateTolerance  = 1e-10
)

// triangle is a counter-clockwise vertex triple and its bounding box
type triangle struct {
	v    [3]int
	rect *rtreego.Rect
}

func (t *triangle) Bounds() *rtreego.Rect {
	return t.rect
}

// Triangulation is a Delaunay triangulation of distinct points covering their
// convex hull. Triangles are indexed in an R-Tree for point location.
type Triangulation struct {
	points    []point
	triangles []*triangle
	located   *rtreego.Rtree
}

// triangulate builds the Delaunay triangulation of pts with a sweep-hull
// construction. Collinear or too few points give an empty triangulation.
func triangulate(pts []point) *Triangulation {
	t := &Triangulation{points: pts}
	if len(pts) < 3 {
		return t
	}

	in := make([]delaunay.Point, len(pts))
	for i, p := range pts {
		in[i] = delaunay.Point{X: p.x, Y: p.y}
	}
	d, err := delaunay.Triangulate(in)
	if err != nil {
		return t
	}

	located := rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren)
	for i := 0; i+2 < len(d.Triangles); i += 3 {
		v := [3]int{d.Triangles[i], d.Triangles[i+1], d.Triangles[i+2]}
		a, b, c := pts[v[0]], pts[v[1]], pts[v[2]]
		switch o := orient(a, b, c); {
		case o == 0:
			continue
		case o < 0:
			v[1], v[2] = v[2], v[1]
		}
		tri := &triangle{v: v, rect: boxRect(
			math.Min(a.x, math.Min(b.x, c.x)), math.Min(a.y, math.Min(b.y, c.y)),
			math.Max(a.x, math.Max(b.x, c.x)), math.Max(a.y, math.Max(b.y, c.y)),
		)}
		t.triangles = append(t.triangles, tri)
		located.Insert(tri)
	}
	t.located = located
	return t
}

// Len returns the number of triangles
func (t *Triangulation) Len() int {
	return len(t.triangles)
}

// Locate returns the vertex indices of a triangle containing (x, y) and the
// barycentric weights of the point in it.
func (t *Triangulation) Locate(x, y float64) ([3]int, [3]float64, bool) {
	if t.located == nil || len(t.triangles) == 0 {
		return [3]int{}, [3]float64{}, false
	}
	p := point{x, y}
	for _, s := range t.located.SearchIntersect(rtreego.Point{x, y}.ToRect(locateTolerance)) {
		tri := s.(*triangle)
		a, b, c := t.points[tri.v[0]], t.points[tri.v[1]], t.points[tri.v[2]]
		area := orient(a, b, c)
		w0 := orient(b, c, p) / area
		w1 := orient(c, a, p) / area
		w2 := 1 - w0 - w1
		if w0 >= -locateTolerance && w1 >= -locateTolerance && w2 >= -locateTolerance {
			return tri.v, [3]float64{w0, w1, w2}, true
		}
	}
	return [3]int{}, [3]float64{}, false
}

// inCircle is positive when p lies strictly inside the circumcircle of the
// counter-clockwise triangle (a, b, c).
func inCircle(a, b, c, p point) float64 {
	adx, ady := a.x-p.x, a.y-p.y
	bdx, bdy := b.x-p.x, b.y-p.y
	cdx, cdy := c.x-p.x, c.y-p.y
	ad := adx*adx + ady*ady
	bd := bdx*bdx + bdy*bdy
	cd := cdx*cdx + cdy*cdy
	return adx*(bdy*cd-bd*cdy) - ady*(bdx*cd-bd*cdx) + ad*(bdx*cdy-bdy*cdx)
}

func boxRect(minX, minY, maxX, maxY float64) *rtreego.Rect {
	w := math.Max(maxX-minX, locateTolerance)
	h := math.Max(maxY-minY, locateTolerance)
	r, err := rtreego.NewRect(rtreego.Point{minX, minY}, []float64{w, h})
	if err != nil {
		// lengths are positive by construction
		panic(err)
	}
	return r
}
