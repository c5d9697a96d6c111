package scene

import (
	"math"

	"github.com/OCAP2/panopath/pkg/core"
)

// CatmullRom is an open centripetal Catmull-Rom spline through a set of points.
type CatmullRom struct {
	points []core.Vec3
}

// NewCatmullRom builds a curve through pts. At least two points are required
// for Point to be meaningful.
func NewCatmullRom(pts []core.Vec3) *CatmullRom {
	return &CatmullRom{points: pts}
}

// Sample returns n+1 points evenly spaced in curve parameter, endpoints included.
func (c *CatmullRom) Sample(n int) []core.Vec3 {
	if n < 1 {
		n = 1
	}
	out := make([]core.Vec3, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, c.Point(float64(i)/float64(n)))
	}
	return out
}

// Point evaluates the curve at t in [0,1].
func (c *CatmullRom) Point(t float64) core.Vec3 {
	pts := c.points
	l := len(pts)
	switch l {
	case 0:
		return core.Vec3{}
	case 1:
		return pts[0]
	}

	p := float64(l-1) * t
	idx := int(math.Floor(p))
	weight := p - float64(idx)
	if idx >= l-1 {
		idx, weight = l-2, 1
	}
	if idx < 0 {
		idx, weight = 0, 0
	}

	var p0, p3 core.Vec3
	if idx > 0 {
		p0 = pts[idx-1]
	} else {
		p0 = pts[0].Sub(pts[1]).Add(pts[0])
	}
	p1, p2 := pts[idx], pts[idx+1]
	if idx+2 < l {
		p3 = pts[idx+2]
	} else {
		p3 = pts[l-1].Sub(pts[l-2]).Add(pts[l-1])
	}

	dt0 := math.Pow(p0.DistanceTo(p1), 0.5)
	dt1 := math.Pow(p1.DistanceTo(p2), 0.5)
	dt2 := math.Pow(p2.DistanceTo(p3), 0.5)
	if dt1 < 1e-4 {
		dt1 = 1
	}
	if dt0 < 1e-4 {
		dt0 = dt1
	}
	if dt2 < 1e-4 {
		dt2 = dt1
	}

	return core.Vec3{
		X: nonuniform(p0.X, p1.X, p2.X, p3.X, dt0, dt1, dt2, weight),
		Y: nonuniform(p0.Y, p1.Y, p2.Y, p3.Y, dt0, dt1, dt2, weight),
		Z: nonuniform(p0.Z, p1.Z, p2.Z, p3.Z, dt0, dt1, dt2, weight),
	}
}

// nonuniform evaluates one coordinate of a Catmull-Rom segment between x1 and
// x2 with knot spacings dt0..dt2, as a cubic Hermite polynomial.
func nonuniform(x0, x1, x2, x3, dt0, dt1, dt2, w float64) float64 {
	t1 := (x1-x0)/dt0 - (x2-x0)/(dt0+dt1) + (x2-x1)/dt1
	t2 := (x2-x1)/dt1 - (x3-x1)/(dt1+dt2) + (x3-x2)/dt2
	t1 *= dt1
	t2 *= dt1

	c0 := x1
	c1 := t1
	c2 := -3*x1 + 3*x2 - 2*t1 - t2
	c3 := 2*x1 - 2*x2 + t1 + t2
	return c0 + c1*w + c2*w*w + c3*w*w*w
}
