package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// kappa is the cubic Bezier control distance for a quarter circle.
const kappa = 0.5522847498307936

type point struct{ X, Y float64 }

// shape is a closed outline in canvas pixel coordinates.
type shape interface {
	bounds() (minX, minY, maxX, maxY float64)
	trace(r *vector.Rasterizer, dx, dy float64)
}

type polygon []point

func (p polygon) bounds() (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, pt := range p {
		minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
		minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
	}
	return
}

func (p polygon) trace(r *vector.Rasterizer, dx, dy float64) {
	if len(p) < 3 {
		return
	}
	r.MoveTo(float32(p[0].X+dx), float32(p[0].Y+dy))
	for _, pt := range p[1:] {
		r.LineTo(float32(pt.X+dx), float32(pt.Y+dy))
	}
	r.ClosePath()
}

type circle struct {
	cx, cy, r float64
}

func (c circle) bounds() (minX, minY, maxX, maxY float64) {
	return c.cx - c.r, c.cy - c.r, c.cx + c.r, c.cy + c.r
}

func (c circle) trace(r *vector.Rasterizer, dx, dy float64) {
	cx, cy, rad := c.cx+dx, c.cy+dy, c.r
	k := kappa * rad
	r.MoveTo(float32(cx+rad), float32(cy))
	r.CubeTo(float32(cx+rad), float32(cy+k), float32(cx+k), float32(cy+rad), float32(cx), float32(cy+rad))
	r.CubeTo(float32(cx-k), float32(cy+rad), float32(cx-rad), float32(cy+k), float32(cx-rad), float32(cy))
	r.CubeTo(float32(cx-rad), float32(cy-k), float32(cx-k), float32(cy-rad), float32(cx), float32(cy-rad))
	r.CubeTo(float32(cx+k), float32(cy-rad), float32(cx+rad), float32(cy-k), float32(cx+rad), float32(cy))
	r.ClosePath()
}

// segmentQuad returns the rectangle covering a line of the given width from a to b.
func segmentQuad(a, b point, width float64) polygon {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return nil
	}
	nx, ny := -dy/l*width/2, dx/l*width/2
	return polygon{
		{a.X + nx, a.Y + ny},
		{b.X + nx, b.Y + ny},
		{b.X - nx, b.Y - ny},
		{a.X - nx, a.Y - ny},
	}
}

// fill rasterizes s into a mask sized to its bounding box and composites it
// over the canvas. Anything outside the canvas is clipped by draw.DrawMask.
func (c *Canvas) fill(s shape, col color.Color) {
	minX, minY, maxX, maxY := s.bounds()
	if math.IsInf(minX, 0) {
		return
	}
	ox, oy := int(math.Floor(minX))-1, int(math.Floor(minY))-1
	w := int(math.Ceil(maxX)) + 1 - ox
	h := int(math.Ceil(maxY)) + 1 - oy
	if w <= 0 || h <= 0 {
		return
	}

	target := image.Rect(ox, oy, ox+w, oy+h)
	clipped := target.Intersect(c.img.Bounds())
	if clipped.Empty() {
		return
	}

	r := vector.NewRasterizer(w, h)
	r.DrawOp = draw.Src
	s.trace(r, -float64(ox), -float64(oy))

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	maskPt := clipped.Min.Sub(target.Min)
	draw.DrawMask(c.img, clipped, image.NewUniform(col), image.Point{}, mask, maskPt, draw.Over)
}
