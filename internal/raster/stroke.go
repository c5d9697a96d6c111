package raster

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/OCAP2/panopath/internal/geo"
	"github.com/OCAP2/panopath/pkg/core"
)

// StrokeStyle controls how a path is drawn.
type StrokeStyle struct {
	Color color.RGBA
	Width float64
}

// markerScale sizes endpoint and interior markers relative to the stroke width.
const (
	endpointMarkerScale = 2.0
	jointMarkerScale    = 1.25
	outlineWidth        = 1.5
)

// StrokePath draws a projected path: its line segments, split wherever they
// cross the seam, followed by a marker on every point. It returns the number
// of independent strokes drawn.
func (c *Canvas) StrokePath(uvs []core.UV, style StrokeStyle) int {
	if len(uvs) == 0 {
		return 0
	}

	runs := geo.SplitAtSeam(uvs)
	for _, run := range runs {
		c.strokePolyline(c.toPixels(run), style)
	}

	pts := c.toPixels(uvs)
	outline := contrastColor(style.Color)
	for i, pt := range pts {
		r := style.Width * jointMarkerScale
		if i == 0 || i == len(pts)-1 {
			r = style.Width * endpointMarkerScale
		}
		c.fill(circle{cx: pt.X, cy: pt.Y, r: r + outlineWidth}, outline)
		c.fill(circle{cx: pt.X, cy: pt.Y, r: r}, style.Color)
	}

	return len(runs)
}

func (c *Canvas) strokePolyline(pts []point, style StrokeStyle) {
	for i := 1; i < len(pts); i++ {
		if q := segmentQuad(pts[i-1], pts[i], style.Width); q != nil {
			c.fill(q, style.Color)
		}
	}
	// round joins
	for i := 1; i < len(pts)-1; i++ {
		c.fill(circle{cx: pts[i].X, cy: pts[i].Y, r: style.Width / 2}, style.Color)
	}
}

func (c *Canvas) toPixels(uvs []core.UV) []point {
	pts := make([]point, len(uvs))
	for i, uv := range uvs {
		x, y := geo.ToPixel(uv, c.Width(), c.Height())
		pts[i] = point{X: x, Y: y}
	}
	return pts
}

// contrastColor picks black or white, whichever stands out against col.
func contrastColor(col color.RGBA) color.RGBA {
	lum := 0.2126*float64(col.R) + 0.7152*float64(col.G) + 0.0722*float64(col.B)
	if lum > 128 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

// ParseHexColor converts "#RRGGBB" to an opaque color.
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color: %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
