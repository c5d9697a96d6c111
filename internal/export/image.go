// internal/export/image.go
package export

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/OCAP2/panopath/internal/raster"
)

// Mode selects what the raster export contains.
type Mode string

const (
	ModeImageOnly Mode = "image-only"
	ModeWithPaths Mode = "with-paths"
)

// ParseMode accepts the mode names plus the short forms "image" and "paths".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "with-paths", "paths":
		return ModeWithPaths, nil
	case "image-only", "image":
		return ModeImageOnly, nil
	}
	return "", fmt.Errorf("unknown export mode %q", s)
}

// RenderOptions size the exported raster.
type RenderOptions struct {
	Width       int
	Height      int
	StrokeWidth float64
}

// DefaultRenderOptions is a 4096x2048 canvas with 6px strokes.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{Width: raster.DefaultWidth, Height: raster.DefaultHeight, StrokeWidth: 6}
}

// RenderImage draws the base texture onto a fresh canvas and, in with-paths
// mode, strokes every document path over it. The result is PNG encoded.
func RenderImage(base image.Image, doc Document, mode Mode, opts RenderOptions) ([]byte, error) {
	canvas, err := raster.NewCanvas(opts.Width, opts.Height)
	if err != nil {
		return nil, err
	}
	if base != nil {
		canvas.DrawBase(base)
	}

	if mode == ModeWithPaths {
		for i, p := range doc.Paths {
			col, err := raster.ParseHexColor(p.Color)
			if err != nil {
				return nil, fmt.Errorf("path %d: %w", i, err)
			}
			canvas.StrokePath(p.Points, raster.StrokeStyle{Color: col, Width: opts.StrokeWidth})
		}
	}

	var buf bytes.Buffer
	if err := canvas.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
