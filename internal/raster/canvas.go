// Package raster draws projected annotation paths onto a flat equirectangular canvas.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"
)

// Default canvas size for exports.
const (
	DefaultWidth  = 4096
	DefaultHeight = 2048
)

// ErrInvalidSize is returned when a canvas dimension is not positive.
var ErrInvalidSize = errors.New("canvas dimensions must be positive")

// Canvas is a fixed-size RGBA raster the paths are drawn onto.
type Canvas struct {
	img *image.RGBA
}

// NewCanvas allocates a transparent canvas.
func NewCanvas(width, height int) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}, nil
}

// Width of the canvas in pixels.
func (c *Canvas) Width() int { return c.img.Bounds().Dx() }

// Height of the canvas in pixels.
func (c *Canvas) Height() int { return c.img.Bounds().Dy() }

// Image exposes the underlying raster.
func (c *Canvas) Image() *image.RGBA { return c.img }

// DrawBase scales the panorama texture to cover the whole canvas.
func (c *Canvas) DrawBase(base image.Image) {
	xdraw.CatmullRom.Scale(c.img, c.img.Bounds(), base, base.Bounds(), draw.Src, nil)
}

// EncodePNG writes the canvas as a PNG image.
func (c *Canvas) EncodePNG(w io.Writer) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, c.img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
