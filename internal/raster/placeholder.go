package raster

import (
	"image"
	"image/color"
)

// Placeholder generates a stand-in panorama: a sky-to-ground gradient with a
// grid line every 30 degrees of longitude and latitude.
func Placeholder(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	sky := color.RGBA{R: 0x1c, G: 0x2b, B: 0x4a, A: 0xff}
	ground := color.RGBA{R: 0x3a, G: 0x33, B: 0x2b, A: 0xff}
	grid := color.RGBA{R: 0x88, G: 0x88, B: 0x99, A: 0xff}

	stepX := max(width/12, 1)
	stepY := max(height/6, 1)

	for y := 0; y < height; y++ {
		t := float64(y) / float64(max(height-1, 1))
		row := color.RGBA{
			R: lerp8(sky.R, ground.R, t),
			G: lerp8(sky.G, ground.G, t),
			B: lerp8(sky.B, ground.B, t),
			A: 0xff,
		}
		for x := 0; x < width; x++ {
			if x%stepX == 0 || y%stepY == 0 {
				img.SetRGBA(x, y, grid)
				continue
			}
			img.SetRGBA(x, y, row)
		}
	}
	return img
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
