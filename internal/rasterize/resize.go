package rasterize

import (
	"image"

	"golang.org/x/image/draw"
)

// FitLongestSide scales img so its longest side equals target pixels,
// preserving aspect ratio. CatmullRom keeps text edges legible for the
// downstream detection and OCR stages.
func FitLongestSide(img image.Image, target int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var outW, outH int
	if w >= h {
		outW = target
		outH = int(float64(h) * float64(target) / float64(w))
	} else {
		outH = target
		outW = int(float64(w) * float64(target) / float64(h))
	}
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
