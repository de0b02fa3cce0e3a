package rasterize

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"pagelift/internal/domain"
)

var proposalColor = color.RGBA{R: 0xD6, G: 0x2A, B: 0x2A, A: 0xFF}

const borderWidth = 3

// DrawBoxes writes a copy of the page image at dst with the given boxes
// outlined, for proposal debugging.
func DrawBoxes(src string, boxes []domain.Box, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		return err
	}

	canvas := image.NewRGBA(img.Bounds())
	draw.Draw(canvas, canvas.Bounds(), img, img.Bounds().Min, draw.Src)
	for _, b := range boxes {
		outlineRect(canvas, int(b.X1), int(b.Y1), int(b.X2), int(b.Y2))
	}
	return writePNG(dst, canvas)
}

func outlineRect(img *image.RGBA, x1, y1, x2, y2 int) {
	for t := 0; t < borderWidth; t++ {
		for x := x1; x <= x2; x++ {
			img.Set(x, y1+t, proposalColor)
			img.Set(x, y2-t, proposalColor)
		}
		for y := y1; y <= y2; y++ {
			img.Set(x1+t, y, proposalColor)
			img.Set(x2-t, y, proposalColor)
		}
	}
}
