package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"pagelift/internal/config"
	"pagelift/internal/domain"
)

// Tesseract implements port.TextExtractor with the gosseract client. A
// fresh client per call keeps recognition goroutine-safe at the cost of
// setup time; the pool already bounds how many run at once.
type Tesseract struct {
	languages []string
}

// NewTesseract creates a tesseract-backed text extractor.
func NewTesseract(cfg config.OCRConfig) *Tesseract {
	return &Tesseract{languages: cfg.Languages}
}

// ExtractText recognizes the text inside one region of a page image.
func (t *Tesseract) ExtractText(ctx context.Context, imagePath string, region domain.Box) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cropped, err := cropRegion(imagePath, region)
	if err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if len(t.languages) > 0 {
		if err := client.SetLanguage(t.languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if err := client.SetImageFromBytes(cropped); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func cropRegion(imagePath string, region domain.Box) ([]byte, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", imagePath, err)
	}

	rect := image.Rect(int(region.X1), int(region.Y1), int(region.X2), int(region.Y2)).
		Intersect(img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("region %v outside image bounds", region)
	}

	sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	})
	if !ok {
		return nil, fmt.Errorf("image type %T does not support cropping", img)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, sub.SubImage(rect)); err != nil {
		return nil, fmt.Errorf("encoding crop: %w", err)
	}
	return buf.Bytes(), nil
}
