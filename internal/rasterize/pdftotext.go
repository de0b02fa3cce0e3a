package rasterize

import (
	"context"
	"encoding/xml"
	"fmt"
	"os/exec"
	"strings"

	"pagelift/internal/config"
	"pagelift/internal/domain"
)

// Poppler parses page geometry with the pdftotext bounding-box output.
type Poppler struct {
	bin string
}

// NewPoppler creates a pdftotext-backed geometry source.
func NewPoppler(cfg config.RasterConfig) *Poppler {
	return &Poppler{bin: cfg.PdfToTextBin}
}

// bboxDoc mirrors the XHTML document emitted by pdftotext -bbox.
type bboxDoc struct {
	Body struct {
		Doc struct {
			Pages []bboxPage `xml:"page"`
		} `xml:"doc"`
	} `xml:"body"`
}

type bboxPage struct {
	Width  float64    `xml:"width,attr"`
	Height float64    `xml:"height,attr"`
	Words  []bboxWord `xml:"word"`
}

type bboxWord struct {
	XMin float64 `xml:"xMin,attr"`
	YMin float64 `xml:"yMin,attr"`
	XMax float64 `xml:"xMax,attr"`
	YMax float64 `xml:"yMax,attr"`
	Text string  `xml:",chardata"`
}

// PageGeometry runs pdftotext -bbox and converts its output to per-page
// spans keyed by 1-based page number.
func (p *Poppler) PageGeometry(ctx context.Context, path string) (map[int]PageGeometry, error) {
	cmd := exec.CommandContext(ctx, p.bin, "-bbox", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: pdftotext on %s: %v", domain.ErrExternalTool, path, err)
	}

	geometry, err := parseBBox(out)
	if err != nil {
		return nil, fmt.Errorf("%w: pdftotext output for %s: %v", domain.ErrExternalTool, path, err)
	}
	return geometry, nil
}

func parseBBox(data []byte) (map[int]PageGeometry, error) {
	var doc bboxDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	geometry := make(map[int]PageGeometry, len(doc.Body.Doc.Pages))
	for i, page := range doc.Body.Doc.Pages {
		geo := PageGeometry{
			PageBox: domain.Box{X2: page.Width, Y2: page.Height},
		}
		for _, w := range page.Words {
			text := strings.TrimSpace(w.Text)
			if text == "" {
				continue
			}
			geo.Spans = append(geo.Spans, domain.TextSpan{
				Box:  domain.Box{X1: w.XMin, Y1: w.YMin, X2: w.XMax, Y2: w.YMax},
				Text: text,
			})
		}
		geometry[i+1] = geo
	}
	return geometry, nil
}
