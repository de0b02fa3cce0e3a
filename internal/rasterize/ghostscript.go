package rasterize

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"pagelift/internal/config"
	"pagelift/internal/domain"
)

// GeometrySource is the PDF geometry parser boundary. It returns the
// per-page text spans and declared page boxes of a document, both in
// original page coordinates. Page numbers are 1-based.
type GeometrySource interface {
	PageGeometry(ctx context.Context, path string) (map[int]PageGeometry, error)
}

// PageGeometry is one page's parsed geometry in original coordinates.
type PageGeometry struct {
	// PageBox is the declared page extent. It wins over the decoded pixel
	// size when both are known.
	PageBox domain.Box
	Spans   []domain.TextSpan
}

// Ghostscript rasterizes documents by shelling out to gs. Every external
// call is bounded by the configured timeout; a timeout or non-zero exit
// excludes only the document at hand.
type Ghostscript struct {
	cfg    config.RasterConfig
	geo    GeometrySource
	logger *zap.Logger
}

// NewGhostscript creates a ghostscript-backed rasterizer. geo may be nil,
// in which case pages carry no geometry metadata and original extents fall
// back to the decoded pixel size.
func NewGhostscript(cfg config.RasterConfig, geo GeometrySource, logger *zap.Logger) *Ghostscript {
	return &Ghostscript{cfg: cfg, geo: geo, logger: logger}
}

// Rasterize renders every page of the document into imageDir and returns
// the page list ordered by page number.
func (g *Ghostscript) Rasterize(ctx context.Context, doc domain.Document, imageDir string) ([]domain.PageImage, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	var geometry map[int]PageGeometry
	if g.geo != nil {
		var err error
		geometry, err = g.geo.PageGeometry(ctx, doc.SourcePath)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing geometry of %s: %v", domain.ErrDocumentParse, doc.Name, err)
		}
	}

	outPattern := filepath.Join(imageDir, doc.Name+"_%d.png")
	cmd := exec.CommandContext(ctx, g.cfg.GhostscriptBin,
		"-dBATCH",
		"-dNOPAUSE",
		"-sDEVICE=png16m",
		"-dGraphicsAlphaBits=4",
		"-dTextAlphaBits=4",
		fmt.Sprintf("-r%d", g.cfg.DPI),
		"-sOutputFile="+outPattern,
		doc.SourcePath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%w: gs on %s: %v: %s", domain.ErrExternalTool, doc.Name, err, strings.TrimSpace(string(out)))
	}

	paths, err := filepath.Glob(filepath.Join(imageDir, doc.Name+"_*.png"))
	if err != nil {
		return nil, fmt.Errorf("listing rendered pages: %w", err)
	}

	var pages []domain.PageImage
	for _, path := range paths {
		pageNum, ok := pageNumber(path, doc.Name)
		if !ok {
			continue
		}
		page, err := g.preparePage(doc, path, pageNum, geometry)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d of %s: %v", domain.ErrDocumentParse, pageNum, doc.Name, err)
		}
		pages = append(pages, page)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].PageNumber < pages[j].PageNumber })

	g.logger.Debug("document rasterized",
		zap.String("document", doc.Name),
		zap.Int("pages", len(pages)))
	return pages, nil
}

// preparePage resizes one rendered page to the target size and rescales
// its geometry spans into rendered-image space.
func (g *Ghostscript) preparePage(doc domain.Document, path string, pageNum int, geometry map[int]PageGeometry) (domain.PageImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.PageImage{}, err
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		return domain.PageImage{}, fmt.Errorf("decoding png: %w", err)
	}

	resized := FitLongestSide(img, g.cfg.TargetSize)
	if err := writePNG(path, resized); err != nil {
		return domain.PageImage{}, err
	}

	renderedW := float64(resized.Bounds().Dx())
	renderedH := float64(resized.Bounds().Dy())
	origW := float64(img.Bounds().Dx())
	origH := float64(img.Bounds().Dy())

	page := domain.PageImage{
		DocumentName:   doc.Name,
		DatasetID:      doc.DatasetID,
		PageNumber:     pageNum,
		RenderedWidth:  renderedW,
		RenderedHeight: renderedH,
		ImagePath:      path,
	}

	geo, ok := geometry[pageNum]
	if ok && geo.PageBox.Area() > 0 {
		// The declared page box, not the raster's pixel size, defines the
		// original coordinate space.
		origW = geo.PageBox.Width()
		origH = geo.PageBox.Height()
	}
	page.OriginalWidth = origW
	page.OriginalHeight = origH

	if ok && len(geo.Spans) > 0 {
		scaled := ScaleSpans(geo.Spans, renderedW/origW, renderedH/origH)
		for i := range scaled {
			scaled[i].Box = scaled[i].Box.Clamp(renderedW, renderedH)
		}
		page.Geometry = &domain.Geometry{Spans: scaled}
	}
	return page, nil
}

func pageNumber(path, docName string) (int, bool) {
	base := strings.TrimSuffix(filepath.Base(path), ".png")
	suffix := strings.TrimPrefix(base, docName+"_")
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
