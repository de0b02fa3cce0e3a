package port

import (
	"context"

	"pagelift/internal/domain"
)

// Rasterizer turns one document into its rendered pages, writing page
// images under imageDir. An unparseable document may be reported either as
// an empty slice or as an error wrapping domain.ErrDocumentParse; the
// orchestrator treats both as a parse failure that excludes only that
// document.
type Rasterizer interface {
	Rasterize(ctx context.Context, doc domain.Document, imageDir string) ([]domain.PageImage, error)
}
