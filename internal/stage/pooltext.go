package stage

import (
	"context"
	"sort"
	"strings"

	"pagelift/internal/domain"
	"pagelift/internal/port"
)

// PoolText attaches extracted text to every detection. When skipOCR is
// set, the text is pooled from the page geometry spans whose center falls
// inside the detection box, in reading order; otherwise the configured OCR
// engine recognizes the detection region of the page image.
type PoolText struct {
	extractor port.TextExtractor
	skipOCR   bool
}

// NewPoolText creates the text-pooling stage.
func NewPoolText(extractor port.TextExtractor, skipOCR bool) *PoolText {
	return &PoolText{extractor: extractor, skipOCR: skipOCR}
}

func (s *PoolText) Name() string                   { return "pooltext" }
func (s *PoolText) Kind() domain.StageKind         { return domain.StagePoolText }
func (s *PoolText) Resource() domain.ResourceClass { return domain.ResourceCPU }
func (s *PoolText) Priority() int                  { return 0 }

func (s *PoolText) Process(ctx context.Context, item domain.WorkItem) (domain.WorkItem, error) {
	if err := ctx.Err(); err != nil {
		return item, err
	}

	out := item
	out.Detections = make([]domain.Detection, len(item.Detections))
	for i, det := range item.Detections {
		out.Detections[i] = det
		if s.skipOCR || s.extractor == nil {
			out.Detections[i].Content = poolSpans(item.Page.Geometry, det.Box)
			continue
		}
		text, err := s.extractor.ExtractText(ctx, item.Page.ImagePath, det.Box)
		if err != nil {
			return item, err
		}
		out.Detections[i].Content = strings.TrimSpace(text)
	}
	return out, nil
}

// poolSpans joins the spans whose center lies inside box, top-to-bottom
// then left-to-right.
func poolSpans(geo *domain.Geometry, box domain.Box) string {
	if geo == nil {
		return ""
	}
	var inside []domain.TextSpan
	for _, sp := range geo.Spans {
		cx, cy := sp.Box.Center()
		if box.Contains(cx, cy) {
			inside = append(inside, sp)
		}
	}
	sort.Slice(inside, func(i, j int) bool {
		if inside[i].Box.Y1 != inside[j].Box.Y1 {
			return inside[i].Box.Y1 < inside[j].Box.Y1
		}
		return inside[i].Box.X1 < inside[j].Box.X1
	})

	parts := make([]string, 0, len(inside))
	for _, sp := range inside {
		if sp.Text != "" {
			parts = append(parts, sp.Text)
		}
	}
	return strings.Join(parts, " ")
}
