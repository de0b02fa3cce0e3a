package stage

import (
	"context"

	"pagelift/internal/domain"
	"pagelift/internal/port"
)

// Detect applies the object-detection model to every proposal of a page.
// The model itself is an external collaborator behind port.Detector; this
// stage only moves data across that boundary under an accelerator slot.
type Detect struct {
	detector port.Detector
}

// NewDetect creates the detection stage.
func NewDetect(detector port.Detector) *Detect {
	return &Detect{detector: detector}
}

func (s *Detect) Name() string                   { return "detect" }
func (s *Detect) Kind() domain.StageKind         { return domain.StageDetect }
func (s *Detect) Resource() domain.ResourceClass { return domain.ResourceAccelerator }
func (s *Detect) Priority() int                  { return 8 }

func (s *Detect) Process(ctx context.Context, item domain.WorkItem) (domain.WorkItem, error) {
	if err := ctx.Err(); err != nil {
		return item, err
	}
	detections, err := s.detector.Detect(ctx, item.Page, item.Proposals)
	if err != nil {
		return item, err
	}
	out := item
	out.Detections = detections
	return out, nil
}

// GeometryDetector is the shipped fallback detector: it labels each
// proposal from the density of text spans it covers. Deterministic, so two
// runs over the same input produce identical tables.
type GeometryDetector struct{}

// NewGeometryDetector creates the fallback detector.
func NewGeometryDetector() *GeometryDetector { return &GeometryDetector{} }

func (d *GeometryDetector) Detect(ctx context.Context, page domain.PageImage, proposals []domain.Box) ([]domain.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detections := make([]domain.Detection, 0, len(proposals))
	for _, box := range proposals {
		spanArea := 0.0
		spanCount := 0
		if page.Geometry != nil {
			for _, sp := range page.Geometry.Spans {
				cx, cy := sp.Box.Center()
				if box.Contains(cx, cy) {
					spanArea += sp.Box.Area()
					spanCount++
				}
			}
		}

		det := domain.Detection{Box: box.Clamp(page.RenderedWidth, page.RenderedHeight)}
		density := 0.0
		if a := box.Area(); a > 0 {
			density = spanArea / a
		}
		switch {
		case spanCount == 0:
			det.Classes = []string{domain.ClassFigure, domain.ClassOther}
			det.Scores = []float64{0.55, 0.45}
		case density < 0.05:
			det.Classes = []string{domain.ClassOther, domain.ClassBodyText}
			det.Scores = []float64{0.5, 0.4}
		case spanCount <= 2 && box.Y1 < page.RenderedHeight*0.1:
			det.Classes = []string{domain.ClassPageHeader, domain.ClassBodyText}
			det.Scores = []float64{0.6, 0.3}
		case spanCount <= 2 && box.Y2 > page.RenderedHeight*0.9:
			det.Classes = []string{domain.ClassPageFooter, domain.ClassBodyText}
			det.Scores = []float64{0.6, 0.3}
		case spanCount <= 2:
			det.Classes = []string{domain.ClassSectionHeader, domain.ClassBodyText}
			det.Scores = []float64{0.5, 0.4}
		default:
			det.Classes = []string{domain.ClassBodyText, domain.ClassOther}
			det.Scores = []float64{0.8, 0.2}
		}
		detections = append(detections, det)
	}
	return detections, nil
}
