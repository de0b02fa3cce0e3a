package stage

import (
	"context"

	"pagelift/internal/domain"
)

const snapIoU = 0.5

// Regroup reconciles detection boxes with the proposal boxes: a detection
// is snapped to the proposal it best overlaps, and overlapping detections
// of the same primary class are merged into one.
type Regroup struct{}

// NewRegroup creates the regroup stage.
func NewRegroup() *Regroup { return &Regroup{} }

func (s *Regroup) Name() string                   { return "regroup" }
func (s *Regroup) Kind() domain.StageKind         { return domain.StageRegroup }
func (s *Regroup) Resource() domain.ResourceClass { return domain.ResourceCPU }
func (s *Regroup) Priority() int                  { return 0 }

func (s *Regroup) Process(ctx context.Context, item domain.WorkItem) (domain.WorkItem, error) {
	if err := ctx.Err(); err != nil {
		return item, err
	}

	out := item
	out.Detections = mergeOverlaps(snapToProposals(item.Detections, item.Proposals), item.Page)
	return out, nil
}

// snapToProposals replaces each detection box with its best-IoU proposal
// when the overlap clears the threshold; detections with no matching
// proposal keep their own box.
func snapToProposals(detections []domain.Detection, proposals []domain.Box) []domain.Detection {
	if len(proposals) == 0 {
		return detections
	}
	out := make([]domain.Detection, len(detections))
	for i, det := range detections {
		best, bestIoU := det.Box, 0.0
		for _, p := range proposals {
			if iou := det.Box.IoU(p); iou > bestIoU {
				best, bestIoU = p, iou
			}
		}
		out[i] = det
		if bestIoU >= snapIoU {
			out[i].Box = best
		}
	}
	return out
}

// mergeOverlaps unions detections that overlap and share a primary class,
// keeping the higher-scored class list.
func mergeOverlaps(detections []domain.Detection, page domain.PageImage) []domain.Detection {
	var merged []domain.Detection
	for _, det := range detections {
		cls, score := det.Primary()
		found := false
		for i := range merged {
			mcls, mscore := merged[i].Primary()
			if mcls != cls || merged[i].Box.IoU(det.Box) < snapIoU {
				continue
			}
			merged[i].Box = merged[i].Box.Union(det.Box).Clamp(page.RenderedWidth, page.RenderedHeight)
			if score > mscore {
				merged[i].Classes = det.Classes
				merged[i].Scores = det.Scores
			}
			found = true
			break
		}
		if !found {
			merged = append(merged, det)
		}
	}
	return merged
}
