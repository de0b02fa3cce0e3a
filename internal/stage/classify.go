package stage

import (
	"context"
	"strings"

	"pagelift/internal/domain"
	"pagelift/internal/port"
)

// Classify runs the classification postprocess model over every detection,
// filling the postprocess slice parallel to the detections.
type Classify struct {
	classifier port.Classifier
}

// NewClassify creates the classifier postprocess stage.
func NewClassify(classifier port.Classifier) *Classify {
	return &Classify{classifier: classifier}
}

func (s *Classify) Name() string                   { return "classify" }
func (s *Classify) Kind() domain.StageKind         { return domain.StageClassify }
func (s *Classify) Resource() domain.ResourceClass { return domain.ResourceCPU }
func (s *Classify) Priority() int                  { return 0 }

func (s *Classify) Process(ctx context.Context, item domain.WorkItem) (domain.WorkItem, error) {
	if err := ctx.Err(); err != nil {
		return item, err
	}

	out := item
	out.Postprocess = make([]domain.Postprocess, len(item.Detections))
	for i, det := range item.Detections {
		pp, err := s.classifier.Classify(ctx, det)
		if err != nil {
			return item, err
		}
		out.Postprocess[i] = pp
	}
	return out, nil
}

// ScoreClassifier is the shipped fallback classifier: it confirms the
// primary detection label, demoting low-confidence empty detections to
// Other and recognizing caption-like content prefixes.
type ScoreClassifier struct{}

// NewScoreClassifier creates the fallback classifier.
func NewScoreClassifier() *ScoreClassifier { return &ScoreClassifier{} }

func (c *ScoreClassifier) Classify(ctx context.Context, det domain.Detection) (domain.Postprocess, error) {
	if err := ctx.Err(); err != nil {
		return domain.Postprocess{}, err
	}

	cls, score := det.Primary()
	content := strings.TrimSpace(strings.ToLower(det.Content))
	switch {
	case strings.HasPrefix(content, "figure ") || strings.HasPrefix(content, "fig."):
		return domain.Postprocess{Class: domain.ClassFigureCaption, Score: 0.9}, nil
	case strings.HasPrefix(content, "table "):
		return domain.Postprocess{Class: domain.ClassTableCaption, Score: 0.9}, nil
	case score < 0.5 && content == "":
		return domain.Postprocess{Class: domain.ClassOther, Score: 1 - score}, nil
	default:
		return domain.Postprocess{Class: cls, Score: score}, nil
	}
}
