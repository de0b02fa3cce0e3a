package port

import (
	"context"

	"pagelift/internal/domain"
)

// Stage is one resource-tagged transformation applied uniformly to a
// collection of work items. Process must be side-effect-free on its input:
// it returns a new item rather than mutating the argument. Resource class
// is fixed per stage and validated when the stage plan is built.
type Stage interface {
	Name() string
	Kind() domain.StageKind
	Resource() domain.ResourceClass
	// Priority biases scheduling order within a resource class. Higher
	// values are submitted first; FIFO across classes is not guaranteed.
	Priority() int
	Process(ctx context.Context, item domain.WorkItem) (domain.WorkItem, error)
}

// Detector is the object-detection model boundary. It classifies candidate
// regions of a page, returning one Detection per detected element.
type Detector interface {
	Detect(ctx context.Context, page domain.PageImage, proposals []domain.Box) ([]domain.Detection, error)
}

// TextExtractor is the OCR engine boundary: it recognizes the text inside
// one region of a rendered page image.
type TextExtractor interface {
	ExtractText(ctx context.Context, imagePath string, region domain.Box) (string, error)
}

// Classifier is the classification postprocess boundary. It re-scores one
// detection using its extracted content.
type Classifier interface {
	Classify(ctx context.Context, det domain.Detection) (domain.Postprocess, error)
}

// RuleSet is the rule postprocess boundary. It revises the postprocess
// labels of a whole page using page-level context.
type RuleSet interface {
	Apply(ctx context.Context, item domain.WorkItem) ([]domain.Postprocess, error)
}
