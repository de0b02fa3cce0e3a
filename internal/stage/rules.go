package stage

import (
	"context"

	"pagelift/internal/domain"
	"pagelift/internal/port"
)

// Rules revises the postprocess labels of a page using page-level context.
type Rules struct {
	rules port.RuleSet
}

// NewRules creates the rule postprocess stage.
func NewRules(rules port.RuleSet) *Rules {
	return &Rules{rules: rules}
}

func (s *Rules) Name() string                   { return "rules" }
func (s *Rules) Kind() domain.StageKind         { return domain.StageRules }
func (s *Rules) Resource() domain.ResourceClass { return domain.ResourceCPU }
func (s *Rules) Priority() int                  { return 0 }

func (s *Rules) Process(ctx context.Context, item domain.WorkItem) (domain.WorkItem, error) {
	if err := ctx.Err(); err != nil {
		return item, err
	}
	revised, err := s.rules.Apply(ctx, item)
	if err != nil {
		return item, err
	}
	out := item
	out.Postprocess = revised
	return out, nil
}

// StandardRules is the shipped rule set. Rules fire on page context only:
// a caption needs its figure or table on the same page, an equation label
// needs an equation, and header/footer labels must sit in the page margin
// bands.
type StandardRules struct{}

// NewStandardRules creates the shipped rule set.
func NewStandardRules() *StandardRules { return &StandardRules{} }

func (r *StandardRules) Apply(ctx context.Context, item domain.WorkItem) ([]domain.Postprocess, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	present := map[string]bool{}
	for _, pp := range item.Postprocess {
		present[pp.Class] = true
	}

	out := make([]domain.Postprocess, len(item.Postprocess))
	copy(out, item.Postprocess)
	for i := range out {
		if i >= len(item.Detections) {
			break
		}
		box := item.Detections[i].Box
		switch out[i].Class {
		case domain.ClassFigureCaption:
			if !present[domain.ClassFigure] {
				out[i] = domain.Postprocess{Class: domain.ClassBodyText, Score: out[i].Score * 0.8}
			}
		case domain.ClassTableCaption:
			if !present[domain.ClassTable] {
				out[i] = domain.Postprocess{Class: domain.ClassBodyText, Score: out[i].Score * 0.8}
			}
		case domain.ClassEquationLabel:
			if !present[domain.ClassEquation] {
				out[i] = domain.Postprocess{Class: domain.ClassBodyText, Score: out[i].Score * 0.8}
			}
		case domain.ClassPageHeader:
			if box.Y1 > item.Page.RenderedHeight*0.15 {
				out[i] = domain.Postprocess{Class: domain.ClassBodyText, Score: out[i].Score * 0.8}
			}
		case domain.ClassPageFooter:
			if box.Y2 < item.Page.RenderedHeight*0.85 {
				out[i] = domain.Postprocess{Class: domain.ClassBodyText, Score: out[i].Score * 0.8}
			}
		}
	}
	return out, nil
}
