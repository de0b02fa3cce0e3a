package pipeline

import (
	"fmt"

	"pagelift/internal/domain"
	"pagelift/internal/port"
	"pagelift/internal/stage"
)

// Options is the per-run configuration surface.
type Options struct {
	DatasetID                string
	UseSemanticDetection     bool
	UseClassifierPostprocess bool
	UseRulePostprocess       bool
	SkipTextExtraction       bool
	VisualizeProposals       bool
	Aggregations             []string
}

// Dependencies holds the pluggable stage collaborators. Nil Detector,
// Classifier, or Rules fall back to the shipped heuristic implementations;
// a nil Extractor is only valid when SkipTextExtraction is set.
type Dependencies struct {
	Detector   port.Detector
	Extractor  port.TextExtractor
	Classifier port.Classifier
	Rules      port.RuleSet
}

// BuildPlan turns run options into the declarative ordered stage list:
// propose, then detect/regroup/pooltext when semantic detection is on,
// then the postprocess stages. Dependency order and aggregation names are
// validated here, before any work is submitted.
func BuildPlan(opts Options, deps Dependencies) ([]port.Stage, error) {
	if err := validate(opts, deps); err != nil {
		return nil, err
	}

	plan := []port.Stage{
		stage.NewPropose(stage.ProposeConfig{Visualize: opts.VisualizeProposals}),
	}
	if !opts.UseSemanticDetection {
		return plan, nil
	}

	detector := deps.Detector
	if detector == nil {
		detector = stage.NewGeometryDetector()
	}
	plan = append(plan,
		stage.NewDetect(detector),
		stage.NewRegroup(),
		stage.NewPoolText(deps.Extractor, opts.SkipTextExtraction),
	)

	if opts.UseClassifierPostprocess {
		classifier := deps.Classifier
		if classifier == nil {
			classifier = stage.NewScoreClassifier()
		}
		plan = append(plan, stage.NewClassify(classifier))

		if opts.UseRulePostprocess {
			rules := deps.Rules
			if rules == nil {
				rules = stage.NewStandardRules()
			}
			plan = append(plan, stage.NewRules(rules))
		}
	}
	return plan, nil
}

func validate(opts Options, deps Dependencies) error {
	if opts.DatasetID == "" {
		return fmt.Errorf("%w: dataset id is required", domain.ErrConfiguration)
	}
	if opts.UseClassifierPostprocess && !opts.UseSemanticDetection {
		return fmt.Errorf("%w: classifier postprocess requires semantic detection", domain.ErrConfiguration)
	}
	if opts.UseRulePostprocess && !opts.UseClassifierPostprocess {
		return fmt.Errorf("%w: rule postprocess requires classifier postprocess", domain.ErrConfiguration)
	}
	if opts.UseSemanticDetection && !opts.SkipTextExtraction && deps.Extractor == nil {
		return fmt.Errorf("%w: text extraction enabled but no extractor configured", domain.ErrConfiguration)
	}
	for _, name := range opts.Aggregations {
		if !Registered(name) {
			return fmt.Errorf("%w: unknown aggregation %q", domain.ErrConfiguration, name)
		}
	}
	return nil
}
