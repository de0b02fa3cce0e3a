package stage

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"pagelift/internal/domain"
	"pagelift/internal/rasterize"
)

const (
	proposalPad     = 4.0
	proposalGap     = 14.0
	proposePriority = 8
)

// ProposeConfig configures the proposal stage.
type ProposeConfig struct {
	// Visualize writes a copy of each page image with the proposal boxes
	// burned in, next to the original.
	Visualize bool
}

// Propose derives candidate region boxes for a page. Text spans from the
// page geometry are merged into vertically-contiguous blocks; a page with
// no geometry gets a single full-page proposal.
type Propose struct {
	cfg ProposeConfig
}

// NewPropose creates the proposal stage.
func NewPropose(cfg ProposeConfig) *Propose {
	return &Propose{cfg: cfg}
}

func (s *Propose) Name() string                   { return "propose" }
func (s *Propose) Kind() domain.StageKind         { return domain.StagePropose }
func (s *Propose) Resource() domain.ResourceClass { return domain.ResourceCPU }
func (s *Propose) Priority() int                  { return proposePriority }

func (s *Propose) Process(ctx context.Context, item domain.WorkItem) (domain.WorkItem, error) {
	if err := ctx.Err(); err != nil {
		return item, err
	}

	page := item.Page
	out := item
	out.Proposals = proposeBlocks(page)

	if s.cfg.Visualize && page.ImagePath != "" {
		dst := visualPath(page.ImagePath)
		if err := rasterize.DrawBoxes(page.ImagePath, out.Proposals, dst); err != nil {
			return item, err
		}
	}
	return out, nil
}

func proposeBlocks(page domain.PageImage) []domain.Box {
	full := domain.Box{X2: page.RenderedWidth, Y2: page.RenderedHeight}
	if page.Geometry == nil || len(page.Geometry.Spans) == 0 {
		return []domain.Box{full}
	}

	spans := make([]domain.TextSpan, len(page.Geometry.Spans))
	copy(spans, page.Geometry.Spans)
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Box.Y1 != spans[j].Box.Y1 {
			return spans[i].Box.Y1 < spans[j].Box.Y1
		}
		return spans[i].Box.X1 < spans[j].Box.X1
	})

	var blocks []domain.Box
	current := spans[0].Box
	for _, sp := range spans[1:] {
		if sp.Box.Y1-current.Y2 > proposalGap {
			blocks = append(blocks, current)
			current = sp.Box
			continue
		}
		current = current.Union(sp.Box)
	}
	blocks = append(blocks, current)

	for i := range blocks {
		blocks[i] = blocks[i].Pad(proposalPad).Clamp(page.RenderedWidth, page.RenderedHeight)
	}
	return blocks
}

func visualPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + "_proposals" + ext
}
