package rasterize

import "pagelift/internal/domain"

// ScaleSpans re-expresses text spans in a new coordinate space by
// multiplying each box by the per-axis factors. The transform is linear
// and exact: scaling by (sx, sy) then (1/sx, 1/sy) restores the input.
func ScaleSpans(spans []domain.TextSpan, sx, sy float64) []domain.TextSpan {
	out := make([]domain.TextSpan, len(spans))
	for i, sp := range spans {
		out[i] = domain.TextSpan{Box: sp.Box.Scale(sx, sy), Text: sp.Text}
	}
	return out
}
