package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"pagelift/internal/domain"
)

// AggregateFunc is a pure function of the full result table producing one
// named aggregate view. It must not mutate rows.
type AggregateFunc func(datasetID string, rows []domain.ResultRow) domain.AggregateView

var aggregations = map[string]AggregateFunc{
	"pdfs":    aggregatePDFs,
	"pages":   aggregatePages,
	"classes": aggregateClasses,
}

// Registered reports whether an aggregation name is known.
func Registered(name string) bool {
	_, ok := aggregations[name]
	return ok
}

// AggregationNames returns the registered aggregation names, sorted.
func AggregationNames() []string {
	names := make([]string, 0, len(aggregations))
	for name := range aggregations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunAggregations computes the requested views in parallel. Aggregations
// are independent of each other; an empty row table yields empty views.
func RunAggregations(ctx context.Context, datasetID string, rows []domain.ResultRow, names []string) ([]domain.AggregateView, error) {
	views := make([]domain.AggregateView, len(names))
	g, _ := errgroup.WithContext(ctx)
	for i, name := range names {
		fn, ok := aggregations[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown aggregation %q", domain.ErrConfiguration, name)
		}
		g.Go(func() error {
			views[i] = fn(datasetID, rows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// aggregatePDFs groups by (pdf_name, detect_cls): element count, mean
// detection score, and the newline-joined non-empty content.
func aggregatePDFs(datasetID string, rows []domain.ResultRow) domain.AggregateView {
	type key struct{ pdf, cls string }
	type acc struct {
		count    int
		scoreSum float64
		content  []string
	}
	groups := map[key]*acc{}
	for _, r := range rows {
		k := key{r.PDFName, r.DetectCls}
		a, ok := groups[k]
		if !ok {
			a = &acc{}
			groups[k] = a
		}
		a.count++
		a.scoreSum += r.DetectScore
		if r.Content != "" {
			a.content = append(a.content, r.Content)
		}
	}

	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].pdf != keys[j].pdf {
			return keys[i].pdf < keys[j].pdf
		}
		return keys[i].cls < keys[j].cls
	})

	view := domain.AggregateView{
		DatasetID: datasetID,
		Name:      "pdfs",
		Columns:   []string{"pdf_name", "detect_cls", "count", "mean_score", "content"},
		Rows:      make([][]string, 0, len(keys)),
	}
	for _, k := range keys {
		a := groups[k]
		view.Rows = append(view.Rows, []string{
			k.pdf,
			k.cls,
			fmt.Sprintf("%d", a.count),
			fmt.Sprintf("%.4f", a.scoreSum/float64(a.count)),
			strings.Join(a.content, "\n"),
		})
	}
	return view
}

// aggregatePages groups by (pdf_name, page_num): element count and the
// distinct classes seen on the page.
func aggregatePages(datasetID string, rows []domain.ResultRow) domain.AggregateView {
	type key struct {
		pdf  string
		page int
	}
	type acc struct {
		count   int
		classes map[string]struct{}
	}
	groups := map[key]*acc{}
	for _, r := range rows {
		k := key{r.PDFName, r.PageNum}
		a, ok := groups[k]
		if !ok {
			a = &acc{classes: map[string]struct{}{}}
			groups[k] = a
		}
		a.count++
		a.classes[r.DetectCls] = struct{}{}
	}

	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].pdf != keys[j].pdf {
			return keys[i].pdf < keys[j].pdf
		}
		return keys[i].page < keys[j].page
	})

	view := domain.AggregateView{
		DatasetID: datasetID,
		Name:      "pages",
		Columns:   []string{"pdf_name", "page_num", "count", "classes"},
		Rows:      make([][]string, 0, len(keys)),
	}
	for _, k := range keys {
		a := groups[k]
		classes := make([]string, 0, len(a.classes))
		for c := range a.classes {
			classes = append(classes, c)
		}
		sort.Strings(classes)
		view.Rows = append(view.Rows, []string{
			k.pdf,
			fmt.Sprintf("%d", k.page),
			fmt.Sprintf("%d", a.count),
			strings.Join(classes, ","),
		})
	}
	return view
}

// aggregateClasses is the dataset-wide class histogram with mean score.
func aggregateClasses(datasetID string, rows []domain.ResultRow) domain.AggregateView {
	type acc struct {
		count    int
		scoreSum float64
	}
	groups := map[string]*acc{}
	for _, r := range rows {
		a, ok := groups[r.DetectCls]
		if !ok {
			a = &acc{}
			groups[r.DetectCls] = a
		}
		a.count++
		a.scoreSum += r.DetectScore
	}

	classes := make([]string, 0, len(groups))
	for c := range groups {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	view := domain.AggregateView{
		DatasetID: datasetID,
		Name:      "classes",
		Columns:   []string{"detect_cls", "count", "mean_score"},
		Rows:      make([][]string, 0, len(classes)),
	}
	for _, c := range classes {
		a := groups[c]
		view.Rows = append(view.Rows, []string{
			c,
			fmt.Sprintf("%d", a.count),
			fmt.Sprintf("%.4f", a.scoreSum/float64(a.count)),
		})
	}
	return view
}
