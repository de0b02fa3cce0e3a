package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pagelift/internal/artifact"
	"pagelift/internal/config"
	"pagelift/internal/domain"
)

type stubExtractor struct{}

func (stubExtractor) ExtractText(ctx context.Context, imagePath string, region domain.Box) (string, error) {
	return "stub", nil
}

// fakeRasterizer produces synthetic two-page documents without touching
// ghostscript. Documents listed in corrupt fail with a parse error.
type fakeRasterizer struct {
	corrupt map[string]bool
}

func (r *fakeRasterizer) Rasterize(ctx context.Context, doc domain.Document, imageDir string) ([]domain.PageImage, error) {
	if r.corrupt[doc.Name] {
		return nil, fmt.Errorf("%w: %s is corrupt", domain.ErrDocumentParse, doc.Name)
	}
	pages := make([]domain.PageImage, 2)
	for i := range pages {
		pages[i] = domain.PageImage{
			DocumentName:   doc.Name,
			DatasetID:      doc.DatasetID,
			PageNumber:     i + 1,
			OriginalWidth:  612,
			OriginalHeight: 792,
			RenderedWidth:  1000,
			RenderedHeight: 1294,
			Geometry: &domain.Geometry{Spans: []domain.TextSpan{
				{Box: domain.Box{X1: 100, Y1: 200, X2: 300, Y2: 220}, Text: "lorem"},
				{Box: domain.Box{X1: 310, Y1: 200, X2: 500, Y2: 220}, Text: "ipsum"},
				{Box: domain.Box{X1: 100, Y1: 226, X2: 480, Y2: 246}, Text: "dolor"},
				{Box: domain.Box{X1: 100, Y1: 252, X2: 470, Y2: 272}, Text: "sit"},
			}},
		}
	}
	return pages, nil
}

type failingDetector struct {
	failPage int
}

func (d *failingDetector) Detect(ctx context.Context, page domain.PageImage, proposals []domain.Box) ([]domain.Detection, error) {
	if page.PageNumber == d.failPage {
		return nil, fmt.Errorf("model crashed on page %d", page.PageNumber)
	}
	return NewTestDetections(proposals), nil
}

// NewTestDetections builds one Body Text detection per proposal.
func NewTestDetections(proposals []domain.Box) []domain.Detection {
	dets := make([]domain.Detection, len(proposals))
	for i, b := range proposals {
		dets[i] = domain.Detection{
			Box:     b,
			Classes: []string{domain.ClassBodyText, domain.ClassOther},
			Scores:  []float64{0.9, 0.1},
		}
	}
	return dets
}

func newTestEngine(t *testing.T, rasterizer *fakeRasterizer, deps Dependencies) *Engine {
	t.Helper()
	pool, err := NewPool(config.PoolConfig{CPUSlots: 4, AcceleratorSlots: 1})
	require.NoError(t, err)
	store, err := artifact.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	engine, err := NewEngine(pool, rasterizer, store, deps, zap.NewNop())
	require.NoError(t, err)
	return engine
}

func testDocs(names ...string) []domain.Document {
	docs := make([]domain.Document, len(names))
	for i, n := range names {
		docs[i] = domain.Document{Name: n, SourcePath: "/nonexistent/" + n}
	}
	return docs
}

func fullOptions() Options {
	return Options{
		DatasetID:                "ds",
		UseSemanticDetection:     true,
		UseClassifierPostprocess: true,
		UseRulePostprocess:       true,
		SkipTextExtraction:       true,
		Aggregations:             []string{"pdfs", "classes"},
	}
}

func TestRunProducesRows(t *testing.T) {
	engine := newTestEngine(t, &fakeRasterizer{}, Dependencies{})
	result, err := engine.Run(context.Background(), testDocs("a.pdf"), fullOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Summary.TotalPages)
	assert.Zero(t, result.Summary.FailedDocuments)
	require.NotEmpty(t, result.Rows)
	for _, row := range result.Rows {
		assert.Equal(t, len(row.Classes), len(row.Scores))
		assert.Equal(t, row.Classes[0], row.DetectCls)
		assert.Equal(t, row.Scores[0], row.DetectScore)
		assert.NotNil(t, row.PostprocessCls)
		assert.GreaterOrEqual(t, row.Bounding.X1, 0.0)
		assert.LessOrEqual(t, row.Bounding.X2, 1000.0)
		assert.LessOrEqual(t, row.Bounding.Y2, 1294.0)
		assert.Equal(t, "ds", row.DatasetID)
	}
	require.Len(t, result.Views, 2)
}

// A corrupt document in the middle of the batch is excluded; its siblings
// still produce rows and no error escapes Run.
func TestRunExcludesCorruptDocument(t *testing.T) {
	raster := &fakeRasterizer{corrupt: map[string]bool{"bad.pdf": true}}
	engine := newTestEngine(t, raster, Dependencies{})

	result, err := engine.Run(context.Background(), testDocs("a.pdf", "bad.pdf", "c.pdf"), fullOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.FailedDocuments)
	assert.Equal(t, 4, result.Summary.TotalPages)

	pdfs := map[string]bool{}
	for _, row := range result.Rows {
		pdfs[row.PDFName] = true
	}
	assert.True(t, pdfs["a.pdf"])
	assert.True(t, pdfs["c.pdf"])
	assert.False(t, pdfs["bad.pdf"])
}

// A stage failure for one item removes only that item; the failure is
// counted, never fatal.
func TestRunAbsorbsStageFailure(t *testing.T) {
	engine := newTestEngine(t, &fakeRasterizer{}, Dependencies{Detector: &failingDetector{failPage: 2}})

	result, err := engine.Run(context.Background(), testDocs("a.pdf"), fullOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.FailedItems)
	for _, row := range result.Rows {
		assert.Equal(t, 1, row.PageNum)
	}
	require.NotEmpty(t, result.Rows)
}

// Two runs over the same inputs and configuration produce identical
// tables.
func TestRunDeterminism(t *testing.T) {
	docs := testDocs("a.pdf", "b.pdf")

	first, err := newTestEngine(t, &fakeRasterizer{}, Dependencies{}).Run(context.Background(), docs, fullOptions())
	require.NoError(t, err)
	second, err := newTestEngine(t, &fakeRasterizer{}, Dependencies{}).Run(context.Background(), docs, fullOptions())
	require.NoError(t, err)

	require.Equal(t, len(first.Rows), len(second.Rows))
	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.Views, second.Views)
}

func TestRunRejectsInvalidOptions(t *testing.T) {
	engine := newTestEngine(t, &fakeRasterizer{}, Dependencies{})
	_, err := engine.Run(context.Background(), testDocs("a.pdf"), Options{
		DatasetID:            "ds",
		UseSemanticDetection: true,
		UseRulePostprocess:   true,
	})
	require.ErrorIs(t, err, domain.ErrConfiguration)
}
