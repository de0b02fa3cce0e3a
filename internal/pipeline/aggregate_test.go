package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagelift/internal/domain"
)

func resultRow(pdf, cls string, page int, score float64, content string) domain.ResultRow {
	return domain.ResultRow{
		PDFName:     pdf,
		DatasetID:   "ds",
		PageNum:     page,
		Classes:     []string{cls},
		Scores:      []float64{score},
		Content:     content,
		DetectCls:   cls,
		DetectScore: score,
	}
}

func TestRegistered(t *testing.T) {
	assert.True(t, Registered("pdfs"))
	assert.True(t, Registered("pages"))
	assert.True(t, Registered("classes"))
	assert.False(t, Registered("sections"))
}

func TestRunAggregationsUnknownName(t *testing.T) {
	_, err := RunAggregations(context.Background(), "ds", nil, []string{"sections"})
	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRunAggregationsEmptyTable(t *testing.T) {
	views, err := RunAggregations(context.Background(), "ds", nil, []string{"pdfs", "classes"})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "pdfs", views[0].Name)
	assert.Empty(t, views[0].Rows)
	assert.Equal(t, "classes", views[1].Name)
	assert.Empty(t, views[1].Rows)
}

func TestAggregatePDFs(t *testing.T) {
	rows := []domain.ResultRow{
		resultRow("a.pdf", domain.ClassBodyText, 1, 0.8, "alpha"),
		resultRow("a.pdf", domain.ClassBodyText, 2, 0.6, "beta"),
		resultRow("a.pdf", domain.ClassFigure, 1, 0.5, ""),
		resultRow("b.pdf", domain.ClassBodyText, 1, 0.9, "gamma"),
	}
	view := aggregatePDFs("ds", rows)
	assert.Equal(t, "ds", view.DatasetID)
	require.Len(t, view.Rows, 3)

	// (a.pdf, Body Text): 2 elements, mean score 0.7, joined content.
	assert.Equal(t, []string{"a.pdf", domain.ClassBodyText, "2", "0.7000", "alpha\nbeta"}, view.Rows[0])
	assert.Equal(t, "a.pdf", view.Rows[1][0])
	assert.Equal(t, domain.ClassFigure, view.Rows[1][1])
	assert.Equal(t, "b.pdf", view.Rows[2][0])
}

func TestAggregatePages(t *testing.T) {
	rows := []domain.ResultRow{
		resultRow("a.pdf", domain.ClassBodyText, 1, 0.8, ""),
		resultRow("a.pdf", domain.ClassFigure, 1, 0.5, ""),
		resultRow("a.pdf", domain.ClassBodyText, 2, 0.7, ""),
	}
	view := aggregatePages("ds", rows)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, []string{"a.pdf", "1", "2", "Body Text,Figure"}, view.Rows[0])
	assert.Equal(t, []string{"a.pdf", "2", "1", "Body Text"}, view.Rows[1])
}

func TestAggregateClasses(t *testing.T) {
	rows := []domain.ResultRow{
		resultRow("a.pdf", domain.ClassBodyText, 1, 0.8, ""),
		resultRow("b.pdf", domain.ClassBodyText, 1, 0.6, ""),
		resultRow("b.pdf", domain.ClassFigure, 2, 0.5, ""),
	}
	view := aggregateClasses("ds", rows)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, []string{domain.ClassBodyText, "2", "0.7000"}, view.Rows[0])
	assert.Equal(t, []string{domain.ClassFigure, "1", "0.5000"}, view.Rows[1])
}

// Aggregations must not mutate the input table.
func TestAggregationsReadOnly(t *testing.T) {
	rows := []domain.ResultRow{
		resultRow("a.pdf", domain.ClassBodyText, 1, 0.8, "alpha"),
	}
	before := rows[0]
	_, err := RunAggregations(context.Background(), "ds", rows, AggregationNames())
	require.NoError(t, err)
	assert.Equal(t, before, rows[0])
}
