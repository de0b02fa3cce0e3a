package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagelift/internal/domain"
)

func detection(cls string, score float64, content string) domain.Detection {
	return domain.Detection{
		Box:     domain.Box{X1: 10, Y1: 10, X2: 100, Y2: 50},
		Classes: []string{cls, domain.ClassOther},
		Scores:  []float64{score, 1 - score},
		Content: content,
	}
}

func TestCollectRowInvariants(t *testing.T) {
	items := []domain.WorkItem{
		{
			Page: domain.PageImage{DocumentName: "a.pdf", DatasetID: "ds", PageNumber: 1},
			Detections: []domain.Detection{
				detection(domain.ClassBodyText, 0.8, "hello"),
				detection(domain.ClassFigure, 0.6, ""),
			},
		},
	}
	rows := Collect(items)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, len(row.Classes), len(row.Scores))
		assert.Equal(t, row.Classes[0], row.DetectCls)
		assert.Equal(t, row.Scores[0], row.DetectScore)
		assert.Equal(t, "a.pdf", row.PDFName)
		assert.Equal(t, "ds", row.DatasetID)
		assert.Equal(t, 1, row.PageNum)
		assert.Nil(t, row.PostprocessCls)
		assert.Nil(t, row.PostprocessScore)
	}
}

func TestCollectPostprocessByIndex(t *testing.T) {
	items := []domain.WorkItem{
		{
			Page: domain.PageImage{DocumentName: "a.pdf", DatasetID: "ds", PageNumber: 1},
			Detections: []domain.Detection{
				detection(domain.ClassBodyText, 0.8, "x"),
				detection(domain.ClassFigure, 0.6, "y"),
			},
			Postprocess: []domain.Postprocess{
				{Class: domain.ClassSectionHeader, Score: 0.9},
				{Class: domain.ClassFigure, Score: 0.7},
			},
		},
	}
	rows := Collect(items)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].PostprocessCls)
	assert.Equal(t, domain.ClassSectionHeader, *rows[0].PostprocessCls)
	assert.Equal(t, 0.9, *rows[0].PostprocessScore)
	assert.Equal(t, domain.ClassFigure, *rows[1].PostprocessCls)
}

func TestCollectEmptyDetections(t *testing.T) {
	items := []domain.WorkItem{
		{Page: domain.PageImage{DocumentName: "a.pdf", PageNumber: 1}},
	}
	assert.Empty(t, Collect(items))
}

func TestCollectStableOrder(t *testing.T) {
	items := []domain.WorkItem{
		{Page: domain.PageImage{DocumentName: "b.pdf", PageNumber: 2}, Detections: []domain.Detection{detection(domain.ClassBodyText, 0.8, "")}},
		{Page: domain.PageImage{DocumentName: "a.pdf", PageNumber: 2}, Detections: []domain.Detection{detection(domain.ClassBodyText, 0.8, "")}},
		{Page: domain.PageImage{DocumentName: "a.pdf", PageNumber: 1}, Detections: []domain.Detection{detection(domain.ClassBodyText, 0.8, "")}},
	}
	rows := Collect(items)
	require.Len(t, rows, 3)
	assert.Equal(t, "a.pdf", rows[0].PDFName)
	assert.Equal(t, 1, rows[0].PageNum)
	assert.Equal(t, "a.pdf", rows[1].PDFName)
	assert.Equal(t, 2, rows[1].PageNum)
	assert.Equal(t, "b.pdf", rows[2].PDFName)
}
