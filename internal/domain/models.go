package domain

import "fmt"

// Document identifies one input PDF. Immutable once ingested.
type Document struct {
	DatasetID  string `json:"dataset_id"`
	Name       string `json:"name"`
	SourcePath string `json:"source_path"`
}

// TextSpan is one positioned text run from the PDF content layer.
type TextSpan struct {
	Box  Box    `json:"box"`
	Text string `json:"text"`
}

// Geometry carries the per-page element boxes and text spans. After
// rasterization all coordinates are expressed in rendered-image space.
type Geometry struct {
	Spans []TextSpan `json:"spans"`
}

// PageImage is one rendered page. Stages never mutate a PageImage in
// place; each stage produces a new value.
type PageImage struct {
	DocumentName   string    `json:"document_name"`
	DatasetID      string    `json:"dataset_id"`
	PageNumber     int       `json:"page_number"` // 1-based
	OriginalWidth  float64   `json:"original_width"`
	OriginalHeight float64   `json:"original_height"`
	RenderedWidth  float64   `json:"rendered_width"`
	RenderedHeight float64   `json:"rendered_height"`
	ImagePath      string    `json:"image_path"`
	Geometry       *Geometry `json:"geometry,omitempty"`
}

// Detection is one detected element: a box, an ordered class/score list
// (index 0 = primary), and any extracted text.
type Detection struct {
	Box     Box       `json:"box"`
	Classes []string  `json:"classes"`
	Scores  []float64 `json:"scores"`
	Content string    `json:"content"`
}

// Primary returns the top-ranked class and score.
func (d Detection) Primary() (string, float64) {
	if len(d.Classes) == 0 {
		return "", 0
	}
	return d.Classes[0], d.Scores[0]
}

// Postprocess is the output of a classification postprocess stage for a
// single detection.
type Postprocess struct {
	Class string  `json:"class"`
	Score float64 `json:"score"`
}

// WorkItem is the per-page unit threaded through the stage chain. It wraps
// a PageImage plus accumulated stage outputs. Postprocess, when non-nil, is
// parallel to Detections.
type WorkItem struct {
	Page        PageImage     `json:"page"`
	Proposals   []Box         `json:"proposals,omitempty"`
	Detections  []Detection   `json:"detections,omitempty"`
	Postprocess []Postprocess `json:"postprocess,omitempty"`
}

// Key returns the deterministic scratch-artifact key for this item,
// unique within a run per (document, page).
func (w WorkItem) Key() string {
	return fmt.Sprintf("%s_%d", w.Page.DocumentName, w.Page.PageNumber)
}

// ResultRow is one detected element on one page, flattened for output.
type ResultRow struct {
	PDFName          string    `json:"pdf_name"`
	DatasetID        string    `json:"dataset_id"`
	PageNum          int       `json:"page_num"`
	Bounding         Box       `json:"bounding_box"`
	Classes          []string  `json:"classes"`
	Scores           []float64 `json:"scores"`
	Content          string    `json:"content"`
	PostprocessCls   *string   `json:"postprocess_cls"`
	PostprocessScore *float64  `json:"postprocess_score"`
	DetectCls        string    `json:"detect_cls"`
	DetectScore      float64   `json:"detect_score"`
}

// AggregateView is a named table derived from the full result set.
type AggregateView struct {
	DatasetID string     `json:"dataset_id"`
	Name      string     `json:"name"`
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
}
