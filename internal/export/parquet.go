package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"pagelift/internal/domain"
)

// resultRecord is the parquet schema for one result row. The bounding box
// is flattened to four coordinate columns; the postprocess fields are
// optional and absent when no postprocessing stage ran.
type resultRecord struct {
	PDFName          string    `parquet:"pdf_name"`
	DatasetID        string    `parquet:"dataset_id"`
	PageNum          int32     `parquet:"page_num"`
	X1               float64   `parquet:"x1"`
	Y1               float64   `parquet:"y1"`
	X2               float64   `parquet:"x2"`
	Y2               float64   `parquet:"y2"`
	Classes          []string  `parquet:"classes,list"`
	Scores           []float64 `parquet:"scores,list"`
	Content          string    `parquet:"content"`
	PostprocessCls   *string   `parquet:"postprocess_cls,optional"`
	PostprocessScore *float64  `parquet:"postprocess_score,optional"`
	DetectCls        string    `parquet:"detect_cls"`
	DetectScore      float64   `parquet:"detect_score"`
}

// ResultPath returns the parquet path for a dataset's result table.
func ResultPath(dir, datasetID string) string {
	return filepath.Join(dir, datasetID+".parquet")
}

// AggregatePath returns the parquet path for one aggregate view.
func AggregatePath(dir, datasetID, name string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.parquet", datasetID, name))
}

// WriteResults writes the flat result table as gzip-compressed parquet.
func WriteResults(path string, rows []domain.ResultRow) error {
	records := make([]resultRecord, len(rows))
	for i, r := range rows {
		records[i] = resultRecord{
			PDFName:          r.PDFName,
			DatasetID:        r.DatasetID,
			PageNum:          int32(r.PageNum),
			X1:               r.Bounding.X1,
			Y1:               r.Bounding.Y1,
			X2:               r.Bounding.X2,
			Y2:               r.Bounding.Y2,
			Classes:          r.Classes,
			Scores:           r.Scores,
			Content:          r.Content,
			PostprocessCls:   r.PostprocessCls,
			PostprocessScore: r.PostprocessScore,
			DetectCls:        r.DetectCls,
			DetectScore:      r.DetectScore,
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	w := parquet.NewGenericWriter[resultRecord](f, parquet.Compression(&parquet.Gzip))
	if _, err := w.Write(records); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return f.Close()
}

// WriteAggregate writes one aggregate view as gzip-compressed parquet.
// Aggregate columns are dynamic per view, so the schema is built from the
// view's column list with string-typed fields.
func WriteAggregate(path string, view domain.AggregateView) error {
	fields := parquet.Group{}
	for _, col := range view.Columns {
		fields[col] = parquet.String()
	}
	schema := parquet.NewSchema(view.Name, fields)

	records := make([]map[string]any, len(view.Rows))
	for i, row := range view.Rows {
		rec := make(map[string]any, len(view.Columns))
		for j, col := range view.Columns {
			rec[col] = row[j]
		}
		records[i] = rec
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	w := parquet.NewGenericWriter[map[string]any](f, schema, parquet.Compression(&parquet.Gzip))
	if _, err := w.Write(records); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return f.Close()
}
