package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"pagelift/internal/domain"
	"pagelift/internal/pipeline"
)

var elementColumns = []string{
	"PDF Name",
	"Page",
	"X1",
	"Y1",
	"X2",
	"Y2",
	"Class",
	"Score",
	"Postprocess Class",
	"Postprocess Score",
	"Content",
}

// WriteReport writes one run's results as an Excel workbook: a Summary
// sheet with the run counts, an Elements sheet with the result rows, and
// one sheet per aggregate view.
func WriteReport(path string, result *pipeline.RunResult) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := writeSummarySheet(f, result); err != nil {
		return err
	}
	if err := writeElementsSheet(f, result.Rows); err != nil {
		return err
	}
	for _, view := range result.Views {
		if err := writeAggregateSheet(f, view); err != nil {
			return err
		}
	}

	// The default sheet is replaced by Summary.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, result *pipeline.RunResult) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}
	entries := [][2]any{
		{"Dataset", result.DatasetID},
		{"Documents", result.Summary.TotalDocuments},
		{"Failed Documents", result.Summary.FailedDocuments},
		{"Pages", result.Summary.TotalPages},
		{"Failed Items", result.Summary.FailedItems},
		{"Result Rows", result.Summary.RowCount},
	}
	for i, e := range entries {
		if err := setRow(f, sheet, i+1, e[0], e[1]); err != nil {
			return err
		}
	}
	return nil
}

func writeElementsSheet(f *excelize.File, rows []domain.ResultRow) error {
	const sheet = "Elements"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}
	header := make([]any, len(elementColumns))
	for i, c := range elementColumns {
		header[i] = c
	}
	if err := setRow(f, sheet, 1, header...); err != nil {
		return err
	}
	for i, r := range rows {
		ppCls, ppScore := "", ""
		if r.PostprocessCls != nil {
			ppCls = *r.PostprocessCls
		}
		if r.PostprocessScore != nil {
			ppScore = fmt.Sprintf("%.4f", *r.PostprocessScore)
		}
		err := setRow(f, sheet, i+2,
			r.PDFName, r.PageNum,
			r.Bounding.X1, r.Bounding.Y1, r.Bounding.X2, r.Bounding.Y2,
			r.DetectCls, r.DetectScore, ppCls, ppScore, r.Content)
		if err != nil {
			return err
		}
	}
	return nil
}

func writeAggregateSheet(f *excelize.File, view domain.AggregateView) error {
	sheet := "Agg " + view.Name
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}
	header := make([]any, len(view.Columns))
	for i, c := range view.Columns {
		header[i] = c
	}
	if err := setRow(f, sheet, 1, header...); err != nil {
		return err
	}
	for i, row := range view.Rows {
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := setRow(f, sheet, i+2, values...); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("set row %d on %s: %w", row, sheet, err)
	}
	return nil
}
