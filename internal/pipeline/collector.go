package pipeline

import (
	"sort"

	"pagelift/internal/domain"
)

// Collect explodes the detections of the surviving work items into the
// flat result table. Each detection becomes one row copying document/page
// identity; the matching postprocess class/score is pulled by index when a
// postprocessing stage ran. Items with zero detections contribute zero
// rows. Row order is stable within a run: (pdf_name, page_num, detection
// index).
func Collect(items []domain.WorkItem) []domain.ResultRow {
	ordered := make([]domain.WorkItem, len(items))
	copy(ordered, items)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Page.DocumentName != ordered[j].Page.DocumentName {
			return ordered[i].Page.DocumentName < ordered[j].Page.DocumentName
		}
		return ordered[i].Page.PageNumber < ordered[j].Page.PageNumber
	})

	var rows []domain.ResultRow
	for _, item := range ordered {
		for i, det := range item.Detections {
			row := domain.ResultRow{
				PDFName:   item.Page.DocumentName,
				DatasetID: item.Page.DatasetID,
				PageNum:   item.Page.PageNumber,
				Bounding:  det.Box,
				Classes:   det.Classes,
				Scores:    det.Scores,
				Content:   det.Content,
			}
			row.DetectCls, row.DetectScore = det.Primary()
			if item.Postprocess != nil && i < len(item.Postprocess) {
				pp := item.Postprocess[i]
				row.PostprocessCls = &pp.Class
				row.PostprocessScore = &pp.Score
			}
			rows = append(rows, row)
		}
	}
	return rows
}
