package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"comment-insights-go/internal/processor"
)

const (
	sheetBrands          = "Brands"
	sheetRecommendations = "Recommendations"
	sheetOpportunities   = "Opportunities"
)

// WriteXLSX writes one sheet per insight list, headers in bold.
func WriteXLSX(w io.Writer, run *processor.Run) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetBrands); err != nil {
		return err
	}
	for _, name := range []string{sheetRecommendations, sheetOpportunities} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	in := run.Insights
	brands := [][]any{{"Name", "Category", "Sentiment", "Mentions"}}
	for _, b := range in.Brands {
		brands = append(brands, []any{b.Name, b.Category, b.Sentiment, b.Mentions})
	}
	recs := [][]any{{"Item", "Category", "Quote", "Endorsements"}}
	for _, r := range in.Recommendations {
		recs = append(recs, []any{r.Item, r.Category, r.Quote, r.Endorsements})
	}
	opps := [][]any{{"Type", "Target", "Rationale"}}
	for _, o := range in.Opportunities {
		opps = append(opps, []any{o.Type, o.Target, o.Rationale})
	}

	for sheet, rows := range map[string][][]any{sheetBrands: brands, sheetRecommendations: recs, sheetOpportunities: opps} {
		if err := writeRows(f, sheet, rows, bold); err != nil {
			return fmt.Errorf("write sheet %s: %w", sheet, err)
		}
	}
	_, err = f.WriteTo(w)
	return err
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, headerStyle)
}
