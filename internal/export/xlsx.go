package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXWriter implements ReportWriter by writing an .xlsx workbook to disk.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates an XLSXWriter that saves the workbook at path.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

// Write builds a workbook with one sheet per report section and saves it.
func (w *XLSXWriter) Write(_ context.Context, report Report) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetRows := []struct {
		name string
		rows [][]any
	}{
		{"STATS", buildStatsRows(report)},
		{"CONTRIBUTORS", buildContributorRows(report)},
		{"ALLOCATION", buildAllocationRows(report)},
	}

	for i, sheet := range sheetRows {
		if i == 0 {
			// excelize creates the workbook with a default "Sheet1".
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				return fmt.Errorf("renaming default sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet.name); err != nil {
				return fmt.Errorf("creating sheet %s: %w", sheet.name, err)
			}
		}

		for rowIdx, row := range sheet.rows {
			cell, err := excelize.CoordinatesToCellName(1, rowIdx+1)
			if err != nil {
				return fmt.Errorf("resolving cell for row %d: %w", rowIdx+1, err)
			}
			if err := f.SetSheetRow(sheet.name, cell, &row); err != nil {
				return fmt.Errorf("writing row %d of %s: %w", rowIdx+1, sheet.name, err)
			}
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}

	return nil
}
