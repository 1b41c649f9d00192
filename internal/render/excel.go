package render

import (
	"fmt"
	"io"

	"github.com/Celag1/logicqp-sub003/internal/models"
	"github.com/xuri/excelize/v2"
)

// ExcelRenderer writes a single-sheet workbook: title and period on top,
// then the column header and data rows.
type ExcelRenderer struct{}

func (r *ExcelRenderer) Render(data *models.ReportData, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetCellValue(sheet, "A1", data.Title); err != nil {
		return fmt.Errorf("failed to write excel title: %v", err)
	}
	if err := f.SetCellValue(sheet, "A2", data.Period); err != nil {
		return fmt.Errorf("failed to write excel period: %v", err)
	}

	headerRow := 4
	for i, col := range data.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("failed to write excel header: %v", err)
		}
	}
	for ri, row := range data.Rows {
		for ci, value := range row {
			cell, err := excelize.CoordinatesToCellName(ci+1, headerRow+1+ri)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write excel row: %v", err)
			}
		}
	}

	summaryRow := headerRow + len(data.Rows) + 2
	cell, err := excelize.CoordinatesToCellName(1, summaryRow)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, fmt.Sprintf("Total records: %d", data.Summary.TotalRecords)); err != nil {
		return fmt.Errorf("failed to write excel summary: %v", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write excel file: %v", err)
	}
	return nil
}
