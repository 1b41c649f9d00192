package render

import (
	"fmt"
	"io"

	"github.com/Celag1/logicqp-sub003/internal/models"
	"github.com/go-pdf/fpdf"
)

// PDFRenderer writes a portrait A4 document with a title block and a simple
// data table.
type PDFRenderer struct{}

func (r *PDFRenderer) Render(data *models.ReportData, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, data.Title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s", data.Period))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", data.GeneratedAt.Format("2006-01-02 15:04")))
	pdf.Ln(12)

	if len(data.Columns) > 0 {
		colWidth := 190.0 / float64(len(data.Columns))

		pdf.SetFont("Helvetica", "B", 8)
		for _, col := range data.Columns {
			pdf.CellFormat(colWidth, 7, col, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 8)
		for _, row := range data.Rows {
			for _, value := range row {
				pdf.CellFormat(colWidth, 6, value, "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 8, fmt.Sprintf("Total records: %d", data.Summary.TotalRecords))
	if data.Summary.TotalAmount != nil {
		pdf.Ln(5)
		pdf.Cell(0, 8, fmt.Sprintf("Total amount: %s %s", data.Summary.TotalAmount.StringFixed(2), data.Summary.Currency))
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %v", err)
	}
	return nil
}
