package render

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Celag1/logicqp-sub003/internal/models"
)

// CSVRenderer writes the report's column header followed by its data rows.
type CSVRenderer struct{}

func (r *CSVRenderer) Render(data *models.ReportData, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(data.Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %v", err)
	}
	for _, row := range data.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %v", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
