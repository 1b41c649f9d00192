package render

import (
	"encoding/json"
	"io"

	"github.com/Celag1/logicqp-sub003/internal/models"
)

// JSONRenderer writes the full ReportData value, summary and metadata
// included.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(data *models.ReportData, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
