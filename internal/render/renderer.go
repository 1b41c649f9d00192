package render

import (
	"errors"
	"fmt"
	"io"

	"github.com/Celag1/logicqp-sub003/internal/models"
)

// ErrUnsupportedFormat marks a format request with no registered renderer.
// It is a configuration error raised before any fetch or tracking work.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// Renderer turns a ReportData value into bytes in one output format.
type Renderer interface {
	Render(data *models.ReportData, w io.Writer) error
}

// Registry maps output formats to renderers.
type Registry struct {
	renderers map[models.ReportFormat]Renderer
}

// NewEmptyRegistry builds a registry with no renderers; the host registers
// exactly the formats it serves.
func NewEmptyRegistry() *Registry {
	return &Registry{renderers: make(map[models.ReportFormat]Renderer)}
}

// NewRegistry builds a registry with the csv, json, excel and pdf renderers.
func NewRegistry() *Registry {
	r := &Registry{renderers: make(map[models.ReportFormat]Renderer)}
	r.Register(models.FormatCSV, &CSVRenderer{})
	r.Register(models.FormatJSON, &JSONRenderer{})
	r.Register(models.FormatExcel, &ExcelRenderer{})
	r.Register(models.FormatPDF, &PDFRenderer{})
	return r
}

func (r *Registry) Register(format models.ReportFormat, renderer Renderer) {
	r.renderers[format] = renderer
}

func (r *Registry) Supports(format models.ReportFormat) bool {
	_, ok := r.renderers[format]
	return ok
}

func (r *Registry) Get(format models.ReportFormat) (Renderer, error) {
	renderer, ok := r.renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return renderer, nil
}
