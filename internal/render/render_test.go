package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Celag1/logicqp-sub003/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleData() *models.ReportData {
	total := decimal.NewFromFloat(200.00)
	return &models.ReportData{
		Title:       "Reporte de Ventas",
		Period:      "2024-01-01 - 2024-01-31",
		GeneratedAt: time.Date(2024, 2, 1, 2, 0, 0, 0, time.UTC),
		Columns:     []string{"Date", "Customer", "Total"},
		Rows: [][]string{
			{"2024-01-15", "Farmacia Central", "120.50"},
			{"2024-01-10", "Botica del Sur", "79.50"},
		},
		Summary: models.ReportSummary{
			TotalRecords: 2,
			TotalAmount:  &total,
			Currency:     "USD",
		},
	}
}

func TestRegistryUnsupportedFormat(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("docx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, registry.Supports("docx"))

	for _, format := range []models.ReportFormat{models.FormatCSV, models.FormatJSON, models.FormatExcel, models.FormatPDF} {
		assert.True(t, registry.Supports(format), "expected %s to be supported", format)
	}
}

func TestCSVRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&CSVRenderer{}).Render(sampleData(), &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Customer,Total", lines[0])
	assert.Equal(t, "2024-01-15,Farmacia Central,120.50", lines[1])
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONRenderer{}).Render(sampleData(), &buf))

	var decoded models.ReportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "Reporte de Ventas", decoded.Title)
	assert.Equal(t, 2, decoded.Summary.TotalRecords)
	assert.Len(t, decoded.Rows, 2)
}

func TestExcelRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&ExcelRenderer{}).Render(sampleData(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	title, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Reporte de Ventas", title)

	header, err := f.GetCellValue(sheet, "A4")
	require.NoError(t, err)
	assert.Equal(t, "Date", header)

	cell, err := f.GetCellValue(sheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, "Farmacia Central", cell)
}

func TestPDFRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PDFRenderer{}).Render(sampleData(), &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestArtifactStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewArtifactStore(dir, "/reports/")
	require.NoError(t, err)

	artifact, err := store.Save("Reporte de Ventas", models.FormatCSV, func(w io.Writer) error {
		return (&CSVRenderer{}).Render(sampleData(), w)
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(artifact.Location, "/reports/Reporte_de_Ventas_"))
	assert.True(t, strings.HasSuffix(artifact.Path, ".csv"))

	info, err := os.Stat(artifact.Path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), artifact.Size)
	assert.Greater(t, artifact.Size, int64(0))

	// No temp files left behind after publishing.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, strings.HasPrefix(entries[0].Name(), ".tmp-"))
}

func TestArtifactStoreWriteFailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	store, err := NewArtifactStore(dir, "/reports")
	require.NoError(t, err)

	_, err = store.Save("broken", models.FormatCSV, func(io.Writer) error {
		return errors.New("render exploded")
	})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExcelFormatExtension(t *testing.T) {
	assert.Equal(t, "xlsx", models.FormatExcel.Extension())
	assert.Equal(t, "csv", models.FormatCSV.Extension())
}
