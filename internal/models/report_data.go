package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportData is the transient fetched-and-summarized payload for one run.
// It is produced by a fetcher, consumed by a renderer and then discarded; the
// persisted artifact is the rendered file, not this structure.
type ReportData struct {
	Title       string        `json:"title"`
	Period      string        `json:"period"`
	GeneratedAt time.Time     `json:"generated_at"`
	Columns     []string      `json:"columns"`
	Rows        [][]string    `json:"rows"`
	Summary     ReportSummary `json:"summary"`
	Metadata    ReportMeta    `json:"metadata"`
}

type ReportSummary struct {
	TotalRecords   int              `json:"total_records"`
	TotalAmount    *decimal.Decimal `json:"total_amount,omitempty"`
	Currency       string           `json:"currency,omitempty"`
	LowStockItems  *int             `json:"low_stock_items,omitempty"`
	FiltersApplied []string         `json:"filters_applied"`
}

type ReportMeta struct {
	TemplateVersion string                 `json:"template_version"`
	GeneratedBy     string                 `json:"generated_by"`
	Parameters      map[string]interface{} `json:"parameters"`
}
