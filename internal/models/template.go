package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReportType identifies the data strategy used to build a report.
type ReportType string

const (
	ReportTypeSales     ReportType = "sales"
	ReportTypeInventory ReportType = "inventory"
	ReportTypeFinancial ReportType = "financial"
	ReportTypeCustom    ReportType = "custom"
)

func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeSales, ReportTypeInventory, ReportTypeFinancial, ReportTypeCustom:
		return true
	}
	return false
}

// ReportFormat is the output format of a rendered report artifact.
type ReportFormat string

const (
	FormatPDF   ReportFormat = "pdf"
	FormatExcel ReportFormat = "excel"
	FormatCSV   ReportFormat = "csv"
	FormatJSON  ReportFormat = "json"
)

func (f ReportFormat) Valid() bool {
	switch f {
	case FormatPDF, FormatExcel, FormatCSV, FormatJSON:
		return true
	}
	return false
}

// Extension returns the file extension for the format, without the dot.
func (f ReportFormat) Extension() string {
	if f == FormatExcel {
		return "xlsx"
	}
	return string(f)
}

// ReportTemplate is a reusable report definition. The type is immutable after
// creation; scheduled reports reference templates read-only at execution time.
type ReportTemplate struct {
	ID          string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string            `json:"name" gorm:"uniqueIndex;not null"`
	Description string            `json:"description"`
	Type        ReportType        `json:"type" gorm:"not null"`
	Parameters  datatypes.JSONMap `json:"parameters"`
	Format      ReportFormat      `json:"format" gorm:"not null"`
	Template    string            `json:"template" gorm:"type:text"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (ReportTemplate) TableName() string {
	return "report_templates"
}

func (t *ReportTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
