package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ExecutionStatus is the lifecycle state of a report execution. Transitions
// are one-directional: pending -> running -> completed or failed.
type ExecutionStatus string

const (
	StatusPending   ExecutionStatus = "pending"
	StatusRunning   ExecutionStatus = "running"
	StatusCompleted ExecutionStatus = "completed"
	StatusFailed    ExecutionStatus = "failed"
)

func (s ExecutionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the status is an end state.
func (s ExecutionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether the edge s -> next is allowed.
func (s ExecutionStatus) CanTransitionTo(next ExecutionStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusRunning
	case StatusRunning:
		return next == StatusCompleted || next == StatusFailed
	}
	return false
}

// ReportExecution is one concrete attempt to run a scheduled report. Rows are
// append-only and read-only once terminal; CompletedAt is set exactly when
// the status is terminal.
type ReportExecution struct {
	ID                string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ScheduledReportID string            `json:"scheduled_report_id" gorm:"index;not null"`
	Status            ExecutionStatus   `json:"status" gorm:"not null"`
	StartedAt         time.Time         `json:"started_at" gorm:"not null"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
	FileURL           string            `json:"file_url,omitempty"`
	ErrorMessage      string            `json:"error_message,omitempty" gorm:"type:text"`
	Parameters        datatypes.JSONMap `json:"parameters"`
	FileSize          int64             `json:"file_size,omitempty"`
	ExecutionTimeMs   int64             `json:"execution_time_ms,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func (ReportExecution) TableName() string {
	return "report_executions"
}

func (e *ReportExecution) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
