package track

import (
	"errors"
	"fmt"
	"time"

	"github.com/Celag1/logicqp-sub003/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrAlreadyFinished is returned when Finish is called on an execution
	// that already reached a terminal state. The first outcome is kept.
	ErrAlreadyFinished = errors.New("execution already finished")

	ErrNotFound = errors.New("execution not found")
)

// Outcome is the terminal result of one execution.
type Outcome struct {
	Status          models.ExecutionStatus
	FileURL         string
	FileSize        int64
	ErrorMessage    string
	ExecutionTimeMs int64
}

// Tracker persists one ReportExecution record per run attempt.
type Tracker struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTracker(db *gorm.DB) *Tracker {
	return &Tracker{db: db, now: time.Now}
}

// NewTrackerWithClock is used by tests to control timestamps.
func NewTrackerWithClock(db *gorm.DB, now func() time.Time) *Tracker {
	return &Tracker{db: db, now: now}
}

// Begin creates an execution record in running state.
func (t *Tracker) Begin(scheduledReportID string, params map[string]interface{}) (*models.ReportExecution, error) {
	execution := &models.ReportExecution{
		ScheduledReportID: scheduledReportID,
		Status:            models.StatusRunning,
		StartedAt:         t.now(),
		Parameters:        datatypes.JSONMap(params),
	}
	if err := t.db.Create(execution).Error; err != nil {
		return nil, fmt.Errorf("failed to create execution: %v", err)
	}
	return execution, nil
}

// Finish finalizes an execution exactly once. A second call returns
// ErrAlreadyFinished and leaves the terminal fields as set by the first.
func (t *Tracker) Finish(executionID string, outcome Outcome) error {
	if !outcome.Status.Terminal() {
		return fmt.Errorf("finish requires a terminal status, got %q", outcome.Status)
	}

	var execution models.ReportExecution
	if err := t.db.First(&execution, "id = ?", executionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load execution: %v", err)
	}

	if execution.Status.Terminal() {
		return ErrAlreadyFinished
	}
	if !execution.Status.CanTransitionTo(outcome.Status) {
		return fmt.Errorf("invalid status transition %s -> %s", execution.Status, outcome.Status)
	}

	now := t.now()
	updates := map[string]interface{}{
		"status":            outcome.Status,
		"completed_at":      now,
		"file_url":          outcome.FileURL,
		"file_size":         outcome.FileSize,
		"error_message":     outcome.ErrorMessage,
		"execution_time_ms": outcome.ExecutionTimeMs,
	}
	// Guarded write: the row must still be in the state we validated, so a
	// concurrent finalizer cannot overwrite the first terminal outcome.
	result := t.db.Model(&models.ReportExecution{}).
		Where("id = ? AND status = ?", executionID, execution.Status).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to finalize execution: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyFinished
	}
	return nil
}

// History returns the most recent executions for one scheduled report,
// newest first.
func (t *Tracker) History(scheduledReportID string, limit int) ([]models.ReportExecution, error) {
	if limit <= 0 {
		limit = 50
	}
	var executions []models.ReportExecution
	if err := t.db.
		Where("scheduled_report_id = ?", scheduledReportID).
		Order("started_at desc").
		Limit(limit).
		Find(&executions).Error; err != nil {
		return nil, fmt.Errorf("failed to load execution history: %v", err)
	}
	return executions, nil
}

// HasRunning reports whether the scheduled report has an execution that has
// not reached a terminal state. The dispatcher uses this to guarantee at most
// one concurrent execution per scheduled report.
func (t *Tracker) HasRunning(scheduledReportID string) (bool, error) {
	var count int64
	if err := t.db.Model(&models.ReportExecution{}).
		Where("scheduled_report_id = ? AND status IN ?", scheduledReportID,
			[]models.ExecutionStatus{models.StatusPending, models.StatusRunning}).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check running executions: %v", err)
	}
	return count > 0, nil
}
