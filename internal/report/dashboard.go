package report

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Celag1/logicqp-sub003/internal/models"
	"gorm.io/gorm"
)

// statsWindow is the trailing window for success-rate and timing aggregates.
const statsWindow = 30 * 24 * time.Hour

// DashboardStats is the aggregate read model for the reports dashboard,
// derived entirely from the scheduled_reports and report_executions tables.
type DashboardStats struct {
	TotalScheduledReports  int64          `json:"total_scheduled_reports"`
	ActiveScheduledReports int64          `json:"active_scheduled_reports"`
	ExecutionsToday        int64          `json:"executions_today"`
	SuccessRate            float64        `json:"success_rate"`
	AvgExecutionTimeMs     float64        `json:"avg_execution_time_ms"`
	NextExecution          *NextExecution `json:"next_execution,omitempty"`
}

type NextExecution struct {
	ScheduledReportID string    `json:"scheduled_report_id"`
	Name              string    `json:"name"`
	NextRun           time.Time `json:"next_run"`
}

// Dashboard computes dashboard aggregates. "Today" is evaluated in the
// configured timezone.
type Dashboard struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

func NewDashboard(db *gorm.DB, loc *time.Location) *Dashboard {
	if loc == nil {
		loc = time.UTC
	}
	return &Dashboard{db: db, loc: loc, now: time.Now}
}

// SetClock overrides the time source, for tests.
func (d *Dashboard) SetClock(now func() time.Time) {
	d.now = now
}

func (d *Dashboard) Stats() (*DashboardStats, error) {
	stats := &DashboardStats{}

	if err := d.db.Model(&models.ScheduledReport{}).
		Count(&stats.TotalScheduledReports).Error; err != nil {
		return nil, fmt.Errorf("failed to count scheduled reports: %v", err)
	}
	if err := d.db.Model(&models.ScheduledReport{}).
		Where("enabled = ?", true).
		Count(&stats.ActiveScheduledReports).Error; err != nil {
		return nil, fmt.Errorf("failed to count active reports: %v", err)
	}

	now := d.now().In(d.loc)
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, d.loc)
	if err := d.db.Model(&models.ReportExecution{}).
		Where("started_at >= ?", todayStart).
		Count(&stats.ExecutionsToday).Error; err != nil {
		return nil, fmt.Errorf("failed to count today's executions: %v", err)
	}

	windowStart := d.now().Add(-statsWindow)

	var terminal, completed int64
	if err := d.db.Model(&models.ReportExecution{}).
		Where("started_at >= ? AND status IN ?", windowStart,
			[]models.ExecutionStatus{models.StatusCompleted, models.StatusFailed}).
		Count(&terminal).Error; err != nil {
		return nil, fmt.Errorf("failed to count terminal executions: %v", err)
	}
	if err := d.db.Model(&models.ReportExecution{}).
		Where("started_at >= ? AND status = ?", windowStart, models.StatusCompleted).
		Count(&completed).Error; err != nil {
		return nil, fmt.Errorf("failed to count completed executions: %v", err)
	}
	if terminal > 0 {
		stats.SuccessRate = math.Round(float64(completed)/float64(terminal)*1000) / 10
	}

	var avg sql.NullFloat64
	if err := d.db.Model(&models.ReportExecution{}).
		Where("started_at >= ? AND status = ?", windowStart, models.StatusCompleted).
		Select("AVG(execution_time_ms)").
		Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("failed to average execution time: %v", err)
	}
	if avg.Valid {
		stats.AvgExecutionTimeMs = math.Round(avg.Float64*10) / 10
	}

	var next models.ScheduledReport
	err := d.db.Where("enabled = ?", true).Order("next_run asc").First(&next).Error
	switch {
	case err == nil:
		stats.NextExecution = &NextExecution{
			ScheduledReportID: next.ID,
			Name:              next.Name,
			NextRun:           next.NextRun,
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No enabled reports; nothing upcoming.
	default:
		return nil, fmt.Errorf("failed to find next execution: %v", err)
	}

	return stats, nil
}
