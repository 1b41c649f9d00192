package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/Celag1/logicqp-sub003/internal/models"
	"github.com/Celag1/logicqp-sub003/internal/schedule"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ScheduleStore persists scheduled reports. The initial next_run is computed
// at create time with the same calculator the executor uses at finish time,
// so there is a single recurrence code path.
type ScheduleStore struct {
	db   *gorm.DB
	calc *schedule.Calculator
	now  func() time.Time
}

func NewScheduleStore(db *gorm.DB, calc *schedule.Calculator) *ScheduleStore {
	return &ScheduleStore{db: db, calc: calc, now: time.Now}
}

// NewScheduleStoreWithClock is used by tests to control timestamps.
func NewScheduleStoreWithClock(db *gorm.DB, calc *schedule.Calculator, now func() time.Time) *ScheduleStore {
	return &ScheduleStore{db: db, calc: calc, now: now}
}

func (s *ScheduleStore) ListByUser(userID string) ([]models.ScheduledReport, error) {
	var reports []models.ScheduledReport
	if err := s.db.Preload("Template").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list scheduled reports: %v", err)
	}
	return reports, nil
}

func (s *ScheduleStore) Get(id string) (*models.ScheduledReport, error) {
	var report models.ScheduledReport
	if err := s.db.Preload("Template").First(&report, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("scheduled report %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load scheduled report: %v", err)
	}
	return &report, nil
}

// Create validates the schedule, derives the initial next_run from "now" and
// persists the report. Configuration errors surface synchronously before any
// state is written.
func (s *ScheduleStore) Create(report *models.ScheduledReport) error {
	if report.Name == "" {
		return fmt.Errorf("scheduled report name is required")
	}
	if report.UserID == "" {
		return fmt.Errorf("scheduled report user is required")
	}

	var template models.ReportTemplate
	if err := s.db.First(&template, "id = ?", report.TemplateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("template %s: %w", report.TemplateID, ErrNotFound)
		}
		return fmt.Errorf("failed to load template: %v", err)
	}

	next, err := s.calc.NextRun(report.Schedule, s.now())
	if err != nil {
		return err
	}
	report.NextRun = next

	if err := s.db.Create(report).Error; err != nil {
		return fmt.Errorf("failed to create scheduled report: %v", err)
	}
	return nil
}

// UpdatePatch is a partial update; nil fields are left unchanged.
type UpdatePatch struct {
	Name        *string
	Description *string
	Schedule    *models.Schedule
	Parameters  map[string]interface{}
	Recipients  []string
	Enabled     *bool
}

// Update applies a patch, writing only the patched columns so a patch racing
// a finishing run never rewrites next_run/last_run with values read before
// the run advanced them. Changing the schedule recomputes next_run from the
// current time.
func (s *ScheduleStore) Update(id string, patch UpdatePatch) (*models.ScheduledReport, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}

	updates, err := s.patchUpdates(patch)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.db.Model(&models.ScheduledReport{}).
			Where("id = ?", id).
			Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update scheduled report: %v", err)
		}
	}
	return s.Get(id)
}

// patchUpdates maps a patch to the exact columns it touches. next_run is
// written only when the schedule itself changes.
func (s *ScheduleStore) patchUpdates(patch UpdatePatch) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Parameters != nil {
		updates["parameters"] = datatypes.JSONMap(patch.Parameters)
	}
	if patch.Recipients != nil {
		updates["recipients"] = datatypes.JSONSlice[string](patch.Recipients)
	}
	if patch.Enabled != nil {
		updates["enabled"] = *patch.Enabled
	}
	if patch.Schedule != nil {
		next, err := s.calc.NextRun(*patch.Schedule, s.now())
		if err != nil {
			return nil, err
		}
		updates["schedule_frequency"] = patch.Schedule.Frequency
		updates["schedule_day_of_week"] = patch.Schedule.DayOfWeek
		updates["schedule_day_of_month"] = patch.Schedule.DayOfMonth
		updates["schedule_hour"] = patch.Schedule.Hour
		updates["schedule_minute"] = patch.Schedule.Minute
		updates["schedule_timezone"] = patch.Schedule.Timezone
		updates["schedule_custom_expr"] = patch.Schedule.CustomExpr
		updates["next_run"] = next
	}
	return updates, nil
}

// Delete removes the report from dispatch consideration immediately.
func (s *ScheduleStore) Delete(id string) error {
	result := s.db.Delete(&models.ScheduledReport{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete scheduled report: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("scheduled report %s: %w", id, ErrNotFound)
	}
	return nil
}

// Disable removes a report from dispatch without touching its schedule. The
// executor calls this when a schedule can no longer be advanced at finish
// time; lastRun is recorded when the run itself succeeded.
func (s *ScheduleStore) Disable(id string, lastRun *time.Time) error {
	updates := map[string]interface{}{"enabled": false}
	if lastRun != nil {
		updates["last_run"] = *lastRun
	}
	result := s.db.Model(&models.ScheduledReport{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to disable scheduled report: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("scheduled report %s: %w", id, ErrNotFound)
	}
	return nil
}

// Due returns enabled reports whose next_run is at or before now, oldest-due
// first to bound worst-case staleness under load.
func (s *ScheduleStore) Due(now time.Time) ([]models.ScheduledReport, error) {
	var reports []models.ScheduledReport
	if err := s.db.Preload("Template").
		Where("enabled = ? AND next_run <= ?", true, now).
		Order("next_run asc").
		Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to query due reports: %v", err)
	}
	return reports, nil
}

// AdvanceRun persists last_run and next_run in a single update so the pair
// can never be observed half-written. A nil lastRun leaves last_run untouched
// (failed runs consume their schedule slot without counting as a run).
func (s *ScheduleStore) AdvanceRun(id string, lastRun *time.Time, nextRun time.Time) error {
	updates := map[string]interface{}{"next_run": nextRun}
	if lastRun != nil {
		updates["last_run"] = *lastRun
	}
	result := s.db.Model(&models.ScheduledReport{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to advance schedule: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("scheduled report %s: %w", id, ErrNotFound)
	}
	return nil
}
