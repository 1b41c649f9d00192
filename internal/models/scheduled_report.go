package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Frequency is the recurrence period of a schedule.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
	FrequencyCustom    Frequency = "custom"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly,
		FrequencyQuarterly, FrequencyYearly, FrequencyCustom:
		return true
	}
	return false
}

// Schedule describes when a scheduled report recurs. Hour and Minute are in
// the schedule's timezone. DayOfWeek (0=Sunday) applies to weekly schedules;
// DayOfMonth to monthly, quarterly and yearly ones, clamped to the last valid
// day of the target month. CustomExpr is a cron expression evaluated by the
// host-supplied recurrence evaluator.
type Schedule struct {
	Frequency  Frequency `json:"frequency" gorm:"not null"`
	DayOfWeek  *int      `json:"day_of_week,omitempty"`
	DayOfMonth *int      `json:"day_of_month,omitempty"`
	Hour       int       `json:"hour"`
	Minute     int       `json:"minute"`
	Timezone   string    `json:"timezone"`
	CustomExpr string    `json:"custom_expr,omitempty"`
}

// ScheduledReport is a recurring report job bound to a template. NextRun is
// always populated while the report is enabled; it is advanced only by the
// executor after a run reaches a terminal state.
type ScheduledReport struct {
	ID          string                      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string                      `json:"name" gorm:"not null"`
	Description string                      `json:"description"`
	TemplateID  string                      `json:"template_id" gorm:"index;not null"`
	UserID      string                      `json:"user_id" gorm:"index;not null"`
	Schedule    Schedule                    `json:"schedule" gorm:"embedded;embeddedPrefix:schedule_"`
	Parameters  datatypes.JSONMap           `json:"parameters"`
	Recipients  datatypes.JSONSlice[string] `json:"recipients"`
	Enabled     bool                        `json:"enabled" gorm:"default:true"`
	LastRun     *time.Time                  `json:"last_run,omitempty"`
	NextRun     time.Time                   `json:"next_run" gorm:"index"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`

	Template *ReportTemplate `json:"template,omitempty" gorm:"foreignKey:TemplateID"`
}

func (ScheduledReport) TableName() string {
	return "scheduled_reports"
}

func (r *ScheduledReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// MergedParameters returns the template defaults overridden by the scheduled
// report's own parameters.
func (r *ScheduledReport) MergedParameters(template *ReportTemplate) map[string]interface{} {
	merged := make(map[string]interface{})
	if template != nil {
		for k, v := range template.Parameters {
			merged[k] = v
		}
	}
	for k, v := range r.Parameters {
		merged[k] = v
	}
	return merged
}
