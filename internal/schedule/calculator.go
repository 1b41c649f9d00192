package schedule

import (
	"fmt"
	"time"

	"github.com/Celag1/logicqp-sub003/internal/models"
)

// ConfigError marks a misconfigured schedule or format. It is raised before
// any persisted state is mutated and surfaced to the caller synchronously.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string {
	return e.msg
}

func configErrorf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// RecurrenceEvaluator computes the occurrence of a custom recurrence
// expression after a reference time. Supplied by the host application; the
// calculator never falls back to a default when it is missing.
type RecurrenceEvaluator interface {
	Next(expr string, from time.Time) (time.Time, error)
}

// Calculator converts a recurrence description plus a reference timestamp
// into the next execution timestamp. Pure; no I/O, no state beyond the
// injected evaluator.
type Calculator struct {
	evaluator RecurrenceEvaluator
}

func NewCalculator(evaluator RecurrenceEvaluator) *Calculator {
	return &Calculator{evaluator: evaluator}
}

// NextRun adds exactly one period to from, then sets the time of day to the
// schedule's hour:minute:00 in the schedule's timezone. The result is always
// strictly after from; a schedule that cannot advance is rejected with a
// ConfigError rather than corrected by repeated addition.
func (c *Calculator) NextRun(s models.Schedule, from time.Time) (time.Time, error) {
	if err := validateSchedule(s); err != nil {
		return time.Time{}, err
	}

	loc := time.UTC
	if s.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(s.Timezone)
		if err != nil {
			return time.Time{}, configErrorf("unknown timezone %q", s.Timezone)
		}
	}

	if s.Frequency == models.FrequencyCustom {
		if c.evaluator == nil {
			return time.Time{}, configErrorf("custom schedule requires a recurrence evaluator, none configured")
		}
		next, err := c.evaluator.Next(s.CustomExpr, from)
		if err != nil {
			return time.Time{}, configErrorf("custom expression %q: %v", s.CustomExpr, err)
		}
		if !next.After(from) {
			return time.Time{}, configErrorf("custom expression %q did not advance past %s", s.CustomExpr, from.Format(time.RFC3339))
		}
		return next, nil
	}

	base := from.In(loc)
	var next time.Time
	switch s.Frequency {
	case models.FrequencyDaily:
		next = base.AddDate(0, 0, 1)
	case models.FrequencyWeekly:
		next = base.AddDate(0, 0, 7)
		if s.DayOfWeek != nil {
			next = next.AddDate(0, 0, *s.DayOfWeek-int(next.Weekday()))
		}
	case models.FrequencyMonthly:
		next = addMonths(base, 1, s.DayOfMonth)
	case models.FrequencyQuarterly:
		next = addMonths(base, 3, s.DayOfMonth)
	case models.FrequencyYearly:
		next = addMonths(base, 12, s.DayOfMonth)
	}

	next = time.Date(next.Year(), next.Month(), next.Day(), s.Hour, s.Minute, 0, 0, loc)
	if !next.After(from) {
		return time.Time{}, configErrorf("schedule did not advance past %s", from.Format(time.RFC3339))
	}
	return next, nil
}

// addMonths advances base by the given number of months, landing on
// dayOfMonth when set (otherwise the base day), clamped to the last valid day
// of the target month so e.g. day 31 in February resolves to February's last
// day instead of rolling into March.
func addMonths(base time.Time, months int, dayOfMonth *int) time.Time {
	year, month, day := base.Date()
	if dayOfMonth != nil {
		day = *dayOfMonth
	}
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, base.Location())
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, base.Location())
}

func validateSchedule(s models.Schedule) error {
	if !s.Frequency.Valid() {
		return configErrorf("invalid frequency: %s", s.Frequency)
	}
	if s.Hour < 0 || s.Hour > 23 {
		return configErrorf("hour must be in [0,23], got %d", s.Hour)
	}
	if s.Minute < 0 || s.Minute > 59 {
		return configErrorf("minute must be in [0,59], got %d", s.Minute)
	}
	switch s.Frequency {
	case models.FrequencyWeekly:
		if s.DayOfWeek != nil && (*s.DayOfWeek < 0 || *s.DayOfWeek > 6) {
			return configErrorf("day of week must be in [0,6], got %d", *s.DayOfWeek)
		}
	case models.FrequencyMonthly, models.FrequencyQuarterly, models.FrequencyYearly:
		if s.DayOfMonth != nil && (*s.DayOfMonth < 1 || *s.DayOfMonth > 31) {
			return configErrorf("day of month must be in [1,31], got %d", *s.DayOfMonth)
		}
	case models.FrequencyCustom:
		if s.CustomExpr == "" {
			return configErrorf("custom schedule requires an expression")
		}
	}
	return nil
}
