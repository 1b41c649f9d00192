package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// CronEvaluator evaluates custom recurrence expressions as standard 5-field
// cron (minute hour day-of-month month day-of-week).
type CronEvaluator struct {
	parser cron.Parser
}

func NewCronEvaluator() *CronEvaluator {
	return &CronEvaluator{
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
}

func (e *CronEvaluator) Next(expr string, from time.Time) (time.Time, error) {
	sched, err := e.parser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %v", expr, err)
	}
	return sched.Next(from), nil
}
