package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/Celag1/logicqp-sub003/internal/fetch"
	"github.com/Celag1/logicqp-sub003/internal/models"
	"github.com/Celag1/logicqp-sub003/internal/notify"
	"github.com/Celag1/logicqp-sub003/internal/render"
	"github.com/Celag1/logicqp-sub003/internal/schedule"
	"github.com/Celag1/logicqp-sub003/internal/store"
	"github.com/Celag1/logicqp-sub003/internal/track"
)

const templateVersion = "1.0"

// Executor orchestrates one run of a scheduled report: track begin, fetch,
// render, track finish, then advance the recurrence. Any failure is recorded
// on the execution and still consumes the schedule slot; next_run is always
// computed from the time the run finished, never from a value cached at
// begin time.
type Executor struct {
	templates *store.TemplateStore
	schedules *store.ScheduleStore
	tracker   *track.Tracker
	fetchers  *fetch.Registry
	renderers *render.Registry
	artifacts *render.ArtifactStore
	calc      *schedule.Calculator
	notifier  *notify.Notifier
	timeout   time.Duration
	now       func() time.Time
}

func NewExecutor(
	templates *store.TemplateStore,
	schedules *store.ScheduleStore,
	tracker *track.Tracker,
	fetchers *fetch.Registry,
	renderers *render.Registry,
	artifacts *render.ArtifactStore,
	calc *schedule.Calculator,
	notifier *notify.Notifier,
	timeout time.Duration,
) *Executor {
	return &Executor{
		templates: templates,
		schedules: schedules,
		tracker:   tracker,
		fetchers:  fetchers,
		renderers: renderers,
		artifacts: artifacts,
		calc:      calc,
		notifier:  notifier,
		timeout:   timeout,
		now:       time.Now,
	}
}

// SetClock overrides the time source, for tests.
func (e *Executor) SetClock(now func() time.Time) {
	e.now = now
}

// Execute runs one due scheduled report to a terminal execution state.
func (e *Executor) Execute(ctx context.Context, report *models.ScheduledReport) error {
	template, err := e.templates.Get(report.TemplateID)
	if err != nil {
		execution, beginErr := e.tracker.Begin(report.ID, report.Parameters)
		if beginErr != nil {
			return fmt.Errorf("failed to begin execution: %v", beginErr)
		}
		return e.fail(report, execution, e.now(), fmt.Errorf("failed to resolve template: %v", err))
	}

	params := report.MergedParameters(template)
	execution, err := e.tracker.Begin(report.ID, params)
	if err != nil {
		// Nothing was recorded; leave next_run so the next tick retries.
		return fmt.Errorf("failed to begin execution: %v", err)
	}
	started := e.now()

	// Unsupported formats fail before any fetch work.
	renderer, err := e.renderers.Get(template.Format)
	if err != nil {
		return e.fail(report, execution, started, err)
	}

	fetcher, err := e.fetchers.Get(template.Type)
	if err != nil {
		return e.fail(report, execution, started, err)
	}

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	data, err := fetcher.Fetch(runCtx, params)
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("run timed out after %s", e.timeout)
		}
		return e.fail(report, execution, started, fmt.Errorf("fetch failed: %v", err))
	}
	data.Title = report.Name
	data.Metadata = models.ReportMeta{
		TemplateVersion: templateVersion,
		GeneratedBy:     report.UserID,
		Parameters:      params,
	}

	// The render/save phase honors the same deadline as the fetch; a stuck
	// renderer must not leave the execution running forever.
	type saveOutcome struct {
		artifact *render.Artifact
		err      error
	}
	saveChan := make(chan saveOutcome, 1)
	go func() {
		artifact, err := e.artifacts.Save(report.Name, template.Format, func(w io.Writer) error {
			return renderer.Render(data, w)
		})
		saveChan <- saveOutcome{artifact: artifact, err: err}
	}()

	var artifact *render.Artifact
	select {
	case <-runCtx.Done():
		cause := fmt.Errorf("render canceled: %v", runCtx.Err())
		if runCtx.Err() == context.DeadlineExceeded {
			cause = fmt.Errorf("run timed out after %s", e.timeout)
		}
		return e.fail(report, execution, started, cause)
	case out := <-saveChan:
		if out.err != nil {
			return e.fail(report, execution, started, fmt.Errorf("render failed: %v", out.err))
		}
		artifact = out.artifact
	}

	finished := e.now()
	if err := e.tracker.Finish(execution.ID, track.Outcome{
		Status:          models.StatusCompleted,
		FileURL:         artifact.Location,
		FileSize:        artifact.Size,
		ExecutionTimeMs: finished.Sub(started).Milliseconds(),
	}); err != nil {
		return fmt.Errorf("failed to finalize execution %s: %v", execution.ID, err)
	}

	e.advance(report, &finished)

	if e.notifier != nil {
		go e.notifier.ReportCompleted(report, data, artifact)
	}
	return nil
}

// fail finalizes the execution as failed and still advances the recurrence:
// a failed run consumes its schedule slot instead of retry-looping.
func (e *Executor) fail(report *models.ScheduledReport, execution *models.ReportExecution, started time.Time, cause error) error {
	finished := e.now()
	if err := e.tracker.Finish(execution.ID, track.Outcome{
		Status:          models.StatusFailed,
		ErrorMessage:    cause.Error(),
		ExecutionTimeMs: finished.Sub(started).Milliseconds(),
	}); err != nil {
		log.Printf("[Executor] failed to finalize execution %s: %v", execution.ID, err)
	}

	e.advance(report, nil)

	if e.notifier != nil {
		go e.notifier.ReportFailed(report, cause)
	}
	return cause
}

// advance recomputes next_run from the current time and persists it together
// with last_run in one write. lastRun is nil for failed runs.
func (e *Executor) advance(report *models.ScheduledReport, lastRun *time.Time) {
	now := e.now()
	next, err := e.calc.NextRun(report.Schedule, now)
	if err != nil {
		// The slot must still be consumed; leaving next_run in the past
		// would re-dispatch the broken schedule on every tick. Disable the
		// report until its configuration is fixed.
		log.Printf("[Executor] cannot advance schedule for report %s, disabling: %v", report.ID, err)
		if derr := e.schedules.Disable(report.ID, lastRun); derr != nil {
			log.Printf("[Executor] failed to disable report %s: %v", report.ID, derr)
		}
		return
	}
	if err := e.schedules.AdvanceRun(report.ID, lastRun, next); err != nil {
		log.Printf("[Executor] failed to persist next run for report %s: %v", report.ID, err)
	}
}
