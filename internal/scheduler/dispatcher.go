package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Celag1/logicqp-sub003/internal/models"
	"github.com/Celag1/logicqp-sub003/internal/store"
	"github.com/Celag1/logicqp-sub003/internal/track"
	"golang.org/x/sync/semaphore"
)

// Dispatcher polls the store for due scheduled reports and hands each one to
// the executor. Distinct reports run concurrently up to the worker limit;
// a report with an execution still in flight is skipped for the tick rather
// than queued, which keeps at most one concurrent execution per report.
// Dispatch holds no in-memory queue between ticks: due state is derived
// entirely from persisted next_run values, so a restart simply re-evaluates
// what is due now.
type Dispatcher struct {
	schedules *store.ScheduleStore
	tracker   *track.Tracker
	executor  *Executor
	interval  time.Duration
	sem       *semaphore.Weighted
	stopChan  chan struct{}
	wg        sync.WaitGroup
	now       func() time.Time
	metrics   dispatchMetrics
}

type dispatchMetrics struct {
	mutex      sync.RWMutex
	ticks      uint64
	dispatched uint64
	skipped    uint64
	failed     uint64
}

func NewDispatcher(schedules *store.ScheduleStore, tracker *track.Tracker, executor *Executor, interval time.Duration, workers int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		schedules: schedules,
		tracker:   tracker,
		executor:  executor,
		interval:  interval,
		sem:       semaphore.NewWeighted(int64(workers)),
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}
}

// SetClock overrides the time source, for tests.
func (d *Dispatcher) SetClock(now func() time.Time) {
	d.now = now
}

// Start runs one tick synchronously, then keeps ticking in the background
// until Stop is called.
func (d *Dispatcher) Start() error {
	log.Printf("[Dispatcher] starting, interval %s", d.interval)

	if err := d.Tick(); err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := d.Tick(); err != nil {
					log.Printf("[Dispatcher] tick failed: %v", err)
				}
			case <-d.stopChan:
				return
			}
		}
	}()

	return nil
}

// Stop halts ticking and waits for in-flight runs to finish.
func (d *Dispatcher) Stop() {
	close(d.stopChan)
	d.wg.Wait()
	log.Printf("[Dispatcher] stopped")
}

// Tick dispatches everything currently due. An error inside one report's run
// never prevents dispatch of the next due report.
func (d *Dispatcher) Tick() error {
	now := d.now()
	due, err := d.schedules.Due(now)
	if err != nil {
		return fmt.Errorf("failed to query due reports: %v", err)
	}

	d.metrics.mutex.Lock()
	d.metrics.ticks++
	d.metrics.mutex.Unlock()

	for i := range due {
		report := due[i]

		running, err := d.tracker.HasRunning(report.ID)
		if err != nil {
			log.Printf("[Dispatcher] failed to check running state for %s: %v", report.ID, err)
			continue
		}
		if running {
			log.Printf("[Dispatcher] report %s (%s) still running, skipping this tick", report.ID, report.Name)
			d.metrics.mutex.Lock()
			d.metrics.skipped++
			d.metrics.mutex.Unlock()
			continue
		}

		if err := d.sem.Acquire(context.Background(), 1); err != nil {
			return fmt.Errorf("failed to acquire worker slot: %v", err)
		}
		d.wg.Add(1)
		go func(r models.ScheduledReport) {
			defer d.wg.Done()
			defer d.sem.Release(1)
			defer func() {
				if p := recover(); p != nil {
					log.Printf("[Dispatcher] panic executing report %s: %v", r.ID, p)
				}
			}()

			if err := d.executor.Execute(context.Background(), &r); err != nil {
				log.Printf("[Dispatcher] report %s (%s) failed: %v", r.ID, r.Name, err)
				d.metrics.mutex.Lock()
				d.metrics.failed++
				d.metrics.mutex.Unlock()
			}
		}(report)

		d.metrics.mutex.Lock()
		d.metrics.dispatched++
		d.metrics.mutex.Unlock()
	}

	return nil
}

// Wait blocks until all dispatched runs complete. Used by tests and manual
// triggers.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) GetMetrics() map[string]interface{} {
	d.metrics.mutex.RLock()
	defer d.metrics.mutex.RUnlock()

	return map[string]interface{}{
		"ticks":      d.metrics.ticks,
		"dispatched": d.metrics.dispatched,
		"skipped":    d.metrics.skipped,
		"failed":     d.metrics.failed,
	}
}
