// Package schedule triggers sync runs on a cron cadence. A trigger is
// skipped while the previous run is still in flight, and a supervisor
// routes panics escaping the run to the alerting path instead of taking the
// process down.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"github.com/robfig/cron/v3"
)

// Alerter is the emergency notification path, decoupled from the per-run
// report.
type Alerter interface {
	SendAlert(ctx context.Context, subject, body string) error
}

// Job is one full sync run.
type Job func(ctx context.Context) error

// Scheduler owns the cron loop for a process.
type Scheduler struct {
	spec    string
	job     Job
	alerter Alerter
	logger  *slog.Logger
	running atomic.Bool
}

// New creates a Scheduler. alerter may be nil, in which case panics are only
// logged.
func New(spec string, job Job, alerter Alerter, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		spec:    spec,
		job:     job,
		alerter: alerter,
		logger:  logger,
	}
}

// Start runs the cron loop until ctx is canceled, then waits for an
// in-flight run to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.spec, func() { s.trigger(ctx) }); err != nil {
		return fmt.Errorf("parse cron spec %q: %w", s.spec, err)
	}

	s.logger.Info("scheduler started", "cron", s.spec)
	c.Start()

	<-ctx.Done()
	s.logger.Info("scheduler stopping")
	<-c.Stop().Done()
	return nil
}

// trigger fires one run unless the previous one is still going. The mapping
// set and reporter are per-run state, so overlapping runs are never allowed.
func (s *Scheduler) trigger(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous sync run still in flight, skipping trigger")
		return
	}
	defer s.running.Store(false)

	s.supervise(ctx)
}

// supervise runs the job and converts an escaping panic into an alert.
// Run-level errors are already captured in the run report by the job
// itself; only faults outside that path reach the alerter.
func (s *Scheduler) supervise(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			stack := string(debug.Stack())
			s.logger.Error("panic escaped sync run", "panic", p)
			if s.alerter != nil {
				body := fmt.Sprintf("A sync run panicked:\n\n%v\n\nStack:\n%s", p, stack)
				if err := s.alerter.SendAlert(ctx, "Sync run panic", body); err != nil {
					s.logger.Error("failed to send panic alert", "error", err)
				}
			}
		}
	}()

	if err := s.job(ctx); err != nil {
		s.logger.Error("sync run failed", "error", err)
	}
}
