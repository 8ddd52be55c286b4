/*
scheduler.go - Automated reconciliation scheduler

PURPOSE:
  Runs the billing reconciliation sweeps on a cron schedule so the
  ledgers stay consistent without an admin clicking the reconcile
  button. Every sweep is idempotent, so overlapping or repeated runs
  are harmless.

DESIGN:
  - robfig/cron drives the schedule; one cron entry runs all four
    sweeps in their required order
  - Each run recovers from panics so a bad sweep cannot kill the cron
    goroutine
  - Sweep counts are logged per run for audit

CONFIGURATION:
  - Spec: cron expression, default "@hourly"
  - Enabled: whether the scheduler starts at all

USAGE:
  sched := NewSweepScheduler(engine, "@hourly")
  sched.Start()
  // ... later
  sched.Stop()

SEE ALSO:
  - handlers.go: manual reconcile endpoints
  - billing/reconcile.go: the sweeps themselves
*/
package api

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pawsteps/walkops/billing"
	"github.com/pawsteps/walkops/logger"
)

// DefaultSweepSpec is the schedule used when none is configured.
const DefaultSweepSpec = "@hourly"

// SweepScheduler runs the reconciliation sweeps on a cron schedule.
type SweepScheduler struct {
	engine *billing.Engine
	spec   string
	cron   *cron.Cron
}

// NewSweepScheduler creates a scheduler. spec is a cron expression
// ("@hourly", "*/15 * * * *", ...); empty means DefaultSweepSpec.
func NewSweepScheduler(engine *billing.Engine, spec string) *SweepScheduler {
	if spec == "" {
		spec = DefaultSweepSpec
	}
	return &SweepScheduler{
		engine: engine,
		spec:   spec,
		cron:   cron.New(),
	}
}

// Start registers the sweep job and starts the cron loop.
func (s *SweepScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.runOnce)
	if err != nil {
		return err
	}
	s.cron.Start()
	logger.Info("reconciliation scheduler started", "spec", s.spec)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *SweepScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("reconciliation scheduler stopped")
}

func (s *SweepScheduler) runOnce() {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("reconciliation run panicked", "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	summary, err := s.engine.RunAllSweeps(ctx)
	if err != nil {
		logger.Error("reconciliation run failed", "error", err)
		return
	}
	logger.Info("reconciliation run finished",
		"outstanding", summary.Outstanding,
		"completed", summary.Completed,
		"balances_applied", summary.BalancesApplied,
		"earnings_created", summary.EarningsCreated,
		"elapsed", time.Since(start).String(),
	)
}
