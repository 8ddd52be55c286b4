/*
reconcile.go - Batch reconciliation sweeps

PURPOSE:
  Four idempotent sweeps that keep walk, balance, and earnings state
  consistent no matter which request path last touched a walk. Each is
  safe to run repeatedly and in any order; RunAllSweeps runs them in the
  natural dependency order.

SWEEPS:
  1. MarkOutstandingWalks       unpaid past-due walks -> outstanding
  2. CompleteElapsedWalks       scheduled walks whose end has passed -> completed
  3. ApplyCompletedWalkBalances safety net for un-acknowledged credits
  4. CreateMissingEarnings      earnings for completed walks lacking one

  Sweep 2 completes through the same crediting path as sweep 3 and as a
  manual completion via UpdateWalk. There is exactly one place balance
  application happens (applyWalkBalance) and one place earnings are
  created (ensureEarningForWalk).

SCHEDULING:
  The API layer exposes each sweep as an admin endpoint and also runs
  them on a cron schedule (api/scheduler.go). Both entry points hold the
  engine lock, so sweeps serialize against per-request writes.
*/
package billing

import (
	"context"

	"github.com/pawsteps/walkops/logger"
)

// =============================================================================
// SWEEP 1 - OUTSTANDING WALKS
// =============================================================================

// MarkOutstandingWalks marks unpaid walks outstanding once their date
// is at least one calendar day in the past. Eligible are completed
// walks and scheduled walks that were never worked. Returns the number
// of walks changed.
func (e *Engine) MarkOutstandingWalks(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	walks, err := e.store.ListWalks(ctx)
	if err != nil {
		return 0, err
	}

	now := e.now()
	changed := 0
	for _, w := range walks {
		if w.IsPaid || w.Status == StatusOutstanding {
			continue
		}
		if w.Status != StatusCompleted && w.Status != StatusScheduled {
			continue
		}
		date, err := ParseWalkDate(w.Date)
		if err != nil {
			logger.Warn("outstanding sweep skipped walk with bad date",
				"walk_id", w.ID, "date", w.Date)
			continue
		}
		if daysInPast(date, now) < 1 {
			continue
		}
		w.Status = StatusOutstanding
		if err := e.store.UpdateWalk(ctx, w); err != nil {
			return changed, err
		}
		changed++
	}

	if changed > 0 {
		logger.Info("outstanding sweep complete", "walks_marked", changed)
	}
	return changed, nil
}

// =============================================================================
// SWEEP 2 - AUTO-COMPLETE ELAPSED WALKS
// =============================================================================

// CompleteElapsedWalks completes every scheduled walk whose end instant
// (date + start time + duration) has passed, applying the balance
// through the shared crediting path. Returns the number changed.
func (e *Engine) CompleteElapsedWalks(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	walks, err := e.store.ListWalksByStatus(ctx, StatusScheduled)
	if err != nil {
		return 0, err
	}

	now := e.now()
	changed := 0
	for _, w := range walks {
		end, err := WalkEnd(w)
		if err != nil {
			logger.Warn("completion sweep skipped walk with bad date",
				"walk_id", w.ID, "date", w.Date)
			continue
		}
		if end.After(now) {
			continue
		}
		w.Status = StatusCompleted
		if err := e.store.UpdateWalk(ctx, w); err != nil {
			return changed, err
		}
		if err := e.applyWalkBalance(ctx, &w); err != nil {
			return changed, err
		}
		changed++
	}

	if changed > 0 {
		logger.Info("completion sweep complete", "walks_completed", changed)
	}
	return changed, nil
}

// =============================================================================
// SWEEP 3 - BALANCE SAFETY NET
// =============================================================================

// ApplyCompletedWalkBalances acknowledges any completed walk whose
// billing amount has not yet been applied. This catches completion
// paths that predate the unified crediting path. Returns the number of
// walks flagged.
func (e *Engine) ApplyCompletedWalkBalances(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	walks, err := e.store.ListWalksByStatus(ctx, StatusCompleted)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, w := range walks {
		if w.BalanceApplied {
			continue
		}
		if err := e.applyWalkBalance(ctx, &w); err != nil {
			return changed, err
		}
		changed++
	}

	if changed > 0 {
		logger.Info("balance sweep complete", "walks_applied", changed)
	}
	return changed, nil
}

// =============================================================================
// SWEEP 4 - MISSING EARNINGS
// =============================================================================

// CreateMissingEarnings creates earning records for completed walks
// with an assigned walker and no earning yet. Walks whose computed
// amount is zero are skipped (and logged) rather than recorded.
// Returns the number of earnings created.
func (e *Engine) CreateMissingEarnings(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	walks, err := e.store.ListWalksByStatus(ctx, StatusCompleted)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, w := range walks {
		if w.WalkerID == 0 {
			continue
		}
		ok, err := e.ensureEarningForWalk(ctx, w)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}

	if created > 0 {
		logger.Info("earnings sweep complete", "earnings_created", created)
	}
	return created, nil
}

// =============================================================================
// COMBINED RUN
// =============================================================================

// SweepSummary reports what one full reconciliation pass changed.
type SweepSummary struct {
	Outstanding     int `json:"outstanding"`
	Completed       int `json:"completed"`
	BalancesApplied int `json:"balances_applied"`
	EarningsCreated int `json:"earnings_created"`
}

// RunAllSweeps runs the four sweeps in dependency order and returns the
// combined counts. An error aborts the pass; counts reflect what ran.
func (e *Engine) RunAllSweeps(ctx context.Context) (SweepSummary, error) {
	var s SweepSummary
	var err error

	if s.Outstanding, err = e.MarkOutstandingWalks(ctx); err != nil {
		return s, err
	}
	if s.Completed, err = e.CompleteElapsedWalks(ctx); err != nil {
		return s, err
	}
	if s.BalancesApplied, err = e.ApplyCompletedWalkBalances(ctx); err != nil {
		return s, err
	}
	if s.EarningsCreated, err = e.CreateMissingEarnings(ctx); err != nil {
		return s, err
	}
	return s, nil
}
