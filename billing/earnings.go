/*
earnings.go - Walker earnings ledger

PURPOSE:
  Computes per-walk earnings from the walker's rate table, tracks
  paid/unpaid earnings, and applies walker payments against unpaid
  earnings oldest-first.

RATE BUCKETS:
  duration <= 20        -> Rate20Min
  duration <= 30        -> Rate30Min
  anything longer       -> Rate60Min (walks over 60 minutes bill at the
                           60-minute rate; there is no long-walk premium)
  OvernightDuration     -> RateOvernight
  A zero (unconfigured) rate yields a zero earning, which suppresses
  record creation. That condition is logged, never swallowed silently.

EARNING IMMUTABILITY:
  An earning's amount is computed once, at creation. Later changes to
  the walker's rates or the walk's duration never touch it. At most one
  earning exists per walk, guarded by a lookup inside the engine lock.

PAYMENT ALLOCATION:
  Payments mark unpaid earnings paid in earned-date order until the
  amount runs out. An earning that is only partially covered by the
  remainder is still marked fully paid; the shortfall is logged. This
  preserves the console's long-standing settlement behavior.

CACHED TOTALS:
  Walker.TotalEarnings/UnpaidEarnings are read-through caches over the
  earnings table, rewritten by refreshWalkerTotals after every earnings
  mutation. Nothing else writes them.
*/
package billing

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawsteps/walkops/logger"
)

// =============================================================================
// RATE TABLE
// =============================================================================

// EarningForDuration selects the walker's rate for a walk duration.
// Returns zero when no matching rate is configured.
func EarningForDuration(w Walker, durationMinutes int) decimal.Decimal {
	switch {
	case durationMinutes == OvernightDuration:
		return w.RateOvernight
	case durationMinutes <= 20:
		return w.Rate20Min
	case durationMinutes <= 30:
		return w.Rate30Min
	default:
		return w.Rate60Min
	}
}

// CalculateEarningForWalk computes what a given walk would earn its
// assigned walker, without creating anything.
func (e *Engine) CalculateEarningForWalk(ctx context.Context, walkerID, walkID int64) (decimal.Decimal, error) {
	wk, err := e.store.GetWalker(ctx, walkerID)
	if err != nil {
		return decimal.Zero, err
	}
	if wk == nil {
		return decimal.Zero, ErrWalkerNotFound
	}
	w, err := e.store.GetWalk(ctx, walkID)
	if err != nil {
		return decimal.Zero, err
	}
	if w == nil {
		return decimal.Zero, ErrWalkNotFound
	}
	return EarningForDuration(*wk, w.Duration), nil
}

// =============================================================================
// EARNING CREATION
// =============================================================================

// ensureEarningForWalk creates the walk's earning record if none exists
// and the computed amount is positive. Returns true when a record was
// created. Callers hold e.mu.
func (e *Engine) ensureEarningForWalk(ctx context.Context, w Walk) (bool, error) {
	existing, err := e.store.GetEarningByWalk(ctx, w.ID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	wk, err := e.store.GetWalker(ctx, w.WalkerID)
	if err != nil {
		return false, err
	}
	if wk == nil {
		logger.Warn("earning skipped: walker missing",
			"walk_id", w.ID, "walker_id", w.WalkerID)
		return false, nil
	}

	amount := EarningForDuration(*wk, w.Duration)
	if !amount.IsPositive() {
		logger.Warn("earning skipped: no rate configured for duration",
			"walk_id", w.ID, "walker_id", w.WalkerID, "duration", w.Duration)
		return false, nil
	}

	_, err = e.store.CreateEarning(ctx, WalkerEarning{
		WalkID:     w.ID,
		WalkerID:   w.WalkerID,
		Amount:     amount,
		EarnedDate: dateOnly(e.now()),
	})
	if err != nil {
		return false, err
	}
	if err := e.refreshWalkerTotals(ctx, w.WalkerID); err != nil {
		return true, err
	}
	return true, nil
}

// =============================================================================
// EARNING READS
// =============================================================================

// WalkerEarnings returns all earnings for a walker, oldest first.
func (e *Engine) WalkerEarnings(ctx context.Context, walkerID int64) ([]WalkerEarning, error) {
	if err := e.requireWalker(ctx, walkerID); err != nil {
		return nil, err
	}
	earnings, err := e.store.ListEarningsByWalker(ctx, walkerID)
	if err != nil {
		return nil, err
	}
	sortEarningsOldestFirst(earnings)
	return earnings, nil
}

// UnpaidWalkerEarnings returns the walker's unpaid earnings, oldest first.
func (e *Engine) UnpaidWalkerEarnings(ctx context.Context, walkerID int64) ([]WalkerEarning, error) {
	earnings, err := e.WalkerEarnings(ctx, walkerID)
	if err != nil {
		return nil, err
	}
	unpaid := earnings[:0]
	for _, earning := range earnings {
		if !earning.IsPaid {
			unpaid = append(unpaid, earning)
		}
	}
	return unpaid, nil
}

func (e *Engine) requireWalker(ctx context.Context, walkerID int64) error {
	wk, err := e.store.GetWalker(ctx, walkerID)
	if err != nil {
		return err
	}
	if wk == nil {
		return ErrWalkerNotFound
	}
	return nil
}

func sortEarningsOldestFirst(earnings []WalkerEarning) {
	sort.SliceStable(earnings, func(i, j int) bool {
		if earnings[i].EarnedDate.Equal(earnings[j].EarnedDate) {
			return earnings[i].ID < earnings[j].ID
		}
		return earnings[i].EarnedDate.Before(earnings[j].EarnedDate)
	})
}

// =============================================================================
// WALKER PAYMENTS
// =============================================================================

// ProcessWalkerPayment records a payout and allocates it against the
// walker's unpaid earnings, oldest-earned-first, until the amount is
// exhausted. A partially covered earning is still marked fully paid
// (the shortfall is logged). Returns the stored payment.
func (e *Engine) ProcessWalkerPayment(ctx context.Context, walkerID int64, amount decimal.Decimal, date time.Time, method, notes string) (*WalkerPayment, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireWalker(ctx, walkerID); err != nil {
		return nil, err
	}

	payment, err := e.store.CreateWalkerPayment(ctx, WalkerPayment{
		WalkerID: walkerID,
		Amount:   amount,
		Date:     date,
		Method:   method,
		Notes:    notes,
	})
	if err != nil {
		return nil, err
	}

	earnings, err := e.store.ListEarningsByWalker(ctx, walkerID)
	if err != nil {
		return nil, err
	}
	sortEarningsOldestFirst(earnings)

	remaining := amount
	marked := 0
	for i := range earnings {
		if earnings[i].IsPaid {
			continue
		}
		if !remaining.IsPositive() {
			break
		}
		if remaining.LessThan(earnings[i].Amount) {
			logger.Warn("earning marked paid with partial coverage",
				"earning_id", earnings[i].ID,
				"earning_amount", earnings[i].Amount,
				"remaining", remaining)
		}
		earnings[i].IsPaid = true
		earnings[i].PaymentID = payment.ID
		if err := e.store.UpdateEarning(ctx, earnings[i]); err != nil {
			return nil, err
		}
		remaining = remaining.Sub(earnings[i].Amount)
		marked++
	}

	if err := e.refreshWalkerTotals(ctx, walkerID); err != nil {
		return nil, err
	}

	logger.Info("walker payment processed",
		"walker_id", walkerID, "payment_id", payment.ID,
		"amount", amount, "earnings_marked_paid", marked)
	return &payment, nil
}

// WalkerPayments returns the walker's payout history.
func (e *Engine) WalkerPayments(ctx context.Context, walkerID int64) ([]WalkerPayment, error) {
	if err := e.requireWalker(ctx, walkerID); err != nil {
		return nil, err
	}
	return e.store.ListWalkerPaymentsByWalker(ctx, walkerID)
}

// refreshWalkerTotals rewrites the walker's cached earnings totals from
// the earnings table. Callers hold e.mu.
func (e *Engine) refreshWalkerTotals(ctx context.Context, walkerID int64) error {
	wk, err := e.store.GetWalker(ctx, walkerID)
	if err != nil {
		return err
	}
	if wk == nil {
		return ErrWalkerNotFound
	}

	earnings, err := e.store.ListEarningsByWalker(ctx, walkerID)
	if err != nil {
		return err
	}

	total := decimal.Zero
	unpaid := decimal.Zero
	for _, earning := range earnings {
		total = total.Add(earning.Amount)
		if !earning.IsPaid {
			unpaid = unpaid.Add(earning.Amount)
		}
	}

	wk.TotalEarnings = total
	wk.UnpaidEarnings = unpaid
	return e.store.UpdateWalker(ctx, *wk)
}
