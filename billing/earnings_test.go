/*
earnings_test.go - Walker earnings ledger tests

Covers the rate bucket boundaries, the one-earning-per-walk guard,
payment allocation order (including the mark-fully-paid partial
coverage policy), and the cached totals refresh.
*/
package billing_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawsteps/walkops/billing"
	"github.com/pawsteps/walkops/store/memory"
)

// =============================================================================
// RATE BUCKET TESTS
// =============================================================================

func TestEarningForDuration_RateBuckets(t *testing.T) {
	walker := billing.Walker{
		Rate20Min:     amount("10"),
		Rate30Min:     amount("15"),
		Rate60Min:     amount("30"),
		RateOvernight: amount("80"),
	}

	tests := []struct {
		duration int
		want     string
	}{
		{15, "10"},
		{20, "10"},
		{21, "15"},
		{30, "15"},
		{31, "30"},
		{60, "30"},
		{61, "30"}, // no long-walk premium
		{120, "30"},
		{billing.OvernightDuration, "80"},
	}
	for _, tt := range tests {
		got := billing.EarningForDuration(walker, tt.duration)
		assert.True(t, got.Equal(amount(tt.want)),
			"duration %d: got %s, want %s", tt.duration, got, tt.want)
	}
}

func TestEarningForDuration_UnconfiguredRateIsZero(t *testing.T) {
	walker := billing.Walker{Rate30Min: amount("15")}

	assert.True(t, billing.EarningForDuration(walker, 20).IsZero())
	assert.True(t, billing.EarningForDuration(walker, billing.OvernightDuration).IsZero())
}

// =============================================================================
// EARNING CREATION TESTS
// =============================================================================

// seedCompletedWalk creates and completes a walk, returning its ID.
func seedCompletedWalk(t *testing.T, engine *billing.Engine, clientID, walkerID int64, date string, duration int) int64 {
	t.Helper()
	walks, err := engine.CreateWalk(context.Background(), billing.NewWalk{
		ClientID: clientID, WalkerID: walkerID,
		Date: date, Duration: duration, BillingAmount: amount("25.00"),
	})
	require.NoError(t, err)
	completeWalk(t, engine, walks[0].ID)
	return walks[0].ID
}

func TestCompletion_ZeroRate_SkipsEarning(t *testing.T) {
	// GIVEN: a walker with no 20-minute rate configured
	// WHEN: completing a 20-minute walk
	// THEN: no earning record is created

	engine, store := newTestEngine(t)
	clientID := seedClient(t, store, "alice")
	walkerID := seedWalker(t, store, "bob", "0", "15", "30", "80")

	seedCompletedWalk(t, engine, clientID, walkerID, "2025-06-10", 20)

	earnings, err := engine.WalkerEarnings(context.Background(), walkerID)
	require.NoError(t, err)
	assert.Empty(t, earnings)
}

func TestCompletion_ScenarioThreeDurations(t *testing.T) {
	// GIVEN: walker W with rates 10/15/30, three completed walks of
	//        duration 20, 30, 60
	// THEN: exactly three earnings exist with amounts 10, 15, 30

	engine, store := newTestEngine(t)
	clientID := seedClient(t, store, "alice")
	walkerID := seedWalker(t, store, "bob", "10", "15", "30", "80")

	seedCompletedWalk(t, engine, clientID, walkerID, "2025-06-10", 20)
	seedCompletedWalk(t, engine, clientID, walkerID, "2025-06-11", 30)
	seedCompletedWalk(t, engine, clientID, walkerID, "2025-06-12", 60)

	earnings, err := engine.WalkerEarnings(context.Background(), walkerID)
	require.NoError(t, err)
	require.Len(t, earnings, 3)

	total := decimal.Zero
	for _, e := range earnings {
		total = total.Add(e.Amount)
		assert.False(t, e.IsPaid)
	}
	assert.True(t, total.Equal(amount("55")), "total = %s", total)
}

func TestCompletion_EarningAmountImmutableAfterRateChange(t *testing.T) {
	// GIVEN: an earning created at rate 15
	// WHEN: the walker's rate changes and the earnings sweep reruns
	// THEN: the stored earning keeps its original amount

	engine, store := newTestEngine(t)
	ctx := context.Background()
	clientID := seedClient(t, store, "alice")
	walkerID := seedWalker(t, store, "bob", "10", "15", "30", "80")

	seedCompletedWalk(t, engine, clientID, walkerID, "2025-06-10", 30)

	wk, err := store.GetWalker(ctx, walkerID)
	require.NoError(t, err)
	wk.Rate30Min = amount("99")
	require.NoError(t, store.UpdateWalker(ctx, *wk))

	_, err = engine.CreateMissingEarnings(ctx)
	require.NoError(t, err)

	earnings, err := engine.WalkerEarnings(ctx, walkerID)
	require.NoError(t, err)
	require.Len(t, earnings, 1)
	assert.True(t, earnings[0].Amount.Equal(amount("15")))
}

// =============================================================================
// PAYMENT ALLOCATION TESTS
// =============================================================================

// seedEarning inserts an earning row directly, bypassing walk completion.
func seedEarning(t *testing.T, store *memory.Store, walkerID int64, day int, amt string) billing.WalkerEarning {
	t.Helper()
	e, err := store.CreateEarning(context.Background(), billing.WalkerEarning{
		WalkID:     int64(1000 + day),
		WalkerID:   walkerID,
		Amount:     amount(amt),
		EarnedDate: testNow.AddDate(0, 0, day-15),
	})
	require.NoError(t, err)
	return e
}

func TestProcessWalkerPayment_OldestFirstWithPartialCoverage(t *testing.T) {
	// GIVEN: unpaid earnings D1 < D2 < D3 with amounts 10, 15, 20
	// WHEN: processing a payment of 20
	// THEN: D1 is fully covered, D2 is partially covered but still
	//       marked paid, D3 stays unpaid

	engine, store := newTestEngine(t)
	ctx := context.Background()
	walkerID := seedWalker(t, store, "bob", "10", "15", "30", "80")

	d1 := seedEarning(t, store, walkerID, 1, "10")
	d2 := seedEarning(t, store, walkerID, 2, "15")
	d3 := seedEarning(t, store, walkerID, 3, "20")

	payment, err := engine.ProcessWalkerPayment(ctx, walkerID, amount("20"), testNow, "check", "")
	require.NoError(t, err)

	earnings, err := engine.WalkerEarnings(ctx, walkerID)
	require.NoError(t, err)
	byID := map[int64]billing.WalkerEarning{}
	for _, e := range earnings {
		byID[e.ID] = e
	}

	assert.True(t, byID[d1.ID].IsPaid)
	assert.True(t, byID[d2.ID].IsPaid, "partially covered earning is marked fully paid")
	assert.False(t, byID[d3.ID].IsPaid)
	assert.Equal(t, payment.ID, byID[d1.ID].PaymentID)
	assert.Equal(t, payment.ID, byID[d2.ID].PaymentID)
	assert.Zero(t, byID[d3.ID].PaymentID)
}

func TestProcessWalkerPayment_ExactCoverage(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	walkerID := seedWalker(t, store, "bob", "10", "15", "30", "80")

	seedEarning(t, store, walkerID, 1, "10")
	seedEarning(t, store, walkerID, 2, "15")

	_, err := engine.ProcessWalkerPayment(ctx, walkerID, amount("25"), testNow, "check", "")
	require.NoError(t, err)

	unpaid, err := engine.UnpaidWalkerEarnings(ctx, walkerID)
	require.NoError(t, err)
	assert.Empty(t, unpaid)
}

func TestProcessWalkerPayment_RefreshesCachedTotals(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	walkerID := seedWalker(t, store, "bob", "10", "15", "30", "80")

	seedEarning(t, store, walkerID, 1, "10")
	seedEarning(t, store, walkerID, 2, "15")
	seedEarning(t, store, walkerID, 3, "20")

	_, err := engine.ProcessWalkerPayment(ctx, walkerID, amount("10"), testNow, "check", "")
	require.NoError(t, err)

	wk, err := store.GetWalker(ctx, walkerID)
	require.NoError(t, err)
	assert.True(t, wk.TotalEarnings.Equal(amount("45")), "total = %s", wk.TotalEarnings)
	assert.True(t, wk.UnpaidEarnings.Equal(amount("35")), "unpaid = %s", wk.UnpaidEarnings)
}

func TestProcessWalkerPayment_Validation(t *testing.T) {
	engine, store := newTestEngine(t)
	walkerID := seedWalker(t, store, "bob", "10", "15", "30", "80")

	_, err := engine.ProcessWalkerPayment(context.Background(), walkerID, amount("0"), testNow, "", "")
	assert.ErrorIs(t, err, billing.ErrInvalidAmount)

	_, err = engine.ProcessWalkerPayment(context.Background(), 999, amount("10"), testNow, "", "")
	assert.ErrorIs(t, err, billing.ErrWalkerNotFound)
}

// =============================================================================
// READ TESTS
// =============================================================================

func TestUnpaidWalkerEarnings_OldestFirst(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	walkerID := seedWalker(t, store, "bob", "10", "15", "30", "80")

	seedEarning(t, store, walkerID, 3, "20")
	seedEarning(t, store, walkerID, 1, "10")
	seedEarning(t, store, walkerID, 2, "15")

	unpaid, err := engine.UnpaidWalkerEarnings(ctx, walkerID)
	require.NoError(t, err)
	require.Len(t, unpaid, 3)
	assert.True(t, unpaid[0].Amount.Equal(amount("10")))
	assert.True(t, unpaid[1].Amount.Equal(amount("15")))
	assert.True(t, unpaid[2].Amount.Equal(amount("20")))
}

func TestWalkerEarnings_UnknownWalker(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.WalkerEarnings(context.Background(), 999)
	assert.ErrorIs(t, err, billing.ErrWalkerNotFound)
}
