/*
sqlite_test.go - Store contract tests against an in-memory database

Exercises the same behaviors the engine depends on: ID assignment,
nil-on-missing reads, sentinel errors, payment-history rewrites, the
walk_pets ordering, and the earning-per-walk uniqueness constraint.
*/
package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawsteps/walkops/billing"
	"github.com/pawsteps/walkops/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// =============================================================================
// CONTRACT BASICS
// =============================================================================

func TestCreateAssignsSequentialIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u1, err := store.CreateUser(ctx, billing.User{
		Role: billing.RoleClient, Name: "alice", Email: "alice@example.com",
		Active: true, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	u2, err := store.CreateUser(ctx, billing.User{
		Role: billing.RoleWalker, Name: "bob", Email: "bob@example.com",
		Active: true, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), u1.ID)
	assert.Equal(t, int64(2), u2.ID)
}

func TestGetMissingReturnsNilNil(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u, err := store.GetUser(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, u)

	w, err := store.GetWalk(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, w)

	e, err := store.GetEarningByWalk(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestUpdateMissingReturnsSentinel(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.UpdateWalker(ctx, billing.Walker{ID: 99})
	assert.ErrorIs(t, err, billing.ErrWalkerNotFound)
	assert.True(t, billing.IsNotFound(err))

	err = store.DeleteWalk(ctx, 99)
	assert.ErrorIs(t, err, billing.ErrWalkNotFound)
}

// =============================================================================
// WALKS
// =============================================================================

func TestWalkRoundTrip_PreservesPetOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	paid := time.Date(2025, time.June, 16, 10, 0, 0, 0, time.UTC)
	created, err := store.CreateWalk(ctx, billing.Walk{
		ClientID:         1,
		WalkerID:         2,
		PetID:            7,
		PetIDs:           []int64{7, 3, 5},
		Date:             "2025-06-15",
		Time:             "morning",
		Duration:         30,
		BillingAmount:    amount("25.50"),
		Status:           billing.StatusCompleted,
		IsPaid:           true,
		PaidDate:         &paid,
		BalanceApplied:   true,
		RepeatWeekly:     true,
		NumberOfWeeks:    4,
		RecurringGroupID: "grp-1",
		CreatedAt:        time.Now().UTC(),
	})
	require.NoError(t, err)

	got, err := store.GetWalk(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []int64{7, 3, 5}, got.PetIDs)
	assert.True(t, got.BillingAmount.Equal(amount("25.50")))
	assert.Equal(t, billing.StatusCompleted, got.Status)
	require.NotNil(t, got.PaidDate)
	assert.True(t, got.PaidDate.Equal(paid))
	assert.Equal(t, "grp-1", got.RecurringGroupID)
}

func TestUpdateWalk_RewritesPetSet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	w, err := store.CreateWalk(ctx, billing.Walk{
		ClientID: 1, PetID: 7, PetIDs: []int64{7},
		Date: "2025-06-15", Duration: 30,
		Status: billing.StatusScheduled, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	w.PetIDs = []int64{7, 9}
	require.NoError(t, store.UpdateWalk(ctx, w))

	got, err := store.GetWalk(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 9}, got.PetIDs)
}

func TestListWalksByStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, status := range []billing.WalkStatus{
		billing.StatusScheduled, billing.StatusCompleted, billing.StatusScheduled,
	} {
		_, err := store.CreateWalk(ctx, billing.Walk{
			ClientID: 1, Date: "2025-06-15", Duration: 30,
			Status: status, CreatedAt: time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	scheduled, err := store.ListWalksByStatus(ctx, billing.StatusScheduled)
	require.NoError(t, err)
	assert.Len(t, scheduled, 2)
}

func TestDeleteWalk_RemovesPetRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	w, err := store.CreateWalk(ctx, billing.Walk{
		ClientID: 1, PetID: 7, PetIDs: []int64{7, 8},
		Date: "2025-06-15", Duration: 30,
		Status: billing.StatusScheduled, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, store.DeleteWalk(ctx, w.ID))

	got, err := store.GetWalk(ctx, w.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

// =============================================================================
// CLIENT PAYMENT HISTORY
// =============================================================================

func TestClientPayments_RewrittenOnUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	c, err := store.CreateClient(ctx, billing.Client{UserID: 1, Address: "12 Birch Lane"})
	require.NoError(t, err)

	when := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	c.Payments = []billing.ClientPayment{
		{Amount: amount("25.00"), Date: when, Method: "cash"},
		{Amount: amount("30.00"), Date: when.AddDate(0, 0, 7), Method: "venmo"},
	}
	c.LastPaymentDate = &when
	require.NoError(t, store.UpdateClient(ctx, c))

	got, err := store.GetClient(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Payments, 2)
	assert.True(t, got.Payments[0].Amount.Equal(amount("25.00")))
	assert.Equal(t, "venmo", got.Payments[1].Method)
	require.NotNil(t, got.LastPaymentDate)
	assert.True(t, got.LastPaymentDate.Equal(when))
}

// =============================================================================
// EARNINGS
// =============================================================================

func TestCreateEarning_OnePerWalkEnforced(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e := billing.WalkerEarning{
		WalkID: 1, WalkerID: 2, Amount: amount("15"),
		EarnedDate: time.Now().UTC(),
	}
	_, err := store.CreateEarning(ctx, e)
	require.NoError(t, err)

	_, err = store.CreateEarning(ctx, e)
	assert.Error(t, err)
}

func TestListEarningsByWalker_OldestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)
	for i, day := range []int{5, 1, 3} {
		_, err := store.CreateEarning(ctx, billing.WalkerEarning{
			WalkID: int64(i + 1), WalkerID: 2, Amount: amount("15"),
			EarnedDate: base.AddDate(0, 0, day),
		})
		require.NoError(t, err)
	}

	earnings, err := store.ListEarningsByWalker(ctx, 2)
	require.NoError(t, err)
	require.Len(t, earnings, 3)
	assert.True(t, earnings[0].EarnedDate.Before(earnings[1].EarnedDate))
	assert.True(t, earnings[1].EarnedDate.Before(earnings[2].EarnedDate))
}

// =============================================================================
// RESET
// =============================================================================

func TestReset_ClearsDataAndSequences(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateUser(ctx, billing.User{
		Role: billing.RoleClient, Name: "alice", Email: "a@example.com",
		Active: true, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, store.Reset(ctx))

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	u, err := store.CreateUser(ctx, billing.User{
		Role: billing.RoleClient, Name: "bruno", Email: "b@example.com",
		Active: true, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
}

// =============================================================================
// ENGINE OVER SQLITE
// =============================================================================

func TestEngineCompletionFlow_OverSQLite(t *testing.T) {
	// GIVEN: a client and a rated walker persisted in SQLite
	// WHEN: a walk is scheduled and completed through the engine
	// THEN: the derived balance and the earning come back from the database

	store := newTestStore(t)
	ctx := context.Background()
	engine := billing.NewEngine(store)

	u, err := store.CreateUser(ctx, billing.User{
		Role: billing.RoleClient, Name: "alice", Email: "alice@example.com",
		Active: true, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	client, err := store.CreateClient(ctx, billing.Client{UserID: u.ID})
	require.NoError(t, err)

	wu, err := store.CreateUser(ctx, billing.User{
		Role: billing.RoleWalker, Name: "bob", Email: "bob@example.com",
		Active: true, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	walker, err := store.CreateWalker(ctx, billing.Walker{
		UserID: wu.ID, Rate30Min: amount("15"),
	})
	require.NoError(t, err)

	walks, err := engine.CreateWalk(ctx, billing.NewWalk{
		ClientID:      client.ID,
		WalkerID:      walker.ID,
		Date:          "2025-06-15",
		Time:          "morning",
		Duration:      30,
		BillingAmount: amount("25.00"),
	})
	require.NoError(t, err)
	require.Len(t, walks, 1)

	status := billing.StatusCompleted
	_, err = engine.UpdateWalk(ctx, walks[0].ID, billing.WalkUpdate{Status: &status})
	require.NoError(t, err)

	balance, err := engine.ClientBalance(ctx, client.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(amount("25.00")), "balance = %s", balance)

	earning, err := store.GetEarningByWalk(ctx, walks[0].ID)
	require.NoError(t, err)
	require.NotNil(t, earning)
	assert.True(t, earning.Amount.Equal(amount("15")))

	fresh, err := store.GetWalker(ctx, walker.ID)
	require.NoError(t, err)
	assert.True(t, fresh.UnpaidEarnings.Equal(amount("15")))
}
