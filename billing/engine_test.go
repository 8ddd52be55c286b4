/*
engine_test.go - Walk lifecycle tests

Covers creation (single and weekly series), partial update with
completion side effects, deletion with photo cascade, and the read
operations the console depends on.
*/
package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawsteps/walkops/billing"
	"github.com/pawsteps/walkops/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// testNow is the pinned clock for every engine test.
var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*billing.Engine, *memory.Store) {
	t.Helper()
	store := memory.New()
	engine := billing.NewEngine(store, billing.WithClock(func() time.Time { return testNow }))
	return engine, store
}

// seedClient creates a user+client pair and returns the client ID.
func seedClient(t *testing.T, store *memory.Store, name string) int64 {
	t.Helper()
	ctx := context.Background()

	u, err := store.CreateUser(ctx, billing.User{
		Role: billing.RoleClient, Name: name, Email: name + "@example.com",
		Active: true, CreatedAt: testNow,
	})
	require.NoError(t, err)

	c, err := store.CreateClient(ctx, billing.Client{UserID: u.ID})
	require.NoError(t, err)
	return c.ID
}

// seedWalker creates a user+walker pair with the given rate table.
func seedWalker(t *testing.T, store *memory.Store, name string, r20, r30, r60, overnight string) int64 {
	t.Helper()
	ctx := context.Background()

	u, err := store.CreateUser(ctx, billing.User{
		Role: billing.RoleWalker, Name: name, Email: name + "@example.com",
		Active: true, CreatedAt: testNow,
	})
	require.NoError(t, err)

	w, err := store.CreateWalker(ctx, billing.Walker{
		UserID:        u.ID,
		Rate20Min:     decimal.RequireFromString(r20),
		Rate30Min:     decimal.RequireFromString(r30),
		Rate60Min:     decimal.RequireFromString(r60),
		RateOvernight: decimal.RequireFromString(overnight),
	})
	require.NoError(t, err)
	return w.ID
}

func seedPet(t *testing.T, store *memory.Store, clientID int64, name string) int64 {
	t.Helper()
	p, err := store.CreatePet(context.Background(), billing.Pet{
		ClientID: clientID, Name: name, Active: true,
	})
	require.NoError(t, err)
	return p.ID
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// =============================================================================
// CREATION TESTS
// =============================================================================

func TestCreateWalk_SingleWalk_DefaultsScheduled(t *testing.T) {
	// GIVEN: a client with a pet
	// WHEN: creating a single walk
	// THEN: it is scheduled, unpaid, and not balance-applied

	engine, store := newTestEngine(t)
	ctx := context.Background()
	clientID := seedClient(t, store, "alice")
	petID := seedPet(t, store, clientID, "Rex")

	walks, err := engine.CreateWalk(ctx, billing.NewWalk{
		ClientID:      clientID,
		PetID:         petID,
		Date:          "2025-06-20",
		Time:          "morning",
		Duration:      30,
		BillingAmount: amount("25.00"),
	})
	require.NoError(t, err)
	require.Len(t, walks, 1)

	w := walks[0]
	assert.Equal(t, billing.StatusScheduled, w.Status)
	assert.False(t, w.IsPaid)
	assert.False(t, w.BalanceApplied)
	assert.Empty(t, w.RecurringGroupID)
	assert.Equal(t, []int64{petID}, w.PetIDs)
}

func TestCreateWalk_InvalidDate_Rejected(t *testing.T) {
	engine, store := newTestEngine(t)
	clientID := seedClient(t, store, "alice")

	_, err := engine.CreateWalk(context.Background(), billing.NewWalk{
		ClientID: clientID,
		Date:     "06/20/2025",
		Duration: 30,
	})
	assert.ErrorIs(t, err, billing.ErrInvalidDate)
}

func TestCreateWalk_WeeklySeries_DatesAdvanceByCalendarWeek(t *testing.T) {
	// GIVEN: a weekly booking for 4 weeks spanning the March DST change
	// WHEN: creating the walk
	// THEN: 4 walks exist, dated exactly 7 calendar days apart, sharing
	//       one recurring group ID

	engine, store := newTestEngine(t)
	clientID := seedClient(t, store, "alice")

	walks, err := engine.CreateWalk(context.Background(), billing.NewWalk{
		ClientID:      clientID,
		Date:          "2025-03-03",
		Duration:      30,
		BillingAmount: amount("25.00"),
		RepeatWeekly:  true,
		NumberOfWeeks: 4,
	})
	require.NoError(t, err)
	require.Len(t, walks, 4)

	wantDates := []string{"2025-03-03", "2025-03-10", "2025-03-17", "2025-03-24"}
	groupID := walks[0].RecurringGroupID
	require.NotEmpty(t, groupID)
	for i, w := range walks {
		assert.Equal(t, wantDates[i], w.Date)
		assert.Equal(t, groupID, w.RecurringGroupID)
		assert.Equal(t, billing.StatusScheduled, w.Status)
	}
}

func TestCreateWalk_WeeklySeries_UnboundedCappedAt52(t *testing.T) {
	// GIVEN: repeat_weekly with no week count
	// WHEN: creating the walk
	// THEN: the series is capped at 52 occurrences

	engine, store := newTestEngine(t)
	clientID := seedClient(t, store, "alice")

	walks, err := engine.CreateWalk(context.Background(), billing.NewWalk{
		ClientID:     clientID,
		Date:         "2025-01-06",
		Duration:     30,
		RepeatWeekly: true,
	})
	require.NoError(t, err)
	assert.Len(t, walks, billing.MaxRecurringWeeks)
}

func TestCreateWalk_PrimaryPetAlwaysInPetSet(t *testing.T) {
	engine, store := newTestEngine(t)
	clientID := seedClient(t, store, "alice")
	rex := seedPet(t, store, clientID, "Rex")
	fido := seedPet(t, store, clientID, "Fido")

	walks, err := engine.CreateWalk(context.Background(), billing.NewWalk{
		ClientID: clientID,
		PetID:    rex,
		PetIDs:   []int64{fido},
		Date:     "2025-06-20",
		Duration: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{rex, fido}, walks[0].PetIDs)
}

// =============================================================================
// UPDATE AND COMPLETION TESTS
// =============================================================================

func completeWalk(t *testing.T, engine *billing.Engine, walkID int64) *billing.Walk {
	t.Helper()
	status := billing.StatusCompleted
	w, err := engine.UpdateWalk(context.Background(), walkID, billing.WalkUpdate{Status: &status})
	require.NoError(t, err)
	return w
}

func TestUpdateWalk_CompletionAppliesBalanceAndCreatesEarning(t *testing.T) {
	// GIVEN: a scheduled walk with an assigned walker
	// WHEN: marking it completed
	// THEN: the balance is applied, the client owes the billing amount,
	//       and exactly one earning exists

	engine, store := newTestEngine(t)
	ctx := context.Background()
	clientID := seedClient(t, store, "alice")
	walkerID := seedWalker(t, store, "bob", "10", "15", "30", "80")

	walks, err := engine.CreateWalk(ctx, billing.NewWalk{
		ClientID:      clientID,
		WalkerID:      walkerID,
		Date:          "2025-06-10",
		Duration:      30,
		BillingAmount: amount("25.00"),
	})
	require.NoError(t, err)

	w := completeWalk(t, engine, walks[0].ID)
	assert.True(t, w.BalanceApplied)

	balance, err := engine.ClientBalance(ctx, clientID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(amount("25.00")), "balance = %s", balance)

	earnings, err := engine.WalkerEarnings(ctx, walkerID)
	require.NoError(t, err)
	require.Len(t, earnings, 1)
	assert.True(t, earnings[0].Amount.Equal(amount("15")))
	assert.Equal(t, w.ID, earnings[0].WalkID)
}

func TestUpdateWalk_RecompleteIsNoOp(t *testing.T) {
	// GIVEN: a completed walk
	// WHEN: marking it completed again
	// THEN: no second earning, balance unchanged

	engine, store := newTestEngine(t)
	ctx := context.Background()
	clientID := seedClient(t, store, "alice")
	walkerID := seedWalker(t, store, "bob", "10", "15", "30", "80")

	walks, err := engine.CreateWalk(ctx, billing.NewWalk{
		ClientID: clientID, WalkerID: walkerID,
		Date: "2025-06-10", Duration: 20, BillingAmount: amount("18.00"),
	})
	require.NoError(t, err)

	completeWalk(t, engine, walks[0].ID)
	completeWalk(t, engine, walks[0].ID)

	balance, err := engine.ClientBalance(ctx, clientID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(amount("18.00")))

	earnings, err := engine.WalkerEarnings(ctx, walkerID)
	require.NoError(t, err)
	assert.Len(t, earnings, 1)
}

func TestUpdateWalk_InvalidStatus_Rejected(t *testing.T) {
	engine, store := newTestEngine(t)
	clientID := seedClient(t, store, "alice")

	walks, err := engine.CreateWalk(context.Background(), billing.NewWalk{
		ClientID: clientID, Date: "2025-06-20", Duration: 30,
	})
	require.NoError(t, err)

	bad := billing.WalkStatus("finished")
	_, err = engine.UpdateWalk(context.Background(), walks[0].ID, billing.WalkUpdate{Status: &bad})
	assert.ErrorIs(t, err, billing.ErrInvalidStatus)
}

func TestUpdateWalk_UnknownWalk_NotFound(t *testing.T) {
	engine, _ := newTestEngine(t)

	notes := "hello"
	_, err := engine.UpdateWalk(context.Background(), 999, billing.WalkUpdate{Notes: &notes})
	assert.ErrorIs(t, err, billing.ErrWalkNotFound)
	assert.True(t, billing.IsNotFound(err))
}

// =============================================================================
// DELETE TESTS
// =============================================================================

func TestDeleteWalk_CascadesPhotos(t *testing.T) {
	// GIVEN: a walk with two photos
	// WHEN: deleting the walk
	// THEN: the walk and its photos are gone

	engine, store := newTestEngine(t)
	ctx := context.Background()
	clientID := seedClient(t, store, "alice")

	walks, err := engine.CreateWalk(ctx, billing.NewWalk{
		ClientID: clientID, Date: "2025-06-20", Duration: 30,
	})
	require.NoError(t, err)
	walkID := walks[0].ID

	for _, url := range []string{"https://photos/1.jpg", "https://photos/2.jpg"} {
		_, err := store.AddPhoto(ctx, billing.WalkPhoto{WalkID: walkID, URL: url, UploadedAt: testNow})
		require.NoError(t, err)
	}

	require.NoError(t, engine.DeleteWalk(ctx, walkID))

	_, err = engine.GetWalk(ctx, walkID)
	assert.ErrorIs(t, err, billing.ErrWalkNotFound)

	photos, err := store.ListPhotosByWalk(ctx, walkID)
	require.NoError(t, err)
	assert.Empty(t, photos)
}

func TestDeleteWalk_KeepsAppliedBillingHistory(t *testing.T) {
	// GIVEN: a completed, balance-applied walk with an earning
	// WHEN: deleting the walk
	// THEN: the earning row survives (billing history is not reversed)

	engine, store := newTestEngine(t)
	ctx := context.Background()
	clientID := seedClient(t, store, "alice")
	walkerID := seedWalker(t, store, "bob", "10", "15", "30", "80")

	walks, err := engine.CreateWalk(ctx, billing.NewWalk{
		ClientID: clientID, WalkerID: walkerID,
		Date: "2025-06-10", Duration: 60, BillingAmount: amount("40.00"),
	})
	require.NoError(t, err)
	completeWalk(t, engine, walks[0].ID)

	require.NoError(t, engine.DeleteWalk(ctx, walks[0].ID))

	earnings, err := engine.WalkerEarnings(ctx, walkerID)
	require.NoError(t, err)
	assert.Len(t, earnings, 1)
}

// =============================================================================
// READ TESTS
// =============================================================================

func TestGetWalkWithDetails_ResolvesNames(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()
	clientID := seedClient(t, store, "alice")
	walkerID := seedWalker(t, store, "bob", "10", "15", "30", "80")
	rex := seedPet(t, store, clientID, "Rex")
	fido := seedPet(t, store, clientID, "Fido")

	walks, err := engine.CreateWalk(ctx, billing.NewWalk{
		ClientID: clientID, WalkerID: walkerID,
		PetID: rex, PetIDs: []int64{rex, fido},
		Date: "2025-06-20", Duration: 30,
	})
	require.NoError(t, err)

	d, err := engine.GetWalkWithDetails(ctx, walks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", d.ClientName)
	assert.Equal(t, "bob", d.WalkerName)
	assert.Equal(t, "Rex", d.PetName)
	assert.Equal(t, []string{"Rex", "Fido"}, d.PetNames)
}

func TestGetWalkWithDetails_UnresolvablePetDegradesToPrimary(t *testing.T) {
	// GIVEN: a walk whose pet set references a pet that no longer resolves
	// WHEN: reading details
	// THEN: the view degrades to the primary pet instead of failing

	engine, store := newTestEngine(t)
	ctx := context.Background()
	clientID := seedClient(t, store, "alice")
	rex := seedPet(t, store, clientID, "Rex")

	walks, err := engine.CreateWalk(ctx, billing.NewWalk{
		ClientID: clientID,
		PetID:    rex, PetIDs: []int64{rex, 999},
		Date: "2025-06-20", Duration: 30,
	})
	require.NoError(t, err)

	d, err := engine.GetWalkWithDetails(ctx, walks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Rex", d.PetName)
	assert.Equal(t, []string{"Rex"}, d.PetNames)
}

func TestUpcomingWalks_FiltersPastSortsAndLimits(t *testing.T) {
	// Clock is pinned at 2025-06-15. Walks before that date are not
	// upcoming; results are soonest first.

	engine, store := newTestEngine(t)
	ctx := context.Background()
	clientID := seedClient(t, store, "alice")

	for _, date := range []string{"2025-06-14", "2025-06-22", "2025-06-15", "2025-06-18"} {
		_, err := engine.CreateWalk(ctx, billing.NewWalk{
			ClientID: clientID, Date: date, Duration: 30,
		})
		require.NoError(t, err)
	}

	upcoming, err := engine.UpcomingWalks(ctx, 0)
	require.NoError(t, err)
	require.Len(t, upcoming, 3)
	assert.Equal(t, "2025-06-15", upcoming[0].Date)
	assert.Equal(t, "2025-06-18", upcoming[1].Date)
	assert.Equal(t, "2025-06-22", upcoming[2].Date)

	limited, err := engine.UpcomingWalks(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestWalksByStatus_InvalidFilterRejected(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.WalksByStatus(context.Background(), "done")
	assert.ErrorIs(t, err, billing.ErrInvalidStatus)
}
