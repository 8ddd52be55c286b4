/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for testing and demos. Each scenario creates users, clients,
	pets, walkers, and walks that demonstrate specific features.

AVAILABLE SCENARIOS:

	starter-roster:   A small roster with upcoming scheduled walks
	weekly-regulars:  Recurring weekly walks, completed history, a payment
	overdue-balances: Unpaid past walks flagged by the reconcile sweeps
	walker-payroll:   Earnings at every rate tier plus a partial payout

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Create users, clients, pets, and walkers
 3. Schedule walks through the engine
 4. Complete some of them and record payments
 5. Leave older unpaid walks for the reconcile sweeps to pick up

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "weekly-regulars"}

ADDING NEW SCENARIOS:
 1. Add to the 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, h)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - server.go: /api/scenarios routes
  - billing/engine.go: walk scheduling and completion
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawsteps/walkops/billing"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest selects the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "starter-roster",
		Name:        "Starter Roster",
		Description: "Two clients, their pets, one walker, and a week of scheduled walks",
		Category:    "scheduling",
	},
	{
		ID:          "weekly-regulars",
		Name:        "Weekly Regulars",
		Description: "A recurring weekly series with completed history and a client payment",
		Category:    "billing",
	},
	{
		ID:          "overdue-balances",
		Name:        "Overdue Balances",
		Description: "Unpaid completed walks plus older scheduled ones ready for a reconcile run",
		Category:    "reconciliation",
	},
	{
		ID:          "walker-payroll",
		Name:        "Walker Payroll",
		Description: "Earnings at every rate tier and a partial payout allocated oldest-first",
		Category:    "payroll",
	},
}

// resettable is implemented by stores that can wipe all data.
type resettable interface {
	Reset(ctx context.Context) error
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario wipes the store and loads the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	store, ok := h.Engine.Store().(resettable)
	if !ok {
		writeError(w, http.StatusConflict, "Store does not support scenario loading", nil)
		return
	}

	ctx := r.Context()
	if err := store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "starter-roster":
		err = loadStarterRosterScenario(ctx, h)
	case "weekly-regulars":
		err = loadWeeklyRegularsScenario(ctx, h)
	case "overdue-balances":
		err = loadOverdueBalancesScenario(ctx, h)
	case "walker-payroll":
		err = loadWalkerPayrollScenario(ctx, h)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"loaded": req.ScenarioID})
}

// =============================================================================
// SEED HELPERS
// =============================================================================

func seedClientUser(ctx context.Context, s billing.Store, name, email, phone, address string) (billing.Client, error) {
	u, err := s.CreateUser(ctx, billing.User{
		Role: billing.RoleClient, Name: name, Email: email, Phone: phone,
		Active: true, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return billing.Client{}, err
	}
	return s.CreateClient(ctx, billing.Client{UserID: u.ID, Address: address})
}

func seedWalkerUser(ctx context.Context, s billing.Store, name, email string, r20, r30, r60, overnight string) (billing.Walker, error) {
	u, err := s.CreateUser(ctx, billing.User{
		Role: billing.RoleWalker, Name: name, Email: email,
		Active: true, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return billing.Walker{}, err
	}
	return s.CreateWalker(ctx, billing.Walker{
		UserID:        u.ID,
		Rate20Min:     decimal.RequireFromString(r20),
		Rate30Min:     decimal.RequireFromString(r30),
		Rate60Min:     decimal.RequireFromString(r60),
		RateOvernight: decimal.RequireFromString(overnight),
	})
}

func seedPet(ctx context.Context, s billing.Store, clientID int64, name, breed string, age int) (billing.Pet, error) {
	return s.CreatePet(ctx, billing.Pet{
		ClientID: clientID, Name: name, Breed: breed, Age: age, Active: true,
	})
}

// scheduleWalk creates one walk and returns its ID.
func scheduleWalk(ctx context.Context, h *Handler, nw billing.NewWalk) (int64, error) {
	walks, err := h.Engine.CreateWalk(ctx, nw)
	if err != nil {
		return 0, err
	}
	return walks[0].ID, nil
}

// completeWalk moves a walk to completed, applying balance and earnings.
func completeWalk(ctx context.Context, h *Handler, walkID int64) error {
	status := billing.StatusCompleted
	_, err := h.Engine.UpdateWalk(ctx, walkID, billing.WalkUpdate{Status: &status})
	return err
}

func dateOffset(days int) string {
	return billing.FormatWalkDate(time.Now().UTC().AddDate(0, 0, days))
}

// =============================================================================
// SCENARIO: STARTER ROSTER
// =============================================================================

func loadStarterRosterScenario(ctx context.Context, h *Handler) error {
	store := h.Engine.Store()

	alice, err := seedClientUser(ctx, store, "Alice Nguyen", "alice@example.com", "555-0101", "12 Birch Lane")
	if err != nil {
		return err
	}
	marco, err := seedClientUser(ctx, store, "Marco Silva", "marco@example.com", "555-0102", "48 Elm Street")
	if err != nil {
		return err
	}
	walker, err := seedWalkerUser(ctx, store, "Dana Brooks", "dana@example.com", "12", "16", "28", "85")
	if err != nil {
		return err
	}

	rex, err := seedPet(ctx, store, alice.ID, "Rex", "Labrador", 4)
	if err != nil {
		return err
	}
	luna, err := seedPet(ctx, store, marco.ID, "Luna", "Beagle", 2)
	if err != nil {
		return err
	}

	// A walk each weekday slot over the coming week.
	plans := []struct {
		client billing.Client
		pet    billing.Pet
		day    int
		slot   string
		mins   int
		amount string
	}{
		{alice, rex, 1, "morning", 30, "22.00"},
		{alice, rex, 3, "midday", 60, "38.00"},
		{marco, luna, 2, "afternoon", 20, "18.00"},
		{marco, luna, 4, "evening", 30, "22.00"},
	}
	for _, p := range plans {
		if _, err := scheduleWalk(ctx, h, billing.NewWalk{
			ClientID:      p.client.ID,
			WalkerID:      walker.ID,
			PetID:         p.pet.ID,
			Date:          dateOffset(p.day),
			Time:          p.slot,
			Duration:      p.mins,
			BillingAmount: decimal.RequireFromString(p.amount),
		}); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SCENARIO: WEEKLY REGULARS
// =============================================================================

func loadWeeklyRegularsScenario(ctx context.Context, h *Handler) error {
	store := h.Engine.Store()

	client, err := seedClientUser(ctx, store, "Priya Raman", "priya@example.com", "555-0110", "7 Harbor View")
	if err != nil {
		return err
	}
	walker, err := seedWalkerUser(ctx, store, "Dana Brooks", "dana@example.com", "12", "16", "28", "85")
	if err != nil {
		return err
	}
	pet, err := seedPet(ctx, store, client.ID, "Biscuit", "Corgi", 5)
	if err != nil {
		return err
	}

	// An eight-week standing order starting two weeks back.
	series, err := h.Engine.CreateWalk(ctx, billing.NewWalk{
		ClientID:      client.ID,
		WalkerID:      walker.ID,
		PetID:         pet.ID,
		Date:          dateOffset(-14),
		Time:          "morning",
		Duration:      30,
		BillingAmount: decimal.RequireFromString("22.00"),
		RepeatWeekly:  true,
		NumberOfWeeks: 8,
	})
	if err != nil {
		return err
	}

	// The first two occurrences already happened.
	for _, w := range series[:2] {
		if err := completeWalk(ctx, h, w.ID); err != nil {
			return err
		}
	}

	// The client covered the first walk.
	_, err = h.Engine.RecordClientPayment(ctx, client.ID,
		decimal.RequireFromString("22.00"), time.Now().UTC().AddDate(0, 0, -10), "venmo")
	return err
}

// =============================================================================
// SCENARIO: OVERDUE BALANCES
// =============================================================================

func loadOverdueBalancesScenario(ctx context.Context, h *Handler) error {
	store := h.Engine.Store()

	walker, err := seedWalkerUser(ctx, store, "Dana Brooks", "dana@example.com", "12", "16", "28", "85")
	if err != nil {
		return err
	}

	names := []struct{ name, email, petName string }{
		{"Alice Nguyen", "alice@example.com", "Rex"},
		{"Marco Silva", "marco@example.com", "Luna"},
		{"Priya Raman", "priya@example.com", "Biscuit"},
	}
	for i, n := range names {
		client, err := seedClientUser(ctx, store, n.name, n.email, "", "")
		if err != nil {
			return err
		}
		pet, err := seedPet(ctx, store, client.ID, n.petName, "", 3)
		if err != nil {
			return err
		}

		// Each client has unpaid walks drifting further into the past.
		// The most recent one is already completed so a balance shows;
		// the older ones stay scheduled until a reconcile run flags
		// them outstanding.
		for d := 1; d <= i+2; d++ {
			id, err := scheduleWalk(ctx, h, billing.NewWalk{
				ClientID:      client.ID,
				WalkerID:      walker.ID,
				PetID:         pet.ID,
				Date:          dateOffset(-d * 3),
				Time:          "midday",
				Duration:      30,
				BillingAmount: decimal.RequireFromString("22.00"),
			})
			if err != nil {
				return err
			}
			if d == 1 {
				if err := completeWalk(ctx, h, id); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// =============================================================================
// SCENARIO: WALKER PAYROLL
// =============================================================================

func loadWalkerPayrollScenario(ctx context.Context, h *Handler) error {
	store := h.Engine.Store()

	client, err := seedClientUser(ctx, store, "Alice Nguyen", "alice@example.com", "555-0101", "12 Birch Lane")
	if err != nil {
		return err
	}
	walker, err := seedWalkerUser(ctx, store, "Dana Brooks", "dana@example.com", "12", "16", "28", "85")
	if err != nil {
		return err
	}
	pet, err := seedPet(ctx, store, client.ID, "Rex", "Labrador", 4)
	if err != nil {
		return err
	}

	// One completed walk per rate tier, oldest first.
	walks := []struct {
		day    int
		mins   int
		amount string
	}{
		{-12, 20, "18.00"},
		{-9, 30, "22.00"},
		{-6, 60, "38.00"},
		{-3, billing.OvernightDuration, "110.00"},
	}
	for _, w := range walks {
		id, err := scheduleWalk(ctx, h, billing.NewWalk{
			ClientID:      client.ID,
			WalkerID:      walker.ID,
			PetID:         pet.ID,
			Date:          dateOffset(w.day),
			Time:          "morning",
			Duration:      w.mins,
			BillingAmount: decimal.RequireFromString(w.amount),
		})
		if err != nil {
			return err
		}
		if err := completeWalk(ctx, h, id); err != nil {
			return err
		}
	}

	// A payout that covers the first two earnings and part of the third.
	_, err = h.Engine.ProcessWalkerPayment(ctx, walker.ID,
		decimal.RequireFromString("40.00"), time.Now().UTC(), "check", "first payroll run")
	return err
}
