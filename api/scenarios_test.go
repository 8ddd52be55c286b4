/*
scenarios_test.go - Tests for the demo scenario loaders

Each scenario is loaded through the API and the resulting state is read
back through the API, so these double as integration tests for the
seeded data paths.
*/
package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawsteps/walkops/api"
	"github.com/pawsteps/walkops/billing"
)

func loadScenario(t *testing.T, router http.Handler, id string) {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/scenarios/load", map[string]any{
		"scenario_id": id,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestListScenarios_ReturnsCatalog(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]api.ScenarioDTO](t, rec)
	require.Len(t, list, 4)
	assert.Equal(t, "starter-roster", list[0].ID)
}

func TestLoadScenario_UnknownRejected(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/scenarios/load", map[string]any{
		"scenario_id": "time-travel",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoadScenario_ResetsPreviousData(t *testing.T) {
	// GIVEN: data from one scenario
	// WHEN: loading another
	// THEN: only the new scenario's data remains

	router := newTestRouter(t)
	loadScenario(t, router, "starter-roster")
	loadScenario(t, router, "weekly-regulars")

	rec := do(t, router, http.MethodGet, "/api/clients", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	clients := decode[[]api.ClientDTO](t, rec)
	require.Len(t, clients, 1)
	assert.Equal(t, "Priya Raman", clients[0].UserName)
}

func TestStarterRosterScenario(t *testing.T) {
	router := newTestRouter(t)
	loadScenario(t, router, "starter-roster")

	rec := do(t, router, http.MethodGet, "/api/clients", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	clients := decode[[]api.ClientDTO](t, rec)
	assert.Len(t, clients, 2)

	rec = do(t, router, http.MethodGet, "/api/walks?status=scheduled", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	walks := decode[[]api.WalkDTO](t, rec)
	assert.Len(t, walks, 4)

	// Nothing has been billed yet.
	for _, c := range clients {
		assert.True(t, c.Balance.IsZero(), "client %d balance = %s", c.ID, c.Balance)
	}
}

func TestWeeklyRegularsScenario(t *testing.T) {
	router := newTestRouter(t)
	loadScenario(t, router, "weekly-regulars")

	rec := do(t, router, http.MethodGet, "/api/walks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	walks := decode[[]api.WalkDTO](t, rec)
	require.Len(t, walks, 8)
	for _, w := range walks {
		assert.Equal(t, walks[0].RecurringGroupID, w.RecurringGroupID)
	}

	// Two completed at 22.00 each, one payment of 22.00 recorded.
	rec = do(t, router, http.MethodGet, "/api/clients/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	client := decode[api.ClientDTO](t, rec)
	assert.Equal(t, "22", client.Balance.String())
	assert.Len(t, client.Payments, 1)
}

func TestOverdueBalancesScenario_ReconcileFlagsOutstanding(t *testing.T) {
	router := newTestRouter(t)
	loadScenario(t, router, "overdue-balances")

	// Every client's most recent walk is completed and unpaid.
	rec := do(t, router, http.MethodGet, "/api/clients/balances", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	clients := decode[[]api.ClientDTO](t, rec)
	require.Len(t, clients, 3)
	for _, c := range clients {
		assert.Equal(t, "22", c.Balance.String(), c.UserName)
	}

	// A reconcile run flags all nine past unpaid walks.
	rec = do(t, router, http.MethodPost, "/api/admin/reconcile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[billing.SweepSummary](t, rec)
	assert.Equal(t, 9, summary.Outstanding)

	rec = do(t, router, http.MethodGet, "/api/walks?status=outstanding", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	walks := decode[[]api.WalkDTO](t, rec)
	assert.Len(t, walks, 9)
}

func TestWalkerPayrollScenario(t *testing.T) {
	router := newTestRouter(t)
	loadScenario(t, router, "walker-payroll")

	// Earnings: 12 + 16 + 28 + 85 across the four tiers.
	rec := do(t, router, http.MethodGet, "/api/walkers/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	walker := decode[api.WalkerDTO](t, rec)
	assert.Equal(t, "141", walker.TotalEarnings.String())

	// The 40.00 payout settles the 12 and 16 earnings and part of the
	// 28; partially covered earnings count as paid, so only the
	// overnight one is left.
	rec = do(t, router, http.MethodGet, "/api/walkers/1/earnings/unpaid", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	unpaid := decode[[]api.WalkerEarningDTO](t, rec)
	require.Len(t, unpaid, 1)
	assert.Equal(t, "85", unpaid[0].Amount.String())

	assert.Equal(t, "85", walker.UnpaidEarnings.String())
}
