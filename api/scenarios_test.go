/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario correctly sets up the expected state:
	- Users and templates are created
	- The case carries a decodable fee estimate
	- Only approved timesheet entries reach the ledger
	- Totals match hand-computed values at the default rate card

These tests ensure scenarios work correctly and can be used as integration tests.
*/
package api

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fee-engine/core"
	"github.com/warp/fee-engine/factory"
	"github.com/warp/fee-engine/fees"
	"github.com/warp/fee-engine/store/sqlite"
)

func setupTestHandler(t *testing.T) *Handler {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store, fees.DefaultEngine(), zerolog.Nop())
	t.Cleanup(func() { h.CloseSessions(context.Background()) })
	return h
}

func assertAmount(t *testing.T, expected float64, actual interface{ InexactFloat64() float64 }, msgAndArgs ...any) {
	t.Helper()
	assert.InDelta(t, expected, actual.InexactFloat64(), 0.001, msgAndArgs...)
}

func TestScenario_Administration(t *testing.T) {
	// GIVEN: The administration scenario
	// WHEN: Loading it
	// THEN: Templates, case, and approved timesheets line up with the engine

	h := setupTestHandler(t)
	ctx := context.Background()
	require.NoError(t, h.loadAdministrationScenario(ctx))

	users, err := h.Store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, len(demoUsers))

	templates, err := h.Store.ListActivityTemplates(ctx)
	require.NoError(t, err)
	activities := factory.ActivitiesFromTemplates(templates)
	assert.Len(t, activities, len(standardActivities)+len(tradingActivities),
		"both the array and the string-encoded template decode")

	c, err := h.Store.GetCase(ctx, "case-adm-001")
	require.NoError(t, err)
	assert.Equal(t, fees.CaseTypeAdministration, c.CaseType)

	saved, entries := factory.DecodeFeeEstimate(c.FeeEstimateData)
	require.Len(t, saved, 8)

	engine := h.Engine
	grand := engine.GrandTotals(saved, entries)
	assertAmount(t, 153, grand.TotalHours)
	assertAmount(t, 51870, grand.TotalCost)

	report := engine.BuildReport(saved, entries, c.CaseType)
	_, hasTrading := report.Row(fees.CategoryTrading)
	assert.True(t, hasTrading, "administrations report trading")
	assertAmount(t, 75390, report.GrandTotalCost)

	ts, err := h.Store.FilterTimesheetEntries(ctx, core.TimesheetFilter{CaseReference: c.Reference})
	require.NoError(t, err)
	assert.Len(t, ts, 11)

	ledger := engine.BuildLedger(c.Reference, ts, core.DateRange{}, fees.NewDirectory(users))
	assertAmount(t, 25.5, ledger.Total.TotalHours)
	assertAmount(t, 9395, ledger.Total.TotalCost)
	assertAmount(t, 1750, ledger.Cell(fees.CategoryTrading, fees.GroupManagers).TotalCost)
	assertAmount(t, 6.5, ledger.Cell(fees.CategoryRealisation, fees.GroupAdministrators).TotalHours)
	assert.Empty(t, ledger.Dropped)
}

func TestScenario_CVL(t *testing.T) {
	// GIVEN: The CVL scenario with an unknown author and an undated entry
	// WHEN: Building the ledger and WIP with and without a date range
	// THEN: The undated entry counts only when unbounded; the unknown author costs as Executive

	h := setupTestHandler(t)
	ctx := context.Background()
	require.NoError(t, h.loadCVLScenario(ctx))

	c, err := h.Store.GetCase(ctx, "case-cvl-001")
	require.NoError(t, err)

	saved, entries := factory.DecodeFeeEstimate(c.FeeEstimateData)
	report := h.Engine.BuildReport(saved, entries, c.CaseType)
	_, hasTrading := report.Row(fees.CategoryTrading)
	assert.False(t, hasTrading, "trading is reported for administrations only")
	assertAmount(t, 77, report.GrandTotalHours)
	assertAmount(t, 27290, report.GrandTotalCost)

	ts, err := h.Store.FilterTimesheetEntries(ctx, core.TimesheetFilter{
		CaseReference: c.Reference,
		Status:        core.StatusApproved,
	})
	require.NoError(t, err)
	users, err := h.Store.ListUsers(ctx)
	require.NoError(t, err)
	dir := fees.NewDirectory(users)

	all := h.Engine.BuildLedger(c.Reference, ts, core.DateRange{}, dir)
	assertAmount(t, 15.5, all.Total.TotalHours)
	assertAmount(t, 5505, all.Total.TotalCost)

	may := core.ParseDateRange("2026-05-11", "2026-05-31")
	bounded := h.Engine.BuildLedger(c.Reference, ts, may, dir)
	assertAmount(t, 14, bounded.Total.TotalHours)
	assertAmount(t, 5400, bounded.Total.TotalCost)

	wip := h.Engine.BuildWIP(c.Reference, ts, core.DateRange{}, dir)
	require.Len(t, wip.ByUser, 5)
	var contractor fees.UserWIP
	for _, u := range wip.ByUser {
		if u.Email == "contractor@agency.example" {
			contractor = u
		}
	}
	assert.Equal(t, "contractor@agency.example", contractor.Name)
	assert.Equal(t, fees.GradeExecutive, contractor.Grade)
	assertAmount(t, 1250, contractor.Cost)
}

func TestScenario_AllScenariosLoadWithoutError(t *testing.T) {
	// GIVEN: Every listed scenario
	// WHEN: Loading each one after a reset
	// THEN: None fails

	loaders := map[string]func(*Handler, context.Context) error{
		"administration": (*Handler).loadAdministrationScenario,
		"cvl":            (*Handler).loadCVLScenario,
	}

	for _, s := range scenarios {
		t.Run(s.ID, func(t *testing.T) {
			h := setupTestHandler(t)
			load, ok := loaders[s.ID]
			require.True(t, ok, "no loader for %s", s.ID)
			require.NoError(t, load(h, context.Background()))

			cases, err := h.Store.ListCases(context.Background())
			require.NoError(t, err)
			require.Len(t, cases, 1)
			assert.Equal(t, s.CaseType, cases[0].CaseType)
		})
	}
}
