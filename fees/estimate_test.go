package fees_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fee-engine/core"
	"github.com/warp/fee-engine/fees"
)

// =============================================================================
// TASK TOTALS
// =============================================================================

func TestTaskTotals_PartnerAndManagerHours(t *testing.T) {
	// GIVEN: sat-1 with 2 partner hours and 1 manager hour
	// WHEN: Computing task totals at the reference rates
	// THEN: 3 hours costing 2*700 + 1*500 = 1900
	engine := fees.DefaultEngine()
	activity := fees.Activity{ID: "sat-1", Category: fees.CategoryStatutory}
	entries := fees.FeeEntries{"sat-1": entry(2, 1, 0, 0)}

	assertTotals(t, "3", "1900", engine.TaskTotals(activity, entries))
}

func TestTaskTotals_AbsentEntryIsZero(t *testing.T) {
	engine := fees.DefaultEngine()
	activity := fees.Activity{ID: "missing", Category: fees.CategoryStatutory}

	got := engine.TaskTotals(activity, fees.FeeEntries{})
	assertTotals(t, "0", "0", got)

	got = engine.TaskTotals(activity, nil)
	assertTotals(t, "0", "0", got)
}

func TestTaskTotals_MalformedHoursReadAsZero(t *testing.T) {
	// GIVEN: Stored hours as empty strings, null, garbage and numeric strings
	raw := `{
		"partner_hours": "",
		"manager_hours": null,
		"executive_hours": "abc",
		"secretary_hours": "1.5"
	}`
	var fe fees.FeeEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &fe))

	// THEN: Only the valid secretary hours count
	engine := fees.DefaultEngine()
	got := engine.TaskTotals(fees.Activity{ID: "a"}, fees.FeeEntries{"a": fe})
	assertTotals(t, "1.5", "105", got)
}

func TestTaskTotals_InjectedRates(t *testing.T) {
	// Rates are configuration; a custom table changes cost but not hours.
	rates := fees.RateTable{
		Partner:   decimal.NewFromInt(400),
		Manager:   decimal.NewFromInt(300),
		Executive: decimal.NewFromInt(150),
		Secretary: decimal.NewFromInt(50),
	}
	engine := fees.NewEngine(rates, fees.DefaultEngine().Log)
	activity := fees.Activity{ID: "sat-1", Category: fees.CategoryStatutory}
	entries := fees.FeeEntries{"sat-1": entry(1, 1, 1, 1)}

	assertTotals(t, "4", "900", engine.TaskTotals(activity, entries))
}

// =============================================================================
// CATEGORY + GRAND TOTALS
// =============================================================================

func TestCategoryTotals_SumsActivitiesInCategory(t *testing.T) {
	engine := fees.DefaultEngine()

	// sat-1: 3h / 1900, sat-2: 5.5h / 4*250 + 1.5*70 = 1105
	got := engine.CategoryTotals(fees.CategoryStatutory, sampleActivities(), sampleEntries())
	assertTotals(t, "8.5", "3005", got)

	got = engine.CategoryTotals(fees.CategoryEmployees, sampleActivities(), sampleEntries())
	assertTotals(t, "0", "0", got)
}

func TestGrandTotals_ExcludesTrading(t *testing.T) {
	engine := fees.DefaultEngine()
	activities := sampleActivities()
	entries := sampleEntries()

	grand := engine.GrandTotals(activities, entries)
	trading := engine.CategoryTotals(fees.CategoryTrading, activities, entries)
	require.False(t, trading.IsZero())

	sum := core.ZeroTotals()
	for _, c := range fees.AllCategories() {
		sum = sum.Add(engine.CategoryTotals(c, activities, entries))
	}
	assert.True(t, sum.Equal(grand.Add(trading)))
}

func TestTotals_ConsistentAcrossLevels(t *testing.T) {
	// Property: grand == sum(category) == sum(task) for hours and cost.
	engine := fees.DefaultEngine()
	cases := map[string]struct {
		activities []fees.Activity
		entries    fees.FeeEntries
	}{
		"sample":  {sampleActivities(), sampleEntries()},
		"empty":   {nil, nil},
		"sparse":  {sampleActivities(), fees.FeeEntries{"inv-1": entry(0.1, 0.2, 0.3, 0.4)}},
		"orphans": {sampleActivities()[:2], fees.FeeEntries{"nobody": entry(9, 9, 9, 9), "sat-2": entry(1, 0, 0, 0)}},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var estimateActivities []fees.Activity
			for _, a := range tc.activities {
				if a.Category != fees.CategoryTrading {
					estimateActivities = append(estimateActivities, a)
				}
			}

			grand := engine.GrandTotals(tc.activities, tc.entries)

			byCategory := core.ZeroTotals()
			for _, c := range fees.EstimateCategories() {
				byCategory = byCategory.Add(engine.CategoryTotals(c, tc.activities, tc.entries))
			}

			byTask := core.ZeroTotals()
			for _, a := range estimateActivities {
				byTask = byTask.Add(engine.TaskTotals(a, tc.entries))
			}

			assert.True(t, grand.Equal(byCategory), "grand %v vs categories %v", grand, byCategory)
			assert.True(t, grand.Equal(byTask), "grand %v vs tasks %v", grand, byTask)

			summary := engine.Summarize(tc.activities, tc.entries)
			assert.True(t, grand.Equal(summary.Grand))
		})
	}
}

func TestAggregation_DoesNotMutateEntries(t *testing.T) {
	engine := fees.DefaultEngine()
	entries := sampleEntries()
	before := entries.Clone()

	engine.GrandTotals(sampleActivities(), entries)
	engine.Summarize(sampleActivities(), entries)
	engine.BuildReport(sampleActivities(), entries, fees.CaseTypeAdministration)

	assert.Equal(t, before, entries)
	_, created := entries["emp-1"]
	assert.False(t, created, "absent key must stay absent")
}

func TestSummarize_Idempotent(t *testing.T) {
	engine := fees.DefaultEngine()
	first := engine.Summarize(sampleActivities(), sampleEntries())
	second := engine.Summarize(sampleActivities(), sampleEntries())
	assert.Equal(t, first, second)
}

func TestSummarize_TradingSectionOutsideGrand(t *testing.T) {
	engine := fees.DefaultEngine()

	summary := engine.Summarize(sampleActivities(), sampleEntries())

	require.NotNil(t, summary.Trading)
	assert.Equal(t, fees.CategoryTrading, summary.Trading.Category)
	require.Len(t, summary.Trading.Tasks, 1)
	assert.Equal(t, "trade-1", summary.Trading.Tasks[0].Activity.ID)
	assertTotals(t, "9", "4350", summary.Trading.Totals)
	assert.True(t, summary.Grand.Equal(engine.GrandTotals(sampleActivities(), sampleEntries())))

	// No trading activities in the template: no section.
	assert.Nil(t, engine.Summarize(sampleActivities()[:6], sampleEntries()).Trading)
}

// =============================================================================
// HOURS PARSING
// =============================================================================

func TestParseHours(t *testing.T) {
	tests := map[string]string{
		"":      "0",
		"  ":    "0",
		"2":     "2",
		" 1.25": "1.25",
		"-3":    "0",
		"1,5":   "0",
		"NaN":   "0",
		"7e1":   "70",
	}
	for in, want := range tests {
		assertDecimal(t, want, core.ParseHours(in).Decimal(), "input %q", in)
	}
}
