package fees_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/fee-engine/core"
	"github.com/warp/fee-engine/fees"
)

// =============================================================================
// CATEGORIZER TESTS
// =============================================================================

func TestCategorize_KeywordGroups(t *testing.T) {
	tests := []struct {
		description string
		want        fees.Category
	}{
		{"Statutory filing at Companies House", fees.CategoryStatutory},
		{"Team MEETING", fees.CategoryStatutory},
		{"Progress reporting", fees.CategoryStatutory},
		{"Valuing fixed assets", fees.CategoryRealisation},
		{"Negotiate sale of business", fees.CategoryRealisation},
		{"Retention of title claim review", fees.CategoryRealisation},
		{"Review financial records", fees.CategoryInvestigations},
		{"CDDA return", fees.CategoryInvestigations},
		{"Pension scheme notices", fees.CategoryInvestigations},
		{"Creditor claims review", fees.CategoryCreditors},
		{"Secured lender update", fees.CategoryCreditors},
		{"Redundancy payments office", fees.CategoryEmployees},
		{"Unpaid wages", fees.CategoryEmployees},
		{"Trading on the business", fees.CategoryTrading},
		{"Trade debtor collection", fees.CategoryTrading},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, fees.Categorize(tt.description))
		})
	}
}

func TestCategorize_FirstGroupWins(t *testing.T) {
	// GIVEN: A description matching both the statutory and realisation groups
	// WHEN: Categorizing
	// THEN: The earlier (statutory) group wins
	assert.Equal(t, fees.CategoryStatutory, fees.Categorize("Correspondence re asset sale"))

	// Realisation beats creditors, employees and trading
	assert.Equal(t, fees.CategoryRealisation, fees.Categorize("Property sale to secured creditor"))

	// Investigations beats creditors
	assert.Equal(t, fees.CategoryInvestigations, fees.Categorize("Director loan account claims"))
}

func TestCategorize_DefaultsToStatutory(t *testing.T) {
	for _, s := range []string{"", "   ", "Phone call", "??", "Überprüfung"} {
		assert.Equal(t, fees.CategoryStatutory, fees.Categorize(s), "input %q", s)
	}
}

func TestCategorize_TotalAndDeterministic(t *testing.T) {
	// Property: every input maps to a known category, and the same one twice.
	inputs := []string{"", "x", "SALE", "sip", "\x00\xff", "staff party", "tradesman"}
	for i := 0; i < 200; i++ {
		inputs = append(inputs, fmt.Sprintf("task %d %c%c", i, rune('a'+i%26), rune('A'+(i*7)%26)))
	}

	for _, s := range inputs {
		first := fees.Categorize(s)
		assert.True(t, first.Valid(), "input %q gave %q", s, first)
		assert.Equal(t, first, fees.Categorize(s), "input %q", s)
	}
}

// =============================================================================
// TAXONOMY TESTS
// =============================================================================

func TestTaxonomy_DisplayNamesAgreeAcrossViews(t *testing.T) {
	// GIVEN: The estimate summary, the ledger and the SIP9 report
	// THEN: Every view names a category exactly as Category.DisplayName does
	engine := fees.DefaultEngine()
	activities := sampleActivities()
	entries := sampleEntries()

	summary := engine.Summarize(activities, entries)
	for _, line := range summary.Categories {
		assert.Equal(t, line.Category.DisplayName(), line.Name)
	}

	report := engine.BuildReport(activities, entries, fees.CaseTypeAdministration)
	for _, row := range report.Categories {
		assert.Equal(t, row.Category.DisplayName(), row.Name)
	}

	ledger := engine.BuildLedger("CASE-001", nil, core.DateRange{}, directory())
	for _, c := range fees.AllCategories() {
		_, ok := ledger.Cells[c]
		assert.True(t, ok, "ledger missing %s", c)
	}

	for _, v := range engine.Reconcile(activities, entries, ledger, fees.CaseTypeAdministration) {
		assert.Equal(t, v.Category.DisplayName(), v.Name)
	}
}

func TestTaxonomy_CategoryLists(t *testing.T) {
	assert.Len(t, fees.AllCategories(), 6)
	assert.NotContains(t, fees.EstimateCategories(), fees.CategoryTrading)
	assert.Equal(t, []fees.Category{
		fees.CategoryStatutory,
		fees.CategoryRealisation,
		fees.CategoryTrading,
		fees.CategoryInvestigations,
		fees.CategoryCreditors,
		fees.CategoryEmployees,
	}, fees.ReportCategories())

	c, ok := fees.ParseCategory(" Creditors ")
	assert.True(t, ok)
	assert.Equal(t, fees.CategoryCreditors, c)

	_, ok = fees.ParseCategory("marketing")
	assert.False(t, ok)
}

// =============================================================================
// ROLE MAPPING TESTS
// =============================================================================

func TestRoleMapping_TwoPartitions(t *testing.T) {
	tests := []struct {
		role  string
		grade fees.Grade
		group fees.RoleGroup
	}{
		{"admin", fees.GradePartner, fees.GroupDirectors},
		{"Partner", fees.GradePartner, fees.GroupDirectors},
		{"manager", fees.GradeManager, fees.GroupManagers},
		{"secretary", fees.GradeSecretary, fees.GroupAdministrators},
		{"executive", fees.GradeExecutive, fees.GroupAdministrators},
		{"", fees.GradeExecutive, fees.GroupAdministrators},
		{"intern", fees.GradeExecutive, fees.GroupAdministrators},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.grade, fees.GradeForRole(tt.role))
			assert.Equal(t, tt.group, fees.RoleGroupForRole(tt.role))
		})
	}
}

func TestDirectory_Resolve(t *testing.T) {
	dir := directory()

	m := dir.Resolve("MAX@firm.co.uk")
	assert.Equal(t, "Max Manager", m.Name)
	assert.Equal(t, fees.GradeManager, m.Grade)

	unknown := dir.Resolve("ghost@elsewhere.com")
	assert.Equal(t, "ghost@elsewhere.com", unknown.Name)
	assert.Equal(t, fees.GradeExecutive, unknown.Grade)
	assert.Equal(t, fees.GroupAdministrators, unknown.Group)
}

func TestRateTable_Validate(t *testing.T) {
	assert.NoError(t, fees.DefaultRates().Validate())

	bad := fees.DefaultRates()
	bad.Manager = bad.Manager.Neg()
	assert.Error(t, bad.Validate())
}
