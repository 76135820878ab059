package fees_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/fee-engine/core"
	"github.com/warp/fee-engine/fees"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got),
		append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func assertTotals(t *testing.T, hours, cost string, got core.Totals, msgAndArgs ...any) {
	t.Helper()
	assertDecimal(t, hours, got.TotalHours, msgAndArgs...)
	assertDecimal(t, cost, got.TotalCost, msgAndArgs...)
}

func entry(partner, manager, executive, secretary float64) fees.FeeEntry {
	return fees.FeeEntry{
		PartnerHours:   core.NewHours(partner),
		ManagerHours:   core.NewHours(manager),
		ExecutiveHours: core.NewHours(executive),
		SecretaryHours: core.NewHours(secretary),
	}
}

func sampleActivities() []fees.Activity {
	return []fees.Activity{
		{ID: "sat-1", Category: fees.CategoryStatutory, Label: "Statutory filings"},
		{ID: "sat-2", Category: fees.CategoryStatutory, Label: "Case planning"},
		{ID: "real-1", Category: fees.CategoryRealisation, Label: "Sale of property"},
		{ID: "inv-1", Category: fees.CategoryInvestigations, Label: "SIP2 review"},
		{ID: "cred-1", Category: fees.CategoryCreditors, Label: "Adjudicate claims"},
		{ID: "emp-1", Category: fees.CategoryEmployees, Label: "Redundancy claims"},
		{ID: "trade-1", Category: fees.CategoryTrading, Label: "Trading on"},
	}
}

func sampleEntries() fees.FeeEntries {
	return fees.FeeEntries{
		"sat-1":   entry(2, 1, 0, 0),
		"sat-2":   entry(0, 0, 4, 1.5),
		"real-1":  entry(1.25, 3, 0, 0),
		"inv-1":   entry(0, 2, 6, 0),
		"cred-1":  entry(0, 0, 10, 2),
		"trade-1": entry(3, 3, 3, 0),
		// emp-1 deliberately absent
	}
}

func directory() fees.Directory {
	return fees.NewDirectory([]core.User{
		{Email: "pat@firm.co.uk", FullName: "Pat Partner", Role: "partner"},
		{Email: "ada@firm.co.uk", FullName: "Ada Admin", Role: "admin"},
		{Email: "max@firm.co.uk", FullName: "Max Manager", Role: "manager"},
		{Email: "sue@firm.co.uk", FullName: "Sue Secretary", Role: "secretary"},
		{Email: "eve@firm.co.uk", FullName: "Eve Executive", Role: "executive"},
	})
}

func approved(email, description string, seconds float64, date string) core.TimesheetEntry {
	return core.TimesheetEntry{
		CaseReference:   "CASE-001",
		UserEmail:       email,
		TaskDescription: description,
		DurationSeconds: seconds,
		Date:            date,
		Status:          core.StatusApproved,
	}
}
