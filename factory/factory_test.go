package factory_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fee-engine/core"
	"github.com/warp/fee-engine/factory"
	"github.com/warp/fee-engine/fees"
)

// =============================================================================
// TEMPLATE DATA
// =============================================================================

func TestParseTemplateData_ArrayAndString(t *testing.T) {
	array := json.RawMessage(`[{"id":"sat-1","category":"statutory","label":"Filings"},{"id":"cred-1","category":"Creditors","label":"Claims"}]`)
	encoded, err := json.Marshal(string(array))
	require.NoError(t, err)

	fromArray := factory.ParseTemplateData(array)
	fromString := factory.ParseTemplateData(encoded)

	require.Len(t, fromArray, 2)
	assert.Equal(t, fromArray, fromString)
	assert.Equal(t, fees.CategoryCreditors, fromArray[1].Category)
}

func TestParseTemplateData_Malformed(t *testing.T) {
	tests := map[string]string{
		"empty":         ``,
		"null":          `null`,
		"empty string":  `""`,
		"garbage":       `{not json`,
		"object":        `{"id":"x"}`,
		"string object": `"{\"id\":\"x\"}"`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, factory.ParseTemplateData(json.RawMessage(raw)))
		})
	}
}

func TestParseTemplateData_SkipsActivitiesWithoutID(t *testing.T) {
	raw := json.RawMessage(`[{"id":"","category":"statutory"},{"id":"a","category":"realisation"}]`)
	got := factory.ParseTemplateData(raw)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestActivitiesFromTemplates_FirstIDWins(t *testing.T) {
	templates := []core.Template{
		{ID: "t1", TemplateData: json.RawMessage(`[{"id":"a","category":"statutory","label":"First"}]`)},
		{ID: "t2", TemplateData: json.RawMessage(`"[{\"id\":\"a\",\"category\":\"creditors\",\"label\":\"Second\"},{\"id\":\"b\",\"category\":\"employees\"}]"`)},
	}

	got := factory.ActivitiesFromTemplates(templates)
	require.Len(t, got, 2)
	assert.Equal(t, "First", got[0].Label)
	assert.Equal(t, fees.CategoryEmployees, got[1].Category)
}

// =============================================================================
// FEE ESTIMATE DATA
// =============================================================================

func TestFeeEstimate_EncodeDecode(t *testing.T) {
	activities := []fees.Activity{
		{ID: "sat-1", Category: fees.CategoryStatutory, Label: "Filings"},
		{ID: "emp-1", Category: fees.CategoryEmployees, Label: "RPO"},
	}
	entries := fees.FeeEntries{
		"sat-1": {PartnerHours: core.NewHours(2), ManagerHours: core.NewHours(1), Notes: "initial"},
	}

	data, err := factory.EncodeFeeEstimate(activities, entries)
	require.NoError(t, err)
	assert.Contains(t, data, `"partner_hours":2`)
	assert.Contains(t, data, `"id":"emp-1"`)

	gotActivities, gotEntries := factory.DecodeFeeEstimate(data)
	assert.Equal(t, activities, gotActivities)
	assert.Equal(t, "initial", gotEntries["sat-1"].Notes)

	engine := fees.DefaultEngine()
	assert.True(t, engine.GrandTotals(activities, entries).Equal(engine.GrandTotals(gotActivities, gotEntries)))
}

func TestDecodeFeeEstimate_TolerantHours(t *testing.T) {
	data := `[{"id":"a","category":"statutory","partner_hours":"3","manager_hours":"","executive_hours":null,"secretary_hours":"x"}]`

	_, entries := factory.DecodeFeeEstimate(data)

	e := entries["a"]
	assert.True(t, e.PartnerHours.Decimal().Equal(decimal.NewFromInt(3)))
	assert.True(t, e.ManagerHours.IsZero())
	assert.True(t, e.ExecutiveHours.IsZero())
	assert.True(t, e.SecretaryHours.IsZero())
}

func TestDecodeFeeEstimate_Malformed(t *testing.T) {
	for _, data := range []string{"", "[", "{}", `"nope"`} {
		activities, entries := factory.DecodeFeeEstimate(data)
		assert.Empty(t, activities, "data %q", data)
		assert.Empty(t, entries, "data %q", data)
	}
}

func TestMergeEstimate(t *testing.T) {
	template := []fees.Activity{
		{ID: "a", Category: fees.CategoryStatutory, Label: "A (new label)"},
		{ID: "b", Category: fees.CategoryCreditors, Label: "B"},
	}
	saved := []fees.Activity{
		{ID: "a", Category: fees.CategoryStatutory, Label: "A"},
		{ID: "legacy", Category: fees.CategoryEmployees, Label: "Old"},
	}
	entries := fees.FeeEntries{"a": {PartnerHours: core.NewHours(1)}}

	activities, merged := factory.MergeEstimate(template, saved, entries)

	require.Len(t, activities, 3)
	assert.Equal(t, "A (new label)", activities[0].Label)
	assert.Equal(t, "legacy", activities[2].ID)

	merged["a"] = fees.FeeEntry{}
	assert.False(t, entries["a"].PartnerHours.IsZero(), "merge must copy entries")
}
