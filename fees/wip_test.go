package fees_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fee-engine/core"
	"github.com/warp/fee-engine/fees"
)

func TestBuildWIP_ByGradeAndUser(t *testing.T) {
	engine := fees.DefaultEngine()
	entries := []core.TimesheetEntry{
		approved("pat@firm.co.uk", "Statutory reporting", 3600, "2025-03-01"),
		approved("max@firm.co.uk", "Creditor claims", 1800, "2025-03-02"),
		approved("PAT@firm.co.uk", "Asset sale", 7200, "2025-03-03"),
		approved("ghost@else.com", "Trading", 3600, "2025-03-04"),
		approved("sue@firm.co.uk", "Filing", 3600, "2025-03-05"),
	}

	wip := engine.BuildWIP("CASE-001", entries, core.DateRange{}, directory())

	require.Len(t, wip.ByGrade, 4)
	assertTotals(t, "3", "2100", wip.ByGrade[fees.GradePartner])
	assertTotals(t, "0.5", "250", wip.ByGrade[fees.GradeManager])
	assertTotals(t, "1", "250", wip.ByGrade[fees.GradeExecutive])
	assertTotals(t, "1", "70", wip.ByGrade[fees.GradeSecretary])

	// One row per distinct email, first-appearance order
	require.Len(t, wip.ByUser, 4)
	assert.Equal(t, "Pat Partner", wip.ByUser[0].Name)
	assertDecimal(t, "3", wip.ByUser[0].Hours)
	assertDecimal(t, "2100", wip.ByUser[0].Cost)
	assert.Equal(t, "Max Manager", wip.ByUser[1].Name)
	assert.Equal(t, "ghost@else.com", wip.ByUser[2].Name)
	assert.Equal(t, fees.GradeExecutive, wip.ByUser[2].Grade)
	assert.Equal(t, fees.GradeSecretary, wip.ByUser[3].Grade)

	assertDecimal(t, "2670", fees.TotalWIP(wip.ByGrade))
	assertTotals(t, "5.5", "2670", wip.Total)
}

func TestBuildWIP_SameFilterAsLedger(t *testing.T) {
	engine := fees.DefaultEngine()
	rng := core.DateRange{
		From: core.NewDate(2025, time.March, 1),
		To:   core.NewDate(2025, time.March, 1),
	}
	pending := approved("pat@firm.co.uk", "Creditor claims", 3600, "2025-03-01")
	pending.Status = core.StatusPending
	entries := []core.TimesheetEntry{
		approved("pat@firm.co.uk", "Creditor claims", 3600, "2025-03-01"),
		approved("pat@firm.co.uk", "Creditor claims", 3600, "2025-03-02"),
		pending,
	}

	wip := engine.BuildWIP("CASE-001", entries, rng, directory())
	ledger := engine.BuildLedger("CASE-001", entries, rng, directory())

	assertTotals(t, "1", "700", wip.Total)
	assert.True(t, wip.Total.Equal(ledger.Total))
	assert.Equal(t, wip.ByGrade, engine.WIPByGrade("CASE-001", entries, rng, directory()))
	assert.Equal(t, wip.ByUser, engine.WIPByUser("CASE-001", entries, rng, directory()))
}

func TestBuildWIP_Empty(t *testing.T) {
	wip := fees.DefaultEngine().BuildWIP("CASE-001", nil, core.DateRange{}, fees.Directory{})

	assert.Len(t, wip.ByGrade, 4)
	assert.Empty(t, wip.ByUser)
	assertDecimal(t, "0", fees.TotalWIP(wip.ByGrade))
}
