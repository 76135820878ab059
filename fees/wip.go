package fees

import (
	"github.com/shopspring/decimal"
	"github.com/warp/fee-engine/core"
)

// =============================================================================
// WIP - Work in progress by grade and by team member
// =============================================================================

// UserWIP is one team member's accumulated time on the case.
type UserWIP struct {
	Email string
	Name  string
	Grade Grade
	Hours decimal.Decimal
	Cost  decimal.Decimal
}

type WIP struct {
	Range   core.DateRange
	ByGrade map[Grade]core.Totals
	ByUser  []UserWIP
	Total   core.Totals
}

// WIPByGrade partitions the case's eligible entries by grade only. All four
// grades are present.
func (e *Engine) WIPByGrade(caseRef string, entries []core.TimesheetEntry, rng core.DateRange, dir Directory) map[Grade]core.Totals {
	return e.BuildWIP(caseRef, entries, rng, dir).ByGrade
}

// WIPByUser lists one row per distinct author email, in order of first
// appearance.
func (e *Engine) WIPByUser(caseRef string, entries []core.TimesheetEntry, rng core.DateRange, dir Directory) []UserWIP {
	return e.BuildWIP(caseRef, entries, rng, dir).ByUser
}

// BuildWIP computes both breakdowns in one pass. Categorization plays no
// part here.
func (e *Engine) BuildWIP(caseRef string, entries []core.TimesheetEntry, rng core.DateRange, dir Directory) WIP {
	wip := WIP{
		Range:   rng,
		ByGrade: make(map[Grade]core.Totals, len(AllGrades())),
		Total:   core.ZeroTotals(),
	}
	for _, g := range AllGrades() {
		wip.ByGrade[g] = core.ZeroTotals()
	}

	index := make(map[string]int)
	for _, te := range eligibleEntries(caseRef, entries, rng) {
		member := dir.Resolve(te.UserEmail)
		cost := core.ZeroTotals().AddHours(entryHours(te.DurationSeconds), e.Rates.Rate(member.Grade))

		wip.ByGrade[member.Grade] = wip.ByGrade[member.Grade].Add(cost)
		wip.Total = wip.Total.Add(cost)

		key := normalizeEmail(te.UserEmail)
		i, seen := index[key]
		if !seen {
			i = len(wip.ByUser)
			index[key] = i
			wip.ByUser = append(wip.ByUser, UserWIP{
				Email: member.Email,
				Name:  member.Name,
				Grade: member.Grade,
				Hours: decimal.Zero,
				Cost:  decimal.Zero,
			})
		}
		wip.ByUser[i].Hours = wip.ByUser[i].Hours.Add(cost.TotalHours)
		wip.ByUser[i].Cost = wip.ByUser[i].Cost.Add(cost.TotalCost)
	}
	return wip
}

// TotalWIP is the sum of cost across grades.
func TotalWIP(byGrade map[Grade]core.Totals) decimal.Decimal {
	total := decimal.Zero
	for _, g := range AllGrades() {
		total = total.Add(byGrade[g].TotalCost)
	}
	return total
}
