/*
ledger.go - Time ledger from approved timesheet entries

PURPOSE:
  Builds the "actual time" view of a case: approved timesheet entries in
  a date range, categorized by description and bucketed by role group,
  with hours costed at the author's grade rate.

TWO PARTITIONS PER ENTRY:
  Grade (costing) and RoleGroup (ledger column) are resolved separately
  from the same directory role. A secretary costs at the Secretary rate
  but sits in the Administrators column.

COMPLETENESS:
  Every category and every role group is present in Cells, zero or not,
  so renderers never need nil checks.

DROPPED ENTRIES:
  An entry categorized outside the taxonomy is excluded from every
  category-keyed total, logged at warn level and listed in Dropped.
  With the built-in categorizer this cannot happen.

SEE ALSO:
  - taxonomy.go: Categorize
  - directory.go: Grade and RoleGroup resolution
  - wip.go: Same filter, partitioned by grade and by user instead
*/
package fees

import (
	"github.com/warp/fee-engine/core"
)

// =============================================================================
// LEDGER
// =============================================================================

// DroppedEntry records an entry left out of the ledger and why.
type DroppedEntry struct {
	Entry    core.TimesheetEntry
	Category Category
	Reason   error
}

type Ledger struct {
	Range core.DateRange
	Cells map[Category]map[RoleGroup]core.Totals

	// Derived margins, consistent with Cells.
	CategoryTotals map[Category]core.Totals
	GroupTotals    map[RoleGroup]core.Totals
	Total          core.Totals

	Dropped []DroppedEntry
}

func newLedger(rng core.DateRange) Ledger {
	l := Ledger{
		Range:          rng,
		Cells:          make(map[Category]map[RoleGroup]core.Totals, len(AllCategories())),
		CategoryTotals: make(map[Category]core.Totals, len(AllCategories())),
		GroupTotals:    make(map[RoleGroup]core.Totals, len(AllRoleGroups())),
		Total:          core.ZeroTotals(),
	}
	for _, c := range AllCategories() {
		row := make(map[RoleGroup]core.Totals, len(AllRoleGroups()))
		for _, g := range AllRoleGroups() {
			row[g] = core.ZeroTotals()
		}
		l.Cells[c] = row
		l.CategoryTotals[c] = core.ZeroTotals()
	}
	for _, g := range AllRoleGroups() {
		l.GroupTotals[g] = core.ZeroTotals()
	}
	return l
}

// Cell returns the totals for one category/role-group pair.
func (l Ledger) Cell(c Category, g RoleGroup) core.Totals {
	return l.Cells[c][g]
}

// BuildLedger aggregates the case's approved entries within rng.
func (e *Engine) BuildLedger(caseRef string, entries []core.TimesheetEntry, rng core.DateRange, dir Directory) Ledger {
	ledger := newLedger(rng)

	for _, te := range eligibleEntries(caseRef, entries, rng) {
		category := e.categorize(te.TaskDescription)
		row, ok := ledger.Cells[category]
		if !ok {
			e.Log.Warn().
				Str("case_reference", te.CaseReference).
				Str("entry_id", te.ID).
				Str("task_description", te.TaskDescription).
				Str("category", string(category)).
				Msg("Timesheet entry dropped from ledger: unknown category")
			ledger.Dropped = append(ledger.Dropped, DroppedEntry{
				Entry:    te,
				Category: category,
				Reason:   core.ErrUnknownCategory,
			})
			continue
		}

		member := dir.Resolve(te.UserEmail)
		cost := core.ZeroTotals().AddHours(entryHours(te.DurationSeconds), e.Rates.Rate(member.Grade))

		row[member.Group] = row[member.Group].Add(cost)
		ledger.CategoryTotals[category] = ledger.CategoryTotals[category].Add(cost)
		ledger.GroupTotals[member.Group] = ledger.GroupTotals[member.Group].Add(cost)
		ledger.Total = ledger.Total.Add(cost)
	}

	return ledger
}
