/*
estimate.go - Fee-estimate aggregation

PURPOSE:
  Turns a sparse map of manually entered hours-by-grade into totals at
  three levels: task, category and case.

INVARIANT:
  grand.TotalHours == sum(category.TotalHours) == sum(task.TotalHours)
  and identically for cost, for every input. Equality is exact (decimal).

TOLERANCE:
  A missing entry, or any grade left empty or malformed, counts as zero
  hours. Nothing here returns an error.

EXAMPLE:
  activity {id: "sat-1", category: statutory}
  entry    {partner_hours: 2, manager_hours: 1}
  TaskTotals -> 3 hours, 2*700 + 1*500 = 1900
*/
package fees

import "github.com/warp/fee-engine/core"

// =============================================================================
// INPUTS
// =============================================================================

// Activity is one billable work item from a template.
type Activity struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Label    string   `json:"label"`
}

// FeeEntry holds the hours estimated per grade for one activity.
type FeeEntry struct {
	PartnerHours   core.Hours `json:"partner_hours"`
	ManagerHours   core.Hours `json:"manager_hours"`
	ExecutiveHours core.Hours `json:"executive_hours"`
	SecretaryHours core.Hours `json:"secretary_hours"`
	Notes          string     `json:"notes"`
}

func (fe FeeEntry) Hours(g Grade) core.Hours {
	switch g {
	case GradePartner:
		return fe.PartnerHours
	case GradeManager:
		return fe.ManagerHours
	case GradeExecutive:
		return fe.ExecutiveHours
	case GradeSecretary:
		return fe.SecretaryHours
	default:
		return core.Hours{}
	}
}

// WithHours returns a copy with the grade's hours replaced.
func (fe FeeEntry) WithHours(g Grade, h core.Hours) FeeEntry {
	switch g {
	case GradePartner:
		fe.PartnerHours = h
	case GradeManager:
		fe.ManagerHours = h
	case GradeExecutive:
		fe.ExecutiveHours = h
	case GradeSecretary:
		fe.SecretaryHours = h
	}
	return fe
}

// FeeEntries is keyed by activity id. Absent keys mean zero hours.
type FeeEntries map[string]FeeEntry

// Clone copies the map so working state and snapshots never alias.
func (fe FeeEntries) Clone() FeeEntries {
	out := make(FeeEntries, len(fe))
	for k, v := range fe {
		out[k] = v
	}
	return out
}

// =============================================================================
// AGGREGATION
// =============================================================================

// TaskTotals costs one activity's entry at the engine's rates.
func (e *Engine) TaskTotals(activity Activity, entries FeeEntries) core.Totals {
	entry := entries[activity.ID]
	t := core.ZeroTotals()
	for _, g := range AllGrades() {
		t = t.AddHours(entry.Hours(g).Decimal(), e.Rates.Rate(g))
	}
	return t
}

// CategoryTotals sums TaskTotals over the activities in category.
func (e *Engine) CategoryTotals(category Category, activities []Activity, entries FeeEntries) core.Totals {
	t := core.ZeroTotals()
	for _, a := range activities {
		if a.Category != category {
			continue
		}
		t = t.Add(e.TaskTotals(a, entries))
	}
	return t
}

// GrandTotals sums CategoryTotals over EstimateCategories (no trading).
func (e *Engine) GrandTotals(activities []Activity, entries FeeEntries) core.Totals {
	t := core.ZeroTotals()
	for _, c := range EstimateCategories() {
		t = t.Add(e.CategoryTotals(c, activities, entries))
	}
	return t
}

// =============================================================================
// ESTIMATE SUMMARY - All three levels at once, for rendering
// =============================================================================

type TaskLine struct {
	Activity Activity
	Entry    FeeEntry
	Totals   core.Totals
}

type CategoryLine struct {
	Category Category
	Name     string
	Tasks    []TaskLine
	Totals   core.Totals
}

type Estimate struct {
	Categories []CategoryLine
	Grand      core.Totals

	// Trading is laid out the same way but stays out of Grand. Nil when
	// the template carries no trading activities.
	Trading *CategoryLine
}

// Summarize lays the estimate out by EstimateCategories, preserving the
// template's activity order inside each category.
func (e *Engine) Summarize(activities []Activity, entries FeeEntries) Estimate {
	est := Estimate{Grand: core.ZeroTotals()}
	for _, c := range EstimateCategories() {
		line := e.categoryLine(c, activities, entries)
		est.Categories = append(est.Categories, line)
		est.Grand = est.Grand.Add(line.Totals)
	}
	if trading := e.categoryLine(CategoryTrading, activities, entries); len(trading.Tasks) > 0 {
		est.Trading = &trading
	}
	return est
}

func (e *Engine) categoryLine(c Category, activities []Activity, entries FeeEntries) CategoryLine {
	line := CategoryLine{Category: c, Name: c.DisplayName(), Totals: core.ZeroTotals()}
	for _, a := range activities {
		if a.Category != c {
			continue
		}
		tt := e.TaskTotals(a, entries)
		line.Tasks = append(line.Tasks, TaskLine{Activity: a, Entry: entries[a.ID], Totals: tt})
		line.Totals = line.Totals.Add(tt)
	}
	return line
}
