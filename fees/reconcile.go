package fees

import (
	"github.com/shopspring/decimal"
	"github.com/warp/fee-engine/core"
)

// =============================================================================
// ESTIMATE VS ACTUAL
// =============================================================================

// Variance compares one category's estimate with the time actually booked.
// Positive CostVariance means actual cost is over estimate.
type Variance struct {
	Category      Category
	Name          string
	Estimated     core.Totals
	Actual        core.Totals
	HoursVariance decimal.Decimal
	CostVariance  decimal.Decimal
}

// Reconcile lines up estimate and ledger per category. Both sides key on
// the same Category values, so their display names always match. Trading
// is included only where the SIP9 report would include it.
func (e *Engine) Reconcile(activities []Activity, entries FeeEntries, ledger Ledger, caseType string) []Variance {
	var out []Variance
	for _, c := range ReportCategories() {
		if !IncludesCategory(c, caseType) {
			continue
		}
		est := e.CategoryTotals(c, activities, entries)
		act, ok := ledger.CategoryTotals[c]
		if !ok {
			act = core.ZeroTotals()
		}
		out = append(out, Variance{
			Category:      c,
			Name:          c.DisplayName(),
			Estimated:     est,
			Actual:        act,
			HoursVariance: act.TotalHours.Sub(est.TotalHours),
			CostVariance:  act.TotalCost.Sub(est.TotalCost),
		})
	}
	return out
}
