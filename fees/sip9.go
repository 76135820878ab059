package fees

import (
	"github.com/shopspring/decimal"
	"github.com/warp/fee-engine/core"
)

// =============================================================================
// SIP9 BLENDED-RATE REPORT
// =============================================================================

type ReportRow struct {
	Category          Category
	Name              string
	TotalHours        decimal.Decimal
	TotalCost         decimal.Decimal
	AverageHourlyCost decimal.Decimal
}

type Report struct {
	CaseType        string
	Categories      []ReportRow
	GrandTotalHours decimal.Decimal
	GrandTotalCost  decimal.Decimal
}

// IncludesCategory reports whether a SIP9 report for caseType carries a
// row for c. Trading appears for Administrations only.
func IncludesCategory(c Category, caseType string) bool {
	return c != CategoryTrading || caseType == CaseTypeAdministration
}

// BuildReport re-projects fee-estimate category totals as the blended-rate
// report. Grand totals cover the included rows only.
func (e *Engine) BuildReport(activities []Activity, entries FeeEntries, caseType string) Report {
	report := Report{
		CaseType:        caseType,
		GrandTotalHours: decimal.Zero,
		GrandTotalCost:  decimal.Zero,
	}
	for _, c := range ReportCategories() {
		if !IncludesCategory(c, caseType) {
			continue
		}
		t := e.CategoryTotals(c, activities, entries)
		report.Categories = append(report.Categories, reportRow(c, t))
		report.GrandTotalHours = report.GrandTotalHours.Add(t.TotalHours)
		report.GrandTotalCost = report.GrandTotalCost.Add(t.TotalCost)
	}
	return report
}

func reportRow(c Category, t core.Totals) ReportRow {
	return ReportRow{
		Category:          c,
		Name:              c.DisplayName(),
		TotalHours:        t.TotalHours,
		TotalCost:         t.TotalCost,
		AverageHourlyCost: t.AverageRate(),
	}
}

// Row finds the row for c, if the report includes one.
func (r Report) Row(c Category) (ReportRow, bool) {
	for _, row := range r.Categories {
		if row.Category == c {
			return row, true
		}
	}
	return ReportRow{}, false
}

// GrandAverageHourlyCost is the blended rate across included rows.
func (r Report) GrandAverageHourlyCost() decimal.Decimal {
	return core.Totals{TotalHours: r.GrandTotalHours, TotalCost: r.GrandTotalCost}.AverageRate()
}
