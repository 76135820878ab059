/*
Package fees implements fee estimation and time-cost aggregation for
insolvency cases.

PURPOSE:
  Classifies free-text work descriptions into the six-category SIP9
  taxonomy, costs hours by billing grade, and derives every report the
  case screens need: the fee estimate, the time ledger, the WIP breakdown
  and the blended-rate (SIP9) report.

SINGLE SOURCE OF TRUTH:
  The category list, display names, keyword groups and the default rate
  table are declared once, in this package. Every aggregator reads them
  from here so the estimate and the ledger always agree on names.

KEY CONCEPTS IN THIS FILE (taxonomy.go):
  - Category: Closed enum of six work buckets
  - Categorize: Ordered keyword match, first group wins, default statutory

SEE ALSO:
  - rates.go: Grades, role groups, rate table
  - engine.go: Engine carrying injected configuration
  - estimate.go / ledger.go / wip.go / sip9.go: The aggregators
*/
package fees

import "strings"

// =============================================================================
// CATEGORY - Closed taxonomy
// =============================================================================

type Category string

const (
	CategoryStatutory      Category = "statutory"
	CategoryRealisation    Category = "realisation"
	CategoryInvestigations Category = "investigations"
	CategoryCreditors      Category = "creditors"
	CategoryEmployees      Category = "employees"
	CategoryTrading        Category = "trading"
)

// CaseTypeAdministration is the only case type whose SIP9 report carries
// a Trading row.
const CaseTypeAdministration = "Administration"

var displayNames = map[Category]string{
	CategoryStatutory:      "Administration & Planning",
	CategoryRealisation:    "Realisation of Assets",
	CategoryInvestigations: "Investigations",
	CategoryCreditors:      "Creditors",
	CategoryEmployees:      "Employees",
	CategoryTrading:        "Trading",
}

// AllCategories lists the taxonomy in ledger order.
func AllCategories() []Category {
	return []Category{
		CategoryStatutory,
		CategoryRealisation,
		CategoryInvestigations,
		CategoryCreditors,
		CategoryEmployees,
		CategoryTrading,
	}
}

// EstimateCategories are the categories the fee-estimate grand total spans.
// Trading belongs to the blended-rate report only.
func EstimateCategories() []Category {
	return []Category{
		CategoryStatutory,
		CategoryRealisation,
		CategoryInvestigations,
		CategoryCreditors,
		CategoryEmployees,
	}
}

// ReportCategories is the SIP9 row order.
func ReportCategories() []Category {
	return []Category{
		CategoryStatutory,
		CategoryRealisation,
		CategoryTrading,
		CategoryInvestigations,
		CategoryCreditors,
		CategoryEmployees,
	}
}

func (c Category) Valid() bool {
	_, ok := displayNames[c]
	return ok
}

// DisplayName is shared by the estimate table, the ledger and the report.
func (c Category) DisplayName() string {
	if name, ok := displayNames[c]; ok {
		return name
	}
	return string(c)
}

// ParseCategory normalises a stored category id. Unknown ids are returned
// as-is with ok=false.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

// =============================================================================
// CATEGORIZER
// =============================================================================

type keywordGroup struct {
	category Category
	keywords []string
}

// Checked in order; the first group with a matching keyword wins.
var keywordGroups = []keywordGroup{
	{CategoryStatutory, []string{"admin", "planning", "meeting", "correspondence", "statutory", "filing", "reporting"}},
	{CategoryRealisation, []string{"asset", "realisation", "sale", "property", "retention of title"}},
	{CategoryInvestigations, []string{"investigation", "sip", "director", "pension", "financial records", "cdda"}},
	{CategoryCreditors, []string{"creditor", "claims", "proof", "adjudication", "secured"}},
	{CategoryEmployees, []string{"employee", "redundancy", "wages", "staff"}},
	{CategoryTrading, []string{"trading", "trade"}},
}

// Categorize maps a task description to a category. It is total: text
// matching no group is statutory work.
func Categorize(description string) Category {
	desc := strings.ToLower(description)
	for _, g := range keywordGroups {
		for _, kw := range g.keywords {
			if strings.Contains(desc, kw) {
				return g.category
			}
		}
	}
	return CategoryStatutory
}
