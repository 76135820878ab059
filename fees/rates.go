package fees

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// GRADE - Billing grade used for costing
// =============================================================================

type Grade string

const (
	GradePartner   Grade = "Partner"
	GradeManager   Grade = "Manager"
	GradeExecutive Grade = "Executive"
	GradeSecretary Grade = "Secretary"
)

func AllGrades() []Grade {
	return []Grade{GradePartner, GradeManager, GradeExecutive, GradeSecretary}
}

// =============================================================================
// ROLE GROUP - Coarser partition used only by the time ledger
// =============================================================================

type RoleGroup string

const (
	GroupDirectors      RoleGroup = "IP Directors"
	GroupManagers       RoleGroup = "Managers"
	GroupAdministrators RoleGroup = "Administrators"
)

func AllRoleGroups() []RoleGroup {
	return []RoleGroup{GroupDirectors, GroupManagers, GroupAdministrators}
}

// GradeForRole maps a directory role to the grade it is costed at.
// Unknown or empty roles cost as Executive.
func GradeForRole(role string) Grade {
	switch normalizeRole(role) {
	case "admin", "partner":
		return GradePartner
	case "manager":
		return GradeManager
	case "secretary":
		return GradeSecretary
	default:
		return GradeExecutive
	}
}

// RoleGroupForRole maps a directory role to its ledger column. A secretary
// buckets as Administrators while still costing at the Secretary rate.
func RoleGroupForRole(role string) RoleGroup {
	switch normalizeRole(role) {
	case "admin", "partner":
		return GroupDirectors
	case "manager":
		return GroupManagers
	default:
		return GroupAdministrators
	}
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// =============================================================================
// RATE TABLE
// =============================================================================

// RateTable is the hourly rate per grade in the reporting currency's major
// unit. It is configuration, injected into the Engine.
type RateTable struct {
	Partner   decimal.Decimal
	Manager   decimal.Decimal
	Executive decimal.Decimal
	Secretary decimal.Decimal
}

// DefaultRates is the reference deployment's rate card.
func DefaultRates() RateTable {
	return RateTable{
		Partner:   decimal.NewFromInt(700),
		Manager:   decimal.NewFromInt(500),
		Executive: decimal.NewFromInt(250),
		Secretary: decimal.NewFromInt(70),
	}
}

func (rt RateTable) Rate(g Grade) decimal.Decimal {
	switch g {
	case GradePartner:
		return rt.Partner
	case GradeManager:
		return rt.Manager
	case GradeExecutive:
		return rt.Executive
	case GradeSecretary:
		return rt.Secretary
	default:
		return decimal.Zero
	}
}

// Validate rejects negative rates.
func (rt RateTable) Validate() error {
	for _, g := range AllGrades() {
		if rt.Rate(g).IsNegative() {
			return fmt.Errorf("rate for %s is negative: %s", g, rt.Rate(g))
		}
	}
	return nil
}
