/*
Package core provides the domain-agnostic primitives of the fee engine.

PURPOSE:
  This package holds the value types every aggregator shares: hour and
  money quantities, derived totals, calendar dates and ranges, and the
  records read from (and written to) the external case record store.
  The fees package builds the insolvency-specific rules on top of it.

KEY CONCEPTS IN THIS FILE (types.go):
  - Hours: A tolerant hour quantity (bad input collapses to zero)
  - Totals: Hours + cost pair, always derived and never stored

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal so sums agree at every level
  2. Tolerance: In-progress user input never fails a computation
  3. Derivation: Totals are recomputed on demand from inputs

SEE ALSO:
  - time.go: Date and DateRange (inclusive filtering)
  - store.go: Record types and record-store interfaces
  - errors.go: Sentinel errors
*/
package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS - Tolerant hour quantity
// =============================================================================

// Hours is a non-negative number of hours. It parses permissively: empty
// strings, null, malformed numbers and negative values all read as zero.
type Hours struct {
	d decimal.Decimal
}

// NewHours converts a float; NaN and infinities read as zero.
func NewHours(v float64) Hours {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Hours{}
	}
	return HoursFromDecimal(decimal.NewFromFloat(v))
}

func HoursFromDecimal(d decimal.Decimal) Hours {
	if d.IsNegative() {
		return Hours{}
	}
	return Hours{d}
}

// ParseHours never fails; anything unparsable becomes zero.
func ParseHours(s string) Hours {
	s = strings.TrimSpace(s)
	if s == "" {
		return Hours{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Hours{}
	}
	return HoursFromDecimal(d)
}

func (h Hours) Decimal() decimal.Decimal { return h.d }
func (h Hours) IsZero() bool             { return h.d.IsZero() }
func (h Hours) String() string           { return h.d.String() }

// MarshalJSON writes hours as a bare JSON number.
func (h Hours) MarshalJSON() ([]byte, error) {
	return []byte(h.d.String()), nil
}

// UnmarshalJSON accepts numbers, numeric strings, empty strings and null.
func (h *Hours) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*h = Hours{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*h = Hours{}
			return nil
		}
		*h = ParseHours(s)
		return nil
	}
	*h = ParseHours(string(b))
	return nil
}

// =============================================================================
// TOTALS - Derived hours/cost pair
// =============================================================================

// Totals is the hours and cost accumulated for one aggregation cell.
type Totals struct {
	TotalHours decimal.Decimal
	TotalCost  decimal.Decimal
}

func ZeroTotals() Totals { return Totals{TotalHours: decimal.Zero, TotalCost: decimal.Zero} }

func (t Totals) Add(o Totals) Totals {
	return Totals{TotalHours: t.TotalHours.Add(o.TotalHours), TotalCost: t.TotalCost.Add(o.TotalCost)}
}

// AddHours accumulates hours costed at rate.
func (t Totals) AddHours(hours, rate decimal.Decimal) Totals {
	return Totals{TotalHours: t.TotalHours.Add(hours), TotalCost: t.TotalCost.Add(hours.Mul(rate))}
}

func (t Totals) IsZero() bool { return t.TotalHours.IsZero() && t.TotalCost.IsZero() }

func (t Totals) Equal(o Totals) bool {
	return t.TotalHours.Equal(o.TotalHours) && t.TotalCost.Equal(o.TotalCost)
}

// AverageRate returns cost per hour, or zero when no hours were recorded.
func (t Totals) AverageRate() decimal.Decimal {
	if t.TotalHours.IsZero() {
		return decimal.Zero
	}
	return t.TotalCost.Div(t.TotalHours)
}
