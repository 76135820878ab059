package fees

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/fee-engine/core"
)

// =============================================================================
// ENGINE - Injected configuration for every aggregator
// =============================================================================

// Engine holds the rate table, the categorizer and a logger. Its methods
// are pure with respect to their arguments: no I/O, no hidden state, and
// the same inputs always give identical output.
type Engine struct {
	Rates RateTable

	// Categorize defaults to the package Categorize. Swappable so a future
	// taxonomy change can be exercised without touching the aggregators.
	Categorize func(description string) Category

	Log zerolog.Logger
}

func NewEngine(rates RateTable, log zerolog.Logger) *Engine {
	return &Engine{Rates: rates, Categorize: Categorize, Log: log}
}

// DefaultEngine uses the reference rate card and a silent logger.
func DefaultEngine() *Engine {
	return NewEngine(DefaultRates(), zerolog.Nop())
}

func (e *Engine) categorize(description string) Category {
	if e.Categorize == nil {
		return Categorize(description)
	}
	return e.Categorize(description)
}

// eligibleEntries applies the shared ledger/WIP filter: approved, for this
// case, and within the (inclusive) date range.
func eligibleEntries(caseRef string, entries []core.TimesheetEntry, rng core.DateRange) []core.TimesheetEntry {
	var out []core.TimesheetEntry
	for _, te := range entries {
		if !te.Status.IsApproved() {
			continue
		}
		if te.CaseReference != caseRef {
			continue
		}
		if !rng.Includes(te.Date) {
			continue
		}
		out = append(out, te)
	}
	return out
}

// entryHours converts a duration in seconds to hours. Negative durations
// read as zero.
func entryHours(seconds float64) decimal.Decimal {
	return core.NewHours(seconds).Decimal().Div(secondsPerHour)
}

var secondsPerHour = decimal.NewFromInt(3600)
