/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates users, activity
	templates, a case with a saved fee estimate, and timesheet entries.

AVAILABLE SCENARIOS:

	administration: Administration case; trading shows in SIP9 and ledger
	cvl:            Creditors' voluntary liquidation; trading excluded from SIP9

HOW SCENARIOS WORK:
 1. Close open sessions and reset the database
 2. Create the firm's users (partner, manager, administrators, secretary)
 3. Create activity templates (one stored as an array, one as a JSON string)
 4. Create the case with a pre-filled fee estimate
 5. Add timesheet entries, including pending and rejected ones that the
    ledger must ignore

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "administration"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase
  - factory/feedata.go: fee_estimate_data encoding
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/fee-engine/core"
	"github.com/warp/fee-engine/factory"
	"github.com/warp/fee-engine/fees"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "administration",
		Name:        "Administration",
		Description: "Trading company in administration: estimate, approved time across all six categories",
		CaseType:    fees.CaseTypeAdministration,
	},
	{
		ID:          "cvl",
		Name:        "Creditors' Voluntary Liquidation",
		Description: "CVL with unknown timesheet authors and undated entries",
		CaseType:    "CVL",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var load func(context.Context) error
	switch normalizeID(req.ScenarioID) {
	case "administration":
		load = h.loadAdministrationScenario
	case "cvl":
		load = h.loadCVLScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	ctx := r.Context()
	if err := h.CloseSessions(ctx); err != nil {
		h.Log.Warn().Err(err).Msg("Closing sessions before scenario load")
	}
	if err := h.Store.Reset(ctx); err != nil {
		writeDomainError(w, "Failed to reset database", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	if err := load(ctx); err != nil {
		writeDomainError(w, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	id := normalizeID(req.ScenarioID)
	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()

	h.Log.Info().Str("scenario", id).Msg("Scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": id})
}

// =============================================================================
// SHARED FIXTURES
// =============================================================================

var demoUsers = []core.User{
	{Email: "helen.ward@wardlaw.co.uk", FullName: "Helen Ward", Role: "Partner"},
	{Email: "tom.reed@wardlaw.co.uk", FullName: "Tom Reed", Role: "Manager"},
	{Email: "priya.shah@wardlaw.co.uk", FullName: "Priya Shah", Role: "Administrator"},
	{Email: "josh.lee@wardlaw.co.uk", FullName: "Josh Lee", Role: "Executive"},
	{Email: "ann.cole@wardlaw.co.uk", FullName: "Ann Cole", Role: "Secretary"},
}

// Standard template, stored as an array.
var standardActivities = []factory.ActivityJSON{
	{ID: "stat-appointment", Category: "statutory", Label: "Appointment formalities and notices"},
	{ID: "stat-reporting", Category: "statutory", Label: "Statutory reporting and filings"},
	{ID: "stat-closure", Category: "statutory", Label: "Case closure"},
	{ID: "real-property", Category: "realisation", Label: "Sale of property"},
	{ID: "real-debtors", Category: "realisation", Label: "Collection of book debts"},
	{ID: "inv-cdda", Category: "investigations", Label: "CDDA report on directors' conduct"},
	{ID: "inv-antecedent", Category: "investigations", Label: "Antecedent transactions review"},
	{ID: "cred-claims", Category: "creditors", Label: "Agreeing creditor claims"},
	{ID: "cred-dividend", Category: "creditors", Label: "Dividend distribution"},
	{ID: "emp-rps", Category: "employees", Label: "RPS claims and employee queries"},
}

// Trading template, stored as a JSON-encoded string.
var tradingActivities = []factory.ActivityJSON{
	{ID: "trade-ops", Category: "trading", Label: "Continued trading operations"},
	{ID: "trade-payroll", Category: "trading", Label: "Trading payroll"},
}

func (h *Handler) seedUsersAndTemplates(ctx context.Context) error {
	for _, u := range demoUsers {
		if err := h.Store.SaveUser(ctx, u); err != nil {
			return err
		}
	}

	standard, err := json.Marshal(standardActivities)
	if err != nil {
		return err
	}
	if _, err := h.Store.SaveTemplate(ctx, core.Template{
		ID: "tpl-standard", Name: "Standard insolvency", TemplateData: standard,
	}); err != nil {
		return err
	}

	trading, err := json.Marshal(tradingActivities)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(string(trading))
	if err != nil {
		return err
	}
	_, err = h.Store.SaveTemplate(ctx, core.Template{
		ID: "tpl-trading", Name: "Trading", TemplateData: encoded,
	})
	return err
}

// timesheet is a compact fixture row.
type timesheet struct {
	email  string
	task   string
	hours  float64
	day    int
	status core.TimesheetStatus
}

func (h *Handler) seedTimesheets(ctx context.Context, caseRef string, start time.Time, rows []timesheet) error {
	for i, row := range rows {
		date := ""
		if row.day >= 0 {
			date = start.AddDate(0, 0, row.day).Format(core.DateLayout)
		}
		if _, err := h.Store.SaveTimesheetEntry(ctx, core.TimesheetEntry{
			ID:              fmt.Sprintf("%s-ts-%03d", caseRef, i+1),
			CaseReference:   caseRef,
			UserEmail:       row.email,
			TaskDescription: row.task,
			DurationSeconds: row.hours * 3600,
			Date:            date,
			Status:          row.status,
		}); err != nil {
			return err
		}
	}
	return nil
}

func estimateData(hours map[string][4]float64, notes map[string]string) (string, error) {
	var activities []fees.Activity
	entries := fees.FeeEntries{}
	all := append(append([]factory.ActivityJSON(nil), standardActivities...), tradingActivities...)
	for _, a := range all {
		hrs, ok := hours[a.ID]
		if !ok {
			continue
		}
		category, _ := fees.ParseCategory(a.Category)
		activities = append(activities, fees.Activity{ID: a.ID, Category: category, Label: a.Label})
		entries[a.ID] = fees.FeeEntry{
			PartnerHours:   core.NewHours(hrs[0]),
			ManagerHours:   core.NewHours(hrs[1]),
			ExecutiveHours: core.NewHours(hrs[2]),
			SecretaryHours: core.NewHours(hrs[3]),
			Notes:          notes[a.ID],
		}
	}
	return factory.EncodeFeeEstimate(activities, entries)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadAdministrationScenario(ctx context.Context) error {
	if err := h.seedUsersAndTemplates(ctx); err != nil {
		return err
	}

	// partner, manager, executive, secretary
	data, err := estimateData(map[string][4]float64{
		"stat-appointment": {2, 4, 6, 2},
		"stat-reporting":   {3, 8, 12, 4},
		"real-property":    {6, 10, 8, 0},
		"real-debtors":     {1, 5, 15, 2},
		"inv-cdda":         {2, 6, 10, 0},
		"cred-claims":      {1, 4, 20, 5},
		"emp-rps":          {0, 2, 12, 3},
		"trade-ops":        {8, 20, 30, 6},
	}, map[string]string{
		"trade-ops": "Six weeks of trading to complete orders book",
	})
	if err != nil {
		return err
	}

	c, err := h.Store.SaveCase(ctx, core.Case{
		ID:              "case-adm-001",
		Reference:       "ADM-2026-001",
		Name:            "Harbour Foods Ltd",
		CaseType:        fees.CaseTypeAdministration,
		FeeEstimateData: data,
	})
	if err != nil {
		return err
	}

	start := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	return h.seedTimesheets(ctx, c.Reference, start, []timesheet{
		{"helen.ward@wardlaw.co.uk", "Appointment notice filed at Companies House", 1.5, 0, core.StatusApproved},
		{"tom.reed@wardlaw.co.uk", "Statement of affairs review", 3, 1, core.StatusApproved},
		{"priya.shah@wardlaw.co.uk", "Marketing of property with agents", 4, 3, core.StatusApproved},
		{"priya.shah@wardlaw.co.uk", "Book debt realisation calls", 2.5, 5, core.StatusApproved},
		{"josh.lee@wardlaw.co.uk", "Trading payroll run", 6, 7, core.StatusApproved},
		{"tom.reed@wardlaw.co.uk", "Supplier orders for continued trading", 3.5, 8, core.StatusApproved},
		{"helen.ward@wardlaw.co.uk", "Investigation into director loan account", 2, 12, core.StatusApproved},
		{"ann.cole@wardlaw.co.uk", "Creditor claim forms logged", 1, 14, core.StatusApproved},
		{"josh.lee@wardlaw.co.uk", "Employee RPS queries", 2, 15, core.StatusApproved},
		{"priya.shah@wardlaw.co.uk", "Draft SIP16 disclosure", 1.25, 20, core.StatusPending},
		{"josh.lee@wardlaw.co.uk", "Sale of stock", 3, 21, core.StatusRejected},
	})
}

func (h *Handler) loadCVLScenario(ctx context.Context) error {
	if err := h.seedUsersAndTemplates(ctx); err != nil {
		return err
	}

	data, err := estimateData(map[string][4]float64{
		"stat-appointment": {3, 5, 8, 2},
		"stat-closure":     {1, 2, 4, 1},
		"real-debtors":     {0, 3, 10, 0},
		"inv-antecedent":   {4, 8, 6, 0},
		"cred-dividend":    {1, 3, 12, 4},
		"trade-ops":        {2, 2, 2, 0},
	}, nil)
	if err != nil {
		return err
	}

	c, err := h.Store.SaveCase(ctx, core.Case{
		ID:              "case-cvl-001",
		Reference:       "CVL-2026-014",
		Name:            "Northgate Joinery Ltd",
		CaseType:        "CVL",
		FeeEstimateData: data,
	})
	if err != nil {
		return err
	}

	start := time.Date(2026, time.May, 11, 0, 0, 0, 0, time.UTC)
	return h.seedTimesheets(ctx, c.Reference, start, []timesheet{
		{"helen.ward@wardlaw.co.uk", "Section 100 decision procedure", 2, 0, core.StatusApproved},
		{"priya.shah@wardlaw.co.uk", "Book debt realisation", 3, 4, core.StatusApproved},
		{"tom.reed@wardlaw.co.uk", "Investigation of preference payments", 4, 9, core.StatusApproved},
		// Author not in the user directory: rated as an executive administrator.
		{"contractor@agency.example", "Asset valuation site visit", 5, 10, core.StatusApproved},
		// Undated: counted only when no date range is applied.
		{"ann.cole@wardlaw.co.uk", "Dividend calculation schedule", 1.5, -1, core.StatusApproved},
		{"josh.lee@wardlaw.co.uk", "Creditor correspondence", 2, 18, core.StatusDraft},
	})
}
