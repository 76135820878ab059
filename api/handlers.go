/*
handlers.go - HTTP API handlers for the fee engine

PURPOSE:
  Exposes fee estimation, time-cost aggregation and SIP9 reporting via
  REST API. Handles HTTP request/response, JSON serialization, and
  delegates to the fees engine. Fee estimate edits go through a
  per-case session workspace that debounces writes to the store.

ENDPOINTS:
  Taxonomy:
    GET    /api/categories                       Fee categories in ledger order
    GET    /api/rates                            Hourly rate per grade
    POST   /api/categorize                       Categorize a task description

  Cases:
    GET    /api/cases                            List cases
    GET    /api/cases/{id}/fee-estimate          Estimate with live totals
    PUT    /api/cases/{id}/fee-estimate/{aid}    Edit one activity (debounced save)
    POST   /api/cases/{id}/fee-estimate/flush    Save now
    GET    /api/cases/{id}/ledger?from=&to=      Category x role group ledger
    GET    /api/cases/{id}/wip?from=&to=         WIP by grade and by user
    GET    /api/cases/{id}/sip9                  SIP9 report from the estimate
    GET    /api/cases/{id}/reconciliation        Estimate vs actual per category

  Scenarios:
    GET    /api/scenarios                        List demo scenarios
    POST   /api/scenarios/load                   Load a demo scenario
    POST   /api/scenarios/reset                  Clear all data

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Record store (cases, templates, timesheets, users)
  - Engine: Pure aggregation over store records
  - sessions: One open workspace per case, created on first access

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Case not found
  - 502: Record store unavailable (edits are kept, retry with flush)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - sessions.go: Idle workspace reaper
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/warp/fee-engine/core"
	"github.com/warp/fee-engine/factory"
	"github.com/warp/fee-engine/fees"
	"github.com/warp/fee-engine/session"
	"github.com/warp/fee-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Engine    *fees.Engine
	Log       zerolog.Logger
	SaveDelay time.Duration

	mu       sync.Mutex
	sessions map[string]*openSession

	// Track currently loaded scenario
	currentScenario string
}

type openSession struct {
	ws       *session.Workspace
	caseType string
	touched  time.Time
}

// NewHandler creates a new handler with the given store and engine.
func NewHandler(store *sqlite.Store, engine *fees.Engine, log zerolog.Logger) *Handler {
	return &Handler{
		Store:     store,
		Engine:    engine,
		Log:       log,
		SaveDelay: session.DefaultDelay,
		sessions:  make(map[string]*openSession),
	}
}

// workspace returns the open session for a case, loading it from the
// store on first access.
func (h *Handler) workspace(ctx context.Context, caseID string) (*openSession, error) {
	h.mu.Lock()
	if s, ok := h.sessions[caseID]; ok {
		s.touched = time.Now()
		h.mu.Unlock()
		return s, nil
	}
	h.mu.Unlock()

	c, err := h.Store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	templates, err := h.Store.ListActivityTemplates(ctx)
	if err != nil {
		return nil, err
	}

	saved, entries := factory.DecodeFeeEstimate(c.FeeEstimateData)
	activities, entries := factory.MergeEstimate(factory.ActivitiesFromTemplates(templates), saved, entries)

	log := h.Log.With().Str("case_id", c.ID).Logger()
	ws := session.New(c.ID, h.Store, activities, entries, session.Options{
		Delay:  h.SaveDelay,
		Logger: log,
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[caseID]; ok {
		// Lost a race with another request; keep theirs.
		_ = ws.Close(ctx)
		s.touched = time.Now()
		return s, nil
	}
	s := &openSession{ws: ws, caseType: c.CaseType, touched: time.Now()}
	h.sessions[caseID] = s
	log.Debug().Int("activities", len(activities)).Msg("Fee estimate session opened")
	return s, nil
}

// CloseSessions closes every open workspace. Pending saves are cancelled,
// in-flight saves are waited for up to ctx's deadline.
func (h *Handler) CloseSessions(ctx context.Context) error {
	h.mu.Lock()
	open := h.sessions
	h.sessions = make(map[string]*openSession)
	h.mu.Unlock()

	var errs []error
	for _, s := range open {
		if err := s.ws.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// caseActuals loads what the ledger and WIP views need for one case.
func (h *Handler) caseActuals(ctx context.Context, caseID string) (*core.Case, []core.TimesheetEntry, fees.Directory, error) {
	c, err := h.Store.GetCase(ctx, caseID)
	if err != nil {
		return nil, nil, fees.Directory{}, err
	}
	entries, err := h.Store.FilterTimesheetEntries(ctx, core.TimesheetFilter{
		CaseReference: c.Reference,
		Status:        core.StatusApproved,
	})
	if err != nil {
		return nil, nil, fees.Directory{}, err
	}
	users, err := h.Store.ListUsers(ctx)
	if err != nil {
		return nil, nil, fees.Directory{}, err
	}
	return c, entries, fees.NewDirectory(users), nil
}

func parseRange(r *http.Request) (core.DateRange, error) {
	rng := core.ParseDateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if !rng.Valid() {
		return rng, fmt.Errorf("%s: %w", rng, core.ErrInvalidDateRange)
	}
	return rng, nil
}

// =============================================================================
// TAXONOMY HANDLERS
// =============================================================================

// ListCategories returns the six fee categories in ledger order.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats := fees.AllCategories()
	dtos := make([]CategoryDTO, len(cats))
	for i, c := range cats {
		dtos[i] = CategoryDTO{ID: string(c), Name: c.DisplayName()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRates returns the hourly rate table the engine is running with.
func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	rt := h.Engine.Rates
	writeJSON(w, http.StatusOK, RatesDTO{
		Partner:   round2(rt.Partner),
		Manager:   round2(rt.Manager),
		Executive: round2(rt.Executive),
		Secretary: round2(rt.Secretary),
	})
}

// Categorize maps a free-text task description to a fee category.
func (h *Handler) Categorize(w http.ResponseWriter, r *http.Request) {
	var req CategorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	categorize := h.Engine.Categorize
	if categorize == nil {
		categorize = fees.Categorize
	}
	c := categorize(req.Description)
	writeJSON(w, http.StatusOK, CategorizeDTO{Category: string(c), Name: c.DisplayName()})
}

// =============================================================================
// CASE HANDLERS
// =============================================================================

// ListCases returns all cases.
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	cases, err := h.Store.ListCases(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list cases", err)
		return
	}
	if cases == nil {
		cases = []core.Case{}
	}
	writeJSON(w, http.StatusOK, cases)
}

// GetFeeEstimate returns the case's working estimate with live totals.
// Totals reflect unsaved edits.
func (h *Handler) GetFeeEstimate(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "id")
	s, err := h.workspace(r.Context(), caseID)
	if err != nil {
		writeDomainError(w, "Failed to load fee estimate", err)
		return
	}
	writeJSON(w, http.StatusOK, h.estimateDTO(s))
}

// UpdateFeeEntry edits one activity's hours and notes. The store write is
// debounced; the response carries the recomputed totals immediately.
func (h *Handler) UpdateFeeEntry(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "id")
	activityID := chi.URLParam(r, "activityID")

	var req UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	s, err := h.workspace(r.Context(), caseID)
	if err != nil {
		writeDomainError(w, "Failed to load fee estimate", err)
		return
	}

	patch := func(entry fees.FeeEntry) fees.FeeEntry {
		for g, hours := range req.hours() {
			if hours != nil {
				entry = entry.WithHours(g, *hours)
			}
		}
		if req.Notes != nil {
			entry.Notes = *req.Notes
		}
		return entry
	}
	if err := s.ws.Update(activityID, patch); err != nil {
		writeDomainError(w, "Failed to update fee estimate", err)
		return
	}

	writeJSON(w, http.StatusOK, h.estimateDTO(s))
}

// FlushFeeEstimate saves the working estimate now. A failure keeps the
// edits; the client may call again to retry.
func (h *Handler) FlushFeeEstimate(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "id")
	s, err := h.workspace(r.Context(), caseID)
	if err != nil {
		writeDomainError(w, "Failed to load fee estimate", err)
		return
	}
	if err := s.ws.Flush(r.Context()); err != nil {
		writeDomainError(w, "Failed to save fee estimate", err)
		return
	}
	writeJSON(w, http.StatusOK, h.estimateDTO(s))
}

func (h *Handler) estimateDTO(s *openSession) FeeEstimateDTO {
	activities, entries := s.ws.Snapshot()
	dto := toFeeEstimateDTO(s.ws.CaseID(), s.caseType, h.Engine.Summarize(activities, entries))
	dto.Dirty = s.ws.Dirty()
	if err := s.ws.LastError(); err != nil {
		dto.SaveError = err.Error()
	}
	return dto
}

// GetLedger returns approved time on the case by category and role group.
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "id")
	rng, err := parseRange(r)
	if err != nil {
		writeDomainError(w, "Invalid date range", err)
		return
	}
	c, entries, dir, err := h.caseActuals(r.Context(), caseID)
	if err != nil {
		writeDomainError(w, "Failed to load timesheets", err)
		return
	}
	ledger := h.Engine.BuildLedger(c.Reference, entries, rng, dir)
	writeJSON(w, http.StatusOK, toLedgerDTO(c.ID, ledger))
}

// GetWIP returns approved time on the case by grade and by team member.
func (h *Handler) GetWIP(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "id")
	rng, err := parseRange(r)
	if err != nil {
		writeDomainError(w, "Invalid date range", err)
		return
	}
	c, entries, dir, err := h.caseActuals(r.Context(), caseID)
	if err != nil {
		writeDomainError(w, "Failed to load timesheets", err)
		return
	}
	wip := h.Engine.BuildWIP(c.Reference, entries, rng, dir)
	writeJSON(w, http.StatusOK, toWIPDTO(c.ID, h.Engine.Rates, wip))
}

// GetSIP9Report builds the SIP9 time-cost summary from the working estimate.
func (h *Handler) GetSIP9Report(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "id")
	s, err := h.workspace(r.Context(), caseID)
	if err != nil {
		writeDomainError(w, "Failed to load fee estimate", err)
		return
	}
	activities, entries := s.ws.Snapshot()
	report := h.Engine.BuildReport(activities, entries, s.caseType)
	writeJSON(w, http.StatusOK, toReportDTO(caseID, report))
}

// GetReconciliation lines up the estimate against the unfiltered ledger.
func (h *Handler) GetReconciliation(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "id")
	s, err := h.workspace(r.Context(), caseID)
	if err != nil {
		writeDomainError(w, "Failed to load fee estimate", err)
		return
	}
	c, entries, dir, err := h.caseActuals(r.Context(), caseID)
	if err != nil {
		writeDomainError(w, "Failed to load timesheets", err)
		return
	}
	ledger := h.Engine.BuildLedger(c.Reference, entries, core.DateRange{}, dir)
	activities, estimate := s.ws.Snapshot()
	writeJSON(w, http.StatusOK, toVarianceDTOs(h.Engine.Reconcile(activities, estimate, ledger, s.caseType)))
}

// ResetDatabase clears all data and drops open sessions.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.CloseSessions(r.Context()); err != nil {
		h.Log.Warn().Err(err).Msg("Closing sessions before reset")
	}
	if err := h.Store.Reset(r.Context()); err != nil {
		writeDomainError(w, "Failed to reset database", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error chain.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case core.IsNotFound(err):
		return http.StatusNotFound
	case core.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrSaveCancelled):
		return http.StatusConflict
	case core.IsRetryable(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func normalizeID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
