/*
store.go - Record-store boundary

PURPOSE:
  Defines the records this engine reads from and writes to the case
  record store, and the narrow interfaces it needs. Storage itself is an
  external collaborator: a CRUD store with list, filter-by-field and
  update. The engine never talks to it from inside an aggregation.

KEY INTERFACES:
  TemplateStore:  Activity templates (template_data holds Activity[])
  TimesheetStore: Timesheet entries filtered by case and status
  CaseStore:      Case lookup + partial update (last write wins)
  UserDirectory:  Users with their directory role
  RecordStore:    All of the above

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite-backed store
  - core/store/memory.go: In-memory store for tests

SEE ALSO:
  - factory/templates.go: Decoding template_data
  - session/workspace.go: Debounced UpdateCase writer
*/
package core

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// =============================================================================
// RECORDS
// =============================================================================

// Template is an activity template. TemplateData is kept raw: some stores
// hand back a JSON string, others an already decoded array.
type Template struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	TemplateData json.RawMessage `json:"template_data"`
}

// TimesheetStatus is the approval state of a timesheet entry.
type TimesheetStatus string

const (
	StatusApproved TimesheetStatus = "approved"
	StatusPending  TimesheetStatus = "pending"
	StatusRejected TimesheetStatus = "rejected"
	StatusDraft    TimesheetStatus = "draft"
)

// IsApproved compares case-insensitively; stores disagree on casing.
func (s TimesheetStatus) IsApproved() bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(StatusApproved))
}

// TimesheetEntry is one record of time worked. Date is an ISO date string
// as entered; it may be empty.
type TimesheetEntry struct {
	ID              string          `json:"id"`
	CaseReference   string          `json:"case_reference"`
	UserEmail       string          `json:"user_email"`
	TaskDescription string          `json:"task_description"`
	DurationSeconds float64         `json:"duration_seconds"`
	Date            string          `json:"date"`
	Status          TimesheetStatus `json:"status"`
}

// User is a directory entry. Role is free text ("partner", "manager", ...).
type User struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// Case is the subset of a case record the engine touches.
type Case struct {
	ID              string          `json:"id"`
	Reference       string          `json:"reference"`
	Name            string          `json:"name"`
	CaseType        string          `json:"case_type"`
	FeeEstimateData string          `json:"fee_estimate_data"`
	Resolutions     json.RawMessage `json:"resolutions,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CaseUpdate is a partial update; nil fields are left untouched.
type CaseUpdate struct {
	FeeEstimateData *string
	Resolutions     json.RawMessage
}

// TimesheetFilter selects entries by field equality. Empty fields match all.
type TimesheetFilter struct {
	CaseReference string
	Status        TimesheetStatus
}

// =============================================================================
// STORE INTERFACES
// =============================================================================

type TemplateStore interface {
	ListActivityTemplates(ctx context.Context) ([]Template, error)
}

type TimesheetStore interface {
	FilterTimesheetEntries(ctx context.Context, filter TimesheetFilter) ([]TimesheetEntry, error)
}

// CaseStore persists case fields. Concurrent updates are last-write-wins.
type CaseStore interface {
	GetCase(ctx context.Context, id string) (*Case, error)
	UpdateCase(ctx context.Context, id string, update CaseUpdate) error
}

type UserDirectory interface {
	ListUsers(ctx context.Context) ([]User, error)
}

// RecordStore is the full external collaborator.
type RecordStore interface {
	TemplateStore
	TimesheetStore
	CaseStore
	UserDirectory
}
