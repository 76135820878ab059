/*
Package sqlite provides a SQLite-backed implementation of the record store.

PURPOSE:
  Implements core.RecordStore (templates, timesheet entries, cases,
  users) using SQLite. The engine treats this as an external CRUD store;
  the same shape maps onto any hosted record service.

INTERFACES IMPLEMENTED:
  core.TemplateStore:  ListActivityTemplates
  core.TimesheetStore: FilterTimesheetEntries
  core.CaseStore:      GetCase, UpdateCase (last write wins)
  core.UserDirectory:  ListUsers

KEY TABLES:
  cases:              Case records incl. fee_estimate_data (JSON string)
  activity_templates: Templates; template_data stored verbatim
  timesheet_entries:  Time records, filtered by case_reference + status
  users:              Directory (email, full_name, role)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Concurrent UpdateCase calls on the
  same case simply overwrite each other: no merge, no conflict detection.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so report reads do not
  block the debounced fee-estimate writes.

USAGE:
  store, err := sqlite.New("./data/fees.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

ERRORS:
  Driver failures are wrapped with core.ErrStoreUnavailable so callers can
  tell a store outage from a missing record (core.ErrCaseNotFound).

SEE ALSO:
  - core/store.go: Interface definitions
  - core/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/fee-engine/core"
)

// Store implements core.RecordStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ core.RecordStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Cases
	CREATE TABLE IF NOT EXISTS cases (
		id TEXT PRIMARY KEY,
		reference TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		case_type TEXT NOT NULL DEFAULT '',
		fee_estimate_data TEXT NOT NULL DEFAULT '',
		resolutions_json TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_cases_reference
		ON cases(reference);

	-- Activity templates
	CREATE TABLE IF NOT EXISTS activity_templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		template_data TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL
	);

	-- Timesheet entries (owned by the timesheet workflow)
	CREATE TABLE IF NOT EXISTS timesheet_entries (
		id TEXT PRIMARY KEY,
		case_reference TEXT NOT NULL,
		user_email TEXT NOT NULL,
		task_description TEXT NOT NULL DEFAULT '',
		duration_seconds REAL NOT NULL DEFAULT 0,
		date TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL
	);

	-- Hot path: ledger/WIP read all approved entries for one case
	CREATE INDEX IF NOT EXISTS idx_timesheet_case_status
		ON timesheet_entries(case_reference, status);

	-- User directory
	CREATE TABLE IF NOT EXISTS users (
		email TEXT PRIMARY KEY COLLATE NOCASE,
		full_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT ''
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset deletes every record. Used by demo scenarios and tests.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"cases", "activity_templates", "timesheet_entries", "users"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return storeErr("reset "+table, err)
		}
	}
	return nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, core.ErrStoreUnavailable, err)
}

// =============================================================================
// CASES (core.CaseStore)
// =============================================================================

// SaveCase inserts or replaces a case. An empty ID gets a fresh UUID.
func (s *Store) SaveCase(ctx context.Context, c core.Case) (core.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cases (id, reference, name, case_type, fee_estimate_data, resolutions_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			reference = excluded.reference,
			name = excluded.name,
			case_type = excluded.case_type,
			fee_estimate_data = excluded.fee_estimate_data,
			resolutions_json = excluded.resolutions_json,
			updated_at = excluded.updated_at
	`,
		c.ID, c.Reference, c.Name, c.CaseType, c.FeeEstimateData,
		nullJSON(c.Resolutions),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return core.Case{}, storeErr("save case", err)
	}
	return c, nil
}

// GetCase returns core.ErrCaseNotFound when no case has the id.
func (s *Store) GetCase(ctx context.Context, id string) (*core.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, reference, name, case_type, fee_estimate_data, resolutions_json, updated_at
		FROM cases WHERE id = ?
	`, id)

	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("case %s: %w", id, core.ErrCaseNotFound)
	}
	if err != nil {
		return nil, storeErr("get case", err)
	}
	return c, nil
}

// ListCases returns every case ordered by reference.
func (s *Store) ListCases(ctx context.Context) ([]core.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reference, name, case_type, fee_estimate_data, resolutions_json, updated_at
		FROM cases ORDER BY reference ASC
	`)
	if err != nil {
		return nil, storeErr("list cases", err)
	}
	defer rows.Close()

	var out []core.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, storeErr("scan case", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list cases", err)
	}
	return out, nil
}

// UpdateCase applies a partial update. Last write wins.
func (s *Store) UpdateCase(ctx context.Context, id string, update core.CaseUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(time.RFC3339)}
	if update.FeeEstimateData != nil {
		sets = append(sets, "fee_estimate_data = ?")
		args = append(args, *update.FeeEstimateData)
	}
	if update.Resolutions != nil {
		sets = append(sets, "resolutions_json = ?")
		args = append(args, string(update.Resolutions))
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		"UPDATE cases SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return storeErr("update case", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("update case", err)
	}
	if n == 0 {
		return fmt.Errorf("case %s: %w", id, core.ErrCaseNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCase(row scanner) (*core.Case, error) {
	var (
		c           core.Case
		resolutions sql.NullString
		updatedAt   string
	)
	if err := row.Scan(&c.ID, &c.Reference, &c.Name, &c.CaseType, &c.FeeEstimateData, &resolutions, &updatedAt); err != nil {
		return nil, err
	}
	if resolutions.Valid && json.Valid([]byte(resolutions.String)) {
		c.Resolutions = json.RawMessage(resolutions.String)
	}
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &c, nil
}

// =============================================================================
// TEMPLATES (core.TemplateStore)
// =============================================================================

// SaveTemplate inserts or replaces a template. template_data is stored
// verbatim, whether it is an array or a JSON-encoded string.
func (s *Store) SaveTemplate(ctx context.Context, t core.Template) (core.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	data := string(t.TemplateData)
	if strings.TrimSpace(data) == "" {
		data = "[]"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_templates (id, name, template_data, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, template_data = excluded.template_data
	`, t.ID, t.Name, data, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return core.Template{}, storeErr("save template", err)
	}
	return t, nil
}

func (s *Store) ListActivityTemplates(ctx context.Context) ([]core.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, template_data FROM activity_templates ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, storeErr("list templates", err)
	}
	defer rows.Close()

	var out []core.Template
	for rows.Next() {
		var (
			t    core.Template
			data string
		)
		if err := rows.Scan(&t.ID, &t.Name, &data); err != nil {
			return nil, storeErr("scan template", err)
		}
		t.TemplateData = json.RawMessage(data)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list templates", err)
	}
	return out, nil
}

// =============================================================================
// TIMESHEETS (core.TimesheetStore)
// =============================================================================

// SaveTimesheetEntry inserts or replaces an entry. An empty ID gets a UUID.
func (s *Store) SaveTimesheetEntry(ctx context.Context, e core.TimesheetEntry) (core.TimesheetEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	status := strings.ToLower(strings.TrimSpace(string(e.Status)))
	if status == "" {
		status = string(core.StatusPending)
	}
	e.Status = core.TimesheetStatus(status)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO timesheet_entries
		(id, case_reference, user_email, task_description, duration_seconds, date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			case_reference = excluded.case_reference,
			user_email = excluded.user_email,
			task_description = excluded.task_description,
			duration_seconds = excluded.duration_seconds,
			date = excluded.date,
			status = excluded.status
	`,
		e.ID, e.CaseReference, e.UserEmail, e.TaskDescription, e.DurationSeconds,
		e.Date, status, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return core.TimesheetEntry{}, storeErr("save timesheet entry", err)
	}
	return e, nil
}

// FilterTimesheetEntries matches on case reference and status; empty
// filter fields match everything. Status comparison ignores case.
func (s *Store) FilterTimesheetEntries(ctx context.Context, filter core.TimesheetFilter) ([]core.TimesheetEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, case_reference, user_email, task_description, duration_seconds, date, status
		FROM timesheet_entries WHERE 1 = 1`
	var args []any
	if filter.CaseReference != "" {
		query += " AND case_reference = ?"
		args = append(args, filter.CaseReference)
	}
	if filter.Status != "" {
		query += " AND LOWER(status) = ?"
		args = append(args, strings.ToLower(string(filter.Status)))
	}
	query += " ORDER BY date ASC, created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("filter timesheet entries", err)
	}
	defer rows.Close()

	var out []core.TimesheetEntry
	for rows.Next() {
		var e core.TimesheetEntry
		if err := rows.Scan(&e.ID, &e.CaseReference, &e.UserEmail, &e.TaskDescription,
			&e.DurationSeconds, &e.Date, &e.Status); err != nil {
			return nil, storeErr("scan timesheet entry", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("filter timesheet entries", err)
	}
	return out, nil
}

// =============================================================================
// USERS (core.UserDirectory)
// =============================================================================

func (s *Store) SaveUser(ctx context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, full_name, role) VALUES (?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET full_name = excluded.full_name, role = excluded.role
	`, strings.TrimSpace(u.Email), u.FullName, u.Role)
	if err != nil {
		return storeErr("save user", err)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT email, full_name, role FROM users ORDER BY email ASC")
	if err != nil {
		return nil, storeErr("list users", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.Email, &u.FullName, &u.Role); err != nil {
			return nil, storeErr("scan user", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list users", err)
	}
	return out, nil
}

func nullJSON(raw json.RawMessage) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}
