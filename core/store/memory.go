// Package store provides record-store implementations.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/fee-engine/core"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	cases     map[string]core.Case
	templates []core.Template
	entries   []core.TimesheetEntry
	users     []core.User

	// failWith, when set, makes every call fail. Used to exercise the
	// store-failure paths.
	failWith error
	updates  int
}

var _ core.RecordStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{cases: make(map[string]core.Case)}
}

// FailWith makes subsequent calls return err wrapped as a store failure.
// Pass nil to heal the store.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// Updates returns how many UpdateCase calls succeeded.
func (m *Memory) Updates() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updates
}

func (m *Memory) failure(op string) error {
	if m.failWith == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, core.ErrStoreUnavailable, m.failWith)
}

// =============================================================================
// WRITE HELPERS (seeding)
// =============================================================================

func (m *Memory) PutCase(c core.Case) core.Case {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	m.cases[c.ID] = c
	return c
}

func (m *Memory) AddTemplate(t core.Template) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	m.templates = append(m.templates, t)
}

func (m *Memory) AddTimesheetEntry(e core.TimesheetEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	m.entries = append(m.entries, e)
}

func (m *Memory) AddUser(u core.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, u)
}

// =============================================================================
// core.RecordStore
// =============================================================================

func (m *Memory) ListActivityTemplates(_ context.Context) ([]core.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure("list templates"); err != nil {
		return nil, err
	}
	out := make([]core.Template, len(m.templates))
	copy(out, m.templates)
	return out, nil
}

func (m *Memory) FilterTimesheetEntries(_ context.Context, filter core.TimesheetFilter) ([]core.TimesheetEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure("filter timesheet entries"); err != nil {
		return nil, err
	}
	var out []core.TimesheetEntry
	for _, e := range m.entries {
		if filter.CaseReference != "" && e.CaseReference != filter.CaseReference {
			continue
		}
		if filter.Status != "" && !sameStatus(e.Status, filter.Status) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func sameStatus(a, b core.TimesheetStatus) bool {
	if b.IsApproved() {
		return a.IsApproved()
	}
	return a == b
}

func (m *Memory) GetCase(_ context.Context, id string) (*core.Case, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure("get case"); err != nil {
		return nil, err
	}
	c, ok := m.cases[id]
	if !ok {
		return nil, fmt.Errorf("case %s: %w", id, core.ErrCaseNotFound)
	}
	return &c, nil
}

func (m *Memory) UpdateCase(_ context.Context, id string, update core.CaseUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("update case"); err != nil {
		return err
	}
	c, ok := m.cases[id]
	if !ok {
		return fmt.Errorf("case %s: %w", id, core.ErrCaseNotFound)
	}
	if update.FeeEstimateData != nil {
		c.FeeEstimateData = *update.FeeEstimateData
	}
	if update.Resolutions != nil {
		c.Resolutions = update.Resolutions
	}
	c.UpdatedAt = time.Now().UTC()
	m.cases[id] = c
	m.updates++
	return nil
}

func (m *Memory) ListUsers(_ context.Context) ([]core.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure("list users"); err != nil {
		return nil, err
	}
	out := make([]core.User, len(m.users))
	copy(out, m.users)
	return out, nil
}
