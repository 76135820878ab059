/*
Package session holds a case's fee estimate while it is being edited.

PURPOSE:
  Edits land in local working state immediately and are written to the
  record store only after a quiet period (2s by default). Aggregations
  read a Snapshot, never the store, so totals update on every keystroke
  without persisting half-typed values.

LIFECYCLE:
  ws := session.New(caseID, store, activities, entries, opts)
  ws.SetHours("sat-1", fees.GradePartner, core.ParseHours("2"))  // arms timer
  ws.SetNotes("sat-1", "initial filings")                        // re-arms timer
  ws.Update("sat-1", patch)                                      // patches under the lock
  ... 2s of quiet ...                                            // flush
  ws.Close(ctx)                                                  // cancels pending

FLUSH RULES:
  - A flush that has started always runs to completion; Close waits for it.
  - A flush still waiting on its timer when Close is called is cancelled,
    never partially applied.
  - A failed flush keeps the edits and the dirty flag. There is no
    automatic retry: the caller retries with Flush.
  - Concurrent sessions on one case are last-write-wins at the store.

SEE ALSO:
  - factory/feedata.go: fee_estimate_data encoding
  - core/errors.go: SaveError, ErrSaveCancelled
*/
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/fee-engine/core"
	"github.com/warp/fee-engine/factory"
	"github.com/warp/fee-engine/fees"
)

// DefaultDelay is the quiet period before edits are flushed.
const DefaultDelay = 2 * time.Second

type Options struct {
	Delay  time.Duration
	Logger zerolog.Logger

	// OnSaved and OnError are called after every flush attempt, outside
	// the workspace lock.
	OnSaved func(caseID string)
	OnError func(err error)
}

// Workspace is safe for concurrent use.
type Workspace struct {
	caseID string
	store  core.CaseStore
	opts   Options

	mu         sync.Mutex
	activities []fees.Activity
	known      map[string]bool
	entries    fees.FeeEntries
	version    uint64
	saved      uint64
	timer      *time.Timer
	timerGen   uint64
	closed     bool
	lastErr    error

	flushMu  sync.Mutex
	inflight sync.WaitGroup
}

func New(caseID string, store core.CaseStore, activities []fees.Activity, entries fees.FeeEntries, opts Options) *Workspace {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if entries == nil {
		entries = fees.FeeEntries{}
	}
	known := make(map[string]bool, len(activities))
	for _, a := range activities {
		known[a.ID] = true
	}
	return &Workspace{
		caseID:     caseID,
		store:      store,
		opts:       opts,
		activities: append([]fees.Activity(nil), activities...),
		known:      known,
		entries:    entries.Clone(),
	}
}

func (w *Workspace) CaseID() string { return w.caseID }

// =============================================================================
// EDITS
// =============================================================================

// SetHours replaces one grade's hours for an activity.
func (w *Workspace) SetHours(activityID string, grade fees.Grade, hours core.Hours) error {
	return w.edit(activityID, func(e fees.FeeEntry) fees.FeeEntry {
		return e.WithHours(grade, hours)
	})
}

func (w *Workspace) SetNotes(activityID, notes string) error {
	return w.edit(activityID, func(e fees.FeeEntry) fees.FeeEntry {
		e.Notes = notes
		return e
	})
}

// SetEntry replaces the whole entry for an activity.
func (w *Workspace) SetEntry(activityID string, entry fees.FeeEntry) error {
	return w.edit(activityID, func(fees.FeeEntry) fees.FeeEntry { return entry })
}

// Update patches an activity's entry in place. apply sees the current entry
// and runs under the workspace lock, so concurrent partial edits compose.
func (w *Workspace) Update(activityID string, apply func(fees.FeeEntry) fees.FeeEntry) error {
	return w.edit(activityID, apply)
}

func (w *Workspace) edit(activityID string, apply func(fees.FeeEntry) fees.FeeEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("case %s: %w", w.caseID, core.ErrSaveCancelled)
	}
	if !w.known[activityID] {
		return fmt.Errorf("activity %q on case %s: %w", activityID, w.caseID, core.ErrUnknownActivity)
	}

	w.entries[activityID] = apply(w.entries[activityID])
	w.version++
	w.armLocked()
	return nil
}

// armLocked (re)starts the debounce timer.
func (w *Workspace) armLocked() {
	w.stopTimerLocked()
	gen := w.timerGen
	w.timer = time.AfterFunc(w.opts.Delay, func() { w.fire(gen) })
}

// stopTimerLocked stops the pending timer and invalidates any callback
// already waiting on w.mu.
func (w *Workspace) stopTimerLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.timerGen++
}

func (w *Workspace) fire(gen uint64) {
	w.mu.Lock()
	if w.closed || gen != w.timerGen {
		w.mu.Unlock()
		return
	}
	w.timer = nil
	w.inflight.Add(1)
	w.mu.Unlock()

	defer w.inflight.Done()
	_ = w.flush(context.Background())
}

// =============================================================================
// READS
// =============================================================================

// Snapshot copies the working state for aggregation.
func (w *Workspace) Snapshot() ([]fees.Activity, fees.FeeEntries) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]fees.Activity(nil), w.activities...), w.entries.Clone()
}

// Dirty reports whether edits exist that the store has not accepted.
func (w *Workspace) Dirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.version != w.saved
}

// LastError is the most recent flush failure, cleared by a good flush.
func (w *Workspace) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// =============================================================================
// FLUSH / CLOSE
// =============================================================================

// Flush saves immediately, superseding any pending timer.
func (w *Workspace) Flush(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return fmt.Errorf("case %s: %w", w.caseID, core.ErrSaveCancelled)
	}
	w.stopTimerLocked()
	w.inflight.Add(1)
	w.mu.Unlock()

	defer w.inflight.Done()
	return w.flush(ctx)
}

func (w *Workspace) flush(ctx context.Context) error {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.mu.Lock()
	if w.version == w.saved {
		w.mu.Unlock()
		return nil
	}
	version := w.version
	activities := append([]fees.Activity(nil), w.activities...)
	entries := w.entries.Clone()
	w.mu.Unlock()

	err := w.write(ctx, activities, entries)

	w.mu.Lock()
	if err != nil {
		w.lastErr = &core.SaveError{CaseID: w.caseID, Err: err}
		err = w.lastErr
	} else {
		w.saved = version
		w.lastErr = nil
	}
	w.mu.Unlock()

	if err != nil {
		w.opts.Logger.Error().Err(err).Str("case_id", w.caseID).Msg("Fee estimate save failed")
		if w.opts.OnError != nil {
			w.opts.OnError(err)
		}
		return err
	}

	w.opts.Logger.Info().Str("case_id", w.caseID).Int("activities", len(activities)).Msg("Fee estimate saved")
	if w.opts.OnSaved != nil {
		w.opts.OnSaved(w.caseID)
	}
	return nil
}

func (w *Workspace) write(ctx context.Context, activities []fees.Activity, entries fees.FeeEntries) error {
	data, err := factory.EncodeFeeEstimate(activities, entries)
	if err != nil {
		return err
	}
	return w.store.UpdateCase(ctx, w.caseID, core.CaseUpdate{FeeEstimateData: &data})
}

// Close ends the session. A pending (not yet started) flush is cancelled;
// a flush already running is waited for, up to ctx's deadline. Later edits
// fail with ErrSaveCancelled.
func (w *Workspace) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.stopTimerLocked()
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("close case %s: waiting for save: %w", w.caseID, ctx.Err())
	}

	if w.Dirty() {
		w.opts.Logger.Warn().Str("case_id", w.caseID).Msg("Pending fee estimate save cancelled")
	}
	return nil
}
