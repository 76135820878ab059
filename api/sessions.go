/*
sessions.go - Idle fee estimate session reaper

PURPOSE:
  Handler keeps one workspace per case open after first access. The
  reaper periodically closes workspaces nobody has touched for a while,
  so abandoned cases do not pin memory or timers.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Only clean sessions are closed; a dirty session still has a save
    pending (or a failed save awaiting retry) and is left alone
  - A closed session is reloaded from the store on next access

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 minute)
  - IdleTimeout: How long a session may sit untouched (default: 30 minutes)

USAGE:
  reaper := NewSessionReaper(handler)
  reaper.Start()
  // ... later
  reaper.Stop()

SEE ALSO:
  - handlers.go: Handler.workspace (session creation)
  - session/workspace.go: Close semantics
*/
package api

import (
	"context"
	"sync"
	"time"
)

// SessionReaper closes idle fee estimate sessions.
type SessionReaper struct {
	Handler       *Handler
	CheckInterval time.Duration
	IdleTimeout   time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewSessionReaper(h *Handler) *SessionReaper {
	return &SessionReaper{
		Handler:       h,
		CheckInterval: time.Minute,
		IdleTimeout:   30 * time.Minute,
	}
}

// Start begins the reaper. Calling Start twice is a no-op.
func (sr *SessionReaper) Start() {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if sr.ticker != nil {
		return
	}
	sr.ticker = time.NewTicker(sr.CheckInterval)
	sr.stop = make(chan struct{})
	sr.wg.Add(1)

	go sr.run()

	sr.Handler.Log.Info().
		Dur("check_interval", sr.CheckInterval).
		Dur("idle_timeout", sr.IdleTimeout).
		Msg("Session reaper started")
}

func (sr *SessionReaper) Stop() {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if sr.ticker != nil {
		sr.ticker.Stop()
		close(sr.stop)
		sr.wg.Wait()
		sr.ticker = nil
		sr.Handler.Log.Info().Msg("Session reaper stopped")
	}
}

func (sr *SessionReaper) run() {
	defer sr.wg.Done()

	for {
		select {
		case <-sr.ticker.C:
			sr.RunNow(time.Now())
		case <-sr.stop:
			return
		}
	}
}

// RunNow closes sessions idle as of now and returns how many it closed.
func (sr *SessionReaper) RunNow(now time.Time) int {
	h := sr.Handler

	h.mu.Lock()
	var idle []*openSession
	for id, s := range h.sessions {
		if now.Sub(s.touched) < sr.IdleTimeout || s.ws.Dirty() {
			continue
		}
		idle = append(idle, s)
		delete(h.sessions, id)
	}
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, s := range idle {
		if err := s.ws.Close(ctx); err != nil {
			h.Log.Warn().Err(err).Str("case_id", s.ws.CaseID()).Msg("Closing idle session")
		}
	}
	if len(idle) > 0 {
		h.Log.Debug().Int("closed", len(idle)).Msg("Idle sessions reaped")
	}
	return len(idle)
}

// OpenSessions reports how many case workspaces are open.
func (h *Handler) OpenSessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}
