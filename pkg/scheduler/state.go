package scheduler

import (
	"fmt"
	"sync"
	"time"
)

// State is shared between the scheduler goroutine and status readers.
type State struct {
	mu sync.RWMutex

	interval  time.Duration
	enabled   bool
	started   bool
	inFlight  bool
	lastRun   time.Time
	lastError string
	runs      int64
	skipped   int64
	failed    int64
}

// Snapshot is a point-in-time copy of State.
type Snapshot struct {
	Interval  time.Duration
	Enabled   bool
	Started   bool
	InFlight  bool
	LastRun   *time.Time
	LastError string
	Runs      int64
	Skipped   int64
	Failed    int64
}

func NewState(interval time.Duration, enabled bool) *State {
	return &State{interval: interval, enabled: enabled}
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Interval:  s.interval,
		Enabled:   s.enabled,
		Started:   s.started,
		InFlight:  s.inFlight,
		LastError: s.lastError,
		Runs:      s.runs,
		Skipped:   s.skipped,
		Failed:    s.failed,
	}
	if !s.lastRun.IsZero() {
		lastRun := s.lastRun
		snap.LastRun = &lastRun
	}
	return snap
}

// Status is "disabled", "running" or "stopped".
func (s Snapshot) Status() string {
	switch {
	case !s.Enabled:
		return "disabled"
	case s.Started:
		return "running"
	default:
		return "stopped"
	}
}

func (s *State) setStarted(started bool) {
	s.mu.Lock()
	s.started = started
	s.mu.Unlock()
}

func (s *State) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		s.skipped++
		return false
	}
	s.inFlight = true
	return true
}

func (s *State) finish(at time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight = false
	s.runs++
	if err != nil {
		s.failed++
		s.lastError = err.Error()
		return
	}
	s.lastRun = at
	s.lastError = ""
}

type panicError struct {
	value interface{}
}

func (p panicError) Error() string {
	return fmt.Sprintf("job panicked: %v", p.value)
}
