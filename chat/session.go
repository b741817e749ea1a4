// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/forumchat/shoutbox/lib/clock"
)

// SessionState is the session controller's coarse state.
type SessionState int

const (
	// SessionActive means polling is armed and responses are expected.
	SessionActive SessionState = iota
	// SessionIdle means all timers are disarmed. Manual refresh is
	// still possible; a Reset starts a new session.
	SessionIdle
	// SessionError means the last poll failed. Timers stay armed, so
	// the next scheduled poll retries automatically.
	SessionError
)

func (s SessionState) String() string {
	switch s {
	case SessionActive:
		return "active"
	case SessionIdle:
		return "idle"
	case SessionError:
		return "error"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// countdownResolution is the countdown timer's tick interval. The
// session budget is decremented one unit per tick.
const countdownResolution = time.Second

// SessionConfig holds configuration for creating a SessionController.
type SessionConfig struct {
	// PollInterval drives the periodic refresh. Required unless
	// Archived is set.
	PollInterval time.Duration

	// SessionTimeout is the countdown budget: with no Reset, the
	// session ends this long after it starts. Zero disables the
	// countdown.
	SessionTimeout time.Duration

	// PresenceInterval drives the periodic who-is-online refresh.
	// Zero disables it.
	PresenceInterval time.Duration

	// Archived marks a read-only view. An archived controller never
	// runs a session: Reset is a no-op and all timer channels stay
	// nil.
	Archived bool

	// Clock abstracts time for tests. If nil, the real clock is used.
	Clock clock.Clock

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// sessionTimers groups the three timer handles so they are armed and
// disarmed as a unit. Partial timer states leak tickers across
// repeated reset/pause cycles; keeping the handles in one value with
// one disarm path prevents that.
type sessionTimers struct {
	poll      *clock.Ticker
	countdown *clock.Ticker
	presence  *clock.Ticker
}

// disarmAll stops every armed timer and clears all handles.
func (t *sessionTimers) disarmAll() {
	if t.poll != nil {
		t.poll.Stop()
		t.poll = nil
	}
	if t.countdown != nil {
		t.countdown.Stop()
		t.countdown = nil
	}
	if t.presence != nil {
		t.presence.Stop()
		t.presence = nil
	}
}

// SessionController governs when polling happens, when the session
// expires, and when presence is refreshed. It owns all three timer
// handles exclusively; no other component arms or disarms them.
//
// SessionController is safe for concurrent use: the widget's run loop
// reads the timer channels while user actions pause and reset the
// session from other goroutines.
type SessionController struct {
	pollInterval     time.Duration
	sessionTimeout   time.Duration
	presenceInterval time.Duration
	archived         bool
	clock            clock.Clock
	logger           *slog.Logger

	mu        sync.Mutex
	state     SessionState
	remaining int // countdown units left; meaningful only while the countdown is armed
	timers    sessionTimers
}

// NewSessionController creates a controller in the idle state. Call
// Reset to start the session.
func NewSessionController(config SessionConfig) (*SessionController, error) {
	if !config.Archived && config.PollInterval <= 0 {
		return nil, fmt.Errorf("chat: PollInterval is required for a live session")
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionController{
		pollInterval:     config.PollInterval,
		sessionTimeout:   config.SessionTimeout,
		presenceInterval: config.PresenceInterval,
		archived:         config.Archived,
		clock:            clk,
		logger:           logger,
		state:            SessionIdle,
	}, nil
}

// Reset (re)arms the poll timer at the configured interval, restarts
// the countdown from the full budget when one is configured, and
// re-arms the presence timer when presence refresh is configured. The
// session transitions to active.
//
// Reset is a no-op in archived mode: a read-only view never runs a
// session.
func (s *SessionController) Reset() {
	if s.archived {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timers.disarmAll()
	s.timers.poll = s.clock.NewTicker(s.pollInterval)
	if s.sessionTimeout > 0 {
		s.remaining = int(s.sessionTimeout / countdownResolution)
		s.timers.countdown = s.clock.NewTicker(countdownResolution)
	}
	if s.presenceInterval > 0 {
		s.timers.presence = s.clock.NewTicker(s.presenceInterval)
	}
	s.state = SessionActive
}

// Pause disarms the poll and presence timers but leaves the countdown
// running. Used while an outgoing send is in flight: polling is
// suspended so responses reconcile serially, but session expiry keeps
// counting. A user actively composing does not earn extra idle time
// from suspended polling.
func (s *SessionController) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timers.poll != nil {
		s.timers.poll.Stop()
		s.timers.poll = nil
	}
	if s.timers.presence != nil {
		s.timers.presence.Stop()
		s.timers.presence = nil
	}
}

// End disarms all timers and transitions to idle. It reports whether
// the caller should trigger one final presence refresh so the UI
// reflects the user leaving: true when presence refresh is configured
// and skipPresenceRefresh is false.
func (s *SessionController) End(skipPresenceRefresh bool) (refreshPresence bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endLocked(skipPresenceRefresh)
}

func (s *SessionController) endLocked(skipPresenceRefresh bool) bool {
	s.timers.disarmAll()
	s.state = SessionIdle
	return s.presenceInterval > 0 && !skipPresenceRefresh
}

// CountdownTick consumes one countdown unit. When the remaining budget
// drops below one unit the session ends implicitly: all timers are
// disarmed and the controller transitions to idle. Returns whether the
// session expired on this tick, and whether the caller should trigger
// a final presence refresh.
func (s *SessionController) CountdownTick() (expired, refreshPresence bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timers.countdown == nil {
		return false, false
	}
	s.remaining--
	if s.remaining >= 1 {
		return false, false
	}
	s.logger.Info("session budget exhausted, ending session")
	return true, s.endLocked(false)
}

// MarkError records a failed poll. The poll timer stays armed so the
// next scheduled attempt retries; only the coarse state changes.
func (s *SessionController) MarkError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionActive {
		s.state = SessionError
	}
}

// MarkActive records a successful poll after an error.
func (s *SessionController) MarkActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionError {
		s.state = SessionActive
	}
}

// State returns the current session state.
func (s *SessionController) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Remaining returns the countdown units left in the session budget.
func (s *SessionController) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// PollC returns the poll timer's channel, or nil when polling is
// disarmed. A nil channel never delivers, so the widget's select loop
// naturally skips disarmed timers.
func (s *SessionController) PollC() <-chan time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timers.poll == nil {
		return nil
	}
	return s.timers.poll.C
}

// CountdownC returns the countdown timer's channel, or nil when the
// countdown is disarmed.
func (s *SessionController) CountdownC() <-chan time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timers.countdown == nil {
		return nil
	}
	return s.timers.countdown.C
}

// PresenceC returns the presence timer's channel, or nil when presence
// refresh is disarmed.
func (s *SessionController) PresenceC() <-chan time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timers.presence == nil {
		return nil
	}
	return s.timers.presence.C
}

// PollArmed reports whether the poll timer is armed.
func (s *SessionController) PollArmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers.poll != nil
}

// CountdownArmed reports whether the countdown timer is armed.
func (s *SessionController) CountdownArmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers.countdown != nil
}

// PresenceArmed reports whether the presence timer is armed.
func (s *SessionController) PresenceArmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers.presence != nil
}
