// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/forumchat/shoutbox/lib/clock"
	"github.com/forumchat/shoutbox/prefs"
)

// WidgetConfig holds configuration for creating a Widget.
type WidgetConfig struct {
	// Transport issues the server exchanges. Required.
	Transport Transport

	// PollInterval drives the periodic refresh. Required unless
	// Archived is set.
	PollInterval time.Duration

	// SessionTimeout is the countdown budget; zero disables session
	// expiry.
	SessionTimeout time.Duration

	// PresenceInterval drives the periodic who-is-online refresh;
	// zero disables it.
	PresenceInterval time.Duration

	// NewestFirst renders the newest message at the top.
	NewestFirst bool

	// LiveUpdates enables incremental log reads via the response
	// cursor.
	LiveUpdates bool

	// MaxMessageLength rejects over-length drafts locally; zero means
	// unlimited.
	MaxMessageLength int

	// MultiLine marks the compose input as multi-line.
	MultiLine bool

	// Archived marks a read-only view: no session ever runs, but the
	// ledger and manual refresh still work.
	Archived bool

	// InitialMessageIDs seeds the ledger with the messages the page
	// rendered before the widget attached.
	InitialMessageIDs []int

	// Notifier receives declarative side effects. Nil means none.
	Notifier Notifier

	// Confirmer gates destructive actions. Nil auto-confirms.
	Confirmer Confirmer

	// Prefs supplies persisted user preferences (remembered colour).
	// Nil disables preference-driven behavior.
	Prefs *prefs.Store

	// Clock abstracts time for tests. If nil, the real clock is used.
	Clock clock.Clock

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Widget is one chat widget instance: the explicit owner of the
// ledger, session controller, reconciler, and compose controller.
// All state lives here, nothing is package-global, so a page can in
// principle run several independent widgets.
//
// Widget methods are safe for concurrent use. Operations serialize on
// an internal mutex, so at most one exchange's response is reconciled
// at a time; the ledger never observes out-of-order or duplicate
// deliveries.
type Widget struct {
	transport  Transport
	ledger     *Ledger
	session    *SessionController
	reconciler *Reconciler
	compose    *ComposeController
	notifier   Notifier
	confirmer  Confirmer
	logger     *slog.Logger
	archived   bool

	mu     sync.Mutex
	status Status
	closed bool
}

// NewWidget creates a widget. The session does not start until Run.
func NewWidget(config WidgetConfig) (*Widget, error) {
	if config.Transport == nil {
		return nil, fmt.Errorf("chat: Transport is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ledger := NewLedger(config.InitialMessageIDs)

	session, err := NewSessionController(SessionConfig{
		PollInterval:     config.PollInterval,
		SessionTimeout:   config.SessionTimeout,
		PresenceInterval: config.PresenceInterval,
		Archived:         config.Archived,
		Clock:            config.Clock,
		Logger:           logger,
	})
	if err != nil {
		return nil, err
	}

	reconciler := NewReconciler(ReconcilerConfig{
		Ledger:      ledger,
		NewestFirst: config.NewestFirst,
		LiveUpdates: config.LiveUpdates,
		Logger:      logger,
	})

	var rememberedColour func() string
	if config.Prefs != nil {
		store := config.Prefs
		rememberedColour = store.RememberedColour
	}

	compose, err := NewComposeController(ComposeConfig{
		Transport:        config.Transport,
		Session:          session,
		Reconciler:       reconciler,
		Ledger:           ledger,
		MaxMessageLength: config.MaxMessageLength,
		MultiLine:        config.MultiLine,
		RememberedColour: rememberedColour,
		Logger:           logger,
	})
	if err != nil {
		return nil, err
	}

	notifier := config.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}

	return &Widget{
		transport:  config.Transport,
		ledger:     ledger,
		session:    session,
		reconciler: reconciler,
		compose:    compose,
		notifier:   notifier,
		confirmer:  config.Confirmer,
		logger:     logger,
		archived:   config.Archived,
		status:     StatusIdle,
	}, nil
}

// Run starts the session and processes timer events until ctx is
// cancelled. Cancellation is the page-teardown signal: in-flight
// responses are dropped, no further requests are emitted, and all
// timers are disarmed. Run returns nil on teardown.
//
// Archived widgets never arm timers; Run blocks until cancellation.
func (w *Widget) Run(ctx context.Context) error {
	w.mu.Lock()
	w.session.Reset()
	if !w.archived {
		w.setStatusLocked(StatusOK)
	}
	w.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			w.closed = true
			w.session.End(true)
			w.mu.Unlock()
			return nil
		case <-w.session.PollC():
			w.poll(ctx)
		case <-w.session.CountdownC():
			w.countdownTick(ctx)
		case <-w.session.PresenceC():
			w.refreshPresence(ctx)
		}
	}
}

// Refresh performs one manual poll cycle. Available even in the idle
// state, where no scheduled polling happens.
func (w *Widget) Refresh(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pollLocked(ctx)
}

// Whois performs one manual presence refresh.
func (w *Widget) Whois(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.whoisLocked(ctx)
}

// Submit sends draft text through the compose controller and
// dispatches the result's notifications. See ComposeController.Submit
// for the validation and rollback contract.
func (w *Widget) Submit(ctx context.Context, text string) SubmitResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return Rejected{Err: ErrSubmitInFlight}
	}

	result := w.compose.Submit(ctx, text)
	switch typed := result.(type) {
	case Sent:
		w.setStatusLocked(StatusOK)
		w.dispatchLocked(typed.Outcome)
	case RolledBack:
		w.handleRequestErrorLocked(ctx, typed.Err)
	}
	return result
}

// Edit replaces a message's content after confirmation. The server's
// edit payload is routed through the normal reconciliation path, so
// the rendered replacement is the server's version.
func (w *Widget) Edit(ctx context.Context, id int, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	if !w.confirmLocked(ctx, "edit this message?") {
		return nil
	}

	payload, err := w.transport.Edit(ctx, EditRequest{MessageID: id, Message: text})
	if err != nil {
		w.handleRequestErrorLocked(ctx, err)
		return err
	}
	outcome := w.reconciler.Apply(payload)
	w.session.Reset()
	w.setStatusLocked(StatusOK)
	w.dispatchLocked(outcome)
	return nil
}

// Delete removes a message after confirmation. On success the ID is
// removed locally without waiting for the next poll to echo the
// deletion.
func (w *Widget) Delete(ctx context.Context, id int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	if !w.confirmLocked(ctx, "delete this message?") {
		return nil
	}

	if _, err := w.transport.Delete(ctx, DeleteRequest{MessageID: id}); err != nil {
		w.handleRequestErrorLocked(ctx, err)
		return err
	}
	if w.ledger.Remove(id) {
		w.notifier.MessagesDeleted([]int{id})
	}
	w.session.Reset()
	w.setStatusLocked(StatusOK)
	return nil
}

// EndSession ends the session explicitly: all timers disarm and the
// widget goes idle. Unless skipPresenceRefresh is set, one final
// presence refresh fires so the UI reflects the user leaving.
func (w *Widget) EndSession(ctx context.Context, skipPresenceRefresh bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.endSessionLocked(ctx, skipPresenceRefresh)
}

// ResetSession restarts the session timers and transitions to active.
// No-op for archived widgets.
func (w *Widget) ResetSession() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.session.Reset()
	if !w.archived {
		w.setStatusLocked(StatusOK)
	}
}

// Status returns the current display status.
func (w *Widget) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// SessionState returns the session controller's coarse state.
func (w *Widget) SessionState() SessionState { return w.session.State() }

// MessageIDs returns the ledger's IDs in order.
func (w *Widget) MessageIDs() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ledger.IDs()
}

// Draft returns the compose controller's current draft.
func (w *Widget) Draft() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.compose.Draft()
}

// SubmitInFlight reports whether a send is outstanding.
func (w *Widget) SubmitInFlight() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.compose.InFlight()
}

// poll runs one scheduled poll cycle.
func (w *Widget) poll(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.pollLocked(ctx); err != nil {
		w.logger.Debug("poll cycle failed", "error", err)
	}
}

func (w *Widget) pollLocked(ctx context.Context) error {
	if w.closed {
		return nil
	}
	w.setStatusLocked(StatusLoading)

	payload, err := w.transport.Refresh(ctx, RefreshRequest{
		Last:   w.ledger.Last(),
		Cursor: w.reconciler.Cursor(),
	})
	if err != nil {
		w.handleRequestErrorLocked(ctx, err)
		return err
	}

	outcome := w.reconciler.Apply(payload)
	w.session.MarkActive()
	// A late response after the session ended must not flip the
	// display back to ok.
	if w.session.PollArmed() {
		w.setStatusLocked(StatusOK)
	} else {
		w.setStatusLocked(StatusIdle)
	}
	w.dispatchLocked(outcome)
	return nil
}

// countdownTick consumes one unit of the session budget.
func (w *Widget) countdownTick(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	expired, refreshPresence := w.session.CountdownTick()
	if !expired {
		return
	}
	w.setStatusLocked(StatusIdle)
	if refreshPresence {
		if err := w.whoisLocked(ctx); err != nil {
			w.logger.Debug("final presence refresh failed", "error", err)
		}
	}
}

// refreshPresence runs one scheduled who-is-online cycle.
func (w *Widget) refreshPresence(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if err := w.whoisLocked(ctx); err != nil {
		w.logger.Debug("presence refresh failed", "error", err)
	}
}

// whoisLocked fetches and dispatches a presence snapshot. Presence
// failures never feed the session-reset policy: a failed final refresh
// after a 403 must not re-enter session teardown.
func (w *Widget) whoisLocked(ctx context.Context) error {
	payload, err := w.transport.Whois(ctx)
	if err != nil {
		if w.closed || errors.Is(err, context.Canceled) {
			return err
		}
		w.notifier.Error(err)
		return err
	}
	outcome := w.reconciler.Apply(payload)
	w.dispatchLocked(outcome)
	return nil
}

// handleRequestErrorLocked applies the session-level error policy:
// surface the error, mark the error state, then end the session on an
// authorization failure or force a full resync on a stale-state
// failure. Any other failure leaves the timers armed so the next
// scheduled poll retries automatically.
func (w *Widget) handleRequestErrorLocked(ctx context.Context, err error) {
	if w.closed || errors.Is(err, context.Canceled) {
		return
	}
	w.notifier.Error(err)
	w.session.MarkError()
	w.setStatusLocked(StatusError)

	switch {
	case IsAuthError(err):
		// Logged out server-side: the session must end.
		w.endSessionLocked(ctx, false)
	case IsStaleError(err):
		// The server rejected our log position: resynchronize from
		// scratch.
		w.resyncLocked()
	}
}

// endSessionLocked disarms all timers, goes idle, and fires the final
// presence refresh when the controller asks for one.
func (w *Widget) endSessionLocked(ctx context.Context, skipPresenceRefresh bool) {
	refreshPresence := w.session.End(skipPresenceRefresh)
	w.setStatusLocked(StatusIdle)
	if refreshPresence {
		if err := w.whoisLocked(ctx); err != nil {
			w.logger.Debug("final presence refresh failed", "error", err)
		}
	}
}

// resyncLocked drops the incremental log position and restarts the
// session. The next poll re-baselines from the ledger's last-seen ID.
func (w *Widget) resyncLocked() {
	w.reconciler.ResetCursor()
	w.session.Reset()
	if !w.archived {
		w.setStatusLocked(StatusOK)
	}
}

// dispatchLocked fires at most one notification per outcome section.
func (w *Widget) dispatchLocked(outcome Outcome) {
	if len(outcome.Added) > 0 {
		w.notifier.NewMessages(outcome.Added)
	}
	if len(outcome.Edited) > 0 {
		w.notifier.MessagesEdited(outcome.Edited)
	}
	if len(outcome.Deleted) > 0 {
		w.notifier.MessagesDeleted(outcome.Deleted)
	}
	if outcome.Presence != nil {
		w.notifier.PresenceChanged(*outcome.Presence)
	}
}

func (w *Widget) setStatusLocked(status Status) {
	if w.status == status {
		return
	}
	w.status = status
	w.notifier.StatusChanged(status)
}

func (w *Widget) confirmLocked(ctx context.Context, prompt string) bool {
	if w.confirmer == nil {
		return true
	}
	return w.confirmer.Confirm(ctx, prompt)
}
