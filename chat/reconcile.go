// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"log/slog"
	"slices"
)

// Outcome is the declarative result of applying one server response to
// the ledger. The widget turns it into notifications; renderers turn
// it into display updates. Exactly one notification fires per
// non-empty section, never one per message, to avoid notification
// storms.
type Outcome struct {
	// Added holds the messages accepted into the ledger, in final
	// render order (reversed from server order when the orientation
	// places newest at the top).
	Added []Message

	// Edited holds replacement payloads for messages still in the
	// ledger. Edits for locally-deleted messages are dropped.
	Edited []Message

	// Deleted holds the IDs actually removed from the ledger.
	Deleted []int

	// Presence is the new presence snapshot, or nil when the response
	// carried none. Snapshots are wholesale-replaced, never diffed.
	Presence *Presence

	// Cursor is the log position to send with the next poll.
	Cursor string
}

// AddEvent is the mutable context passed to per-message add hooks. A
// hook may set Abort to skip the message: it is not inserted into the
// ledger and does not appear in the outcome.
type AddEvent struct {
	Message Message
	Abort   bool
}

// AddHook is a pre-processing callback invoked for each candidate
// message before it is accepted into the ledger.
type AddHook func(*AddEvent)

// ApplyHook is a pre-processing callback invoked with the whole
// payload before reconciliation. Mutations are visible to all later
// phases.
type ApplyHook func(*SyncPayload)

// ReconcilerConfig holds configuration for creating a Reconciler.
type ReconcilerConfig struct {
	// Ledger is the message ledger reconciliation applies to. Required.
	Ledger *Ledger

	// NewestFirst is the render orientation: true when the newest
	// message is rendered at the top.
	NewestFirst bool

	// LiveUpdates enables cursor tracking for incremental server-side
	// log reads. When false, responses' cursors are ignored and polls
	// carry no log position.
	LiveUpdates bool

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Reconciler interprets server response payloads and applies them to
// the ledger. Processing order is fixed (additions, edits, deletions,
// presence, cursor) because later phases may reference ledger state
// mutated by earlier ones.
//
// Reconciler is not safe for concurrent use; the owning Widget
// serializes access.
type Reconciler struct {
	ledger      *Ledger
	newestFirst bool
	liveUpdates bool
	logger      *slog.Logger
	cursor      string

	beforeApply []ApplyHook
	beforeAdd   []AddHook
}

// NewReconciler creates a reconciler over the given ledger.
func NewReconciler(config ReconcilerConfig) *Reconciler {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		ledger:      config.Ledger,
		newestFirst: config.NewestFirst,
		liveUpdates: config.LiveUpdates,
		logger:      logger,
	}
}

// OnBeforeApply registers a hook invoked with every payload before
// reconciliation. Hooks run in registration order.
func (r *Reconciler) OnBeforeApply(hook ApplyHook) {
	r.beforeApply = append(r.beforeApply, hook)
}

// OnBeforeAdd registers a hook invoked for each candidate message
// before it is accepted into the ledger.
func (r *Reconciler) OnBeforeAdd(hook AddHook) {
	r.beforeAdd = append(r.beforeAdd, hook)
}

// Cursor returns the log position to send with the next poll request.
// Empty when live updates are disabled or no cursor has been received.
func (r *Reconciler) Cursor() string { return r.cursor }

// ResetCursor drops the tracked log position. The next poll re-reads
// from the client's last-seen message instead of an incremental log
// position. Used during a full resync, when the server has declared
// the client's position stale.
func (r *Reconciler) ResetCursor() { r.cursor = "" }

// Apply applies one response payload to the ledger and returns the
// declarative outcome.
func (r *Reconciler) Apply(payload *SyncPayload) Outcome {
	for _, hook := range r.beforeApply {
		hook(payload)
	}

	var outcome Outcome

	// Additions. A candidate already in the ledger is re-delivery from
	// an overlapping poll window (a send-triggered fetch racing a
	// scheduled poll) and is skipped without disturbing the rest of
	// the batch.
	for _, message := range payload.Added {
		if r.ledger.Contains(message.ID) {
			continue
		}
		event := AddEvent{Message: message}
		for _, hook := range r.beforeAdd {
			hook(&event)
		}
		if event.Abort {
			continue
		}
		r.ledger.Insert(event.Message.ID)
		outcome.Added = append(outcome.Added, event.Message)
	}
	if r.newestFirst {
		slices.Reverse(outcome.Added)
	}

	// Edits. A message absent from the ledger was already deleted
	// locally; its edit is dropped.
	for _, message := range payload.Edited {
		if !r.ledger.Contains(message.ID) {
			r.logger.Debug("dropping edit for absent message", "id", message.ID)
			continue
		}
		outcome.Edited = append(outcome.Edited, message)
	}

	// Deletions. Absent IDs are ignored.
	for _, id := range payload.Deleted {
		if r.ledger.Remove(id) {
			outcome.Deleted = append(outcome.Deleted, id)
		}
	}

	// Presence is wholesale-replaced.
	outcome.Presence = payload.Whois

	// Cursor update enables incremental log reads on the next poll.
	if r.liveUpdates && payload.Cursor != "" {
		r.cursor = payload.Cursor
	}
	outcome.Cursor = r.cursor

	return outcome
}
