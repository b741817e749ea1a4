// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import "context"

// Status is the display state shown next to the widget. It tracks the
// session's coarse state plus a transient "loading" phase while a poll
// is in flight.
type Status string

// Display states.
const (
	StatusOK      Status = "ok"
	StatusLoading Status = "loading"
	StatusIdle    Status = "idle"
	StatusError   Status = "error"
)

// Notifier receives the declarative side effects of reconciliation:
// sounds, title alerts, rendering. The core guarantees at most one
// call per notification class per reconciled batch: a batch of ten
// new messages is one NewMessages call, not ten.
//
// Implementations must not call back into the Widget from a
// notification; notifications are delivered while the widget's
// internal state is locked.
type Notifier interface {
	// NewMessages reports messages accepted into the ledger, in
	// render order.
	NewMessages(messages []Message)

	// MessagesEdited reports replacement payloads for rendered
	// messages.
	MessagesEdited(messages []Message)

	// MessagesDeleted reports IDs removed from the ledger.
	MessagesDeleted(ids []int)

	// PresenceChanged reports a new who-is-online snapshot.
	PresenceChanged(presence Presence)

	// StatusChanged reports a display state transition. Fires only on
	// change, never repeatedly for the same status.
	StatusChanged(status Status)

	// Error reports a failed exchange. The session-level retry policy
	// has already been applied; this is for user-facing surfacing.
	Error(err error)
}

// NopNotifier is a Notifier that ignores everything. Embed it to
// implement only the notifications a front-end cares about.
type NopNotifier struct{}

// NewMessages implements Notifier.
func (NopNotifier) NewMessages([]Message) {}

// MessagesEdited implements Notifier.
func (NopNotifier) MessagesEdited([]Message) {}

// MessagesDeleted implements Notifier.
func (NopNotifier) MessagesDeleted([]int) {}

// PresenceChanged implements Notifier.
func (NopNotifier) PresenceChanged(Presence) {}

// StatusChanged implements Notifier.
func (NopNotifier) StatusChanged(Status) {}

// Error implements Notifier.
func (NopNotifier) Error(error) {}

var _ Notifier = NopNotifier{}

// Confirmer yields a boolean outcome for destructive actions (message
// edit and delete prompts). The production implementation is the
// page's confirmation dialog; a nil Confirmer auto-confirms.
type Confirmer interface {
	// Confirm presents prompt and reports whether the user accepted.
	Confirm(ctx context.Context, prompt string) bool
}
