// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"log/slog"

	"github.com/forumchat/shoutbox/chat"
)

// EventKind discriminates Feed events.
type EventKind int

const (
	// EventMessages carries newly accepted messages, in render order.
	EventMessages EventKind = iota
	// EventEdits carries replacement payloads for rendered messages.
	EventEdits
	// EventDeletes carries IDs removed from the ledger.
	EventDeletes
	// EventPresence carries a new who-is-online snapshot.
	EventPresence
	// EventStatus carries a display status transition.
	EventStatus
	// EventError carries a failed exchange's error.
	EventError
)

// Event is one widget side effect, delivered through the Feed into
// the bubbletea message loop.
type Event struct {
	Kind     EventKind
	Messages []chat.Message
	Deleted  []int
	Presence chat.Presence
	Status   chat.Status
	Err      error
}

// Feed adapts the widget's Notifier callbacks into a channel the TUI
// consumes. Notifications are delivered while the widget's state is
// locked, so sends never block: if the TUI falls behind the buffer,
// events are dropped with a warning rather than stalling the sync
// core.
type Feed struct {
	events chan Event
	logger *slog.Logger
}

var _ chat.Notifier = (*Feed)(nil)

// NewFeed creates a feed with the given buffer size. A buffer of 64
// is plenty for an interactive session.
func NewFeed(buffer int, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		events: make(chan Event, buffer),
		logger: logger,
	}
}

// Events returns the channel the TUI reads from.
func (f *Feed) Events() <-chan Event { return f.events }

func (f *Feed) push(event Event) {
	select {
	case f.events <- event:
	default:
		f.logger.Warn("event feed full, dropping event", "kind", event.Kind)
	}
}

// NewMessages implements chat.Notifier.
func (f *Feed) NewMessages(messages []chat.Message) {
	f.push(Event{Kind: EventMessages, Messages: messages})
}

// MessagesEdited implements chat.Notifier.
func (f *Feed) MessagesEdited(messages []chat.Message) {
	f.push(Event{Kind: EventEdits, Messages: messages})
}

// MessagesDeleted implements chat.Notifier.
func (f *Feed) MessagesDeleted(ids []int) {
	f.push(Event{Kind: EventDeletes, Deleted: ids})
}

// PresenceChanged implements chat.Notifier.
func (f *Feed) PresenceChanged(presence chat.Presence) {
	f.push(Event{Kind: EventPresence, Presence: presence})
}

// StatusChanged implements chat.Notifier.
func (f *Feed) StatusChanged(status chat.Status) {
	f.push(Event{Kind: EventStatus, Status: status})
}

// Error implements chat.Notifier.
func (f *Feed) Error(err error) {
	f.push(Event{Kind: EventError, Err: err})
}
