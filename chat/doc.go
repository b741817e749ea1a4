// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

// Package chat implements the client-side synchronization core of the
// Shoutbox forum chat widget: a message ledger kept consistent with the
// server-side message log via periodic polling, optimistic
// send/edit/delete, and a bounded live session with automatic expiry.
//
// The package is organized around five cooperating pieces, all owned by
// a single [Widget] instance:
//
//   - [Transport] issues request/response exchanges against the named
//     server operations (refresh, add, edit, del, whois).
//     [HTTPTransport] is the production implementation: JSON over HTTP
//     POST with per-request timeouts bounded by the poll interval.
//   - [Ledger] tracks the ordered set of message IDs currently
//     rendered, providing the dedup guard against re-delivery from
//     overlapping poll windows.
//   - [SessionController] is the timed state machine governing when
//     polling happens, when the session expires, and when presence is
//     refreshed. Its three timers are armed and disarmed as a unit.
//   - [Reconciler] interprets server responses (added/edited/deleted
//     message sets, presence snapshot, log cursor) and applies them to
//     the ledger, producing a declarative [Outcome] instead of direct
//     side effects.
//   - [ComposeController] manages the outgoing message lifecycle:
//     validate, optimistic clear, send, then confirm or roll back.
//
// Rendering, sound, and notification playback are external
// collaborators behind the [Notifier] interface; the core never
// touches a display surface directly.
package chat
