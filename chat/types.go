// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import "context"

// Op names a server operation. Each operation has its own endpoint and
// its response carries a discriminator field of the same name.
type Op string

// The five server operations.
const (
	OpRefresh Op = "refresh"
	OpAdd     Op = "add"
	OpEdit    Op = "edit"
	OpDelete  Op = "del"
	OpWhois   Op = "whois"
)

// Message is a single chat message as delivered by the server. IDs are
// unique and assigned monotonically by the server; content arrives
// fully rendered and is opaque to the sync core.
type Message struct {
	// ID is the server-assigned message identifier.
	ID int `json:"id"`

	// Author is the display name of the message author.
	Author string `json:"author"`

	// Rendered is the rendered message content. The sync core never
	// inspects it; BBCode and smiley expansion happen server-side.
	Rendered string `json:"rendered"`

	// Posted is the message timestamp in Unix seconds.
	Posted int64 `json:"posted"`

	// EditableFor is how many seconds remain in the message's
	// edit/delete eligibility window. Zero means the window is
	// unlimited (or already closed; the server enforces either way).
	EditableFor int64 `json:"editable_for,omitempty"`
}

// Presence is the who-is-online snapshot. It is wholesale-replaced per
// reconciliation, never diffed.
type Presence struct {
	// Rendered is the server-rendered presence markup, opaque to the
	// sync core.
	Rendered string `json:"rendered"`

	// Users lists the display names of online users for text
	// front-ends that don't consume the rendered markup.
	Users []string `json:"users,omitempty"`
}

// SyncPayload is the response body shared by all operations. Every
// section is optional; the reconciler applies the present ones in
// fixed order (additions, edits, deletions, presence, cursor).
type SyncPayload struct {
	// Added holds messages the client has not seen yet, in
	// server-supplied order (oldest first).
	Added []Message `json:"add,omitempty"`

	// Edited holds replacement payloads for messages already rendered.
	Edited []Message `json:"edit,omitempty"`

	// Deleted holds IDs of messages removed on the server.
	Deleted []int `json:"del,omitempty"`

	// Whois is the presence snapshot, when the operation refreshed it.
	Whois *Presence `json:"whois,omitempty"`

	// Cursor is the opaque log-position marker echoed back on the next
	// poll request, enabling incremental server-side log reads.
	Cursor string `json:"log,omitempty"`
}

// RefreshRequest asks the server for everything that changed since the
// client's last-seen message.
type RefreshRequest struct {
	// Last is the highest message ID currently in the ledger, or zero
	// when the ledger is empty.
	Last int

	// Cursor is the log-position marker from the previous response.
	// Empty on the first poll or after a full resync.
	Cursor string
}

// AddRequest carries a new outgoing message combined with a refresh, so
// a send and its confirming fetch are a single exchange.
type AddRequest struct {
	Last    int
	Message string
	Cursor  string
}

// EditRequest replaces the content of an existing message.
type EditRequest struct {
	MessageID int
	Message   string
}

// DeleteRequest removes a message.
type DeleteRequest struct {
	MessageID int
}

// Transport issues request/response exchanges against the named server
// operations. The production implementation is [HTTPTransport]; tests
// substitute fakes.
//
// Every method returns the decoded response payload on success, a
// *ServerError for a non-2xx response with a structured body, a
// *ParseError for a malformed body, or a wrapped transport-level error
// for network failures and timeouts.
type Transport interface {
	Refresh(ctx context.Context, request RefreshRequest) (*SyncPayload, error)
	Add(ctx context.Context, request AddRequest) (*SyncPayload, error)
	Edit(ctx context.Context, request EditRequest) (*SyncPayload, error)
	Delete(ctx context.Context, request DeleteRequest) (*SyncPayload, error)
	Whois(ctx context.Context) (*SyncPayload, error)
}
