// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"errors"
	"fmt"
	"net/http"
)

// ServerError represents a structured error response from the chat
// server. Callers can use errors.As to extract the structured
// information:
//
//	var serverErr *chat.ServerError
//	if errors.As(err, &serverErr) {
//	    if serverErr.StatusCode == http.StatusForbidden { ... }
//	}
type ServerError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`
	// Title is an optional human-readable error title from the server.
	Title string `json:"title,omitempty"`
	// Message is the human-readable error description from the server.
	Message string `json:"message"`
}

func (e *ServerError) Error() string {
	if e.Title != "" {
		return fmt.Sprintf("chat: server returned %d: %s: %s", e.StatusCode, e.Title, e.Message)
	}
	return fmt.Sprintf("chat: server returned %d: %s", e.StatusCode, e.Message)
}

// ParseError reports a malformed server response: a payload missing its
// operation discriminator or one that is not valid JSON. The ledger is
// never modified on a parse error.
type ParseError struct {
	// Op is the operation whose response failed to parse.
	Op Op
	// Err is the underlying decode failure.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("chat: malformed %s response: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Compose validation errors. These are rejected locally before any
// request is sent.
var (
	// ErrEmptyMessage reports a submit with no content after
	// normalization.
	ErrEmptyMessage = errors.New("chat: message is empty")

	// ErrMessageTooLong reports a submit exceeding the configured
	// maximum message length.
	ErrMessageTooLong = errors.New("chat: message exceeds maximum length")

	// ErrSubmitInFlight reports a submit while a previous one is still
	// outstanding. At most one send may be in flight at a time.
	ErrSubmitInFlight = errors.New("chat: a submit is already in flight")
)

// ErrRequestCancelled is returned when a request hook sets the Cancel
// flag, suppressing the outgoing request.
var ErrRequestCancelled = errors.New("chat: request cancelled by hook")

// IsAuthError reports whether err is a 403-class server error. An auth
// error on a poll means the session must end (the user was logged out).
func IsAuthError(err error) bool {
	var serverErr *ServerError
	return errors.As(err, &serverErr) && serverErr.StatusCode == http.StatusForbidden
}

// IsStaleError reports whether err is a 400-class server error. A stale
// error on a poll means the client's notion of its log position is no
// longer valid and the session must fully resynchronize.
func IsStaleError(err error) bool {
	var serverErr *ServerError
	return errors.As(err, &serverErr) && serverErr.StatusCode == http.StatusBadRequest
}
