// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP I/O helpers for the chat client.
//
// Response helpers (ReadResponse, DecodeResponse) bound all body reads
// at MaxResponseSize to prevent unbounded memory allocation from a
// misbehaving server. They are for the JSON chat API only, not for
// streaming responses or large binary downloads.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxResponseSize is the bound on chat API response body reads: 4 MB.
// A refresh response carries at most a few screens of rendered messages
// plus a presence snapshot; the limit is generous so that it never
// interferes with normal operation.
const MaxResponseSize int64 = 4 << 20

// ReadResponse reads a JSON API response body up to MaxResponseSize
// bytes. Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads a JSON API response body (up to MaxResponseSize
// bytes) and JSON-decodes it into v. Replaces the common io.ReadAll +
// json.Unmarshal pattern.
func DecodeResponse(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}
