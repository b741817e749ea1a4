// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"strings"
	"testing"
)

func TestReadResponse(t *testing.T) {
	data, err := ReadResponse(strings.NewReader(`{"refresh":true}`))
	if err != nil {
		t.Fatalf("ReadResponse failed: %v", err)
	}
	if string(data) != `{"refresh":true}` {
		t.Errorf("unexpected body: %s", data)
	}
}

func TestDecodeResponse(t *testing.T) {
	var payload struct {
		Refresh bool `json:"refresh"`
	}
	if err := DecodeResponse(strings.NewReader(`{"refresh":true}`), &payload); err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if !payload.Refresh {
		t.Error("expected refresh flag to decode as true")
	}
}

func TestDecodeResponseRejectsMalformedJSON(t *testing.T) {
	var payload map[string]any
	if err := DecodeResponse(strings.NewReader(`{"refresh":`), &payload); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}
