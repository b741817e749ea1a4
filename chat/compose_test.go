// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/forumchat/shoutbox/lib/clock"
)

// composeHarness wires a compose controller to a fake transport over a
// real session controller (on a fake clock), reconciler, and ledger.
type composeHarness struct {
	compose    *ComposeController
	session    *SessionController
	reconciler *Reconciler
	ledger     *Ledger
	transport  *fakeTransport
	clock      *clock.FakeClock
}

func newComposeHarness(t *testing.T, mutate func(*ComposeConfig)) *composeHarness {
	t.Helper()

	fake := clock.Fake(time.Unix(1_700_000_000, 0))
	transport := newFakeTransport()
	session, err := NewSessionController(SessionConfig{
		PollInterval:   5 * time.Second,
		SessionTimeout: 30 * time.Second,
		Clock:          fake,
	})
	if err != nil {
		t.Fatalf("NewSessionController: %v", err)
	}
	ledger := NewLedger(nil)
	reconciler := NewReconciler(ReconcilerConfig{Ledger: ledger, LiveUpdates: true})

	config := ComposeConfig{
		Transport:  transport,
		Session:    session,
		Reconciler: reconciler,
		Ledger:     ledger,
	}
	if mutate != nil {
		mutate(&config)
	}
	compose, err := NewComposeController(config)
	if err != nil {
		t.Fatalf("NewComposeController: %v", err)
	}
	return &composeHarness{
		compose:    compose,
		session:    session,
		reconciler: reconciler,
		ledger:     ledger,
		transport:  transport,
		clock:      fake,
	}
}

func TestSubmitSuccess(t *testing.T) {
	h := newComposeHarness(t, nil)
	h.transport.addFunc = func(request AddRequest) (*SyncPayload, error) {
		return &SyncPayload{
			Added:  []Message{{ID: 5, Author: "ada", Rendered: "hello"}},
			Cursor: "5",
		}, nil
	}
	h.session.Reset()

	result := h.compose.Submit(context.Background(), "hello")

	sent, ok := result.(Sent)
	if !ok {
		t.Fatalf("Submit result = %T, want Sent", result)
	}
	if len(sent.Outcome.Added) != 1 || sent.Outcome.Added[0].ID != 5 {
		t.Fatalf("Outcome.Added = %v, want the confirmed message", sent.Outcome.Added)
	}
	if !h.ledger.Contains(5) {
		t.Fatal("confirmed message missing from the ledger")
	}
	if h.compose.Draft() != "" {
		t.Fatalf("Draft() = %q after success, want empty", h.compose.Draft())
	}
	if h.compose.InFlight() {
		t.Fatal("InFlight() = true after Submit returned")
	}
	// Success restarts the session cadence.
	if !h.session.PollArmed() || h.session.State() != SessionActive {
		t.Fatal("Submit success must reset the session")
	}

	request := h.transport.lastAdd()
	if request.Message != "hello" {
		t.Fatalf("sent message = %q, want %q", request.Message, "hello")
	}
	if request.Last != 0 {
		t.Fatalf("sent last = %d, want 0 for an empty ledger", request.Last)
	}
}

func TestSubmitRollbackRestoresDraft(t *testing.T) {
	h := newComposeHarness(t, nil)
	sendErr := errors.New("connection reset")
	h.transport.addFunc = func(AddRequest) (*SyncPayload, error) {
		return nil, sendErr
	}
	h.session.Reset()

	result := h.compose.Submit(context.Background(), "hello")

	rolledBack, ok := result.(RolledBack)
	if !ok {
		t.Fatalf("Submit result = %T, want RolledBack", result)
	}
	if rolledBack.Draft != "hello" {
		t.Fatalf("RolledBack.Draft = %q, want %q", rolledBack.Draft, "hello")
	}
	if !errors.Is(rolledBack.Err, sendErr) {
		t.Fatalf("RolledBack.Err = %v, want the transport error", rolledBack.Err)
	}
	if h.compose.Draft() != "hello" {
		t.Fatalf("Draft() = %q after rollback, want %q", h.compose.Draft(), "hello")
	}
	if h.compose.InFlight() {
		t.Fatal("InFlight() must clear after a failed Submit")
	}
	if h.ledger.Len() != 0 {
		t.Fatal("a failed send must not touch the ledger")
	}
	// The cadence stays paused after a failure; the countdown keeps
	// running.
	if h.session.PollArmed() {
		t.Fatal("poll timer re-armed after a failed send")
	}
	if !h.session.CountdownArmed() {
		t.Fatal("countdown disarmed by a failed send")
	}
}

func TestSubmitValidation(t *testing.T) {
	h := newComposeHarness(t, func(c *ComposeConfig) {
		c.MaxMessageLength = 5
	})

	for _, text := range []string{"", "   \n\t  "} {
		result := h.compose.Submit(context.Background(), text)
		rejected, ok := result.(Rejected)
		if !ok || !errors.Is(rejected.Err, ErrEmptyMessage) {
			t.Fatalf("Submit(%q) = %#v, want Rejected(ErrEmptyMessage)", text, result)
		}
	}

	// Length limits count runes, not bytes.
	result := h.compose.Submit(context.Background(), "héllo!")
	rejected, ok := result.(Rejected)
	if !ok || !errors.Is(rejected.Err, ErrMessageTooLong) {
		t.Fatalf("Submit over limit = %#v, want Rejected(ErrMessageTooLong)", result)
	}
	if _, ok := h.compose.Submit(context.Background(), "héllo").(Sent); !ok {
		t.Fatal("a 5-rune message must pass a 5-rune limit")
	}

	if got := len(h.transport.addCalls); got != 1 {
		t.Fatalf("transport saw %d add requests, want 1 (rejections are local)", got)
	}
}

func TestSubmitWhileInFlightRejected(t *testing.T) {
	h := newComposeHarness(t, nil)
	var nested SubmitResult
	h.transport.addFunc = func(AddRequest) (*SyncPayload, error) {
		// Re-entrant submit while the first is still outstanding.
		nested = h.compose.Submit(context.Background(), "second")
		return &SyncPayload{}, nil
	}

	result := h.compose.Submit(context.Background(), "first")

	if _, ok := result.(Sent); !ok {
		t.Fatalf("outer Submit = %T, want Sent", result)
	}
	rejected, ok := nested.(Rejected)
	if !ok || !errors.Is(rejected.Err, ErrSubmitInFlight) {
		t.Fatalf("nested Submit = %#v, want Rejected(ErrSubmitInFlight)", nested)
	}
	if got := len(h.transport.addCalls); got != 1 {
		t.Fatalf("transport saw %d add requests, want 1", got)
	}
}

func TestSubmitColourWrap(t *testing.T) {
	colour := "cc0000"
	h := newComposeHarness(t, func(c *ComposeConfig) {
		c.RememberedColour = func() string { return colour }
	})

	h.compose.Submit(context.Background(), "hi there")
	if got := h.transport.lastAdd().Message; got != "[color=#cc0000] hi there [/color]" {
		t.Fatalf("sent message = %q, want colour wrap", got)
	}

	// Existing colour markup wins over the remembered colour.
	h.compose.Submit(context.Background(), "[color=#00ff00]green[/color]")
	if got := h.transport.lastAdd().Message; got != "[color=#00ff00]green[/color]" {
		t.Fatalf("sent message = %q, want no double wrap", got)
	}

	// No remembered colour, no wrap.
	colour = ""
	h.compose.Submit(context.Background(), "plain")
	if got := h.transport.lastAdd().Message; got != "plain" {
		t.Fatalf("sent message = %q, want unwrapped", got)
	}
}

func TestSubmitSingleLineCollapsesWhitespace(t *testing.T) {
	h := newComposeHarness(t, nil)
	h.compose.Submit(context.Background(), "  a \n\t b  ")
	if got := h.transport.lastAdd().Message; got != "a b" {
		t.Fatalf("sent message = %q, want %q", got, "a b")
	}
}

func TestNormalizeMessage(t *testing.T) {
	tests := []struct {
		text      string
		multiLine bool
		want      string
	}{
		{"hello", false, "hello"},
		{"  hello  ", false, "hello"},
		{"a \n b", false, "a b"},
		{"a \n b", true, "a \n b"},
		{"  a \n b  ", true, "a \n b"},
		{"\t\n ", true, ""},
	}
	for _, test := range tests {
		if got := NormalizeMessage(test.text, test.multiLine); got != test.want {
			t.Errorf("NormalizeMessage(%q, %v) = %q, want %q", test.text, test.multiLine, got, test.want)
		}
	}
}

func TestEnterSubmits(t *testing.T) {
	tests := []struct {
		ctrlHeld           bool
		linebreakPreferred bool
		multiLine          bool
		want               bool
	}{
		// Single-line input always submits.
		{false, false, false, true},
		{true, false, false, true},
		{false, true, false, true},
		{true, true, false, true},
		// Multi-line: plain Enter submits unless line breaks are
		// preferred, and Ctrl flips the rule.
		{false, false, true, true},
		{true, false, true, false},
		{false, true, true, false},
		{true, true, true, true},
	}
	for _, test := range tests {
		got := EnterSubmits(test.ctrlHeld, test.linebreakPreferred, test.multiLine)
		if got != test.want {
			t.Errorf("EnterSubmits(ctrl=%v, pref=%v, multi=%v) = %v, want %v",
				test.ctrlHeld, test.linebreakPreferred, test.multiLine, got, test.want)
		}
	}
}
