// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/forumchat/shoutbox/chat"
	"github.com/forumchat/shoutbox/lib/clock"
	"github.com/forumchat/shoutbox/prefs"
)

// stubTransport answers every operation with an empty payload and
// records add requests.
type stubTransport struct {
	mu   sync.Mutex
	adds []chat.AddRequest
}

func (s *stubTransport) Refresh(context.Context, chat.RefreshRequest) (*chat.SyncPayload, error) {
	return &chat.SyncPayload{}, nil
}

func (s *stubTransport) Add(_ context.Context, request chat.AddRequest) (*chat.SyncPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adds = append(s.adds, request)
	return &chat.SyncPayload{Added: []chat.Message{{ID: len(s.adds), Rendered: request.Message}}}, nil
}

func (s *stubTransport) Edit(context.Context, chat.EditRequest) (*chat.SyncPayload, error) {
	return &chat.SyncPayload{}, nil
}

func (s *stubTransport) Delete(context.Context, chat.DeleteRequest) (*chat.SyncPayload, error) {
	return &chat.SyncPayload{}, nil
}

func (s *stubTransport) Whois(context.Context) (*chat.SyncPayload, error) {
	return &chat.SyncPayload{}, nil
}

func (s *stubTransport) addCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.adds)
}

func newTestModel(t *testing.T, mutate func(*Config)) (*Model, *stubTransport) {
	t.Helper()

	transport := &stubTransport{}
	feed := NewFeed(16, nil)
	widget, err := chat.NewWidget(chat.WidgetConfig{
		Transport:    transport,
		PollInterval: 5 * time.Second,
		MultiLine:    true,
		Notifier:     feed,
		Clock:        clock.Fake(time.Unix(1_700_000_000, 0)),
	})
	if err != nil {
		t.Fatalf("NewWidget: %v", err)
	}

	store := prefs.Open(prefs.Config{Path: filepath.Join(t.TempDir(), "prefs.json")})

	config := Config{
		Widget:    widget,
		Feed:      feed,
		Prefs:     store,
		MultiLine: true,
	}
	if mutate != nil {
		mutate(&config)
	}
	model := NewModel(config)
	model.resize(80, 24)
	return model, transport
}

func TestModelAppliesMessageEvents(t *testing.T) {
	model, _ := newTestModel(t, nil)

	model.applyEvent(Event{Kind: EventMessages, Messages: []chat.Message{
		{ID: 1, Author: "ada", Rendered: "hello", Posted: 1_700_000_000},
		{ID: 2, Author: "grace", Rendered: "hi", Posted: 1_700_000_060},
	}})

	if len(model.messages) != 2 {
		t.Fatalf("model holds %d messages, want 2", len(model.messages))
	}

	model.applyEvent(Event{Kind: EventEdits, Messages: []chat.Message{
		{ID: 1, Author: "ada", Rendered: "hello, edited"},
	}})
	if model.messages[0].Rendered != "hello, edited" {
		t.Fatalf("message 1 = %q, want the edit applied", model.messages[0].Rendered)
	}

	model.applyEvent(Event{Kind: EventDeletes, Deleted: []int{1}})
	if len(model.messages) != 1 || model.messages[0].ID != 2 {
		t.Fatalf("messages after delete = %v, want only ID 2", model.messages)
	}
}

func TestModelNewestFirstPrepends(t *testing.T) {
	model, _ := newTestModel(t, func(c *Config) { c.NewestFirst = true })

	model.applyEvent(Event{Kind: EventMessages, Messages: []chat.Message{{ID: 1}}})
	model.applyEvent(Event{Kind: EventMessages, Messages: []chat.Message{{ID: 3}, {ID: 2}}})

	if model.messages[0].ID != 3 || model.messages[2].ID != 1 {
		t.Fatalf("message order = %v, want newest batch first", model.messages)
	}
}

func TestModelEnterInsertsLineBreakWhenPreferred(t *testing.T) {
	model, transport := newTestModel(t, nil)
	model.prefs.SetLinebreakPreferred(true)

	model.input.SetValue("two")
	model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if got := model.input.Value(); got != "two\n" {
		t.Fatalf("input = %q, want a line break appended", got)
	}
	if transport.addCount() != 0 {
		t.Fatal("enter sent a message despite the line-break preference")
	}
}

func TestModelEnterSubmits(t *testing.T) {
	model, transport := newTestModel(t, nil)
	model.input.SetValue("hello")

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter produced no submit command")
	}
	// The input clears optimistically before the send completes.
	if !model.input.Empty() {
		t.Fatalf("input = %q after enter, want empty", model.input.Value())
	}

	message := cmd()
	done, ok := message.(submitDoneMsg)
	if !ok {
		t.Fatalf("command produced %T, want submitDoneMsg", message)
	}
	if _, ok := done.result.(chat.Sent); !ok {
		t.Fatalf("submit result = %T, want Sent", done.result)
	}
	if transport.addCount() != 1 {
		t.Fatalf("transport saw %d adds, want 1", transport.addCount())
	}
}

func TestModelAltEnterFlipsRule(t *testing.T) {
	model, transport := newTestModel(t, nil)
	model.input.SetValue("draft")

	// Line breaks are not preferred, so alt+enter inserts one instead
	// of submitting.
	model.Update(tea.KeyMsg{Type: tea.KeyEnter, Alt: true})

	if got := model.input.Value(); got != "draft\n" {
		t.Fatalf("input = %q, want a line break", got)
	}
	if transport.addCount() != 0 {
		t.Fatal("alt+enter submitted despite the flip rule")
	}
}

func TestModelRolledBackRestoresInput(t *testing.T) {
	model, _ := newTestModel(t, nil)

	model.finishSubmit(chat.RolledBack{Draft: "hello", Err: context.DeadlineExceeded})

	if got := model.input.Value(); got != "hello" {
		t.Fatalf("input = %q after rollback, want the draft back", got)
	}
	if model.notice == "" {
		t.Fatal("rollback produced no notice")
	}
}

func TestModelViewSmoke(t *testing.T) {
	model, _ := newTestModel(t, nil)
	model.applyEvent(Event{Kind: EventMessages, Messages: []chat.Message{
		{ID: 1, Author: "ada", Rendered: "hello", Posted: 1_700_000_000},
	}})
	model.applyEvent(Event{Kind: EventPresence, Presence: chat.Presence{Users: []string{"ada"}}})

	view := model.View()
	if !strings.Contains(view, "shoutbox") {
		t.Fatal("view missing the header")
	}
	if !strings.Contains(view, "hello") {
		t.Fatal("view missing the message body")
	}
	if !strings.Contains(view, "online: ada") {
		t.Fatal("view missing the presence line")
	}
}

func TestFeedDeliversEvents(t *testing.T) {
	feed := NewFeed(4, nil)
	feed.NewMessages([]chat.Message{{ID: 1}})
	feed.StatusChanged(chat.StatusOK)

	event := <-feed.Events()
	if event.Kind != EventMessages || len(event.Messages) != 1 {
		t.Fatalf("first event = %+v, want the message batch", event)
	}
	event = <-feed.Events()
	if event.Kind != EventStatus || event.Status != chat.StatusOK {
		t.Fatalf("second event = %+v, want the status change", event)
	}
}

func TestComposeInputEditing(t *testing.T) {
	input := newComposeInput(DefaultTheme)

	for _, r := range "hey" {
		input.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	if got := input.Value(); got != "hey" {
		t.Fatalf("Value() = %q, want %q", got, "hey")
	}

	input.InsertLineBreak()
	input.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'!'}})
	if got := input.Value(); got != "hey\n!" {
		t.Fatalf("Value() = %q, want %q", got, "hey\n!")
	}

	// Backspace at column zero joins with the previous line.
	input.Update(tea.KeyMsg{Type: tea.KeyLeft})
	input.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if got := input.Value(); got != "hey!" {
		t.Fatalf("Value() = %q after join, want %q", got, "hey!")
	}

	input.Reset()
	if !input.Empty() {
		t.Fatal("Reset left content behind")
	}
}
