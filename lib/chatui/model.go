// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/forumchat/shoutbox/chat"
	"github.com/forumchat/shoutbox/prefs"
)

// eventMsg wraps a Feed event for delivery through the bubbletea
// message loop.
type eventMsg struct {
	event Event
}

// submitDoneMsg is sent when an asynchronous submit completes.
type submitDoneMsg struct {
	result chat.SubmitResult
}

// refreshDoneMsg is sent when a manual refresh completes.
type refreshDoneMsg struct {
	err error
}

// noticeFadeMsg clears a transient notice from the status line.
type noticeFadeMsg struct {
	sequence int
}

// noticeFadeDelay is how long transient notices stay visible.
const noticeFadeDelay = 4 * time.Second

// chromeHeight is the number of non-viewport rows: header, presence
// line, compose box (three rows with border), and help line.
const chromeHeight = 6

// Config holds everything the TUI model needs.
type Config struct {
	// Widget is the running chat widget. Required.
	Widget *chat.Widget

	// Feed delivers the widget's side effects. Must be the same Feed
	// installed as the widget's Notifier. Required.
	Feed *Feed

	// Prefs persists the user's sound, line-break, and colour
	// preferences. Nil disables the toggles.
	Prefs *prefs.Store

	// Username highlights the user's own messages.
	Username string

	// NewestFirst renders the newest message at the top.
	NewestFirst bool

	// MultiLine allows line breaks in the compose input.
	MultiLine bool

	// Keys and Theme default to DefaultKeyMap and DefaultTheme.
	Keys  *KeyMap
	Theme *Theme
}

// Model is the bubbletea model for the chat TUI.
type Model struct {
	widget      *chat.Widget
	feed        *Feed
	prefs       *prefs.Store
	username    string
	newestFirst bool
	multiLine   bool
	keys        KeyMap
	theme       Theme

	ctx      context.Context
	cancel   context.CancelFunc
	viewport viewport.Model
	input    composeInput

	messages []chat.Message
	presence chat.Presence
	status   chat.Status

	notice         string
	noticeSequence int

	width  int
	height int
	ready  bool
}

// NewModel creates the TUI model. The widget must already be
// constructed with config.Feed as its Notifier; Run is the caller's
// responsibility.
func NewModel(config Config) *Model {
	keys := DefaultKeyMap
	if config.Keys != nil {
		keys = *config.Keys
	}
	theme := DefaultTheme
	if config.Theme != nil {
		theme = *config.Theme
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Model{
		widget:      config.Widget,
		feed:        config.Feed,
		prefs:       config.Prefs,
		username:    config.Username,
		newestFirst: config.NewestFirst,
		multiLine:   config.MultiLine,
		keys:        keys,
		theme:       theme,
		ctx:         ctx,
		cancel:      cancel,
		input:       newComposeInput(theme),
		status:      chat.StatusIdle,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.waitForEvent()
}

// waitForEvent blocks on the feed and redelivers the event as a
// bubbletea message. Re-issued after every delivery.
func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.feed.Events()
		if !ok {
			return nil
		}
		return eventMsg{event: event}
	}
}

// Update implements tea.Model.
func (m *Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		m.resize(message.Width, message.Height)
		return m, nil

	case eventMsg:
		m.applyEvent(message.event)
		return m, m.waitForEvent()

	case submitDoneMsg:
		return m, m.finishSubmit(message.result)

	case refreshDoneMsg:
		if message.err != nil {
			return m, m.showNotice(fmt.Sprintf("refresh failed: %v", message.err))
		}
		return m, nil

	case noticeFadeMsg:
		if message.sequence == m.noticeSequence {
			m.notice = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(message)
	}
	return m, nil
}

func (m *Model) handleKey(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, m.keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(message, m.keys.ScrollUp):
		m.viewport.LineUp(1)
		return m, nil

	case key.Matches(message, m.keys.ScrollDown):
		m.viewport.LineDown(1)
		return m, nil

	case key.Matches(message, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(message, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(message, m.keys.Refresh):
		return m, func() tea.Msg {
			return refreshDoneMsg{err: m.widget.Refresh(m.ctx)}
		}

	case key.Matches(message, m.keys.EndSession):
		m.widget.EndSession(m.ctx, false)
		return m, m.showNotice("session ended")

	case key.Matches(message, m.keys.ResetSession):
		m.widget.ResetSession()
		return m, m.showNotice("session restarted")

	case key.Matches(message, m.keys.ToggleSound):
		if m.prefs == nil {
			return m, nil
		}
		enabled := !m.prefs.SoundEnabled()
		m.prefs.SetSoundEnabled(enabled)
		if enabled {
			return m, m.showNotice("sound on")
		}
		return m, m.showNotice("sound off")

	case key.Matches(message, m.keys.ToggleLinebreak):
		if m.prefs == nil {
			return m, nil
		}
		preferred := !m.prefs.LinebreakPreferred()
		m.prefs.SetLinebreakPreferred(preferred)
		if preferred {
			return m, m.showNotice("enter inserts a line break")
		}
		return m, m.showNotice("enter submits")

	case message.Type == tea.KeyEnter:
		return m.handleEnter(message.Alt)
	}

	m.input.Update(message)
	return m, nil
}

// handleEnter routes Enter to submit or line break per the stored
// preference; the Alt modifier flips the rule.
func (m *Model) handleEnter(altHeld bool) (tea.Model, tea.Cmd) {
	linebreakPreferred := false
	if m.prefs != nil {
		linebreakPreferred = m.prefs.LinebreakPreferred()
	}
	if !chat.EnterSubmits(altHeld, linebreakPreferred, m.multiLine) {
		m.input.InsertLineBreak()
		return m, nil
	}

	if m.widget.SubmitInFlight() {
		return m, m.showNotice("a message is already on its way")
	}
	text := m.input.Value()
	m.input.Reset()
	return m, func() tea.Msg {
		return submitDoneMsg{result: m.widget.Submit(m.ctx, text)}
	}
}

// finishSubmit folds a submit result back into the UI. Confirmed
// messages arrive separately through the feed.
func (m *Model) finishSubmit(result chat.SubmitResult) tea.Cmd {
	switch result := result.(type) {
	case chat.RolledBack:
		m.input.SetValue(result.Draft)
		return m.showNotice(fmt.Sprintf("send failed: %v", result.Err))
	case chat.Rejected:
		return m.showNotice(result.Err.Error())
	}
	return nil
}

func (m *Model) showNotice(text string) tea.Cmd {
	m.notice = text
	m.noticeSequence++
	sequence := m.noticeSequence
	return tea.Tick(noticeFadeDelay, func(time.Time) tea.Msg {
		return noticeFadeMsg{sequence: sequence}
	})
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-chromeHeight, 1)
	m.ready = true
	m.refreshViewport()
}

// applyEvent folds one widget side effect into the model.
func (m *Model) applyEvent(event Event) {
	switch event.Kind {
	case EventMessages:
		// The batch is already in render order; orientation decides
		// which end of the transcript it extends.
		if m.newestFirst {
			m.messages = append(append([]chat.Message{}, event.Messages...), m.messages...)
		} else {
			m.messages = append(m.messages, event.Messages...)
		}
		m.refreshViewport()
		if !m.newestFirst {
			m.viewport.GotoBottom()
		}

	case EventEdits:
		for _, edited := range event.Messages {
			for i := range m.messages {
				if m.messages[i].ID == edited.ID {
					m.messages[i] = edited
					break
				}
			}
		}
		m.refreshViewport()

	case EventDeletes:
		kept := m.messages[:0]
		for _, message := range m.messages {
			removed := false
			for _, id := range event.Deleted {
				if message.ID == id {
					removed = true
					break
				}
			}
			if !removed {
				kept = append(kept, message)
			}
		}
		m.messages = kept
		m.refreshViewport()

	case EventPresence:
		m.presence = event.Presence

	case EventStatus:
		m.status = event.Status

	case EventError:
		m.notice = event.Err.Error()
	}
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	lines := make([]string, 0, len(m.messages))
	for _, message := range m.messages {
		lines = append(lines, m.renderMessage(message))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
}

func (m *Model) renderMessage(message chat.Message) string {
	timestamp := lipgloss.NewStyle().
		Foreground(m.theme.Timestamp).
		Render(time.Unix(message.Posted, 0).Format("15:04"))

	authorColor := m.theme.Author
	if m.username != "" && message.Author == m.username {
		authorColor = m.theme.OwnAuthor
	}
	author := lipgloss.NewStyle().Foreground(authorColor).Render(message.Author)

	body := lipgloss.NewStyle().Foreground(m.theme.NormalText).Render(message.Rendered)
	line := fmt.Sprintf("%s %s  %s", timestamp, author, body)
	if m.width > 0 {
		line = ansi.Truncate(line, m.width, "…")
	}
	return line
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "connecting…"
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteByte('\n')
	b.WriteString(m.viewport.View())
	b.WriteByte('\n')
	b.WriteString(m.presenceView())
	b.WriteByte('\n')
	b.WriteString(m.input.View(m.width))
	b.WriteByte('\n')
	b.WriteString(m.helpView())
	return b.String()
}

func (m *Model) headerView() string {
	indicator := lipgloss.NewStyle().
		Foreground(m.theme.StatusColor(m.status)).
		Render("● " + string(m.status))
	title := lipgloss.NewStyle().
		Foreground(m.theme.HeaderForeground).
		Bold(true).
		Render("shoutbox")
	header := title + "  " + indicator
	if m.notice != "" {
		header += "  " + lipgloss.NewStyle().Foreground(m.theme.StatusError).Render(m.notice)
	}
	return ansi.Truncate(header, m.width, "…")
}

func (m *Model) presenceView() string {
	var who string
	switch {
	case len(m.presence.Users) > 0:
		who = "online: " + strings.Join(m.presence.Users, ", ")
	case m.presence.Rendered != "":
		who = m.presence.Rendered
	default:
		who = "online: nobody"
	}
	styled := lipgloss.NewStyle().Foreground(m.theme.PresenceText).Render(who)
	return ansi.Truncate(styled, m.width, "…")
}

func (m *Model) helpView() string {
	help := "enter send · ctrl+r refresh · ctrl+e end · ctrl+t restart · ctrl+c quit"
	if m.multiLine {
		help = "enter send · alt+enter line break · " + help[len("enter send · "):]
	}
	styled := lipgloss.NewStyle().Foreground(m.theme.HelpText).Render(help)
	return ansi.Truncate(styled, m.width, "…")
}
