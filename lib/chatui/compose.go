// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// composeInput is a small text editor for the compose box: rune lines
// with cursor tracking. Enter never reaches it; the model decides
// whether Enter submits or inserts a line break and calls
// InsertLineBreak explicitly.
type composeInput struct {
	lines   [][]rune
	cursorY int
	cursorX int
	theme   Theme
}

func newComposeInput(theme Theme) composeInput {
	return composeInput{
		lines: [][]rune{{}},
		theme: theme,
	}
}

// Value returns the current text content.
func (input composeInput) Value() string {
	parts := make([]string, len(input.lines))
	for i, line := range input.lines {
		parts[i] = string(line)
	}
	return strings.Join(parts, "\n")
}

// SetValue replaces the content and moves the cursor to the end. Used
// to restore a rolled-back draft.
func (input *composeInput) SetValue(text string) {
	raw := strings.Split(text, "\n")
	input.lines = make([][]rune, len(raw))
	for i, line := range raw {
		input.lines[i] = []rune(line)
	}
	input.cursorY = len(input.lines) - 1
	input.cursorX = len(input.lines[input.cursorY])
}

// Reset clears the content.
func (input *composeInput) Reset() {
	input.lines = [][]rune{{}}
	input.cursorY = 0
	input.cursorX = 0
}

// Empty reports whether the input holds no text at all.
func (input composeInput) Empty() bool {
	return len(input.lines) == 1 && len(input.lines[0]) == 0
}

// InsertLineBreak splits the current line at the cursor.
func (input *composeInput) InsertLineBreak() {
	line := input.lines[input.cursorY]
	before := make([]rune, input.cursorX)
	copy(before, line[:input.cursorX])
	after := make([]rune, len(line)-input.cursorX)
	copy(after, line[input.cursorX:])

	input.lines[input.cursorY] = before
	newLines := make([][]rune, len(input.lines)+1)
	copy(newLines, input.lines[:input.cursorY+1])
	newLines[input.cursorY+1] = after
	copy(newLines[input.cursorY+2:], input.lines[input.cursorY+1:])
	input.lines = newLines
	input.cursorY++
	input.cursorX = 0
}

// Update processes a key message.
func (input *composeInput) Update(message tea.KeyMsg) {
	switch message.Type {
	case tea.KeyRunes, tea.KeySpace:
		for _, character := range message.Runes {
			input.insertRune(character)
		}

	case tea.KeyBackspace:
		if input.cursorX > 0 {
			line := input.lines[input.cursorY]
			input.lines[input.cursorY] = append(line[:input.cursorX-1], line[input.cursorX:]...)
			input.cursorX--
		} else if input.cursorY > 0 {
			// Join with the previous line.
			previous := input.lines[input.cursorY-1]
			input.cursorX = len(previous)
			input.lines[input.cursorY-1] = append(previous, input.lines[input.cursorY]...)
			input.lines = append(input.lines[:input.cursorY], input.lines[input.cursorY+1:]...)
			input.cursorY--
		}

	case tea.KeyLeft:
		if input.cursorX > 0 {
			input.cursorX--
		} else if input.cursorY > 0 {
			input.cursorY--
			input.cursorX = len(input.lines[input.cursorY])
		}

	case tea.KeyRight:
		if input.cursorX < len(input.lines[input.cursorY]) {
			input.cursorX++
		} else if input.cursorY < len(input.lines)-1 {
			input.cursorY++
			input.cursorX = 0
		}

	case tea.KeyHome:
		input.cursorX = 0

	case tea.KeyEnd:
		input.cursorX = len(input.lines[input.cursorY])
	}
}

func (input *composeInput) insertRune(character rune) {
	line := input.lines[input.cursorY]
	updated := make([]rune, 0, len(line)+1)
	updated = append(updated, line[:input.cursorX]...)
	updated = append(updated, character)
	updated = append(updated, line[input.cursorX:]...)
	input.lines[input.cursorY] = updated
	input.cursorX++
}

// View renders the input with a block cursor, padded to width.
func (input composeInput) View(width int) string {
	cursorStyle := lipgloss.NewStyle().Reverse(true)
	var rendered []string
	for y, line := range input.lines {
		if y != input.cursorY {
			rendered = append(rendered, string(line))
			continue
		}
		before := string(line[:input.cursorX])
		if input.cursorX < len(line) {
			under := string(line[input.cursorX])
			after := string(line[input.cursorX+1:])
			rendered = append(rendered, before+cursorStyle.Render(under)+after)
		} else {
			rendered = append(rendered, before+cursorStyle.Render(" "))
		}
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(input.theme.BorderColor).
		Width(width - 2)
	return style.Render(strings.Join(rendered, "\n"))
}
