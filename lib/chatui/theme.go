// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/forumchat/shoutbox/chat"
)

// Theme defines the color palette for the chat TUI. All colors use
// lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Message line parts.
	Author    lipgloss.Color
	OwnAuthor lipgloss.Color
	Timestamp lipgloss.Color

	// Display status indicator.
	StatusOK      lipgloss.Color
	StatusLoading lipgloss.Color
	StatusIdle    lipgloss.Color
	StatusError   lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
	PresenceText     lipgloss.Color
}

// StatusColor returns the indicator color for a display status.
func (theme Theme) StatusColor(status chat.Status) lipgloss.Color {
	switch status {
	case chat.StatusOK:
		return theme.StatusOK
	case chat.StatusLoading:
		return theme.StatusLoading
	case chat.StatusIdle:
		return theme.StatusIdle
	case chat.StatusError:
		return theme.StatusError
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	Author:    lipgloss.Color("75"),  // blue
	OwnAuthor: lipgloss.Color("114"), // green
	Timestamp: lipgloss.Color("240"), // dim gray

	StatusOK:      lipgloss.Color("114"), // green
	StatusLoading: lipgloss.Color("220"), // yellow/amber
	StatusIdle:    lipgloss.Color("245"), // gray
	StatusError:   lipgloss.Color("196"), // red

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
	PresenceText:     lipgloss.Color("108"),
}
