// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/parleychat/parley/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar summarizes connection and toggle state at the bottom of the
// screen.
type StatusBar struct {
	Width int
}

// StatusBarState is everything the status bar displays.
type StatusBarState struct {
	RelayUp   bool
	Streaming bool
	DarkMode  bool
	Sending   bool
}

// View renders the status line.
func (s StatusBar) View(state StatusBarState) string {
	var parts []string

	if state.RelayUp {
		parts = append(parts, styles.StatusOnStyle.Render("● relay"))
	} else {
		parts = append(parts, styles.StatusOffStyle.Render("○ relay"))
	}

	if state.Streaming {
		parts = append(parts, styles.StatusOnStyle.Render("stream on"))
	} else {
		parts = append(parts, styles.StatusOffStyle.Render("stream off"))
	}

	if state.DarkMode {
		parts = append(parts, "dark")
	} else {
		parts = append(parts, "light")
	}

	if state.Sending {
		parts = append(parts, styles.StatusOnStyle.Render("sending..."))
	}

	left := strings.Join(parts, styles.HelpStyle.Render(" | "))
	help := styles.HelpStyle.Render("^n new  ^p pin  ^s stream  ^t theme  ^d delete  ? help")

	// lipgloss.Width ignores the ANSI sequences the styles add.
	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(help) - 2
	if gap < 1 {
		return styles.StatusBarStyle.Width(s.Width).Render(left)
	}
	return styles.StatusBarStyle.Width(s.Width).Render(left + strings.Repeat(" ", gap) + help)
}
