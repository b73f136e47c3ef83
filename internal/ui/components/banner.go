// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/parleychat/parley/internal/ui/styles"
)

// =============================================================================
// ERROR BANNER
// =============================================================================

// ErrorBanner is the transient, dismissible error strip above the input.
type ErrorBanner struct {
	Width int
}

// View renders the banner, or "" when there is no error to show.
func (b ErrorBanner) View(message string) string {
	if message == "" {
		return ""
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		message,
		styles.HelpStyle.Render("  (esc to dismiss)"),
	)
	return styles.ErrorBannerStyle.Width(b.Width - 2).Render(body)
}

// =============================================================================
// CONFIRM PROMPT
// =============================================================================

// ConfirmPrompt asks before a destructive action.
type ConfirmPrompt struct {
	Width int
}

// View renders the confirmation question.
func (p ConfirmPrompt) View(question string) string {
	if question == "" {
		return ""
	}
	return styles.ConfirmStyle.Width(p.Width - 2).Render(question + "  [y/n]")
}
