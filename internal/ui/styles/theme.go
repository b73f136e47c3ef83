// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// LAYOUT STYLES
// =============================================================================

// SidebarStyle frames the conversation list.
var SidebarStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(Overlay).
	Padding(0, 1)

// SidebarTitleStyle renders the sidebar heading.
var SidebarTitleStyle = lipgloss.NewStyle().
	Foreground(Purple).
	Bold(true)

// SidebarItemStyle renders one conversation entry.
var SidebarItemStyle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// SidebarSelectedStyle renders the active conversation entry.
var SidebarSelectedStyle = lipgloss.NewStyle().
	Foreground(TextPrimary).
	Background(SelectionBg).
	Bold(true)

// SidebarTimeStyle renders the conversation timestamp.
var SidebarTimeStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// =============================================================================
// MESSAGE STYLES
// =============================================================================

// UserLabelStyle renders the "You" label above a user message.
var UserLabelStyle = lipgloss.NewStyle().
	Foreground(Cyan).
	Bold(true)

// AssistantLabelStyle renders the "Assistant" label above a reply.
var AssistantLabelStyle = lipgloss.NewStyle().
	Foreground(Purple).
	Bold(true)

// UserMessageStyle renders user message content.
var UserMessageStyle = lipgloss.NewStyle().
	Foreground(UserBubbleFg).
	BorderStyle(lipgloss.ThickBorder()).
	BorderLeft(true).
	BorderForeground(UserBubbleBorder).
	PaddingLeft(1)

// AssistantMessageStyle frames assistant content (the content itself is
// markdown-rendered).
var AssistantMessageStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.ThickBorder()).
	BorderLeft(true).
	BorderForeground(AssistantBubbleBorder).
	PaddingLeft(1)

// TimestampStyle renders message timestamps.
var TimestampStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// =============================================================================
// CHROME STYLES
// =============================================================================

// HeaderStyle renders the conversation title bar.
var HeaderStyle = lipgloss.NewStyle().
	Foreground(TextPrimary).
	Background(SurfaceDim).
	Bold(true).
	Padding(0, 1)

// InputStyle frames the message input bar.
var InputStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(Overlay).
	Padding(0, 1)

// InputFocusedStyle frames the input bar while focused.
var InputFocusedStyle = InputStyle.Copy().
	BorderForeground(Cyan)

// StatusBarStyle renders the bottom status line.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Background(SurfaceDim).
	Padding(0, 1)

// StatusOnStyle marks enabled toggles and a reachable relay.
var StatusOnStyle = lipgloss.NewStyle().Foreground(Emerald)

// StatusOffStyle marks disabled toggles and an unreachable relay.
var StatusOffStyle = lipgloss.NewStyle().Foreground(Rose)

// HelpStyle renders key hints.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// SpinnerStyle colors the loading spinner.
var SpinnerStyle = lipgloss.NewStyle().
	Foreground(Purple)

// =============================================================================
// BANNER STYLES
// =============================================================================

// ErrorBannerStyle renders the dismissible error banner.
var ErrorBannerStyle = lipgloss.NewStyle().
	Foreground(Rose).
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(Rose).
	Padding(0, 1)

// ConfirmStyle renders destructive-action confirmation prompts.
var ConfirmStyle = lipgloss.NewStyle().
	Foreground(Amber).
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(Amber).
	Bold(true).
	Padding(0, 1)
