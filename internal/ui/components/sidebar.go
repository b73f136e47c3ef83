// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/parleychat/parley/internal/model"
	"github.com/parleychat/parley/internal/ui/styles"
	"github.com/parleychat/parley/internal/util"
)

// =============================================================================
// SIDEBAR
// =============================================================================

// Sidebar renders the conversation list. Selection state lives in the
// session controller; the sidebar is a pure view over it.
type Sidebar struct {
	Width  int
	Height int
}

// NewSidebar creates a sidebar with the default width.
func NewSidebar() Sidebar {
	return Sidebar{Width: 30}
}

// View renders the conversation list with the active entry highlighted.
func (s Sidebar) View(conversations []*model.Conversation, activeID string) string {
	var b strings.Builder

	b.WriteString(styles.SidebarTitleStyle.Render("Conversations"))
	b.WriteString("\n\n")

	if len(conversations) == 0 {
		b.WriteString(styles.SidebarItemStyle.Render("No conversations yet"))
	}

	inner := s.Width - 4
	for _, conv := range conversations {
		title := util.TruncateWidth(conv.Title, inner)
		line := util.PadRight(title, inner)

		if conv.ID == activeID {
			b.WriteString(styles.SidebarSelectedStyle.Render(line))
		} else {
			b.WriteString(styles.SidebarItemStyle.Render(line))
		}
		b.WriteString("\n")
		b.WriteString(styles.SidebarTimeStyle.Render("  " + relativeTime(conv.UpdatedAt)))
		b.WriteString("\n")
	}

	content := b.String()
	return styles.SidebarStyle.
		Width(s.Width - 2).
		Height(s.Height - 2).
		Render(lipgloss.NewStyle().MaxHeight(s.Height - 2).Render(content))
}

// relativeTime formats a timestamp the way chat sidebars usually do.
func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	case d < 7*24*time.Hour:
		return plural(int(d.Hours()/24), "day")
	default:
		return t.Format("Jan 2")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return strconv.Itoa(n) + " " + unit + "s ago"
}
