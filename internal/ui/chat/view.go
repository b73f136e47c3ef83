// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/parleychat/parley/internal/model"
	"github.com/parleychat/parley/internal/ui/components"
	"github.com/parleychat/parley/internal/ui/styles"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the full chat screen.
func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}

	var column []string

	column = append(column, m.renderHeader())
	column = append(column, m.viewport.View())

	if overlay := m.renderOverlay(); overlay != "" {
		column = append(column, overlay)
	}

	inputStyle := styles.InputStyle
	if m.input.Focused() {
		inputStyle = styles.InputFocusedStyle
	}
	column = append(column, inputStyle.Width(m.viewport.Width-2).Render(m.input.View()))

	main := lipgloss.JoinVertical(lipgloss.Left, column...)

	if m.ctrl.SidebarPinned() {
		side := m.sidebar.View(m.ctrl.Conversations(), m.ctrl.ActiveID())
		main = lipgloss.JoinHorizontal(lipgloss.Top, side, main)
	}

	status := m.statusBar.View(components.StatusBarState{
		RelayUp:   m.relayUp,
		Streaming: m.ctrl.StreamingEnabled(),
		DarkMode:  m.ctrl.DarkMode(),
		Sending:   m.ctrl.IsSending(),
	})

	return lipgloss.JoinVertical(lipgloss.Left, main, status)
}

// renderHeader shows the active conversation title and the send spinner.
func (m Model) renderHeader() string {
	title := "parley"
	if active := m.ctrl.Active(); active != nil {
		title = active.GetTitle()
	}

	header := styles.HeaderStyle.Render(title)
	if m.ctrl.IsSending() {
		header += " " + m.spinner.View()
	}
	return header
}

// renderOverlay picks the single transient strip shown above the input:
// confirmation prompt, help, or error banner. At most one is visible.
func (m Model) renderOverlay() string {
	switch m.confirm {
	case confirmDelete:
		return m.confirmUI.View("Delete this conversation?")
	case confirmClear:
		return m.confirmUI.View("Delete ALL conversations?")
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.localError != "" {
		return m.banner.View(m.localError)
	}
	if errMsg := m.ctrl.LastError(); errMsg != "" {
		return m.banner.View(errMsg)
	}
	return ""
}

// renderHelp lays out the full key map in columns.
func (m Model) renderHelp() string {
	var rows []string
	for _, group := range m.keys.FullHelp() {
		var cells []string
		for _, b := range group {
			cells = append(cells,
				styles.StatusOnStyle.Render(b.Help().Key)+" "+styles.HelpStyle.Render(b.Help().Desc))
		}
		rows = append(rows, strings.Join(cells, "   "))
	}
	return styles.SidebarStyle.Width(m.viewport.Width - 2).Render(strings.Join(rows, "\n"))
}

// =============================================================================
// CONVERSATION RENDERING
// =============================================================================

// renderConversation renders the active conversation's messages for the
// viewport.
func (m *Model) renderConversation() string {
	active := m.ctrl.Active()
	if active == nil || active.IsEmpty() {
		return styles.HelpStyle.Render("\n  Send a message to start a conversation.\n" +
			"  Prefix with /transcribe <file> to dictate one.")
	}

	var b strings.Builder
	for _, msg := range active.Messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n\n")
	}
	return b.String()
}

// renderMessage renders one message with its label and timestamp.
func (m *Model) renderMessage(msg *model.Message) string {
	label := styles.AssistantLabelStyle.Render(msg.Role.DisplayName())
	if msg.Role == model.RoleUser {
		label = styles.UserLabelStyle.Render(msg.Role.DisplayName())
	}
	stamp := styles.TimestampStyle.Render(msg.Timestamp.Format("15:04"))

	content := msg.GetDisplayContent()
	switch {
	case msg.IsStreaming:
		// Partial markdown renders badly, so stream as plain text with a
		// cursor and re-render once the message finalizes.
		content = content + "▌"
	case msg.Role == model.RoleAssistant:
		content = m.renderMarkdown(content)
	}

	bubble := styles.AssistantMessageStyle
	if msg.Role == model.RoleUser {
		bubble = styles.UserMessageStyle
	}

	return label + " " + stamp + "\n" + bubble.Width(m.viewport.Width-4).Render(content)
}
