// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parleychat/parley/internal/session"
	"github.com/parleychat/parley/internal/ui/styles"
)

const transcribePrefix = "/transcribe "

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if !m.ctrl.IsSending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case RelayStatusMsg:
		m.relayUp = msg.Up
		if msg.Error != nil {
			m.logger.Debug().Err(msg.Error).Msg("relay health check failed")
		}
		return m, nil

	case StreamStartMsg:
		m.refreshViewport()
		return m, nil

	case StreamTickMsg:
		return m.handleStreamTick()

	case StreamCompleteMsg:
		return m.handleStreamComplete(msg)

	case StreamErrorMsg:
		return m.handleStreamError(msg)

	case ChatResponseMsg:
		m.ctrl.ApplyResponse(msg.ConversationID, msg.MessageID, msg.Content)
		m.refreshViewport()
		return m, nil

	case ChatErrorMsg:
		m.ctrl.FailSend(msg.ConversationID, msg.MessageID, msg.Error.Error())
		m.refreshViewport()
		return m, nil

	case TranscribeResultMsg:
		m.input.SetValue(strings.TrimSpace(msg.Text))
		m.input.CursorEnd()
		return m, nil

	case TranscribeErrorMsg:
		m.localError = "transcription failed: " + msg.Error.Error()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A pending confirmation swallows everything except its answer.
	if m.confirm != confirmNone {
		switch msg.String() {
		case "y", "Y":
			m.runConfirmed()
		case "n", "N", "esc":
			m.confirm = confirmNone
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Dismiss):
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		m.localError = ""
		m.ctrl.ClearError()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		// Only toggle help when the input is empty, so "?" stays typeable.
		if m.input.Value() == "" {
			m.showHelp = !m.showHelp
			return m, nil
		}

	case key.Matches(msg, m.keys.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keys.NewChat):
		m.ctrl.NewConversation()
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.NextConv):
		m.cycleConversation(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevConv):
		m.cycleConversation(-1)
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if m.ctrl.Active() != nil {
			m.confirm = confirmDelete
		}
		return m, nil

	case key.Matches(msg, m.keys.ClearAll):
		if len(m.ctrl.Conversations()) > 0 {
			m.confirm = confirmClear
		}
		return m, nil

	case key.Matches(msg, m.keys.PinSidebar):
		m.ctrl.ToggleSidebar()
		m.layout()
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.Streaming):
		m.ctrl.ToggleStreaming()
		return m, nil

	case key.Matches(msg, m.keys.Theme):
		styles.SetDarkMode(m.ctrl.ToggleDarkMode())
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.Up),
		key.Matches(msg, m.keys.Down),
		key.Matches(msg, m.keys.PageUp),
		key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// runConfirmed executes the action the user just confirmed.
func (m *Model) runConfirmed() {
	switch m.confirm {
	case confirmDelete:
		if active := m.ctrl.Active(); active != nil {
			m.ctrl.DeleteConversation(active.ID)
		}
	case confirmClear:
		m.ctrl.ClearHistory()
	}
	m.confirm = confirmNone
	m.refreshViewport()
}

// cycleConversation moves the selection through the list, wrapping around.
func (m *Model) cycleConversation(step int) {
	convs := m.ctrl.Conversations()
	if len(convs) == 0 {
		return
	}

	idx := 0
	activeID := m.ctrl.ActiveID()
	for i, conv := range convs {
		if conv.ID == activeID {
			idx = (i + step + len(convs)) % len(convs)
			break
		}
	}
	m.ctrl.SelectConversation(convs[idx].ID)
	m.refreshViewport()
}

// =============================================================================
// SENDING
// =============================================================================

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())

	if path, ok := strings.CutPrefix(value, transcribePrefix); ok {
		path = strings.TrimSpace(path)
		if path == "" {
			m.localError = "usage: /transcribe <audio file>"
			return m, nil
		}
		m.input.SetValue("")
		return m, transcribeCmd(m.client, path)
	}

	sc, err := m.ctrl.BeginSend(value)
	if err != nil {
		if errors.Is(err, session.ErrSendInFlight) {
			m.localError = "still waiting for the previous reply"
		}
		return m, nil
	}

	m.input.SetValue("")
	m.localError = ""
	m.refreshViewport()

	if m.ctrl.StreamingEnabled() {
		m.streamConvID = sc.ConversationID
		m.streamMsgID = sc.AssistantMessageID
		m.streamAccum = ""
		m.buffer.Reset()

		go m.runner.Run(sc, m.buffer)
		return m, tea.Batch(streamTickCmd(), m.spinner.Tick)
	}

	return m, tea.Batch(sendChatCmd(m.client, sc), m.spinner.Tick)
}

// =============================================================================
// STREAM RENDERING
// =============================================================================

func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if !m.streaming() {
		return m, nil
	}

	if chunk, ok := m.buffer.Flush(); ok {
		m.streamAccum += chunk
		m.ctrl.ApplyDelta(m.streamConvID, m.streamMsgID, m.streamAccum)
		m.refreshViewport()
	}
	return m, streamTickCmd()
}

func (m Model) handleStreamComplete(msg StreamCompleteMsg) (tea.Model, tea.Cmd) {
	if chunk, ok := m.buffer.ForceFlush(); ok {
		m.streamAccum += chunk
		m.ctrl.ApplyDelta(msg.ConversationID, msg.MessageID, m.streamAccum)
	}
	m.ctrl.CompleteStream(msg.ConversationID, msg.MessageID)
	m.resetStream()
	m.refreshViewport()
	return m, nil
}

func (m Model) handleStreamError(msg StreamErrorMsg) (tea.Model, tea.Cmd) {
	// Keep whatever rendered before the failure; the controller patches the
	// message with the error annotation.
	if chunk, ok := m.buffer.ForceFlush(); ok {
		m.streamAccum += chunk
		m.ctrl.ApplyDelta(msg.ConversationID, msg.MessageID, m.streamAccum)
	}
	m.ctrl.FailStream(msg.ConversationID, msg.MessageID, msg.Error.Error())
	m.resetStream()
	m.refreshViewport()
	return m, nil
}

// =============================================================================
// LAYOUT
// =============================================================================

// layout recomputes component sizes after a resize or a sidebar toggle.
func (m *Model) layout() {
	sidebarWidth := 0
	if m.ctrl.SidebarPinned() {
		sidebarWidth = m.sidebar.Width
	}

	contentWidth := m.width - sidebarWidth
	// Header, input box, and status bar share the column with the viewport.
	viewportHeight := m.height - 6
	if viewportHeight < 1 {
		viewportHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(contentWidth, viewportHeight)
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = viewportHeight
	}

	m.sidebar.Height = m.height
	m.input.Width = contentWidth - 6
	m.statusBar.Width = m.width
	m.banner.Width = contentWidth
	m.confirmUI.Width = contentWidth

	m.rebuildRenderer(contentWidth - 6)
}

// refreshViewport re-renders the active conversation and follows the tail.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}
