// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog"

	"github.com/parleychat/parley/internal/relay"
	"github.com/parleychat/parley/internal/session"
	"github.com/parleychat/parley/internal/ui/components"
	"github.com/parleychat/parley/internal/ui/styles"
)

// =============================================================================
// CONFIRM STATE
// =============================================================================

// confirmAction tracks which destructive action is waiting for a y/n.
type confirmAction int

const (
	confirmNone confirmAction = iota
	confirmDelete
	confirmClear
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat interface. Conversation state
// lives in the session controller; the model holds only view state and the
// plumbing for in-flight sends.
type Model struct {
	ctrl   *session.Controller
	client *relay.Client
	runner *StreamRunner
	logger zerolog.Logger

	keys     KeyMap
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	sidebar   components.Sidebar
	statusBar components.StatusBar
	banner    components.ErrorBanner
	confirmUI components.ConfirmPrompt

	// Streaming render state. The runner goroutine fills buffer; the tea
	// loop drains it on StreamTickMsg and applies the running accumulation
	// to the controller. streamAccum is a plain string because the Model is
	// copied by value on every Update.
	buffer       *StreamingBuffer
	streamConvID string
	streamMsgID  string
	streamAccum  string

	renderer *glamour.TermRenderer

	width   int
	height  int
	ready   bool
	relayUp bool

	showHelp bool
	confirm  confirmAction

	// localError holds UI-side failures (transcription, send rejection)
	// that never reach the session controller.
	localError string
}

// NewModel creates the chat model. The runner's program must be attached
// before the first send.
func NewModel(ctrl *session.Controller, client *relay.Client, runner *StreamRunner, logger zerolog.Logger) Model {
	input := textinput.New()
	input.Placeholder = "Type a message... (/transcribe <file> for voice)"
	input.CharLimit = 0
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	return Model{
		ctrl:      ctrl,
		client:    client,
		runner:    runner,
		logger:    logger,
		keys:      DefaultKeyMap(),
		input:     input,
		spinner:   sp,
		sidebar:   components.NewSidebar(),
		statusBar: components.StatusBar{},
		banner:    components.ErrorBanner{},
		confirmUI: components.ConfirmPrompt{},
		buffer:    NewStreamingBuffer(),
	}
}

// Init starts the cursor blink, the spinner, and the initial relay health
// check.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		checkRelayCmd(m.client),
	)
}

// streaming reports whether a stream is currently rendering.
func (m *Model) streaming() bool {
	return m.streamMsgID != ""
}

// resetStream clears the streaming render state.
func (m *Model) resetStream() {
	m.streamConvID = ""
	m.streamMsgID = ""
	m.streamAccum = ""
	m.buffer.Reset()
}

// rebuildRenderer recreates the markdown renderer for a new content width.
// A renderer failure falls back to plain text.
func (m *Model) rebuildRenderer(width int) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.logger.Warn().Err(err).Msg("markdown renderer unavailable, using plain text")
		m.renderer = nil
		return
	}
	m.renderer = r
}

// renderMarkdown renders assistant content as markdown, falling back to the
// raw text when the renderer is unavailable or errors.
func (m *Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}
