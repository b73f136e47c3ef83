// parley TUI - a terminal chat client backed by the parley relay.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/parleychat/parley/internal/config"
	"github.com/parleychat/parley/internal/relay"
	"github.com/parleychat/parley/internal/session"
	"github.com/parleychat/parley/internal/store"
	"github.com/parleychat/parley/internal/ui/chat"
	"github.com/parleychat/parley/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "version") {
		fmt.Printf("parley %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	st, err := store.NewFileStore()
	if err != nil {
		logger.Warn().Err(err).Msg("persistent storage unavailable, state will not survive restarts")
		st = store.New(store.NewMemKV())
	}

	ctrl := session.New(st, logger)
	styles.SetDarkMode(ctrl.DarkMode())

	client := relay.NewClientWithConfig(&relay.ClientConfig{
		BaseURL: cfg.Client.RelayURL,
		Timeout: time.Duration(cfg.Client.TimeoutSecs) * time.Second,
	})

	runner := chat.NewStreamRunner(client)
	m := chat.NewModel(ctrl, client, runner, logger)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	runner.SetProgram(p)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running parley: %v\n", err)
		os.Exit(1)
	}
}

// newLogger writes structured logs to a file under the config directory so
// they never corrupt the terminal UI. Logging is disabled when the file
// cannot be opened.
func newLogger() zerolog.Logger {
	dir, err := config.ConfigDir()
	if err != nil {
		return zerolog.Nop()
	}
	f, err := os.OpenFile(filepath.Join(dir, "parley.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return zerolog.Nop()
	}
	return zerolog.New(f).With().Timestamp().Logger()
}
