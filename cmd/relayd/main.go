// parleyd - the parley relay server.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/parleychat/parley/internal/config"
	"github.com/parleychat/parley/internal/server"
	"github.com/parleychat/parley/internal/upstream"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	srv := server.NewServer(cfg.Server.Port, buildUpstream(cfg, logger), logger)

	// Hot-reload: config edits swap the upstream client without a restart.
	// Port changes still require one.
	path, err := config.ConfigPath()
	if err == nil {
		watcher, werr := config.NewWatcher(path, 500*time.Millisecond,
			func(next *config.Config) {
				logger.Info().Msg("configuration reloaded")
				srv.SetUpstream(buildUpstream(next, logger))
			},
			func(werr error) {
				logger.Warn().Err(werr).Msg("configuration reload failed, keeping previous settings")
			},
		)
		if werr != nil {
			logger.Warn().Err(werr).Msg("config watcher unavailable")
		} else if werr := watcher.Watch(); werr != nil {
			logger.Warn().Err(werr).Msg("config watcher unavailable")
		} else {
			defer watcher.Close()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}
}

// buildUpstream creates the provider client from config, or nil when no API
// key is available. The server still starts; API routes report the missing
// key per request.
func buildUpstream(cfg *config.Config, logger zerolog.Logger) *upstream.Client {
	if cfg.Server.OpenAIAPIKey == "" {
		logger.Warn().Msg("no OpenAI API key configured, chat and transcription will fail")
		return nil
	}

	client, err := upstream.NewClient(&upstream.Config{
		BaseURL:         cfg.Server.OpenAIBaseURL,
		APIKey:          cfg.Server.OpenAIAPIKey,
		ChatModel:       cfg.Server.ChatModel,
		TranscribeModel: cfg.Server.TranscribeModel,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to create upstream client")
		return nil
	}
	return client
}
