// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete parley configuration, shared by the chat
// client and the relay server.
type Config struct {
	// Client configuration (the TUI)
	Client ClientConfig `toml:"client"`

	// Server configuration (the relay)
	Server ServerConfig `toml:"server"`
}

// ClientConfig contains chat client configuration.
type ClientConfig struct {
	// RelayURL is the base URL of the relay server
	RelayURL string `toml:"relay_url"`
	// TimeoutSecs is the request timeout for non-streaming calls
	TimeoutSecs int `toml:"timeout_secs"`
}

// ServerConfig contains relay server configuration.
type ServerConfig struct {
	// Port is the port the relay listens on
	Port int `toml:"port"`
	// OpenAIBaseURL is the base URL of the OpenAI-compatible provider
	OpenAIBaseURL string `toml:"openai_base_url"`
	// OpenAIAPIKey is the provider API key. Prefer the OPENAI_API_KEY
	// environment variable over storing it here.
	OpenAIAPIKey string `toml:"openai_api_key"`
	// ChatModel is the model used for chat completions
	ChatModel string `toml:"chat_model"`
	// TranscribeModel is the model used for audio transcription
	TranscribeModel string `toml:"transcribe_model"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			RelayURL:    "http://127.0.0.1:3001",
			TimeoutSecs: 120,
		},
		Server: ServerConfig{
			Port:            3001,
			OpenAIBaseURL:   "https://api.openai.com/v1",
			OpenAIAPIKey:    "",
			ChatModel:       "gpt-4.1",
			TranscribeModel: "gpt-4o-transcribe",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the parley configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".parley"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on the config file.
// The file may hold an API key, so it must be 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default config file, falling back to
// defaults when the file does not exist. Environment overrides are applied
// last, then the result is validated.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file.
func LoadFromPath(path string) (*Config, error) {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults sets default values for any missing or zero-value fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Client.RelayURL == "" {
		c.Client.RelayURL = defaults.Client.RelayURL
	}
	if c.Client.TimeoutSecs == 0 {
		c.Client.TimeoutSecs = defaults.Client.TimeoutSecs
	}

	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.OpenAIBaseURL == "" {
		c.Server.OpenAIBaseURL = defaults.Server.OpenAIBaseURL
	}
	if c.Server.ChatModel == "" {
		c.Server.ChatModel = defaults.Server.ChatModel
	}
	if c.Server.TranscribeModel == "" {
		c.Server.TranscribeModel = defaults.Server.TranscribeModel
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions,
// since the file may hold an API key.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# parley configuration file")
	fmt.Fprintln(file, "# Generated by parley - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Client.RelayURL != "" {
		if u, err := url.Parse(c.Client.RelayURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "client.relay_url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Client.RelayURL),
			})
		}
	}
	if c.Client.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "client.timeout_secs",
			Message: "must be non-negative",
		})
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("must be 1-65535, got %d", c.Server.Port),
		})
	}
	if c.Server.OpenAIBaseURL != "" {
		if u, err := url.Parse(c.Server.OpenAIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "server.openai_base_url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Server.OpenAIBaseURL),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - PARLEY_RELAY_URL: overrides client.relay_url
//   - PARLEY_PORT: overrides server.port
//   - PARLEY_CHAT_MODEL: overrides server.chat_model
//   - PARLEY_TRANSCRIBE_MODEL: overrides server.transcribe_model
//   - OPENAI_API_KEY: overrides server.openai_api_key
//   - OPENAI_BASE_URL: overrides server.openai_base_url
func (c *Config) ApplyEnvOverrides() {
	if relayURL := os.Getenv("PARLEY_RELAY_URL"); relayURL != "" {
		c.Client.RelayURL = relayURL
	}

	if port := os.Getenv("PARLEY_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if model := os.Getenv("PARLEY_CHAT_MODEL"); model != "" {
		c.Server.ChatModel = model
	}

	if model := os.Getenv("PARLEY_TRANSCRIBE_MODEL"); model != "" {
		c.Server.TranscribeModel = model
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Server.OpenAIAPIKey = key
	}

	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		c.Server.OpenAIBaseURL = baseURL
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation for debugging with the API key
// redacted so it never leaks into logs.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Server.OpenAIAPIKey != "" {
		safe.Server.OpenAIAPIKey = "[REDACTED]"
	}
	return fmt.Sprintf("%+v", *safe)
}
