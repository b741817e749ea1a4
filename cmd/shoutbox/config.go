// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "15s" decode with
// time.ParseDuration.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the shoutbox client configuration, loaded from a YAML
// file. Flags override individual fields after loading.
type Config struct {
	// Server is the base URL of the chat endpoints
	// (e.g. "https://forum.example.net/mchat"). Required.
	Server string `yaml:"server"`

	// Username is the display name used to highlight own messages and
	// sent as the "user" auth field.
	Username string `yaml:"username"`

	// AuthFields are merged into state-changing requests, typically a
	// CSRF token issued by the forum.
	AuthFields map[string]string `yaml:"auth_fields,omitempty"`

	// PollInterval is the periodic refresh cadence. Default 10s.
	PollInterval Duration `yaml:"poll_interval"`

	// SessionTimeout ends the session after this much inactivity.
	// Zero disables session expiry.
	SessionTimeout Duration `yaml:"session_timeout"`

	// PresenceInterval is the who-is-online refresh cadence. Zero
	// disables presence refresh.
	PresenceInterval Duration `yaml:"presence_interval"`

	// NewestFirst renders the newest message at the top.
	NewestFirst bool `yaml:"newest_first"`

	// LiveUpdates enables incremental log reads via the response
	// cursor. Default true.
	LiveUpdates *bool `yaml:"live_updates,omitempty"`

	// MaxMessageLength rejects over-length drafts locally. Zero means
	// unlimited.
	MaxMessageLength int `yaml:"max_message_length"`

	// MultiLine allows line breaks in the compose input. Default
	// true.
	MultiLine *bool `yaml:"multi_line,omitempty"`

	// Archived opens a read-only view with no running session.
	Archived bool `yaml:"archived"`

	// PrefsPath is where user preferences persist. Empty keeps them
	// in memory for the session only.
	PrefsPath string `yaml:"prefs_path,omitempty"`

	// LogOutput writes JSON log records to this file. Empty discards
	// them (the TUI owns the terminal).
	LogOutput string `yaml:"log_output,omitempty"`
}

// defaultConfig returns the built-in defaults applied before the file
// and flags.
func defaultConfig() Config {
	enabled := true
	return Config{
		PollInterval: Duration(10 * time.Second),
		LiveUpdates:  &enabled,
		MultiLine:    &enabled,
	}
}

// loadConfig reads and validates a config file. A missing path returns
// the defaults; the server URL can still come from a flag.
func loadConfig(path string) (Config, error) {
	config := defaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if config.PollInterval <= 0 {
		return config, fmt.Errorf("config file %s: poll_interval must be positive", path)
	}
	return config, nil
}

func (c Config) liveUpdates() bool { return c.LiveUpdates == nil || *c.LiveUpdates }
func (c Config) multiLine() bool   { return c.MultiLine == nil || *c.MultiLine }
