// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

// Package prefs persists per-user widget preferences: sound on/off,
// enter-to-send, the remembered message colour, and panel visibility.
//
// Preferences are a key-value map under a namespace prefix, stored as
// a JSON file written atomically (write to temporary file, fsync,
// rename into place) so readers never see a partial write. A store
// whose backing file is unavailable degrades to an in-memory map:
// preferences work for the page's lifetime and are simply not
// remembered, matching how the widget behaves when browser storage is
// blocked.
//
// Absence-keyed booleans: the historical widget stored "no_sound" and
// "no_enter" flags whose absence means enabled. The typed accessors
// keep that encoding so existing stored preferences keep their
// meaning.
package prefs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// Keys under the namespace prefix. Values are opaque strings; the
// boolean keys store "yes" when set.
const (
	keyNoSound = "no_sound"
	keyNoEnter = "no_enter"
	keyColour  = "color"
	keyShow    = "show_" // + panel name
)

// Store is a namespaced preference store. All methods are safe for
// concurrent use, and all methods on a nil *Store return zero
// values, so a widget without preferences wired simply sees defaults.
type Store struct {
	path   string
	prefix string
	logger *slog.Logger

	mu     sync.Mutex
	values map[string]string
}

// Config holds configuration for opening a Store.
type Config struct {
	// Path is the backing JSON file. Empty means in-memory only.
	Path string

	// Prefix namespaces every key, so several widgets can share one
	// file (e.g. "mchat_").
	Prefix string

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Open loads the store from its backing file. A missing file yields an
// empty store; an unreadable or corrupt file degrades to in-memory
// with a logged warning; preferences are cosmetic and never worth
// failing the page over.
func Open(config Config) *Store {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := &Store{
		path:   config.Path,
		prefix: config.Prefix,
		logger: logger,
		values: make(map[string]string),
	}
	if config.Path == "" {
		return store
	}

	data, err := os.ReadFile(config.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("preference file unreadable, starting empty", "path", config.Path, "error", err)
		}
		return store
	}
	if err := json.Unmarshal(data, &store.values); err != nil {
		logger.Warn("preference file corrupt, starting empty", "path", config.Path, "error", err)
		store.values = make(map[string]string)
	}
	return store
}

// Get returns the value stored under key, or empty when unset.
func (s *Store) Get(key string) string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[s.prefix+key]
}

// Set stores value under key and persists the store.
func (s *Store) Set(key, value string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[s.prefix+key] = value
	s.persistLocked()
}

// Remove deletes key and persists the store.
func (s *Store) Remove(key string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, s.prefix+key)
	s.persistLocked()
}

// SoundEnabled reports whether notification sounds should play.
// Default true; disabled by the presence of the no-sound flag.
func (s *Store) SoundEnabled() bool { return s.Get(keyNoSound) == "" }

// SetSoundEnabled toggles notification sounds.
func (s *Store) SetSoundEnabled(enabled bool) {
	if enabled {
		s.Remove(keyNoSound)
	} else {
		s.Set(keyNoSound, "yes")
	}
}

// LinebreakPreferred reports whether Enter should insert a line break
// instead of submitting. Default false (Enter submits).
func (s *Store) LinebreakPreferred() bool { return s.Get(keyNoEnter) != "" }

// SetLinebreakPreferred toggles the Enter behavior.
func (s *Store) SetLinebreakPreferred(preferred bool) {
	if preferred {
		s.Set(keyNoEnter, "yes")
	} else {
		s.Remove(keyNoEnter)
	}
}

// RememberedColour returns the remembered message colour as hex digits
// without "#", or empty for none.
func (s *Store) RememberedColour() string { return s.Get(keyColour) }

// SetRememberedColour stores a message colour; empty forgets it.
func (s *Store) SetRememberedColour(colour string) {
	if colour == "" {
		s.Remove(keyColour)
	} else {
		s.Set(keyColour, colour)
	}
}

// PanelVisible reports whether a named panel (userlist, smilies,
// bbcodes, colour) was left open.
func (s *Store) PanelVisible(name string) bool { return s.Get(keyShow+name) != "" }

// SetPanelVisible remembers a panel's visibility.
func (s *Store) SetPanelVisible(name string, visible bool) {
	if visible {
		s.Set(keyShow+name, "yes")
	} else {
		s.Remove(keyShow + name)
	}
}

// persistLocked writes the whole map atomically: temporary file in the
// same directory, fsync, rename into place. Errors are logged, not
// returned. A failed preference write never breaks the widget.
// Caller holds s.mu.
func (s *Store) persistLocked() {
	if s.path == "" {
		return
	}
	if err := s.writeFileLocked(); err != nil {
		s.logger.Warn("failed to persist preferences", "path", s.path, "error", err)
	}
}

func (s *Store) writeFileLocked() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling preferences: %w", err)
	}
	data = append(data, '\n')

	temporaryPath := s.path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating temporary preference file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary preference file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary preference file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary preference file: %w", err)
	}
	if err := os.Rename(temporaryPath, s.path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming preference file into place: %w", err)
	}
	return nil
}
