// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

// Shoutbox is a terminal client for a forum chat widget. It runs the
// sync core (polling, session countdown, presence refresh) against the
// forum's chat endpoints and renders the conversation as a TUI.
//
// Configuration comes from a YAML file (--config) with per-field flag
// overrides. Against a local mock server:
//
//	shoutbox-mock --listen :8431 &
//	shoutbox --server http://localhost:8431 --username ada
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/forumchat/shoutbox/chat"
	"github.com/forumchat/shoutbox/lib/chatui"
	"github.com/forumchat/shoutbox/lib/version"
	"github.com/forumchat/shoutbox/prefs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		server      string
		username    string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("shoutbox", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to the YAML config file")
	flagSet.StringVar(&server, "server", "", "chat endpoint base URL (overrides the config file)")
	flagSet.StringVar(&username, "username", "", "display name (overrides the config file)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	if showVersion {
		version.Print("shoutbox")
		return nil
	}

	config, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if server != "" {
		config.Server = server
	}
	if username != "" {
		config.Username = username
	}
	if config.Server == "" {
		return fmt.Errorf("no server configured: pass --server or set server in the config file")
	}

	logger, closeLog, err := newLogger(config.LogOutput)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := prefs.Open(prefs.Config{
		Path:   config.PrefsPath,
		Prefix: "mchat_",
		Logger: logger,
	})

	authFields := config.AuthFields
	if config.Username != "" {
		if authFields == nil {
			authFields = make(map[string]string)
		}
		authFields["user"] = config.Username
	}

	transport, err := chat.NewHTTPTransport(chat.TransportConfig{
		BaseURL:        config.Server,
		RequestTimeout: time.Duration(config.PollInterval),
		AuthFields:     authFields,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	feed := chatui.NewFeed(64, logger)
	widget, err := chat.NewWidget(chat.WidgetConfig{
		Transport:        transport,
		PollInterval:     time.Duration(config.PollInterval),
		SessionTimeout:   time.Duration(config.SessionTimeout),
		PresenceInterval: time.Duration(config.PresenceInterval),
		NewestFirst:      config.NewestFirst,
		LiveUpdates:      config.liveUpdates(),
		MaxMessageLength: config.MaxMessageLength,
		MultiLine:        config.multiLine(),
		Archived:         config.Archived,
		Notifier:         feed,
		Prefs:            store,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	widgetDone := make(chan error, 1)
	go func() {
		widgetDone <- widget.Run(ctx)
	}()

	model := chatui.NewModel(chatui.Config{
		Widget:      widget,
		Feed:        feed,
		Prefs:       store,
		Username:    config.Username,
		NewestFirst: config.NewestFirst,
		MultiLine:   config.multiLine(),
	})

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}

	stop()
	if err := <-widgetDone; err != nil {
		return fmt.Errorf("widget: %w", err)
	}
	return nil
}

// newLogger opens the log sink. The TUI owns the terminal, so records
// go to a file or nowhere.
func newLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewJSONHandler(io.Discard, nil)), func() {}, nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(file, nil))
	return logger, func() { file.Close() }, nil
}
