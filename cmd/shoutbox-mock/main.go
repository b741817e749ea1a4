// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

// Shoutbox-mock is an in-memory chat server speaking the shoutbox
// wire protocol, for integration tests and local TUI runs. It assigns
// monotonically increasing message IDs, serves incremental reads via
// the oplog cursor, and supports fault injection for exercising the
// client's error policy:
//
//	shoutbox-mock --listen :8431 --users ada,grace
//	shoutbox-mock --listen :8431 --fail-status 403 --fail-count 1
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/forumchat/shoutbox/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		listen      string
		users       string
		failStatus  int
		failCount   int
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("shoutbox-mock", pflag.ContinueOnError)
	flagSet.StringVar(&listen, "listen", ":8431", "listen address")
	flagSet.StringVar(&users, "users", "", "comma-separated names to seed the who-is-online list")
	flagSet.IntVar(&failStatus, "fail-status", 0, "HTTP status for injected failures (0 disables)")
	flagSet.IntVar(&failCount, "fail-count", 1, "number of requests that answer with --fail-status")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	if showVersion {
		version.Print("shoutbox-mock")
		return nil
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var seeded []string
	for _, name := range strings.Split(users, ",") {
		if name = strings.TrimSpace(name); name != "" {
			seeded = append(seeded, name)
		}
	}

	server := newChatServer(seeded, logger)
	if failStatus != 0 {
		server.injectFailures(failStatus, failCount)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:    listen,
		Handler: server.handler(),
	}
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- httpServer.ListenAndServe()
	}()
	logger.Info("mock chat server running", "listen", listen, "users", seeded)

	select {
	case err := <-serveDone:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-serveDone; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
