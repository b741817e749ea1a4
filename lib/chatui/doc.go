// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

// Package chatui is the terminal front-end for the chat widget: a
// bubbletea model rendering the message ledger in a viewport, a
// compose input, a who-is-online line, and a status indicator.
//
// The widget runs on its own goroutine; its side effects arrive
// through a channel-backed Notifier (see Feed) and are delivered into
// the bubbletea message loop as events. Blocking operations (submit,
// manual refresh) run as commands so the UI never stalls on the
// network.
package chatui
