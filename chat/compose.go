// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// SubmitResult is the explicit outcome of a submit: exactly one of
// [Sent], [RolledBack], or [Rejected]. Callers switch on the concrete
// type instead of chaining completion callbacks.
type SubmitResult interface {
	submitResult()
}

// Sent means the message was accepted by the server. The confirmed
// message arrives back through the outcome's add section with its
// server-assigned ID and timestamp, so the sender sees the server's
// version, not a client-side guess.
type Sent struct {
	Outcome Outcome
}

// RolledBack means the send failed and the draft was restored verbatim
// so no user input is lost. Submission is re-enabled.
type RolledBack struct {
	// Draft is the restored draft text.
	Draft string
	// Err is the transport or server error that caused the rollback.
	Err error
}

// Rejected means the submit failed local validation. No request was
// sent and no state changed.
type Rejected struct {
	// Err is ErrEmptyMessage, ErrMessageTooLong, or ErrSubmitInFlight.
	Err error
}

func (Sent) submitResult()       {}
func (RolledBack) submitResult() {}
func (Rejected) submitResult()   {}

// ComposeConfig holds configuration for creating a ComposeController.
type ComposeConfig struct {
	// Transport issues the combined add+refresh request. Required.
	Transport Transport

	// Session is paused while a send is in flight and reset on
	// success. Required.
	Session *SessionController

	// Reconciler routes the send response through the normal add
	// path. Required.
	Reconciler *Reconciler

	// Ledger supplies the last-seen message ID for the combined
	// request. Required.
	Ledger *Ledger

	// MaxMessageLength rejects over-length messages locally. Zero
	// means unlimited.
	MaxMessageLength int

	// MultiLine preserves whitespace runs in drafts. When false the
	// input is single-line and whitespace runs collapse to one space.
	MultiLine bool

	// RememberedColour returns the user's remembered message colour
	// (hex digits without "#"), or empty for none. Outgoing messages
	// without their own colour markup are wrapped in it. Nil disables
	// colour wrapping.
	RememberedColour func() string

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// ComposeController manages the outgoing message lifecycle over a
// single in-flight slot: validate, optimistic clear, send, then
// confirm or roll back. At most one submit is outstanding at a time;
// the submit path is disabled for the entire in-flight duration,
// eliminating double-submit races.
//
// ComposeController is not safe for concurrent use; the owning Widget
// serializes access.
type ComposeController struct {
	transport        Transport
	session          *SessionController
	reconciler       *Reconciler
	ledger           *Ledger
	maxMessageLength int
	multiLine        bool
	rememberedColour func() string
	logger           *slog.Logger

	draft    string
	inFlight bool
}

// NewComposeController creates a compose controller.
func NewComposeController(config ComposeConfig) (*ComposeController, error) {
	if config.Transport == nil {
		return nil, fmt.Errorf("chat: Transport is required")
	}
	if config.Session == nil || config.Reconciler == nil || config.Ledger == nil {
		return nil, fmt.Errorf("chat: Session, Reconciler, and Ledger are required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ComposeController{
		transport:        config.Transport,
		session:          config.Session,
		reconciler:       config.Reconciler,
		ledger:           config.Ledger,
		maxMessageLength: config.MaxMessageLength,
		multiLine:        config.MultiLine,
		rememberedColour: config.RememberedColour,
		logger:           logger,
	}, nil
}

// Draft returns the current draft text. After a rollback it holds the
// restored original.
func (c *ComposeController) Draft() string { return c.draft }

// SetDraft replaces the draft text.
func (c *ComposeController) SetDraft(text string) { c.draft = text }

// InFlight reports whether a submit is outstanding. The UI disables
// its submit control while this is true.
func (c *ComposeController) InFlight() bool { return c.inFlight }

// Submit validates text and sends it as a combined add+refresh
// exchange. The draft is cleared optimistically before the request; on
// failure it is restored verbatim. While the send is in flight the
// session's polling cadence is paused (its countdown keeps running)
// so the response reconciles without racing a scheduled poll.
func (c *ComposeController) Submit(ctx context.Context, text string) SubmitResult {
	if c.inFlight {
		return Rejected{Err: ErrSubmitInFlight}
	}

	normalized := NormalizeMessage(text, c.multiLine)
	if normalized == "" {
		return Rejected{Err: ErrEmptyMessage}
	}
	if c.maxMessageLength > 0 && len([]rune(normalized)) > c.maxMessageLength {
		return Rejected{Err: ErrMessageTooLong}
	}

	c.inFlight = true
	defer func() { c.inFlight = false }()

	c.session.Pause()

	outgoing := normalized
	if c.rememberedColour != nil {
		if colour := c.rememberedColour(); colour != "" && !strings.Contains(outgoing, "[color=") {
			outgoing = "[color=#" + colour + "] " + outgoing + " [/color]"
		}
	}

	// Optimistic clear: the input empties immediately so the user can
	// keep typing while the send is in flight.
	c.draft = ""

	payload, err := c.transport.Add(ctx, AddRequest{
		Last:    c.ledger.Last(),
		Message: outgoing,
		Cursor:  c.reconciler.Cursor(),
	})
	if err != nil {
		c.draft = normalized
		c.logger.Warn("send failed, draft restored", "error", err)
		return RolledBack{Draft: normalized, Err: err}
	}

	outcome := c.reconciler.Apply(payload)
	c.session.Reset()
	return Sent{Outcome: outcome}
}

// whitespaceRun matches runs of whitespace for single-line
// normalization.
var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeMessage prepares draft text for validation and sending:
// single-line inputs collapse whitespace runs to a single space, and
// surrounding whitespace is always trimmed.
func NormalizeMessage(text string, multiLine bool) string {
	if !multiLine {
		text = whitespaceRun.ReplaceAllString(text, " ")
	}
	return strings.TrimSpace(text)
}

// EnterSubmits decides whether an Enter keypress submits the draft or
// inserts a line break. Single-line inputs always submit. For
// multi-line inputs, Enter submits when the stored line-break
// preference is unset, and holding Ctrl (or Cmd) flips the rule.
func EnterSubmits(ctrlHeld, linebreakPreferred, multiLine bool) bool {
	return !multiLine || !ctrlHeld == !linebreakPreferred
}
