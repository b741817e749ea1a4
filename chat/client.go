// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/forumchat/shoutbox/lib/netutil"
)

// maxRequestTimeout is the ceiling on any single request's timeout.
// Poll-class requests use min(poll interval, this ceiling) so a stalled
// request can never delay the next scheduled poll cycle indefinitely.
const maxRequestTimeout = 10 * time.Second

// TransportConfig holds configuration for creating an HTTPTransport.
type TransportConfig struct {
	// BaseURL is the base URL of the chat endpoints
	// (e.g., "https://forum.example.net/mchat"). Operation names are
	// appended as path segments.
	BaseURL string

	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client

	// RequestTimeout bounds each request. Values above the fixed
	// ceiling are capped; zero means the ceiling applies directly.
	RequestTimeout time.Duration

	// AuthFields are merged into the body of state-changing requests
	// (add, edit, del): the page's hidden form fields, typically a
	// CSRF token.
	AuthFields map[string]string

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// RequestEvent is the mutable context passed to request hooks before a
// request is sent. Hooks may add or rewrite body fields, or set Cancel
// to suppress the request entirely (the operation then fails with
// ErrRequestCancelled).
type RequestEvent struct {
	// Op is the operation about to be issued.
	Op Op
	// Fields is the request body. Mutations are sent to the server.
	Fields map[string]any
	// Cancel suppresses the request when set.
	Cancel bool
}

// RequestHook is a pre-processing callback invoked with every outgoing
// request.
type RequestHook func(*RequestEvent)

// HTTPTransport implements Transport over JSON-in-POST exchanges
// against named operation endpoints.
type HTTPTransport struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	authFields map[string]string
	logger     *slog.Logger

	beforeRequest []RequestHook
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a transport for the chat endpoints under
// config.BaseURL.
func NewHTTPTransport(config TransportConfig) (*HTTPTransport, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("chat: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("chat: invalid BaseURL %q: %w", config.BaseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	timeout := config.RequestTimeout
	if timeout <= 0 || timeout > maxRequestTimeout {
		timeout = maxRequestTimeout
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPTransport{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		timeout:    timeout,
		authFields: config.AuthFields,
		logger:     logger,
	}, nil
}

// OnBeforeRequest registers a hook invoked with every outgoing request
// before it is sent. Hooks run in registration order.
func (t *HTTPTransport) OnBeforeRequest(hook RequestHook) {
	t.beforeRequest = append(t.beforeRequest, hook)
}

// CloseIdleConnections closes idle HTTP connections in the underlying
// transport's connection pool. Call this after a network disruption to
// force subsequent requests onto fresh TCP connections.
func (t *HTTPTransport) CloseIdleConnections() {
	t.httpClient.CloseIdleConnections()
}

// Refresh implements Transport.
func (t *HTTPTransport) Refresh(ctx context.Context, request RefreshRequest) (*SyncPayload, error) {
	fields := map[string]any{"last": request.Last}
	if request.Cursor != "" {
		fields["log"] = request.Cursor
	}
	return t.do(ctx, OpRefresh, fields, false)
}

// Add implements Transport. The new message and the standard poll
// parameters travel in one request, so the sent message arrives back
// through the normal add path with its server-assigned ID.
func (t *HTTPTransport) Add(ctx context.Context, request AddRequest) (*SyncPayload, error) {
	fields := map[string]any{
		"last":    request.Last,
		"message": request.Message,
	}
	if request.Cursor != "" {
		fields["log"] = request.Cursor
	}
	return t.do(ctx, OpAdd, fields, true)
}

// Edit implements Transport.
func (t *HTTPTransport) Edit(ctx context.Context, request EditRequest) (*SyncPayload, error) {
	fields := map[string]any{
		"message_id": request.MessageID,
		"message":    request.Message,
	}
	return t.do(ctx, OpEdit, fields, true)
}

// Delete implements Transport.
func (t *HTTPTransport) Delete(ctx context.Context, request DeleteRequest) (*SyncPayload, error) {
	fields := map[string]any{"message_id": request.MessageID}
	return t.do(ctx, OpDelete, fields, true)
}

// Whois implements Transport.
func (t *HTTPTransport) Whois(ctx context.Context) (*SyncPayload, error) {
	return t.do(ctx, OpWhois, map[string]any{}, false)
}

// do performs one operation exchange: hooks, auth-field merge, POST,
// error mapping, and discriminator validation.
func (t *HTTPTransport) do(ctx context.Context, op Op, fields map[string]any, withAuth bool) (*SyncPayload, error) {
	if withAuth {
		for name, value := range t.authFields {
			fields[name] = value
		}
	}

	event := RequestEvent{Op: op, Fields: fields}
	for _, hook := range t.beforeRequest {
		hook(&event)
	}
	if event.Cancel {
		return nil, fmt.Errorf("%s request: %w", op, ErrRequestCancelled)
	}

	encoded, err := json.Marshal(event.Fields)
	if err != nil {
		return nil, fmt.Errorf("chat: failed to encode %s request: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	requestURL := t.baseURL + "/" + string(op)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("chat: failed to create %s request: %w", op, err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := t.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("chat: %s request failed: %w", op, err)
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("chat: failed to read %s response body: %w", op, err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		// All chat error responses use the same JSON shape. A non-JSON
		// error body still maps to a ServerError so callers can
		// classify by status code.
		serverErr := &ServerError{StatusCode: response.StatusCode}
		if jsonErr := json.Unmarshal(body, serverErr); jsonErr != nil || serverErr.Message == "" {
			serverErr.Message = strings.TrimSpace(string(body))
			if serverErr.Message == "" {
				serverErr.Message = http.StatusText(response.StatusCode)
			}
		}
		return nil, serverErr
	}

	return decodePayload(op, body)
}

// decodePayload validates the operation discriminator and decodes the
// payload sections. A response without its operation's discriminator
// field is malformed: the server answered, but not with the shape this
// operation produces.
func decodePayload(op Op, body []byte) (*SyncPayload, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ParseError{Op: op, Err: err}
	}
	if _, ok := raw[string(op)]; !ok {
		return nil, &ParseError{Op: op, Err: fmt.Errorf("missing %q discriminator", op)}
	}

	var payload SyncPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &ParseError{Op: op, Err: err}
	}
	return &payload, nil
}
