// Copyright 2026 The Shoutbox Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"
)

// storedMessage is one chat message held by the mock.
type storedMessage struct {
	ID          int    `json:"id"`
	Author      string `json:"author"`
	Rendered    string `json:"rendered"`
	Posted      int64  `json:"posted"`
	EditableFor int64  `json:"editable_for,omitempty"`
}

// opEntry is one oplog record. The log cursor returned to clients is
// the sequence number of the last entry they have seen; incremental
// refreshes replay everything after it.
type opEntry struct {
	seq     int
	kind    string // "add", "edit", "del"
	message storedMessage
	id      int
}

// chatServer is an in-memory chat backend speaking the widget's wire
// protocol: JSON-in-POST to named operation endpoints, each response
// carrying its operation's discriminator field.
type chatServer struct {
	logger *slog.Logger

	mu       sync.Mutex
	nextID   int
	nextSeq  int
	messages map[int]storedMessage
	order    []int
	oplog    []opEntry
	users    []string

	// Fault injection: the next failRemaining requests answer with
	// failStatus.
	failStatus    int
	failRemaining int
}

func newChatServer(users []string, logger *slog.Logger) *chatServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &chatServer{
		logger:   logger,
		nextID:   1,
		messages: make(map[int]storedMessage),
		users:    slices.Clone(users),
	}
}

// handler returns the HTTP handler for all operation endpoints.
func (s *chatServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /refresh", s.handleRefresh)
	mux.HandleFunc("POST /add", s.handleAdd)
	mux.HandleFunc("POST /edit", s.handleEdit)
	mux.HandleFunc("POST /del", s.handleDelete)
	mux.HandleFunc("POST /whois", s.handleWhois)
	return mux
}

// injectFailures makes the next count requests answer with status.
func (s *chatServer) injectFailures(status, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
	s.failRemaining = count
}

// maybeFail consumes one injected failure. Caller holds s.mu.
func (s *chatServer) maybeFailLocked(w http.ResponseWriter) bool {
	if s.failRemaining <= 0 {
		return false
	}
	s.failRemaining--
	writeError(w, s.failStatus, "injected failure")
	return true
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("malformed request body: %v", err))
		return nil, false
	}
	return fields, true
}

// user extracts the authenticated user from the request fields, or
// writes a 403 and returns false. The real server checks the forum
// session; the mock just requires the field.
func requireUser(w http.ResponseWriter, fields map[string]any) (string, bool) {
	user, _ := fields["user"].(string)
	if user == "" {
		writeError(w, http.StatusForbidden, "You are not authorised to post in this chat.")
		return "", false
	}
	return user, true
}

func fieldInt(fields map[string]any, name string) int {
	value, _ := fields[name].(float64)
	return int(value)
}

// sync builds the incremental response sections for a client at the
// given position. cursor == -1 means no log position: fall back to a
// last-seen diff serving only additions. Caller holds s.mu.
func (s *chatServer) syncLocked(last, cursor int) map[string]any {
	response := make(map[string]any)

	var added []storedMessage
	var edited []storedMessage
	var deleted []int

	if cursor >= 0 {
		for _, entry := range s.oplog {
			if entry.seq <= cursor {
				continue
			}
			switch entry.kind {
			case "add":
				added = append(added, entry.message)
			case "edit":
				edited = append(edited, entry.message)
			case "del":
				deleted = append(deleted, entry.id)
			}
		}
	} else {
		for _, id := range s.order {
			if id > last {
				added = append(added, s.messages[id])
			}
		}
	}

	if len(added) > 0 {
		response["add"] = added
	}
	if len(edited) > 0 {
		response["edit"] = edited
	}
	if len(deleted) > 0 {
		response["del"] = deleted
	}
	response["log"] = strconv.Itoa(s.nextSeq)
	return response
}

// writeResponse encodes response, ensuring the operation's
// discriminator field is present. When the response already carries a
// section under the operation's name (add, edit, del, whois) that
// section is the discriminator.
func (s *chatServer) writeResponse(w http.ResponseWriter, op string, response map[string]any) {
	if _, exists := response[op]; !exists {
		response[op] = true
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("encoding response", "op", op, "error", err)
	}
}

// parseCursor resolves the client's log field: absent means no
// position (-1), a number within range is that position, anything
// else is stale and gets a 400.
func (s *chatServer) parseCursorLocked(w http.ResponseWriter, fields map[string]any) (int, bool) {
	raw, present := fields["log"]
	if !present {
		return -1, true
	}
	text, _ := raw.(string)
	cursor, err := strconv.Atoi(text)
	if err != nil || cursor < 0 || cursor > s.nextSeq {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("stale or invalid log position %q", text))
		return 0, false
	}
	return cursor, true
}

func (s *chatServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maybeFailLocked(w) {
		return
	}
	cursor, ok := s.parseCursorLocked(w, fields)
	if !ok {
		return
	}
	s.writeResponse(w, "refresh", s.syncLocked(fieldInt(fields, "last"), cursor))
}

func (s *chatServer) handleAdd(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maybeFailLocked(w) {
		return
	}
	user, ok := requireUser(w, fields)
	if !ok {
		return
	}
	text, _ := fields["message"].(string)
	if text == "" {
		writeError(w, http.StatusBadRequest, "message is empty")
		return
	}
	cursor, ok := s.parseCursorLocked(w, fields)
	if !ok {
		return
	}

	message := storedMessage{
		ID:          s.nextID,
		Author:      user,
		Rendered:    text,
		Posted:      time.Now().Unix(),
		EditableFor: 300,
	}
	s.nextID++
	s.messages[message.ID] = message
	s.order = append(s.order, message.ID)
	s.nextSeq++
	s.oplog = append(s.oplog, opEntry{seq: s.nextSeq, kind: "add", message: message})
	if !slices.Contains(s.users, user) {
		s.users = append(s.users, user)
	}
	s.logger.Info("message added", "id", message.ID, "author", user)

	// The add response doubles as a refresh, so the new message (and
	// anything else the client missed) arrives in the same exchange.
	s.writeResponse(w, "add", s.syncLocked(fieldInt(fields, "last"), cursor))
}

func (s *chatServer) handleEdit(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maybeFailLocked(w) {
		return
	}
	if _, ok := requireUser(w, fields); !ok {
		return
	}
	id := fieldInt(fields, "message_id")
	message, exists := s.messages[id]
	if !exists {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no message %d", id))
		return
	}
	text, _ := fields["message"].(string)
	message.Rendered = text
	s.messages[id] = message
	s.nextSeq++
	s.oplog = append(s.oplog, opEntry{seq: s.nextSeq, kind: "edit", message: message})

	response := map[string]any{
		"edit": []storedMessage{message},
		"log":  strconv.Itoa(s.nextSeq),
	}
	s.writeResponse(w, "edit", response)
}

func (s *chatServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maybeFailLocked(w) {
		return
	}
	if _, ok := requireUser(w, fields); !ok {
		return
	}
	id := fieldInt(fields, "message_id")
	if _, exists := s.messages[id]; !exists {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no message %d", id))
		return
	}
	delete(s.messages, id)
	s.order = slices.DeleteFunc(s.order, func(existing int) bool { return existing == id })
	s.nextSeq++
	s.oplog = append(s.oplog, opEntry{seq: s.nextSeq, kind: "del", id: id})

	response := map[string]any{
		"del": []int{id},
		"log": strconv.Itoa(s.nextSeq),
	}
	s.writeResponse(w, "del", response)
}

func (s *chatServer) handleWhois(w http.ResponseWriter, r *http.Request) {
	if _, ok := decodeFields(w, r); !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maybeFailLocked(w) {
		return
	}
	rendered := fmt.Sprintf("%d users online", len(s.users))
	response := map[string]any{
		"whois": map[string]any{
			"rendered": rendered,
			"users":    s.users,
		},
	}
	s.writeResponse(w, "whois", response)
}
